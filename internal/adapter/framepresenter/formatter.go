package framepresenter

import (
	"strings"

	"github.com/park285/nuclear-chess/internal/display"
	"github.com/park285/nuclear-chess/internal/game"
	"github.com/park285/nuclear-chess/internal/menu"
	"github.com/park285/nuclear-chess/internal/msgcat"
)

// Formatter turns session views and menu state into display frames, with
// status lines taken from the message catalog.
type Formatter struct {
	cat *msgcat.Catalog
}

func NewFormatter(cat *msgcat.Catalog) *Formatter {
	return &Formatter{cat: cat}
}

// Status is the line shown under the clocks while a game is running.
func (f *Formatter) Status(v game.View, result string) string {
	switch {
	case v.Over && strings.TrimSpace(result) != "":
		return result
	case v.Over:
		return f.cat.Text("result.over", "Game over", nil)
	case !v.Active:
		return f.cat.Text("status.paused", "Paused", nil)
	case v.State == game.StatePlayMove || v.State == game.StateUndoMove:
		return f.cat.Text("status.thinking", "Thinking...", nil)
	default:
		return f.cat.Text("status.your_move", "Your move", nil)
	}
}

// Result describes a finished game. result is "1-0", "0-1", "1/2-1/2" or
// "*"; method is the engine's termination name.
func (f *Formatter) Result(result, method string) string {
	method = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(method)), "_", " ")
	switch strings.TrimSpace(result) {
	case "1-0", "0-1":
		winner := f.cat.Text("side.white", "White", nil)
		if result == "0-1" {
			winner = f.cat.Text("side.black", "Black", nil)
		}
		if method == "checkmate" {
			return f.cat.Text("result.checkmate", winner+" wins by checkmate", map[string]any{"Winner": winner})
		}
		return winner + " wins"
	case "1/2-1/2":
		if method == "stalemate" {
			return f.cat.Text("result.stalemate", "Draw by stalemate", nil)
		}
		return f.cat.Text("result.draw", "Draw ("+method+")", map[string]any{"Method": method})
	default:
		return f.cat.Text("result.over", "Game over", nil)
	}
}

func (f *Formatter) GameFrame(v game.View, result string) display.Frame {
	return display.Frame{Game: v, Status: f.Status(v, result)}
}

func (f *Formatter) MenuFrame(m *menu.Menu, status string) display.Frame {
	items, sel := m.Window()
	return display.Frame{
		InMenu:  true,
		Menu:    items,
		MenuSel: sel,
		Title:   f.cat.Text("menu.title", "Nuclear Chess", nil),
		Status:  status,
	}
}
