package mirror

import (
	"time"

	"github.com/park285/nuclear-chess/internal/display"
	"github.com/park285/nuclear-chess/internal/game"
	"github.com/park285/nuclear-chess/pkg/viewdto"
)

// ToDTO converts a display frame to its wire form.
func ToDTO(f display.Frame, now time.Time) viewdto.Frame {
	v := f.Game
	out := viewdto.Frame{
		Rows:            v.Board.Rows(),
		Times:           v.Times,
		History:         make([][2]string, 0, len(v.History)),
		Button:          v.Button,
		ButtonFocused:   v.ButtonFocused,
		HumanPlaysBlack: v.HumanPlaysBlack,
		State:           v.State.String(),
		Ply:             v.Ply,
		Over:            v.Over,
		Active:          v.Active,
		Status:          f.Status,
		UpdatedAt:       now.UTC(),
	}
	for row := 0; row < 8; row++ {
		var tones [8]byte
		for col := 0; col < 8; col++ {
			switch v.Board[row][col].Tone {
			case game.ToneDark:
				tones[col] = viewdto.ToneDark
			case game.ToneHighlight:
				tones[col] = viewdto.ToneHighlight
			default:
				tones[col] = viewdto.ToneLight
			}
		}
		out.Tones[row] = string(tones[:])
	}
	for _, pair := range v.History {
		if pair[0] == "" && pair[1] == "" {
			break
		}
		out.History = append(out.History, pair)
	}
	if f.InMenu {
		for i, it := range f.Menu {
			out.Menu = append(out.Menu, viewdto.MenuOption{Label: it.Label, Selected: i == f.MenuSel})
		}
	}
	return out
}
