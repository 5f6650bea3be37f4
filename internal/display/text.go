package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/park285/nuclear-chess/internal/game"
)

var (
	lightText     = color.New(color.BgHiYellow, color.FgBlack)
	darkText      = color.New(color.BgYellow, color.FgBlack)
	highlightText = color.New(color.BgHiGreen, color.FgBlack)
	panelText     = color.New(color.FgHiWhite)
	hintText      = color.New(color.FgHiBlack)
	buttonText    = color.New(color.FgCyan)
	buttonFocus   = color.New(color.BgCyan, color.FgBlack)
)

// WriteText dumps f as ANSI-coloured text, one board row per line with the
// side panel alongside. Colour is dropped when color.NoColor is set.
func WriteText(w io.Writer, f Frame) error {
	var b strings.Builder
	if f.InMenu {
		panelText.Fprintln(&b, f.Title)
		for i, it := range f.Menu {
			if i == f.MenuSel {
				buttonFocus.Fprintf(&b, "> %s", it.Label)
				b.WriteString("\n")
				continue
			}
			fmt.Fprintf(&b, "  %s\n", it.Label)
		}
	} else {
		v := f.Game
		for row := 0; row < 8; row++ {
			for col := 0; col < 8; col++ {
				cell := v.Board[row][col]
				c := lightText
				switch cell.Tone {
				case game.ToneDark:
					c = darkText
				case game.ToneHighlight:
					c = highlightText
				}
				c.Fprintf(&b, " %c", cell.Glyph)
			}
			b.WriteString("  ")
			switch {
			case row == 0:
				panelText.Fprint(&b, v.Times[0])
			case row == 7:
				panelText.Fprint(&b, v.Times[1])
			case row-1 < game.HistoryLines:
				hintText.Fprint(&b, historyLine(v.History[row-1]))
			}
			b.WriteString("\n")
		}
		if v.Button != "" {
			if v.ButtonFocused {
				buttonFocus.Fprintf(&b, "[ %s ]", v.Button)
			} else {
				buttonText.Fprintf(&b, "[ %s ]", v.Button)
			}
			b.WriteString("\n")
		}
	}
	if f.Status != "" {
		hintText.Fprintln(&b, f.Status)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
