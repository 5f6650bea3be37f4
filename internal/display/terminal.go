package display

import (
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/park285/nuclear-chess/internal/game"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

var TermColors = struct {
	Light     tcell.Color
	Dark      tcell.Color
	Highlight tcell.Color
	Piece     tcell.Color
	Text      tcell.Color
	Hint      tcell.Color
	Selected  tcell.Color
	Screen    tcell.Color
}{
	Light:     tcell.NewRGBColor(233, 207, 163),
	Dark:      tcell.NewRGBColor(187, 136, 96),
	Highlight: tcell.NewRGBColor(255, 228, 120),
	Piece:     tcell.ColorBlack,
	Text:      tcell.PaletteColor(250),
	Hint:      tcell.PaletteColor(245),
	Selected:  tcell.PaletteColor(109),
	Screen:    tcell.PaletteColor(236),
}

const (
	panelX   = 18
	buttonY  = 9
	statusY  = 11
	menuTopY = 2
)

var figurines = map[byte]rune{
	'P': '♙', 'N': '♘', 'B': '♗', 'R': '♖', 'Q': '♕', 'K': '♔',
	'p': '♟', 'n': '♞', 'b': '♝', 'r': '♜', 'q': '♛', 'k': '♚',
}

// Terminal hosts the game in a tview application drawing straight onto the
// tcell screen.
type Terminal struct {
	app    *tview.Application
	box    *tview.Box
	logger *zap.Logger

	mu    sync.Mutex
	frame Frame
}

// NewTerminal builds the application. A nil screen lets tview open the
// controlling terminal.
func NewTerminal(screen tcell.Screen, logger *zap.Logger) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Terminal{app: tview.NewApplication(), box: tview.NewBox(), logger: logger}
	if screen != nil {
		t.app.SetScreen(screen)
	}
	t.box.SetDrawFunc(func(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
		t.mu.Lock()
		f := t.frame
		t.mu.Unlock()
		DrawFrame(screen, x, y, f)
		return x, y, width, height
	})
	t.app.SetRoot(t.box, true)
	return t
}

// OnKey installs the key handler. Events it consumes are not passed on.
func (t *Terminal) OnKey(handle func(ev *tcell.EventKey) bool) {
	t.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if handle(ev) {
			return nil
		}
		return ev
	})
}

func (t *Terminal) Run() error {
	return t.app.Run()
}

func (t *Terminal) Stop() {
	t.app.Stop()
}

// Show replaces the frame and schedules a redraw. It must not be called
// before Run.
func (t *Terminal) Show(f Frame) {
	t.mu.Lock()
	t.frame = f
	t.mu.Unlock()
	t.app.QueueUpdateDraw(func() {})
}

// DrawFrame paints f with its top-left corner at (x, y).
func DrawFrame(s tcell.Screen, x, y int, f Frame) {
	if f.InMenu {
		drawMenu(s, x, y, f)
		return
	}
	drawBoard(s, x, y, f.Game)
	drawPanel(s, x+panelX, y, f.Game)
	drawButton(s, x, y+buttonY, f.Game)
	drawText(s, x, y+statusY, f.Status, tcell.StyleDefault.Foreground(TermColors.Hint))
}

func drawBoard(s tcell.Screen, x, y int, v game.View) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			cell := v.Board[row][col]
			bg := TermColors.Light
			switch cell.Tone {
			case game.ToneDark:
				bg = TermColors.Dark
			case game.ToneHighlight:
				bg = TermColors.Highlight
			}
			style := tcell.StyleDefault.Background(bg).Foreground(TermColors.Piece)
			r, ok := figurines[cell.Glyph]
			if !ok {
				r = ' '
			}
			// Two columns per square keep the board roughly square.
			s.SetContent(x+col*2, y+row, r, nil, style)
			s.SetContent(x+col*2+1, y+row, ' ', nil, style)
		}
	}
}

func drawPanel(s tcell.Screen, x, y int, v game.View) {
	text := tcell.StyleDefault.Foreground(TermColors.Text)
	hint := tcell.StyleDefault.Foreground(TermColors.Hint)

	drawText(s, x, y, v.Times[0], text)
	for i, pair := range v.History {
		drawText(s, x, y+1+i, historyLine(pair), hint)
	}
	drawText(s, x, y+7, v.Times[1], text)
}

func drawButton(s tcell.Screen, x, y int, v game.View) {
	if v.Button == "" {
		return
	}
	style := tcell.StyleDefault.Foreground(TermColors.Selected)
	if v.ButtonFocused {
		style = tcell.StyleDefault.Background(TermColors.Selected).Foreground(tcell.ColorWhite)
	}
	drawText(s, x, y, "[ "+v.Button+" ]", style)
}

func drawMenu(s tcell.Screen, x, y int, f Frame) {
	drawText(s, x, y, f.Title, tcell.StyleDefault.Foreground(TermColors.Selected).Bold(true))
	for i, it := range f.Menu {
		style := tcell.StyleDefault.Foreground(TermColors.Text)
		marker := "  "
		if i == f.MenuSel {
			style = tcell.StyleDefault.Background(TermColors.Selected).Foreground(tcell.ColorWhite)
			marker = "▸ "
		}
		drawText(s, x, y+menuTopY+i, marker+it.Label, style)
	}
	drawText(s, x, y+menuTopY+len(f.Menu)+1, f.Status, tcell.StyleDefault.Foreground(TermColors.Hint))
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		s.SetContent(col, y, r, nil, style)
		col++
	}
}
