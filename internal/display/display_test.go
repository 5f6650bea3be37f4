package display

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/park285/nuclear-chess/internal/game"
	"github.com/park285/nuclear-chess/internal/menu"
)

func sampleView() game.View {
	var v game.View
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			v.Board[row][col] = game.Cell{Glyph: ' ', Tone: game.Tone((row + col) & 1)}
		}
	}
	v.Board[0][0] = game.Cell{Glyph: 'r', Tone: game.ToneLight}
	v.Board[7][4] = game.Cell{Glyph: 'K', Tone: game.ToneHighlight}
	v.Rows = v.Board.Rows()
	v.Times = [2]string{"00:12", "01:05"}
	v.History[0] = [2]string{"e2-e4", "e7-e5"}
	v.History[1] = [2]string{"g1-f3", ""}
	v.Button = "Undo"
	v.ButtonFocused = true
	return v
}

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	s.SetSize(40, 16)
	t.Cleanup(s.Fini)
	return s
}

func screenLine(s tcell.Screen, y, from, to int) string {
	var b strings.Builder
	for x := from; x < to; x++ {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestDrawFrame_Game(t *testing.T) {
	s := newSimScreen(t)
	DrawFrame(s, 0, 0, Frame{Game: sampleView(), Status: "Your move"})

	if r, _, style, _ := s.GetContent(0, 0); r != '♜' {
		t.Fatalf("a8 rune = %q", r)
	} else if _, bg, _ := style.Decompose(); bg != TermColors.Light {
		t.Fatalf("a8 background = %v", bg)
	}
	if r, _, style, _ := s.GetContent(8, 7); r != '♔' {
		t.Fatalf("e1 rune = %q", r)
	} else if _, bg, _ := style.Decompose(); bg != TermColors.Highlight {
		t.Fatalf("highlighted square background = %v", bg)
	}
	if got := screenLine(s, 0, panelX, panelX+5); got != "00:12" {
		t.Fatalf("upper time = %q", got)
	}
	if got := screenLine(s, 1, panelX, panelX+11); got != "e2-e4 e7-e5" {
		t.Fatalf("history line = %q", got)
	}
	if got := screenLine(s, 2, panelX, panelX+5); got != "g1-f3" {
		t.Fatalf("history line = %q", got)
	}
	if got := screenLine(s, 7, panelX, panelX+5); got != "01:05" {
		t.Fatalf("lower time = %q", got)
	}
	if got := screenLine(s, buttonY, 0, 8); got != "[ Undo ]" {
		t.Fatalf("button = %q", got)
	}
	if got := screenLine(s, statusY, 0, 9); got != "Your move" {
		t.Fatalf("status = %q", got)
	}
}

func TestDrawFrame_Menu(t *testing.T) {
	s := newSimScreen(t)
	f := Frame{
		InMenu:  true,
		Title:   "Nuclear Chess",
		Menu:    []menu.Item{{Action: menu.ActionNewWhite, Label: "New game (white)"}, {Action: menu.ActionQuit, Label: "Quit"}},
		MenuSel: 1,
	}
	DrawFrame(s, 0, 0, f)

	if got := screenLine(s, 0, 0, 13); got != "Nuclear Chess" {
		t.Fatalf("title = %q", got)
	}
	if got := screenLine(s, menuTopY+1, 0, 6); got != "▸ Quit" {
		t.Fatalf("selected entry = %q", got)
	}
	_, _, style, _ := s.GetContent(2, menuTopY+1)
	if _, bg, _ := style.Decompose(); bg != TermColors.Selected {
		t.Fatalf("selected entry must be highlighted")
	}
}

func TestWriteText(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	if err := WriteText(&buf, Frame{Game: sampleView(), Status: "Thinking..."}); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], " r") || !strings.HasSuffix(lines[0], "00:12") {
		t.Fatalf("first row = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "e2-e4 e7-e5") || !strings.HasSuffix(lines[7], "01:05") {
		t.Fatalf("panel mismatch:\n%s", buf.String())
	}
	if lines[8] != "[ Undo ]" || lines[9] != "Thinking..." {
		t.Fatalf("footer = %q %q", lines[8], lines[9])
	}
}

func TestRenderPNG(t *testing.T) {
	for _, f := range []Frame{
		{Game: sampleView(), Status: "Your move"},
		{InMenu: true, Title: "Menu", Menu: []menu.Item{{Label: "Quit"}}},
	} {
		data, err := RenderPNG(f)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if img.Bounds() != image.Rect(0, 0, FrameWidth, FrameHeight) {
			t.Fatalf("bounds = %v", img.Bounds())
		}
	}
}

func TestButtonImageFocus(t *testing.T) {
	filled, err := buttonImage(true)
	if err != nil {
		t.Fatalf("focused: %v", err)
	}
	outline, err := buttonImage(false)
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	cx, cy := buttonWidth/2, buttonHeight/2
	if _, _, _, a := filled.At(cx, cy).RGBA(); a == 0 {
		t.Fatalf("focused button must be filled")
	}
	if _, _, _, a := outline.At(cx, cy).RGBA(); a != 0 {
		t.Fatalf("unfocused button must be hollow")
	}
}
