package display

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"sync"

	"github.com/park285/nuclear-chess/internal/game"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	squareSize   = 24
	boardMargin  = 4
	boardSize    = squareSize * 8
	panelOriginX = boardMargin*2 + boardSize
	panelWidth   = 112
	lineHeight   = 14
	buttonWidth  = 72
	buttonHeight = 18

	FrameWidth  = panelOriginX + panelWidth
	FrameHeight = boardSize + boardMargin*2
)

var (
	lightSquare     = color.RGBA{233, 207, 163, 255}
	darkSquare      = color.RGBA{187, 136, 96, 255}
	highlightSquare = color.RGBA{255, 228, 120, 255}
	backgroundColor = color.RGBA{28, 31, 46, 255}
	textPrimary     = color.RGBA{236, 239, 255, 255}
	textSecondary   = color.RGBA{160, 166, 190, 255}
	whitePieceColor = color.RGBA{250, 250, 250, 255}
	blackPieceColor = color.RGBA{20, 20, 20, 255}
	buttonColor     = "#6c9fbf"
)

// RenderPNG draws f into a FrameWidth x FrameHeight PNG.
func RenderPNG(f Frame) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, FrameWidth, FrameHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13}

	if f.InMenu {
		drawMenuPNG(img, drawer, f)
	} else {
		drawBoardPNG(img, drawer, f.Game)
		if err := drawPanelPNG(img, drawer, f.Game); err != nil {
			return nil, err
		}
		drawString(drawer, f.Status, panelOriginX, FrameHeight-boardMargin-2, textSecondary)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawBoardPNG(img *image.RGBA, drawer *font.Drawer, v game.View) {
	ascent := drawer.Face.Metrics().Ascent.Ceil()
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			cell := v.Board[row][col]
			clr := lightSquare
			switch cell.Tone {
			case game.ToneDark:
				clr = darkSquare
			case game.ToneHighlight:
				clr = highlightSquare
			}
			x := boardMargin + col*squareSize
			y := boardMargin + row*squareSize
			draw.Draw(img, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(clr), image.Point{}, draw.Src)

			if cell.Glyph == ' ' || cell.Glyph == 0 {
				continue
			}
			pc := blackPieceColor
			if cell.Glyph >= 'A' && cell.Glyph <= 'Z' {
				pc = whitePieceColor
				drawGlyphShadow(drawer, cell.Glyph, x, y, ascent)
			}
			drawer.Src = image.NewUniform(pc)
			drawCentered(drawer, string(cell.Glyph), x+squareSize/2, y+(squareSize+ascent)/2-1)
		}
	}
}

// drawGlyphShadow outlines white pieces so they read on light squares.
func drawGlyphShadow(drawer *font.Drawer, glyph byte, x, y, ascent int) {
	drawer.Src = image.NewUniform(blackPieceColor)
	for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		drawCentered(drawer, string(glyph), x+squareSize/2+d[0], y+(squareSize+ascent)/2-1+d[1])
	}
}

func drawPanelPNG(img *image.RGBA, drawer *font.Drawer, v game.View) error {
	x := panelOriginX
	y := boardMargin + lineHeight - 2
	drawString(drawer, v.Times[0], x, y, textPrimary)
	for i, pair := range v.History {
		drawString(drawer, historyLine(pair), x, y+lineHeight*(i+1), textSecondary)
	}
	drawString(drawer, v.Times[1], x, y+lineHeight*(game.HistoryLines+1), textPrimary)

	if v.Button == "" {
		return nil
	}
	by := y + lineHeight*(game.HistoryLines+1) + 6
	btn, err := buttonImage(v.ButtonFocused)
	if err != nil {
		return err
	}
	draw.Draw(img, image.Rect(x, by, x+buttonWidth, by+buttonHeight), btn, image.Point{}, draw.Over)

	label := textPrimary
	if v.ButtonFocused {
		label = backgroundColor
	}
	ascent := drawer.Face.Metrics().Ascent.Ceil()
	drawer.Src = image.NewUniform(label)
	drawCentered(drawer, v.Button, x+buttonWidth/2, by+(buttonHeight+ascent)/2-1)
	return nil
}

func drawMenuPNG(img *image.RGBA, drawer *font.Drawer, f Frame) {
	x := boardMargin * 2
	y := boardMargin + lineHeight
	drawString(drawer, f.Title, x, y, textPrimary)
	for i, it := range f.Menu {
		top := y + lineHeight*(i+1) + 4
		clr := textSecondary
		if i == f.MenuSel {
			draw.Draw(img, image.Rect(0, top, FrameWidth, top+lineHeight), image.NewUniform(textPrimary), image.Point{}, draw.Src)
			clr = backgroundColor
		}
		drawString(drawer, it.Label, x, top+lineHeight-3, clr)
	}
	drawString(drawer, f.Status, x, FrameHeight-boardMargin-2, textSecondary)
}

func drawString(drawer *font.Drawer, text string, x, baseline int, clr color.Color) {
	if strings.TrimSpace(text) == "" {
		return
	}
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCentered(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

var (
	buttonCache   = map[bool]image.Image{}
	buttonCacheMu sync.RWMutex
)

// buttonImage rasterises the rounded button: filled when focused, outlined
// otherwise.
func buttonImage(focused bool) (image.Image, error) {
	buttonCacheMu.RLock()
	if img, ok := buttonCache[focused]; ok {
		buttonCacheMu.RUnlock()
		return img, nil
	}
	buttonCacheMu.RUnlock()

	icon, err := oksvg.ReadIconStream(strings.NewReader(buttonSVG(focused)))
	if err != nil {
		return nil, fmt.Errorf("parse button svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(buttonWidth), float64(buttonHeight))

	img := image.NewRGBA(image.Rect(0, 0, buttonWidth, buttonHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(buttonWidth, buttonHeight, img, img.Bounds())
	raster := rasterx.NewDasher(buttonWidth, buttonHeight, scanner)
	icon.Draw(raster, 1.0)

	buttonCacheMu.Lock()
	buttonCache[focused] = img
	buttonCacheMu.Unlock()
	return img, nil
}

func buttonSVG(focused bool) string {
	fill := "none"
	if focused {
		fill = buttonColor
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d">`+
		`<rect x="1" y="1" width="%d" height="%d" rx="4" ry="4" style="fill:%s;stroke:%s;stroke-width:1.5"/>`+
		`</svg>`, buttonWidth, buttonHeight, buttonWidth-2, buttonHeight-2, fill, buttonColor)
}
