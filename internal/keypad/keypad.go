// Package keypad turns terminal and remote input into game keys.
package keypad

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/park285/nuclear-chess/internal/game"
	"github.com/park285/nuclear-chess/pkg/viewdto"
)

// FromTcell maps a terminal key event. Arrows, vi keys and WASD move;
// Enter and space select; Esc, Backspace and q go back.
func FromTcell(ev *tcell.EventKey) (game.Key, bool) {
	switch ev.Key() {
	case tcell.KeyUp, tcell.KeyLeft:
		return game.KeyBackward, true
	case tcell.KeyDown, tcell.KeyRight:
		return game.KeyForward, true
	case tcell.KeyEnter:
		return game.KeySelect, true
	case tcell.KeyEscape, tcell.KeyBackspace, tcell.KeyBackspace2:
		return game.KeyBack, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'k', 'w', 'h', 'a':
			return game.KeyBackward, true
		case 'j', 's', 'l', 'd':
			return game.KeyForward, true
		case ' ':
			return game.KeySelect, true
		case 'q':
			return game.KeyBack, true
		}
	}
	return 0, false
}

// FromName maps a remote key name.
func FromName(name string) (game.Key, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case viewdto.KeyUp:
		return game.KeyBackward, true
	case viewdto.KeyDown:
		return game.KeyForward, true
	case viewdto.KeySelect:
		return game.KeySelect, true
	case viewdto.KeyBack:
		return game.KeyBack, true
	}
	return 0, false
}

// Send delivers k without blocking; it reports false when the queue is full.
func Send(out chan<- game.Key, k game.Key) bool {
	select {
	case out <- k:
		return true
	default:
		return false
	}
}
