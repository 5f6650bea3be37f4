// Package display renders session views and the host menu to a terminal,
// to ANSI text and to PNG frames.
package display

import (
	"github.com/park285/nuclear-chess/internal/game"
	"github.com/park285/nuclear-chess/internal/menu"
)

// Frame is one screenful: the game view, or the menu when InMenu is set.
type Frame struct {
	Game    game.View
	InMenu  bool
	Menu    []menu.Item
	MenuSel int
	Title   string
	Status  string
}

// historyLine joins a move pair for the side panel.
func historyLine(pair [2]string) string {
	if pair[0] == "" && pair[1] == "" {
		return ""
	}
	if pair[1] == "" {
		return pair[0]
	}
	return pair[0] + " " + pair[1]
}
