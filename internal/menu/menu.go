package menu

import (
	"github.com/park285/nuclear-chess/internal/game"
	"github.com/park285/nuclear-chess/internal/msgcat"
)

type Action int

const (
	ActionNone Action = iota
	ActionResume
	ActionNewWhite
	ActionNewBlack
	ActionSkill
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionResume:
		return "resume"
	case ActionNewWhite:
		return "new_white"
	case ActionNewBlack:
		return "new_black"
	case ActionSkill:
		return "skill"
	case ActionQuit:
		return "quit"
	default:
		return "none"
	}
}

// VisibleLines is how many entries fit on screen at once.
const VisibleLines = 4

type Item struct {
	Action Action
	Label  string
}

// Menu is the host menu shown while no game is active.
type Menu struct {
	cat       *msgcat.Catalog
	items     []Item
	index     int
	start     int
	canResume bool
}

func New(cat *msgcat.Catalog) *Menu {
	return &Menu{cat: cat}
}

// Refresh rebuilds the entries. Resume is offered only for a game in
// progress; the selection is kept on the same action when possible.
func (m *Menu) Refresh(canResume bool, skill int) {
	prev := ActionNone
	if m.index < len(m.items) {
		prev = m.items[m.index].Action
	}

	m.canResume = canResume
	m.items = m.items[:0]
	if canResume {
		m.items = append(m.items, Item{ActionResume, m.cat.Text("menu.resume", "Resume game", nil)})
	}
	m.items = append(m.items,
		Item{ActionNewWhite, m.cat.Text("menu.new_white", "New game (white)", nil)},
		Item{ActionNewBlack, m.cat.Text("menu.new_black", "New game (black)", nil)},
		Item{ActionSkill, m.cat.Text("menu.skill", "Skill level", map[string]any{"Level": skill + 1})},
		Item{ActionQuit, m.cat.Text("menu.quit", "Quit", nil)},
	)

	m.index = 0
	for i, it := range m.items {
		if it.Action == prev {
			m.index = i
		}
	}
	m.scroll()
}

// HandleKey moves the selection or returns the chosen action.
func (m *Menu) HandleKey(k game.Key) Action {
	if len(m.items) == 0 {
		return ActionNone
	}
	switch k {
	case game.KeyBackward:
		m.index = (m.index + len(m.items) - 1) % len(m.items)
	case game.KeyForward:
		m.index = (m.index + 1) % len(m.items)
	case game.KeySelect:
		return m.items[m.index].Action
	case game.KeyBack:
		if m.canResume {
			return ActionResume
		}
	}
	m.scroll()
	return ActionNone
}

func (m *Menu) scroll() {
	if m.index < m.start {
		m.start = m.index
	}
	if m.index >= m.start+VisibleLines {
		m.start = m.index - VisibleLines + 1
	}
	if m.start < 0 {
		m.start = 0
	}
}

func (m *Menu) Items() []Item { return append([]Item(nil), m.items...) }

func (m *Menu) Selected() int { return m.index }

// Window returns the visible entries and the selected position within them.
func (m *Menu) Window() ([]Item, int) {
	end := m.start + VisibleLines
	if end > len(m.items) {
		end = len(m.items)
	}
	return append([]Item(nil), m.items[m.start:end]...), m.index - m.start
}
