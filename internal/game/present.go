package game

// View is everything the display layer needs for one frame.
type View struct {
	Board           Board
	Rows            [8]string
	Times           [2]string // opponent on top, human at the bottom
	History         [HistoryLines][2]string
	Button          string
	ButtonFocused   bool
	HumanPlaysBlack bool
	State           State
	Ply             int
	Over            bool
	Active          bool
}

// MoveLabel renders m as "e2-e4".
func MoveLabel(m Move) string {
	if !m.IsComplete() {
		return ""
	}
	return m.From.String() + "-" + m.To.String()
}

// projectBoard paints the 64 squares from the engine. The squares touched by
// the pending (or last applied) move are highlighted. When the human plays
// black both axes are reversed so their pieces sit at the bottom.
func (s *Session) projectBoard() Board {
	var b Board
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			sq := NewSquare(y, x)

			tone := Tone((x + y) & 1)
			if sq == s.pending.From || sq == s.pending.To {
				tone = ToneHighlight
			}

			cell := Cell{Glyph: s.engine.PieceAt(sq).Glyph(), Tone: tone}
			if s.humanBlack {
				b[7-y][7-x] = cell
			} else {
				b[y][x] = cell
			}
		}
	}
	return b
}

// historyWindow returns the trailing move pairs, starting on an even ply.
func (s *Session) historyWindow() [HistoryLines][2]string {
	var out [HistoryLines][2]string
	ply := s.history.Ply()
	start := ((ply + 1) &^ 1) - 2*HistoryLines
	if start < 0 {
		start = 0
	}
	for y := 0; y < HistoryLines; y++ {
		for x := 0; x < 2; x++ {
			if m, ok := s.history.At(start + 2*y + x); ok && m.IsPending() {
				out[y][x] = MoveLabel(m)
			}
		}
	}
	return out
}

func (s *Session) buttonLabel() string {
	if s.undoLegal() || s.state == StateSelectSecondMove {
		return s.labels.Undo
	}
	return ""
}

// clockTimes puts the opponent's time first and the human's second.
func (s *Session) clockTimes(humanPlaysBlack bool) [2]string {
	human := sideOf(humanPlaysBlack)
	return [2]string{
		FormatClock(s.clock.Elapsed(human.Opposite())),
		FormatClock(s.clock.Elapsed(human)),
	}
}

func (s *Session) buildView() View {
	return View{
		Board:           s.board,
		Rows:            s.board.Rows(),
		Times:           s.clockTimes(s.humanBlack),
		History:         s.historyWindow(),
		Button:          s.buttonLabel(),
		ButtonFocused:   s.cursor.ButtonFocused(),
		HumanPlaysBlack: s.humanBlack,
		State:           s.state,
		Ply:             s.plies,
		Over:            s.over,
		Active:          s.active,
	}
}
