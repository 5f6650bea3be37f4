package game

// History is the fixed-capacity log of applied moves, indexed by ply.
// history[0:ply) is exactly what was applied to the engine since the last reset.
type History struct {
	moves [HistorySize]Move
	ply   int
}

func (h *History) Reset() {
	h.ply = 0
}

func (h *History) Ply() int { return h.ply }

// Record appends m at the current ply. At capacity the call is a no-op: the
// move is still played, but it cannot be displayed or undone past this point.
func (h *History) Record(m Move) bool {
	if h.ply >= HistorySize {
		return false
	}
	h.moves[h.ply] = m
	h.ply++
	return true
}

// Rewind drops one full round (two plies), clamped at zero.
func (h *History) Rewind() {
	h.ply -= 2
	if h.ply < 0 {
		h.ply = 0
	}
}

func (h *History) At(i int) (Move, bool) {
	if i < 0 || i >= h.ply || i >= HistorySize {
		return EmptyMove, false
	}
	return h.moves[i], true
}

// Moves returns a copy of the recorded plies.
func (h *History) Moves() []Move {
	out := make([]Move, h.ply)
	copy(out, h.moves[:h.ply])
	return out
}

// Replay resets e and re-applies every recorded move in order. The engine has
// no undo of its own, so this is the only way back to an earlier position.
func (h *History) Replay(e Engine) error {
	e.Reset()
	for i := 0; i < h.ply; i++ {
		if err := e.Apply(h.moves[i]); err != nil {
			return err
		}
	}
	return nil
}
