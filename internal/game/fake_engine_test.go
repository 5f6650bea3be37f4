package game

import (
	"context"
	"errors"
	"sync"
)

// fakeEngine is a scripted rules collaborator. Its legal-move list is
// produced by legal from the moves applied so far; Search plays reply.
type fakeEngine struct {
	mu      sync.Mutex
	applied []Move
	pieces  map[Square]Piece

	legal   func(applied []Move) []Move
	reply   func(applied []Move) (Move, bool)
	reject  func(m Move) bool
	cancel      bool
	stopped     bool
	stopPending bool

	resets   int
	stops    int
	clears   int
	searches int
	notify   chan<- struct{}
}

var errFakeReject = errors.New("fake: rejected")

func newFakeEngine(legal []Move) *fakeEngine {
	f := &fakeEngine{pieces: map[Square]Piece{}}
	f.legal = func([]Move) []Move { return legal }
	f.reply = func(applied []Move) (Move, bool) {
		// Mirror the human move vertically so replies are distinguishable.
		last := applied[len(applied)-1]
		return Move{From: NewSquare(7-last.From.Row(), last.From.Col()), To: NewSquare(7-last.To.Row(), last.To.Col())}, true
	}
	return f
}

func (f *fakeEngine) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = nil
	f.resets++
}

func (f *fakeEngine) Apply(m Move) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reject != nil && f.reject(m) {
		return errFakeReject
	}
	f.applied = append(f.applied, m)
	return nil
}

// PieceAt reports the starting placement with every applied move carried
// out on it, so the board follows resets and replays.
func (f *fakeEngine) PieceAt(sq Square) Piece {
	f.mu.Lock()
	defer f.mu.Unlock()
	board := make(map[Square]Piece, len(f.pieces))
	for k, v := range f.pieces {
		board[k] = v
	}
	for _, m := range f.applied {
		p := board[m.From]
		delete(board, m.From)
		board[m.To] = p
	}
	return board[sq]
}

func (f *fakeEngine) LegalMoves(dst []Move) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copy(dst, f.legal(f.applied))
}

func (f *fakeEngine) Search(ctx context.Context, nodes int) (Move, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	f.stopped = false
	if f.cancel || f.stopPending || ctx.Err() != nil {
		f.stopped = true
		return EmptyMove, false
	}
	mv, ok := f.reply(f.applied)
	if !ok {
		return EmptyMove, false
	}
	f.applied = append(f.applied, mv)
	if f.notify != nil {
		select {
		case f.notify <- struct{}{}:
		default:
		}
	}
	return mv, true
}

func (f *fakeEngine) Stop() {
	f.mu.Lock()
	f.stops++
	f.stopPending = true
	f.mu.Unlock()
}

func (f *fakeEngine) ClearStop() {
	f.mu.Lock()
	f.clears++
	f.stopPending = false
	f.mu.Unlock()
}

func (f *fakeEngine) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *fakeEngine) Notify(ch chan<- struct{}) {
	f.mu.Lock()
	f.notify = ch
	f.mu.Unlock()
}

func (f *fakeEngine) appliedMoves() []Move {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Move(nil), f.applied...)
}

// groupedMoves builds a list with one origin per entry of sizes, origins
// laid out along the second rank and targets on the fourth and beyond.
func groupedMoves(sizes ...int) []Move {
	var out []Move
	for g, n := range sizes {
		from := NewSquare(6, g)
		for i := 0; i < n; i++ {
			out = append(out, Move{From: from, To: NewSquare(5-i%6, (g+i/6)%8)})
		}
	}
	return out
}
