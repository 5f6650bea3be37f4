package game

import "context"

// Engine is the move-search and rules collaborator. The session never
// derives chess rules itself; it only consumes LegalMoves and applies
// chosen moves through Apply.
type Engine interface {
	// Reset returns the engine to the initial position.
	Reset()
	Apply(m Move) error
	PieceAt(sq Square) Piece
	// LegalMoves fills dst with the legal moves for the side to move and
	// returns how many were written. Moves sharing an origin must be contiguous.
	LegalMoves(dst []Move) int
	// Search plays the best move found within nodes and reports it. It
	// returns false when there is no legal move or the search was stopped.
	Search(ctx context.Context, nodes int) (Move, bool)
	// Stop aborts an in-flight Search, or the next one if none is running.
	// Safe to call from any goroutine.
	Stop()
	// Notify registers the channel signalled whenever a search completes.
	Notify(ch chan<- struct{})
}

// OutcomeReporter is implemented by engines that can tell checkmate from
// stalemate once the side to move has no legal moves.
type OutcomeReporter interface {
	Outcome() (result, method string)
}

// StopReporter is implemented by engines that can tell a stopped search
// from a position without legal moves.
type StopReporter interface {
	Stopped() bool
}

// StopClearer is implemented by engines whose Stop stays pending until it
// is withdrawn. The session withdraws it when a game is reset or resumed.
type StopClearer interface {
	ClearStop()
}

type signal chan struct{}

func newSignal() signal { return make(signal, 1) }

// fire never blocks; pending notifications are coalesced.
func (s signal) fire() {
	select {
	case s <- struct{}{}:
	default:
	}
}
