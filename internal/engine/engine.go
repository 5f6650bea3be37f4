package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/nuclear-chess/internal/game"
	"go.uber.org/zap"
)

var ErrIllegalMove = errors.New("engine: illegal move")

// Engine adapts corentings/chess to the game.Engine contract. Squares are
// translated between the 0x88 numbering used by the session and the library's
// a1=0 numbering. Promotions always produce a queen, so a move is fully
// described by its two squares.
type Engine struct {
	mu     sync.Mutex
	game   *nchess.Game
	notify chan<- struct{}
	logger *zap.Logger

	stop    atomic.Bool
	stopped atomic.Bool
}

func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{game: nchess.NewGame(), logger: logger}
}

func (e *Engine) Reset() {
	e.mu.Lock()
	e.game = nchess.NewGame()
	e.mu.Unlock()
}

func (e *Engine) Apply(m game.Move) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apply(e.game, m)
}

func (e *Engine) apply(g *nchess.Game, m game.Move) error {
	if !m.IsComplete() {
		return fmt.Errorf("%w: incomplete move", ErrIllegalMove)
	}
	pos := g.Position()
	uci := moveUCI(m)
	mv, err := nchess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		mv, err = nchess.UCINotation{}.Decode(pos, uci+"q")
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIllegalMove, uci, err)
	}
	if err := g.Move(mv, nil); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIllegalMove, uci, err)
	}
	return nil
}

func (e *Engine) PieceAt(sq game.Square) game.Piece {
	if !sq.Valid() {
		return game.NoPiece
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fromPiece(e.game.Position().Board().Piece(toSquare(sq)))
}

func (e *Engine) LegalMoves(dst []game.Move) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	moves := legalMoves(e.game)
	return copy(dst, moves)
}

// Search finds the best move within nodes, plays it and reports it. A Stop
// issued before Search starts aborts it too; the request stays pending until
// ClearStop.
func (e *Engine) Search(ctx context.Context, nodes int) (game.Move, bool) {
	e.stopped.Store(false)
	defer e.fire()

	e.mu.Lock()
	defer e.mu.Unlock()

	s := &searcher{ctx: ctx, budget: nodes, stop: &e.stop}
	best, ok := s.run(e.game)
	if s.aborted && (ctx.Err() != nil || e.stop.Load()) {
		e.stopped.Store(true)
		e.logger.Info("engine_search_stopped", zap.Int("nodes", s.nodes), zap.Int("depth", s.depth))
		return game.EmptyMove, false
	}
	if !ok {
		return game.EmptyMove, false
	}
	if err := e.apply(e.game, best); err != nil {
		e.logger.Error("engine_best_move_rejected", zap.String("move", moveUCI(best)), zap.Error(err))
		return game.EmptyMove, false
	}
	e.logger.Debug("engine_search_done",
		zap.String("move", moveUCI(best)),
		zap.Int("nodes", s.nodes),
		zap.Int("budget", nodes),
		zap.Int("depth", s.depth),
		zap.Int("score", s.score),
	)
	return best, true
}

func (e *Engine) Stop() { e.stop.Store(true) }

// ClearStop withdraws a pending Stop so later searches run.
func (e *Engine) ClearStop() { e.stop.Store(false) }

// Stopped reports whether the last Search ended because it was stopped.
func (e *Engine) Stopped() bool { return e.stopped.Load() }

func (e *Engine) Notify(ch chan<- struct{}) {
	e.mu.Lock()
	e.notify = ch
	e.mu.Unlock()
}

func (e *Engine) fire() {
	e.mu.Lock()
	ch := e.notify
	e.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Outcome reports the result ("1-0", "0-1", "1/2-1/2" or "*") and how the
// game ended.
func (e *Engine) Outcome() (string, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return string(e.game.Outcome()), methodName(e.game.Method())
}

// MovesUCI returns the moves played since the last reset in UCI notation.
func (e *Engine) MovesUCI() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	moves := e.game.Moves()
	out := make([]string, 0, len(moves))
	for _, mv := range moves {
		out = append(out, strings.ToLower(mv.String()))
	}
	return out
}

// MovesSAN returns the moves played since the last reset in SAN.
func (e *Engine) MovesSAN() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	positions := e.game.Positions()
	moves := e.game.Moves()
	out := make([]string, 0, len(moves))
	notation := nchess.AlgebraicNotation{}
	for i, mv := range moves {
		if i < len(positions) {
			out = append(out, notation.Encode(positions[i], mv))
		}
	}
	return out
}

// FEN reports the current position.
func (e *Engine) FEN() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.game.FEN()
}

// legalMoves lists the moves of the side to move, grouped by origin square.
// Under-promotions are dropped.
func legalMoves(g *nchess.Game) []game.Move {
	if g.Outcome() != nchess.NoOutcome {
		return nil
	}
	valid := g.Position().ValidMoves()
	out := make([]game.Move, 0, len(valid))
	for _, v := range valid {
		m := movePtr(v)
		if p := m.Promo(); p != nchess.NoPieceType && p != nchess.Queen {
			continue
		}
		out = append(out, game.Move{From: fromSquare(m.S1()), To: fromSquare(m.S2())})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

func moveUCI(m game.Move) string {
	return m.From.String() + m.To.String()
}

func toSquare(sq game.Square) nchess.Square {
	return nchess.NewSquare(nchess.File(sq.Col()), nchess.Rank(7-sq.Row()))
}

func fromSquare(sq nchess.Square) game.Square {
	return game.NewSquare(7-int(sq.Rank()), int(sq.File()))
}

func fromPiece(p nchess.Piece) game.Piece {
	if p == nchess.NoPiece {
		return game.NoPiece
	}
	var base game.Piece
	switch p.Type() {
	case nchess.Pawn:
		base = game.WhitePawn
	case nchess.Knight:
		base = game.WhiteKnight
	case nchess.Bishop:
		base = game.WhiteBishop
	case nchess.Rook:
		base = game.WhiteRook
	case nchess.Queen:
		base = game.WhiteQueen
	case nchess.King:
		base = game.WhiteKing
	default:
		return game.NoPiece
	}
	if p.Color() == nchess.Black {
		base += game.BlackPawn - game.WhitePawn
	}
	return base
}

func methodName(m nchess.Method) string {
	switch m {
	case nchess.Checkmate:
		return "checkmate"
	case nchess.Stalemate:
		return "stalemate"
	case nchess.InsufficientMaterial:
		return "insufficient_material"
	case nchess.FivefoldRepetition:
		return "fivefold_repetition"
	case nchess.SeventyFiveMoveRule:
		return "seventy_five_move_rule"
	case nchess.ThreefoldRepetition:
		return "threefold_repetition"
	case nchess.FiftyMoveRule:
		return "fifty_move_rule"
	default:
		return ""
	}
}
