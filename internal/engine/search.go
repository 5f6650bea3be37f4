package engine

import (
	"context"
	"sort"
	"sync/atomic"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/nuclear-chess/internal/game"
)

const (
	scoreInf  = 1 << 20
	scoreMate = 1 << 16
	maxDepth  = 32

	// ctx is polled once every pollMask+1 nodes.
	pollMask = 63
)

var pieceValues = map[nchess.PieceType]int{
	nchess.Pawn:   100,
	nchess.Knight: 300,
	nchess.Bishop: 310,
	nchess.Rook:   500,
	nchess.Queen:  900,
}

// searcher runs iterative-deepening negamax with alpha-beta pruning until the
// node budget is spent or it is stopped. Only fully searched depths are
// trusted; an interrupted depth keeps its best move only when no earlier
// depth produced one.
type searcher struct {
	ctx    context.Context
	budget int
	stop   *atomic.Bool

	nodes   int
	depth   int
	score   int
	aborted bool
}

type candidate struct {
	move  game.Move
	next  *nchess.Move
	order int
}

func (s *searcher) run(root *nchess.Game) (game.Move, bool) {
	cands := candidates(root)
	if len(cands) == 0 {
		return game.EmptyMove, false
	}

	best := cands[0].move
	found := false
	for d := 1; d <= maxDepth && !s.aborted; d++ {
		alpha := -scoreInf
		var depthBest game.Move
		depthFound := false
		for i := range cands {
			child := root.Clone()
			if err := child.Move(cands[i].next, nil); err != nil {
				continue
			}
			score := -s.negamax(child, d-1, 1, -scoreInf, -alpha)
			if s.aborted {
				break
			}
			if !depthFound || score > alpha {
				alpha = score
				depthBest = cands[i].move
				depthFound = true
			}
		}
		if s.aborted {
			if !found && depthFound {
				best = depthBest
			}
			break
		}
		if depthFound {
			best, s.score, s.depth, found = depthBest, alpha, d, true
			promote(cands, best)
		}
		if alpha >= scoreMate-maxDepth {
			break
		}
	}
	return best, true
}

func (s *searcher) negamax(g *nchess.Game, depth, ply, alpha, beta int) int {
	if s.halt() {
		return 0
	}

	switch g.Outcome() {
	case nchess.NoOutcome:
	case nchess.Draw:
		return 0
	default:
		// The side to move has been mated.
		return -scoreMate + ply
	}

	if depth <= 0 {
		return evaluate(g.Position())
	}

	cands := candidates(g)
	if len(cands) == 0 {
		return 0
	}
	best := -scoreInf
	for i := range cands {
		child := g.Clone()
		if err := child.Move(cands[i].next, nil); err != nil {
			continue
		}
		score := -s.negamax(child, depth-1, ply+1, -beta, -alpha)
		if s.aborted {
			return 0
		}
		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}
	return best
}

func (s *searcher) halt() bool {
	if s.aborted {
		return true
	}
	s.nodes++
	if s.nodes > s.budget || s.stop.Load() {
		s.aborted = true
		return true
	}
	if s.nodes&pollMask == 0 && s.ctx.Err() != nil {
		s.aborted = true
	}
	return s.aborted
}

// candidates lists the legal moves of g, captures first by victim value.
func candidates(g *nchess.Game) []candidate {
	pos := g.Position()
	board := pos.Board()
	valid := pos.ValidMoves()
	out := make([]candidate, 0, len(valid))
	for _, m := range valid {
		mv := movePtr(m)
		if p := mv.Promo(); p != nchess.NoPieceType && p != nchess.Queen {
			continue
		}
		order := 0
		if mv.HasTag(nchess.Capture) {
			order = pieceValues[board.Piece(mv.S2()).Type()] + 1
		}
		if mv.Promo() == nchess.Queen {
			order += pieceValues[nchess.Queen]
		}
		out = append(out, candidate{
			move:  game.Move{From: fromSquare(mv.S1()), To: fromSquare(mv.S2())},
			next:  mv,
			order: order,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].order > out[j].order })
	return out
}

// promote moves the previous iteration's best move to the front.
func promote(cands []candidate, best game.Move) {
	for i := range cands {
		if cands[i].move == best {
			c := cands[i]
			copy(cands[1:i+1], cands[:i])
			cands[0] = c
			return
		}
	}
}

// movePtr accepts either element type of the library's move slices.
func movePtr[M nchess.Move | *nchess.Move](m M) *nchess.Move {
	switch v := any(m).(type) {
	case *nchess.Move:
		return v
	case nchess.Move:
		return &v
	}
	return nil
}

// evaluate scores pos from the side to move: material plus a small bonus for
// central pawns and minor pieces.
func evaluate(pos *nchess.Position) int {
	board := pos.Board()
	score := 0
	for sq := 0; sq < 64; sq++ {
		p := board.Piece(nchess.Square(sq))
		if p == nchess.NoPiece {
			continue
		}
		v := pieceValues[p.Type()]
		switch p.Type() {
		case nchess.Pawn, nchess.Knight, nchess.Bishop:
			v += centrality(nchess.Square(sq))
		}
		if p.Color() == nchess.White {
			score += v
		} else {
			score -= v
		}
	}
	if pos.Turn() == nchess.Black {
		return -score
	}
	return score
}

func centrality(sq nchess.Square) int {
	f, r := int(sq.File()), int(sq.Rank())
	df, dr := f-3, r-3
	if f >= 4 {
		df = 4 - f
	}
	if r >= 4 {
		dr = 4 - r
	}
	return 12 + 4*(df+dr)
}
