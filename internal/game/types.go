package game

import "errors"

const (
	// MaxValidMoves bounds the legal-move list requested from the engine.
	MaxValidMoves = 128
	// HistorySize bounds the recorded plies. Moves past it are played but not kept.
	HistorySize = 128
	// HistoryLines is the number of move-pair rows shown next to the board.
	HistoryLines = 6
	// ClockCeiling is where the per-side clocks stop counting.
	ClockCeiling = 3600
)

var ErrCursorInvariant = errors.New("game: cursor index out of range")

// Square is a 0x88 board index: 0x10*row + col, row 0 is rank 8.
type Square uint8

const NoSquare Square = 0x80

func NewSquare(row, col int) Square {
	return Square(0x10*row + col)
}

func (s Square) Row() int { return int(s>>4) & 0x7 }
func (s Square) Col() int { return int(s) & 0x7 }

func (s Square) Valid() bool {
	return s&0x88 == 0
}

func (s Square) String() string {
	if !s.Valid() {
		return "--"
	}
	return string([]byte{'a' + byte(s.Col()), '1' + byte(7-s.Row())})
}

type Move struct {
	From Square
	To   Square
}

var EmptyMove = Move{From: NoSquare, To: NoSquare}

func (m Move) IsPending() bool  { return m.From != NoSquare }
func (m Move) IsComplete() bool { return m.From != NoSquare && m.To != NoSquare }
func (m Move) IsEmpty() bool    { return m.From == NoSquare }

// Side is derived from the ply parity; White moves first.
type Side int

const (
	White Side = iota
	Black
)

func (s Side) String() string {
	if s == Black {
		return "black"
	}
	return "white"
}

func (s Side) Opposite() Side { return 1 - s }

func sideOf(humanPlaysBlack bool) Side {
	if humanPlaysBlack {
		return Black
	}
	return White
}

type Piece uint8

const (
	NoPiece Piece = iota
	WhitePawn
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
)

// pieceGlyphs is indexed by Piece.
const pieceGlyphs = " PNBRQKpnbrqk"

func (p Piece) Glyph() byte {
	if int(p) >= len(pieceGlyphs) {
		return '?'
	}
	return pieceGlyphs[p]
}

type Tone uint8

const (
	ToneLight Tone = iota
	ToneDark
	ToneHighlight
)

type Cell struct {
	Glyph byte
	Tone  Tone
}

// Board is the projected grid, already mirrored for the human's side.
type Board [8][8]Cell

func (b *Board) Rows() [8]string {
	var rows [8]string
	for y := range b {
		var row [8]byte
		for x := range b[y] {
			row[x] = b[y][x].Glyph
		}
		rows[y] = string(row[:])
	}
	return rows
}

type Key int

const (
	KeyBackward Key = iota
	KeyForward
	KeySelect
	KeyBack
)

func (k Key) String() string {
	switch k {
	case KeyBackward:
		return "backward"
	case KeyForward:
		return "forward"
	case KeySelect:
		return "select"
	case KeyBack:
		return "back"
	default:
		return "unknown"
	}
}

type State int

const (
	StateSelectFirstMove State = iota
	StateSelectSecondMove
	StatePlayMove
	StateUndoMove
)

func (s State) String() string {
	switch s {
	case StateSelectFirstMove:
		return "select_first_move"
	case StateSelectSecondMove:
		return "select_second_move"
	case StatePlayMove:
		return "play_move"
	case StateUndoMove:
		return "undo_move"
	default:
		return "unknown"
	}
}
