package archive

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/park285/nuclear-chess/internal/game"
	"github.com/park285/nuclear-chess/pkg/viewdto"
)

// Source is what the record builder needs from the rules engine.
type Source interface {
	Outcome() (result string, method string)
	MovesUCI() []string
	MovesSAN() []string
	FEN() string
}

// Meta carries the settings a game was played with.
type Meta struct {
	NodeBudget int
	Tick       time.Duration
	EndedAt    time.Time
}

// NewRecord builds the archive entry for a game. Moves beyond the session's
// history capacity are not recorded.
func NewRecord(snap game.Snapshot, src Source, meta Meta) *viewdto.GameRecord {
	if meta.Tick <= 0 {
		meta.Tick = time.Second
	}
	if meta.EndedAt.IsZero() {
		meta.EndedAt = time.Now()
	}

	result, method := "*", "abandoned"
	if src != nil {
		if r, m := src.Outcome(); r != "" && r != "*" {
			result, method = r, m
		}
	}

	var uci, san []string
	var fen string
	if src != nil {
		uci = limit(src.MovesUCI(), len(snap.Moves))
		san = limit(src.MovesSAN(), len(snap.Moves))
		fen = src.FEN()
	}

	rec := &viewdto.GameRecord{
		GameUUID:        uuid.NewString(),
		HumanPlaysBlack: snap.HumanPlaysBlack,
		SkillLevel:      snap.SkillLevel,
		NodeBudget:      meta.NodeBudget,
		Result:          result,
		ResultMethod:    method,
		Plies:           snap.Plies,
		MovesUCI:        uci,
		MovesSAN:        san,
		FinalFEN:        fen,
		WhiteClock:      time.Duration(snap.Times[game.White]) * meta.Tick,
		BlackClock:      time.Duration(snap.Times[game.Black]) * meta.Tick,
		StartedAt:       snap.StartedAt,
		EndedAt:         meta.EndedAt,
	}
	if !rec.StartedAt.IsZero() {
		rec.Duration = rec.EndedAt.Sub(rec.StartedAt)
		if rec.Duration < 0 {
			rec.Duration = 0
		}
	}
	rec.PGN = BuildPGN(rec)
	return rec
}

func limit(moves []string, n int) []string {
	if len(moves) > n {
		moves = moves[:n]
	}
	return append([]string(nil), moves...)
}

// BuildPGN renders rec as PGN text from its SAN moves.
func BuildPGN(rec *viewdto.GameRecord) string {
	if rec == nil {
		return ""
	}
	white, black := "Player", "Computer"
	if rec.HumanPlaysBlack {
		white, black = black, white
	}
	date := rec.EndedAt
	if date.IsZero() {
		date = time.Now()
	}
	result := rec.Result
	if result == "" {
		result = "*"
	}

	var b strings.Builder
	b.WriteString("[Event \"Nuclear Chess\"]\n")
	b.WriteString("[Site \"Handheld\"]\n")
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	fmt.Fprintf(&b, "[White \"%s\"]\n", white)
	fmt.Fprintf(&b, "[Black \"%s\"]\n", black)
	fmt.Fprintf(&b, "[SkillLevel \"%d\"]\n", rec.SkillLevel+1)
	if m := strings.TrimSpace(rec.ResultMethod); m != "" {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", sanitizePGN(strings.ToLower(m)))
	}
	fmt.Fprintf(&b, "[Result \"%s\"]\n\n", result)

	for i := 0; i < len(rec.MovesSAN); i += 2 {
		fmt.Fprintf(&b, "%d. %s", i/2+1, strings.TrimSpace(rec.MovesSAN[i]))
		if i+1 < len(rec.MovesSAN) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(rec.MovesSAN[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(result)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
