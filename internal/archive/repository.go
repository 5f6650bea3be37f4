package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/park285/nuclear-chess/pkg/viewdto"
)

var (
	ErrDuplicateGame  = errors.New("archive: game already exists")
	ErrRecordNotFound = errors.New("archive: game not found")
	ErrNoDatabaseURL  = errors.New("archive: database url is required")
)

type Repository interface {
	InsertGame(ctx context.Context, rec *viewdto.GameRecord) (int64, error)
	GetGame(ctx context.Context, id int64) (*viewdto.GameRecord, error)
	GetRecentGames(ctx context.Context, limit int) ([]*viewdto.GameRecord, error)
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS chess_games (
	id                BIGSERIAL PRIMARY KEY,
	game_uuid         TEXT NOT NULL UNIQUE,
	human_plays_black BOOLEAN NOT NULL,
	skill_level       INTEGER NOT NULL,
	node_budget       INTEGER NOT NULL,
	result            TEXT NOT NULL,
	result_method     TEXT NOT NULL,
	plies             INTEGER NOT NULL,
	moves_uci         JSONB NOT NULL,
	moves_san         JSONB NOT NULL,
	pgn               TEXT NOT NULL,
	final_fen         TEXT NOT NULL DEFAULT '',
	white_clock_ms    BIGINT NOT NULL,
	black_clock_ms    BIGINT NOT NULL,
	started_at        TIMESTAMPTZ NOT NULL,
	ended_at          TIMESTAMPTZ NOT NULL,
	duration_ms       BIGINT NOT NULL
)`

const migrateFinalFEN = `ALTER TABLE chess_games ADD COLUMN IF NOT EXISTS final_fen TEXT NOT NULL DEFAULT ''`

const selectColumns = `
	id,
	game_uuid,
	human_plays_black,
	skill_level,
	node_budget,
	result,
	result_method,
	plies,
	moves_uci,
	moves_san,
	pgn,
	final_fen,
	white_clock_ms,
	black_clock_ms,
	started_at,
	ended_at,
	duration_ms`

type postgres struct {
	db *sql.DB
}

// OpenPostgres connects to databaseURL and makes sure the games table exists.
func OpenPostgres(ctx context.Context, databaseURL string) (Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, ErrNoDatabaseURL
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(pingCtx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create chess_games: %w", err)
	}
	if _, err := db.ExecContext(pingCtx, migrateFinalFEN); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate chess_games: %w", err)
	}
	return NewRepository(db), nil
}

func NewRepository(db *sql.DB) Repository {
	return &postgres{db: db}
}

func (r *postgres) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *postgres) InsertGame(ctx context.Context, rec *viewdto.GameRecord) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("nil game record")
	}
	movesUCI, err := json.Marshal(nonNil(rec.MovesUCI))
	if err != nil {
		return 0, fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesSAN, err := json.Marshal(nonNil(rec.MovesSAN))
	if err != nil {
		return 0, fmt.Errorf("marshal moves_san: %w", err)
	}

	const query = `
		INSERT INTO chess_games (
			game_uuid,
			human_plays_black,
			skill_level,
			node_budget,
			result,
			result_method,
			plies,
			moves_uci,
			moves_san,
			pgn,
			final_fen,
			white_clock_ms,
			black_clock_ms,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (game_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(ctx, query,
		rec.GameUUID,
		rec.HumanPlaysBlack,
		rec.SkillLevel,
		rec.NodeBudget,
		rec.Result,
		rec.ResultMethod,
		rec.Plies,
		movesUCI,
		movesSAN,
		rec.PGN,
		rec.FinalFEN,
		rec.WhiteClock.Milliseconds(),
		rec.BlackClock.Milliseconds(),
		rec.StartedAt,
		rec.EndedAt,
		rec.Duration.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert chess game: %w", err)
	}
	return id.Int64, nil
}

func (r *postgres) GetGame(ctx context.Context, id int64) (*viewdto.GameRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM chess_games WHERE id = $1`, id)
	rec, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	return rec, err
}

func (r *postgres) GetRecentGames(ctx context.Context, limit int) ([]*viewdto.GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM chess_games ORDER BY ended_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select chess games: %w", err)
	}
	defer rows.Close()

	games := make([]*viewdto.GameRecord, 0, limit)
	for rows.Next() {
		rec, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, rec)
	}
	return games, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(s scanner) (*viewdto.GameRecord, error) {
	var (
		rec          viewdto.GameRecord
		movesUCIJSON []byte
		movesSANJSON []byte
		whiteMS      int64
		blackMS      int64
		durationMS   int64
	)
	if err := s.Scan(
		&rec.ID,
		&rec.GameUUID,
		&rec.HumanPlaysBlack,
		&rec.SkillLevel,
		&rec.NodeBudget,
		&rec.Result,
		&rec.ResultMethod,
		&rec.Plies,
		&movesUCIJSON,
		&movesSANJSON,
		&rec.PGN,
		&rec.FinalFEN,
		&whiteMS,
		&blackMS,
		&rec.StartedAt,
		&rec.EndedAt,
		&durationMS,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan chess game: %w", err)
	}
	rec.WhiteClock = time.Duration(whiteMS) * time.Millisecond
	rec.BlackClock = time.Duration(blackMS) * time.Millisecond
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	if err := json.Unmarshal(movesUCIJSON, &rec.MovesUCI); err != nil {
		return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
	}
	if err := json.Unmarshal(movesSANJSON, &rec.MovesSAN); err != nil {
		return nil, fmt.Errorf("unmarshal moves_san: %w", err)
	}
	return &rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
