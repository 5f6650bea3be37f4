package archive

import (
	"context"
	"errors"
	"time"

	"github.com/park285/nuclear-chess/internal/game"
	"go.uber.org/zap"
)

// Archiver stores finished or abandoned games.
type Archiver struct {
	repo   Repository
	source Source
	logger *zap.Logger
	tick   time.Duration
	now    func() time.Time
}

func NewArchiver(repo Repository, source Source, tick time.Duration, logger *zap.Logger) *Archiver {
	if repo == nil {
		repo = NewMemoryRepository()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{repo: repo, source: source, logger: logger, tick: tick, now: time.Now}
}

func (a *Archiver) Repository() Repository { return a.repo }

// Save archives snap unless nothing was played. It returns the stored id, or
// zero when the game was skipped.
func (a *Archiver) Save(ctx context.Context, snap game.Snapshot, nodeBudget int) (int64, error) {
	if snap.Plies == 0 {
		return 0, nil
	}
	rec := NewRecord(snap, a.source, Meta{NodeBudget: nodeBudget, Tick: a.tick, EndedAt: a.now()})
	id, err := a.repo.InsertGame(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrDuplicateGame) {
			a.logger.Warn("archive_duplicate_game", zap.String("game_uuid", rec.GameUUID))
		} else {
			a.logger.Error("archive_insert_failed", zap.String("game_uuid", rec.GameUUID), zap.Error(err))
		}
		return 0, err
	}
	a.logger.Info("archive_game_saved",
		zap.Int64("id", id),
		zap.String("game_uuid", rec.GameUUID),
		zap.String("result", rec.Result),
		zap.String("method", rec.ResultMethod),
		zap.Int("plies", rec.Plies),
	)
	return id, nil
}

func (a *Archiver) Close() error { return a.repo.Close() }
