package chessbuilder

import (
	"context"
	"fmt"
	"strings"

	"github.com/park285/nuclear-chess/internal/adapter/framepresenter"
	"github.com/park285/nuclear-chess/internal/archive"
	"github.com/park285/nuclear-chess/internal/config"
	"github.com/park285/nuclear-chess/internal/engine"
	"github.com/park285/nuclear-chess/internal/game"
	"github.com/park285/nuclear-chess/internal/menu"
	"github.com/park285/nuclear-chess/internal/mirror"
	"github.com/park285/nuclear-chess/internal/msgcat"
	"go.uber.org/zap"
)

type Deps struct {
	Engine    *engine.Engine
	Session   *game.Session
	Catalog   *msgcat.Catalog
	Menu      *menu.Menu
	Formatter *framepresenter.Formatter
	Mirror    *mirror.Mirror
	Store     *mirror.Store
	Archiver  *archive.Archiver
}

// New wires the game from cfg. Redis and Postgres are optional: without
// them the mirror keeps frames in memory and games are archived in process.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	eng := engine.New(logger.Named("engine"))
	session := game.NewSession(eng,
		game.WithLogger(logger.Named("game")),
		game.WithSkillLevel(cfg.SkillLevel),
		game.WithNodeBudgets(cfg.NodeBudgets),
		game.WithLabels(game.Labels{Undo: cat.Text("button.undo", game.DefaultLabels.Undo, nil)}),
	)

	var store *mirror.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		store, err = mirror.NewStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init mirror store: %w", err)
		}
	}

	repo := archive.NewMemoryRepository()
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, err = archive.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			if store != nil {
				_ = store.Close()
			}
			return nil, fmt.Errorf("init archive: %w", err)
		}
	}

	mir := mirror.New(store, logger.Named("mirror"))
	mir.AttachArchive(repo)

	return &Deps{
		Engine:    eng,
		Session:   session,
		Catalog:   cat,
		Menu:      menu.New(cat),
		Formatter: framepresenter.NewFormatter(cat),
		Mirror:    mir,
		Store:     store,
		Archiver:  archive.NewArchiver(repo, eng, cfg.ClockInterval, logger.Named("archive")),
	}, nil
}

func (d *Deps) Close() error {
	var firstErr error
	if d.Archiver != nil {
		if err := d.Archiver.Close(); err != nil {
			firstErr = err
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
