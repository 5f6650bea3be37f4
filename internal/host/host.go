// Package host runs the device loop: it routes keys to the menu or the
// game session, drives session updates and the clock, and delivers frames.
package host

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/park285/nuclear-chess/internal/adapter/framepresenter"
	"github.com/park285/nuclear-chess/internal/archive"
	"github.com/park285/nuclear-chess/internal/game"
	"github.com/park285/nuclear-chess/internal/menu"
	"go.uber.org/zap"
)

// Session is the part of game.Session the host drives.
type Session interface {
	Reset(humanPlaysBlack bool)
	Resume()
	HandleKey(k game.Key)
	Update(ctx context.Context)
	Tick()
	View() game.View
	Snapshot() game.Snapshot
	IsGameStart() bool
	SetSkillLevel(level int)
	Repaint() <-chan struct{}
	Exit() <-chan struct{}
	GameOver() <-chan struct{}
}

type Config struct {
	UpdateInterval time.Duration
	ClockInterval  time.Duration
	NodeBudgets    []int
	SkillLevel     int
	// AutoStart skips the menu and starts a game on launch.
	AutoStart       bool
	HumanPlaysBlack bool
	// OnSkill is called after the skill level changes from the menu.
	OnSkill func(level int)
}

type Host struct {
	cfg       Config
	session   Session
	menu      *menu.Menu
	formatter *framepresenter.Formatter
	presenter *framepresenter.Presenter
	outcome   game.OutcomeReporter
	archiver  *archive.Archiver
	keys      <-chan game.Key
	logger    *zap.Logger

	// Owned by the Run goroutine.
	inMenu   bool
	skill    int
	result   string
	archived bool
	status   string
}

func New(
	cfg Config,
	session Session,
	m *menu.Menu,
	formatter *framepresenter.Formatter,
	presenter *framepresenter.Presenter,
	outcome game.OutcomeReporter,
	archiver *archive.Archiver,
	keys <-chan game.Key,
	logger *zap.Logger,
) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = 50 * time.Millisecond
	}
	if cfg.ClockInterval <= 0 {
		cfg.ClockInterval = time.Second
	}
	if len(cfg.NodeBudgets) == 0 {
		cfg.NodeBudgets = game.DefaultNodeBudgets
	}
	return &Host{
		cfg:       cfg,
		session:   session,
		menu:      m,
		formatter: formatter,
		presenter: presenter,
		outcome:   outcome,
		archiver:  archiver,
		keys:      keys,
		logger:    logger,
		skill:     cfg.SkillLevel,
		inMenu:    true,
	}
}

// ErrQuit is returned by Run when the operator picks Quit from the menu.
var ErrQuit = errors.New("host: quit")

// Run blocks until ctx is cancelled or the operator quits.
func (h *Host) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	defer func() {
		cancel()
		<-done
	}()
	go func() {
		defer close(done)
		h.tickers(ctx)
	}()

	if h.cfg.AutoStart {
		h.newGame(ctx, h.cfg.HumanPlaysBlack)
	} else {
		h.showMenu(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.archiveAbandoned(context.Background())
			return ctx.Err()
		case k, ok := <-h.keys:
			if !ok {
				h.archiveAbandoned(context.Background())
				return nil
			}
			if err := h.handleKey(ctx, k); err != nil {
				h.archiveAbandoned(context.Background())
				return err
			}
		case <-h.session.Repaint():
			h.render(ctx)
		case <-h.session.Exit():
			if !h.inMenu {
				h.showMenu(ctx)
			}
		case <-h.session.GameOver():
			h.finish(ctx)
		}
	}
}

// tickers drives session updates and the clock until ctx ends.
func (h *Host) tickers(ctx context.Context) {
	update := time.NewTicker(h.cfg.UpdateInterval)
	defer update.Stop()
	clock := time.NewTicker(h.cfg.ClockInterval)
	defer clock.Stop()

	updates := make(chan struct{}, 1)
	var wg sync.WaitGroup
	defer wg.Wait()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-updates:
				h.session.Update(ctx)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-update.C:
			select {
			case updates <- struct{}{}:
			default:
			}
		case <-clock.C:
			h.session.Tick()
		}
	}
}

func (h *Host) handleKey(ctx context.Context, k game.Key) error {
	if !h.inMenu {
		if k == game.KeyBack {
			h.session.HandleKey(k)
			h.showMenu(ctx)
			return nil
		}
		// Only KeyBack can interrupt a search; other keys would wait on it.
		if h.session.View().State == game.StatePlayMove {
			return nil
		}
		h.session.HandleKey(k)
		return nil
	}

	switch h.menu.HandleKey(k) {
	case menu.ActionResume:
		h.inMenu = false
		h.session.Resume()
	case menu.ActionNewWhite:
		h.newGame(ctx, false)
	case menu.ActionNewBlack:
		h.newGame(ctx, true)
	case menu.ActionSkill:
		h.skill = (h.skill + 1) % len(h.cfg.NodeBudgets)
		h.session.SetSkillLevel(h.skill)
		h.logger.Info("host_skill_changed",
			zap.Int("skill_level", h.skill),
			zap.Int("nodes", game.NodeBudget(h.cfg.NodeBudgets, h.skill)),
		)
		if h.cfg.OnSkill != nil {
			h.cfg.OnSkill(h.skill)
		}
		h.showMenu(ctx)
	case menu.ActionQuit:
		h.logger.Info("host_quit")
		return ErrQuit
	default:
		h.render(ctx)
	}
	return nil
}

func (h *Host) newGame(ctx context.Context, humanPlaysBlack bool) {
	h.archiveAbandoned(ctx)
	h.inMenu = false
	h.result = ""
	h.archived = false
	h.session.SetSkillLevel(h.skill)
	h.session.Reset(humanPlaysBlack)
}

func (h *Host) showMenu(ctx context.Context) {
	h.inMenu = true
	h.status = h.result
	h.menu.Refresh(!h.session.IsGameStart(), h.skill)
	h.render(ctx)
}

// finish records the result of a game whose side to move has no moves.
func (h *Host) finish(ctx context.Context) {
	result, method := "*", ""
	if h.outcome != nil {
		result, method = h.outcome.Outcome()
	}
	h.result = h.formatter.Result(result, method)
	h.logger.Info("host_game_finished", zap.String("result", result), zap.String("method", method))

	// A game ended again after an undo keeps its first record.
	switch {
	case h.archiver == nil:
	case h.archived:
		h.logger.Debug("host_game_already_archived", zap.String("result", result))
	default:
		if _, err := h.archiver.Save(ctx, h.session.Snapshot(), h.nodeBudget()); err == nil {
			h.archived = true
		}
	}
	h.render(ctx)
}

// archiveAbandoned stores a game left unfinished, once.
func (h *Host) archiveAbandoned(ctx context.Context) {
	if h.archiver == nil || h.archived {
		return
	}
	snap := h.session.Snapshot()
	if snap.Plies == 0 || snap.Over {
		return
	}
	if _, err := h.archiver.Save(ctx, snap, h.nodeBudget()); err == nil {
		h.archived = true
	}
}

func (h *Host) nodeBudget() int {
	return game.NodeBudget(h.cfg.NodeBudgets, h.skill)
}

func (h *Host) render(ctx context.Context) {
	if h.inMenu {
		h.presenter.Frame(ctx, h.formatter.MenuFrame(h.menu, h.status))
		return
	}
	v := h.session.View()
	result := ""
	if v.Over {
		result = h.result
	}
	h.presenter.Frame(ctx, h.formatter.GameFrame(v, result))
}
