package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/park285/nuclear-chess/internal/adapter/framepresenter"
	"github.com/park285/nuclear-chess/internal/chessbuilder"
	appcfg "github.com/park285/nuclear-chess/internal/config"
	"github.com/park285/nuclear-chess/internal/display"
	"github.com/park285/nuclear-chess/internal/game"
	"github.com/park285/nuclear-chess/internal/host"
	"github.com/park285/nuclear-chess/internal/keypad"
	"github.com/park285/nuclear-chess/internal/obslog"
	"go.uber.org/zap"
)

func main() {
	var (
		dump  = flag.Bool("dump", false, "headless mode: print frames as text and read key names (up, down, select, back) from stdin")
		black = flag.Bool("black", false, "start a game immediately with the human playing black")
		white = flag.Bool("white", false, "start a game immediately with the human playing white")
		skill = flag.Int("skill", -1, "skill level (0-7); overrides the config file")
	)
	flag.Parse()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if *skill >= 0 {
		cfg.SkillLevel = *skill
		if err := cfg.Validate(); err != nil {
			log.Fatalf("config error: %v", err)
		}
	}
	if !*dump {
		// The terminal UI owns stdout.
		cfg.Log.ToConsole = false
	}
	if err := obslog.Init(cfg.Log); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	deps, err := chessbuilder.New(initCtx, cfg, logger)
	cancel()
	if err != nil {
		log.Fatalf("chess init error: %v", err)
	}
	defer deps.Close()

	keys := make(chan game.Key, 32)

	if cfg.KeypadURL != "" {
		remote := keypad.NewRemote(cfg.KeypadURL, keys, logger.Named("keypad"))
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := remote.Connect(cctx); err != nil {
			logger.Warn("keypad_connect_failed", zap.String("url", cfg.KeypadURL), zap.Error(err))
		}
		cancel()
		defer remote.Close(context.Background())
	}

	if cfg.MirrorAddr != "" {
		go func() {
			if err := deps.Mirror.Serve(ctx, cfg.MirrorAddr); err != nil {
				logger.Error("mirror_serve_failed", zap.Error(err))
			}
		}()
	}

	hostCfg := host.Config{
		UpdateInterval:  cfg.UpdateInterval,
		ClockInterval:   cfg.ClockInterval,
		NodeBudgets:     cfg.NodeBudgets,
		SkillLevel:      cfg.SkillLevel,
		AutoStart:       *black || *white,
		HumanPlaysBlack: *black || (!*white && cfg.HumanPlaysBlack),
		OnSkill: func(level int) {
			cfg.SkillLevel = level
			if err := cfg.Save(); err != nil {
				logger.Warn("config_save_failed", zap.Error(err))
			}
		},
	}

	if *dump {
		runDump(ctx, deps, hostCfg, keys, logger)
		return
	}
	runTerminal(ctx, deps, hostCfg, keys, logger)
}

func runTerminal(ctx context.Context, deps *chessbuilder.Deps, cfg host.Config, keys chan game.Key, logger *zap.Logger) {
	term := display.NewTerminal(nil, logger.Named("display"))
	term.OnKey(func(ev *tcell.EventKey) bool {
		k, ok := keypad.FromTcell(ev)
		if !ok {
			return false
		}
		if !keypad.Send(keys, k) {
			logger.Debug("keypad_queue_full", zap.String("key", k.String()))
		}
		return true
	})

	presenter := framepresenter.NewPresenter(term.Show, deps.Mirror.Publish)
	h := host.New(cfg, deps.Session, deps.Menu, deps.Formatter, presenter, deps.Engine, deps.Archiver, keys, logger.Named("host"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := h.Run(ctx); err != nil && !errors.Is(err, host.ErrQuit) && !errors.Is(err, context.Canceled) {
			logger.Error("host_stopped", zap.Error(err))
		}
		term.Stop()
	}()

	if err := term.Run(); err != nil {
		logger.Error("terminal_failed", zap.Error(err))
	}
	cancel()
	wg.Wait()
}

func runDump(ctx context.Context, deps *chessbuilder.Deps, cfg host.Config, keys chan game.Key, logger *zap.Logger) {
	var mu sync.Mutex
	show := func(f display.Frame) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(os.Stdout, "----")
		if err := display.WriteText(os.Stdout, f); err != nil {
			logger.Warn("dump_write_failed", zap.Error(err))
		}
	}
	presenter := framepresenter.NewPresenter(show, deps.Mirror.Publish)
	h := host.New(cfg, deps.Session, deps.Menu, deps.Formatter, presenter, deps.Engine, deps.Archiver, keys, logger.Named("host"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		readKeyNames(ctx, os.Stdin, keys, logger)
		// Let the host consume what was read before stopping.
		for len(keys) > 0 && ctx.Err() == nil {
			time.Sleep(cfg.UpdateInterval)
		}
		cancel()
	}()

	if err := h.Run(ctx); err != nil && !errors.Is(err, host.ErrQuit) && !errors.Is(err, context.Canceled) {
		logger.Error("host_stopped", zap.Error(err))
	}
}

// readKeyNames feeds one key name per line until EOF.
func readKeyNames(ctx context.Context, r io.Reader, keys chan<- game.Key, logger *zap.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		k, ok := keypad.FromName(sc.Text())
		if !ok {
			logger.Debug("dump_unknown_key", zap.String("line", sc.Text()))
			continue
		}
		select {
		case keys <- k:
		case <-ctx.Done():
			return
		}
	}
}
