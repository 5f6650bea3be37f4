package mirror

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/park285/nuclear-chess/internal/archive"
	"github.com/park285/nuclear-chess/internal/display"
	"github.com/park285/nuclear-chess/pkg/viewdto"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	defaultGamesLimit = 20
	maxGamesLimit     = 100
	eventsKeepAlive   = 15 * time.Second
	lookupTimeout     = 3 * time.Second
)

// Mirror holds the last shown frame for the HTTP endpoint and forwards it
// to Redis when a store is attached.
type Mirror struct {
	store   *Store
	archive archive.Repository
	logger  *zap.Logger
	now    func() time.Time

	mu   sync.RWMutex
	last display.Frame
	seen bool
}

func New(store *Store, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{store: store, logger: logger, now: time.Now}
}

// Publish records f. Store failures are logged; the in-memory copy is
// always updated.
func (m *Mirror) Publish(ctx context.Context, f display.Frame) {
	m.mu.Lock()
	m.last = f
	m.seen = true
	m.mu.Unlock()

	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, ToDTO(f, m.now())); err != nil {
		m.logger.Warn("mirror_publish_failed", zap.Error(err))
	}
}

// AttachArchive exposes finished games under /games. Call before Serve.
func (m *Mirror) AttachArchive(repo archive.Repository) {
	m.archive = repo
}

func (m *Mirror) Last() (display.Frame, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.seen
}

// Handler serves /view (JSON), /frame.png, /events, /games and /healthz.
func (m *Mirror) Handler(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() && !ctx.IsHead() {
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		return
	}
	path := string(ctx.Path())
	switch {
	case path == "/healthz":
		ctx.SetContentType("text/plain; charset=utf-8")
		ctx.SetBodyString("ok")
	case path == "/view":
		m.serveView(ctx)
	case path == "/events":
		m.serveEvents(ctx)
	case path == "/games":
		m.serveGames(ctx)
	case strings.HasPrefix(path, "/games/"):
		m.serveGame(ctx, strings.TrimPrefix(path, "/games/"))
	case path == "/frame.png":
		f, ok := m.Last()
		if !ok {
			ctx.Error("no frame yet", fasthttp.StatusNotFound)
			return
		}
		data, err := display.RenderPNG(f)
		if err != nil {
			m.logger.Error("mirror_render_failed", zap.Error(err))
			ctx.Error("render failed", fasthttp.StatusInternalServerError)
			return
		}
		ctx.SetContentType("image/png")
		ctx.Response.Header.Set("Cache-Control", "no-store")
		ctx.SetBody(data)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

// Serve runs the HTTP endpoint on addr until ctx is cancelled.
func (m *Mirror) Serve(ctx context.Context, addr string) error {
	// No write timeout: /events streams for as long as the client listens.
	srv := &fasthttp.Server{
		Handler:     m.Handler,
		Name:        "nuclear-chess-mirror",
		ReadTimeout: 5 * time.Second,
		IdleTimeout: time.Minute,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(addr) }()
	m.logger.Info("mirror_listening", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		return srv.Shutdown()
	case err := <-errCh:
		return err
	}
}

// serveView answers with the in-memory frame, or the one kept in Redis when
// this process has not shown anything yet.
func (m *Mirror) serveView(ctx *fasthttp.RequestCtx) {
	var dto *viewdto.Frame
	if f, ok := m.Last(); ok {
		d := ToDTO(f, m.now())
		dto = &d
	} else if m.store != nil {
		lctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		latest, err := m.store.Latest(lctx)
		cancel()
		if err != nil {
			m.logger.Warn("mirror_latest_failed", zap.Error(err))
			ctx.Error("frame store unavailable", fasthttp.StatusServiceUnavailable)
			return
		}
		dto = latest
	}
	if dto == nil {
		ctx.Error("no frame yet", fasthttp.StatusNotFound)
		return
	}
	writeJSON(ctx, dto)
}

// serveEvents streams every stored frame as a server-sent event.
func (m *Mirror) serveEvents(ctx *fasthttp.RequestCtx) {
	if m.store == nil {
		ctx.Error("no frame store", fasthttp.StatusNotFound)
		return
	}
	sub := m.store.Subscribe(context.Background())
	rctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	_, err := sub.Receive(rctx)
	cancel()
	if err != nil {
		_ = sub.Close()
		m.logger.Warn("mirror_subscribe_failed", zap.Error(err))
		ctx.Error("frame store unavailable", fasthttp.StatusServiceUnavailable)
		return
	}

	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-store")
	done := ctx.Done()
	logger := m.logger
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer sub.Close()
		if err := writeEvents(w, sub.Channel(), done, eventsKeepAlive); err != nil {
			logger.Debug("mirror_events_closed", zap.Error(err))
		}
	})
}

// writeEvents copies frame payloads from msgs to w until msgs closes, done
// fires or the client stops reading.
func writeEvents(w *bufio.Writer, msgs <-chan *redis.Message, done <-chan struct{}, keepAlive time.Duration) error {
	tick := time.NewTicker(keepAlive)
	defer tick.Stop()
	for {
		select {
		case <-done:
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(w, "event: frame\ndata: %s\n\n", msg.Payload); err != nil {
				return err
			}
		case <-tick.C:
			if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}

func (m *Mirror) serveGames(ctx *fasthttp.RequestCtx) {
	if m.archive == nil {
		ctx.Error("no archive", fasthttp.StatusNotFound)
		return
	}
	limit := defaultGamesLimit
	if raw := ctx.QueryArgs().Peek("limit"); len(raw) > 0 {
		n, err := strconv.Atoi(string(raw))
		if err != nil || n <= 0 {
			ctx.Error("bad limit", fasthttp.StatusBadRequest)
			return
		}
		limit = min(n, maxGamesLimit)
	}
	lctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	games, err := m.archive.GetRecentGames(lctx, limit)
	if err != nil {
		m.logger.Error("mirror_games_failed", zap.Error(err))
		ctx.Error("archive unavailable", fasthttp.StatusServiceUnavailable)
		return
	}
	if games == nil {
		games = []*viewdto.GameRecord{}
	}
	writeJSON(ctx, games)
}

// serveGame answers /games/<id> with the record and /games/<id>.pgn with
// its PGN text.
func (m *Mirror) serveGame(ctx *fasthttp.RequestCtx, rest string) {
	if m.archive == nil {
		ctx.Error("no archive", fasthttp.StatusNotFound)
		return
	}
	raw, asPGN := strings.CutSuffix(rest, ".pgn")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		ctx.Error("not found", fasthttp.StatusNotFound)
		return
	}
	lctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	rec, err := m.archive.GetGame(lctx, id)
	if errors.Is(err, archive.ErrRecordNotFound) {
		ctx.Error("game not found", fasthttp.StatusNotFound)
		return
	}
	if err != nil {
		m.logger.Error("mirror_game_failed", zap.Int64("id", id), zap.Error(err))
		ctx.Error("archive unavailable", fasthttp.StatusServiceUnavailable)
		return
	}
	if !asPGN {
		writeJSON(ctx, rec)
		return
	}
	pgn := rec.PGN
	if pgn == "" {
		pgn = archive.BuildPGN(rec)
	}
	ctx.SetContentType("application/x-chess-pgn")
	ctx.SetBodyString(pgn)
}

func writeJSON(ctx *fasthttp.RequestCtx, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(raw)
}
