package keypad

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/park285/nuclear-chess/internal/game"
	"github.com/park285/nuclear-chess/pkg/viewdto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

var ErrNoKeypadURL = errors.New("keypad: remote URL required")

// Remote reads key presses from a websocket relay and forwards them to the
// shared key queue. It reconnects with backoff until closed.
type Remote struct {
	url    string
	out    chan<- game.Key
	logger *zap.Logger
	header http.Header

	maxReconnectAttempts int
	reconnectDelay       time.Duration
	pingInterval         time.Duration

	mu    sync.Mutex
	conn  *websocket.Conn
	state State

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

type RemoteOption func(*Remote)

func WithHeader(h http.Header) RemoteOption {
	return func(r *Remote) { r.header = h.Clone() }
}

func WithReconnect(attempts int, delay time.Duration) RemoteOption {
	return func(r *Remote) {
		r.maxReconnectAttempts = attempts
		r.reconnectDelay = delay
	}
}

func WithPingInterval(d time.Duration) RemoteOption {
	return func(r *Remote) { r.pingInterval = d }
}

func NewRemote(url string, out chan<- game.Key, logger *zap.Logger, opts ...RemoteOption) *Remote {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Remote{
		url:                  strings.TrimSpace(url),
		out:                  out,
		logger:               logger,
		header:               http.Header{},
		maxReconnectAttempts: 10,
		reconnectDelay:       500 * time.Millisecond,
		pingInterval:         30 * time.Second,
		stopCh:               make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.rootCtx, r.rootCancel = context.WithCancel(context.Background())
	return r
}

func (r *Remote) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Remote) setState(s State) {
	r.mu.Lock()
	prev := r.state
	r.state = s
	r.mu.Unlock()
	if prev != s {
		r.logger.Info("keypad_remote_state", zap.String("state", s.String()), zap.String("url", r.url))
	}
}

// Connect dials the relay. A failed first dial still schedules reconnects.
func (r *Remote) Connect(ctx context.Context) error {
	if r.url == "" {
		return ErrNoKeypadURL
	}
	switch r.State() {
	case StateConnected, StateConnecting:
		return nil
	}
	r.setState(StateConnecting)

	if err := r.dial(ctx); err != nil {
		r.setState(StateFailed)
		r.scheduleReconnect()
		return err
	}
	return nil
}

func (r *Remote) dial(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, r.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      r.header,
	})
	if err != nil {
		return err
	}
	if r.isStopping() {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
		return errors.New("keypad: closed")
	}

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()
	r.setState(StateConnected)

	r.wg.Add(2)
	go r.listen(conn)
	go r.pingLoop(conn)
	return nil
}

func (r *Remote) listen(conn *websocket.Conn) {
	defer r.wg.Done()
	for {
		var msg viewdto.KeyMessage
		if err := wsjson.Read(r.rootCtx, conn, &msg); err != nil {
			if r.isStopping() {
				return
			}
			r.logger.Warn("keypad_remote_read_failed", zap.Error(err))
			r.drop(conn, websocket.StatusGoingAway, "reconnect")
			r.scheduleReconnect()
			return
		}

		k, ok := FromName(msg.Key)
		if !ok {
			r.logger.Debug("keypad_remote_unknown_key", zap.String("key", msg.Key))
			continue
		}
		if !Send(r.out, k) {
			r.logger.Warn("keypad_queue_full", zap.String("key", k.String()))
		}
	}
}

func (r *Remote) pingLoop(conn *websocket.Conn) {
	defer r.wg.Done()
	t := time.NewTicker(r.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-r.stopCh:
			return
		case <-r.rootCtx.Done():
			return
		case <-t.C:
			if !r.current(conn) {
				return
			}
			ctx, cancel := context.WithTimeout(r.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				if r.isStopping() {
					return
				}
				r.drop(conn, websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

func (r *Remote) current(conn *websocket.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn == conn
}

// drop closes conn if it is still the active connection.
func (r *Remote) drop(conn *websocket.Conn, code websocket.StatusCode, reason string) {
	r.mu.Lock()
	if r.conn != conn {
		r.mu.Unlock()
		return
	}
	r.conn = nil
	r.mu.Unlock()
	r.setState(StateDisconnected)
	_ = conn.Close(code, reason)
}

func (r *Remote) scheduleReconnect() {
	if r.maxReconnectAttempts <= 0 || r.isStopping() {
		return
	}
	r.setState(StateReconnecting)

	go func() {
		for attempt := 1; attempt <= r.maxReconnectAttempts; attempt++ {
			select {
			case <-r.stopCh:
				return
			case <-time.After(r.backoff(attempt)):
			}
			if err := r.dial(r.rootCtx); err != nil {
				r.logger.Debug("keypad_remote_redial_failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			return
		}
		r.setState(StateFailed)
	}()
}

func (r *Remote) backoff(attempt int) time.Duration {
	d := r.reconnectDelay << (attempt - 1)
	if ceiling := 30 * time.Second; d > ceiling || d <= 0 {
		return ceiling
	}
	return d
}

func (r *Remote) isStopping() bool {
	select {
	case <-r.stopCh:
		return true
	default:
		return false
	}
}

// Close stops reconnecting, closes the connection and waits for the reader.
func (r *Remote) Close(ctx context.Context) error {
	r.stopOnce.Do(func() { close(r.stopCh) })

	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}
	r.rootCancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		r.setState(StateDisconnected)
		return nil
	}
}
