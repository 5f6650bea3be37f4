package game

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Labels are the user-visible strings the session hands to the display.
type Labels struct {
	Undo string
}

var DefaultLabels = Labels{Undo: "Undo"}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithSkillLevel(level int) Option {
	return func(s *Session) { s.skill = level }
}

// WithNodeBudgets replaces the skill table. Invalid tables are ignored.
func WithNodeBudgets(budgets []int) Option {
	return func(s *Session) {
		if ValidateBudgets(budgets) == nil {
			s.budgets = append([]int(nil), budgets...)
		}
	}
}

func WithLabels(l Labels) Option {
	return func(s *Session) {
		if l.Undo != "" {
			s.labels = l
		}
	}
}

// Session is the game controller. Every HandleKey, Update and Tick call runs
// under one lock; the last projected View is kept separately so the display
// can read it while a search holds the session.
type Session struct {
	engine  Engine
	logger  *zap.Logger
	budgets []int
	skill   int
	labels  Labels

	mu         sync.Mutex
	active     bool
	humanBlack bool
	state      State
	plies      int
	pending    Move
	cursor     Cursor
	history    History
	board      Board
	over       bool
	startedAt  time.Time
	capWarned  bool

	clock Clock

	viewMu sync.RWMutex
	view   View

	repaint  signal
	exit     signal
	gameOver signal
}

func NewSession(engine Engine, opts ...Option) *Session {
	s := &Session{
		engine:   engine,
		logger:   zap.NewNop(),
		budgets:  append([]int(nil), DefaultNodeBudgets...),
		labels:   DefaultLabels,
		pending:  EmptyMove,
		repaint:  newSignal(),
		exit:     newSignal(),
		gameOver: newSignal(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repaint is signalled whenever the view changed. Notifications coalesce.
func (s *Session) Repaint() <-chan struct{} { return s.repaint }

// Exit is signalled when the operator leaves the game for the menu.
func (s *Session) Exit() <-chan struct{} { return s.exit }

// GameOver is signalled when the side to move has no legal moves.
func (s *Session) GameOver() <-chan struct{} { return s.gameOver }

func (s *Session) SetSkillLevel(level int) {
	s.mu.Lock()
	s.skill = level
	s.mu.Unlock()
}

func (s *Session) SkillLevel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skill
}

// Reset starts a new game with the human on the given side.
func (s *Session) Reset(humanPlaysBlack bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Reset()
	s.engine.Notify(s.repaint)
	s.clearStop()

	s.humanBlack = humanPlaysBlack
	s.active = true
	s.over = false
	s.capWarned = false
	s.plies = 0
	s.history.Reset()
	s.pending = EmptyMove
	s.cursor.Clear()
	s.clock.Reset()
	s.startedAt = time.Now()

	if humanPlaysBlack {
		s.cursor.Focus()
		s.state = StatePlayMove
	} else {
		s.populate()
	}

	s.logger.Info("game_reset",
		zap.Bool("human_plays_black", humanPlaysBlack),
		zap.Int("skill_level", s.skill),
		zap.String("state", s.state.String()),
	)
	s.publish()
}

// Resume re-enters a game left through KeyBack.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearStop()
	s.active = true
	s.publish()
}

func (s *Session) clearStop() {
	if c, ok := s.engine.(StopClearer); ok {
		c.ClearStop()
	}
}

func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) sideToMove() Side {
	return Side(s.plies & 1)
}

func (s *Session) isHumanTurn() bool {
	return s.sideToMove() == sideOf(s.humanBlack)
}

func (s *Session) undoLegal() bool {
	return s.isHumanTurn() && s.history.Ply() > 1 && s.plies < HistorySize
}

// IsGameStart reports whether nothing has been played yet, or the game has
// ended with the side to move out of legal moves.
func (s *Session) IsGameStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plies == 0 || (s.state == StateSelectFirstMove && s.cursor.Len() == 0)
}

// HandleKey processes one keypad event.
func (s *Session) HandleKey(k Key) {
	if k == KeyBack {
		// Stop first: a search in progress holds the lock until it returns.
		s.engine.Stop()
		s.mu.Lock()
		s.active = false
		s.publishClock()
		s.mu.Unlock()
		s.logger.Info("game_exit_to_menu")
		s.exit.fire()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}

	switch k {
	case KeyBackward:
		s.step(-1)
	case KeyForward:
		s.step(1)
	case KeySelect:
		s.confirm()
	}
}

func (s *Session) step(direction int) {
	switch s.state {
	case StateSelectFirstMove:
		if s.pending.To != NoSquare {
			s.reanchor()
		} else {
			s.pending.From = s.cursor.SelectFrom(direction, s.undoLegal())
		}
	case StateSelectSecondMove:
		s.pending = s.cursor.SelectTo(direction)
	default:
		return
	}
	s.publish()
}

func (s *Session) confirm() {
	if !s.isHumanTurn() {
		return
	}

	switch {
	case s.cursor.ButtonFocused():
		switch s.state {
		case StateSelectFirstMove:
			if s.undoLegal() {
				s.state = StateUndoMove
			}
		case StateSelectSecondMove:
			s.state = StateSelectFirstMove
			s.pending.To = NoSquare
			s.cursor.Unfocus()
			s.publish()
		}
	case s.state == StateSelectFirstMove:
		if s.pending.To != NoSquare {
			s.reanchor()
		} else if s.cursor.Len() > 0 {
			s.state = StateSelectSecondMove
			s.pending = s.cursor.Current()
		}
		s.publish()
	case s.state == StateSelectSecondMove:
		s.state = StatePlayMove
		s.cursor.Focus()
		s.publish()
	}
}

func (s *Session) reanchor() {
	s.pending = Move{From: s.cursor.DefaultFrom(), To: NoSquare}
}

// Update runs the autonomous part of a turn: submitting the human move,
// letting the engine reply, and undoing. It is driven from the UI loop.
func (s *Session) Update(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}

	switch s.state {
	case StatePlayMove:
		if s.pending.IsPending() {
			if err := s.engine.Apply(s.pending); err != nil {
				s.logger.Error("game_move_rejected",
					zap.String("move", MoveLabel(s.pending)),
					zap.Int("ply", s.plies),
					zap.Error(err),
				)
				s.pending = EmptyMove
				s.populate()
				s.publish()
				return
			}
			s.record(s.pending)
			s.pending = EmptyMove
			s.publish()
		}

		if !s.isHumanTurn() {
			budget := NodeBudget(s.budgets, s.skill)
			start := time.Now()
			mv, ok := s.engine.Search(ctx, budget)
			if !ok {
				if s.searchStopped(ctx) {
					s.logger.Info("engine_search_cancelled",
						zap.Int("ply", s.plies),
						zap.Duration("elapsed", time.Since(start)),
					)
					return
				}
				s.pending = EmptyMove
				s.populate()
				s.publish()
				return
			}
			s.logger.Debug("engine_search_done",
				zap.String("move", MoveLabel(mv)),
				zap.Int("nodes", budget),
				zap.Duration("elapsed", time.Since(start)),
			)
			s.pending = mv
			s.record(mv)
		}

		s.populate()
		s.publish()

	case StateUndoMove:
		s.undo()
		s.populate()
		s.publish()
	}
}

func (s *Session) searchStopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	if r, ok := s.engine.(StopReporter); ok {
		return r.Stopped()
	}
	return false
}

func (s *Session) record(m Move) {
	s.plies++
	if !s.history.Record(m) && !s.capWarned {
		s.capWarned = true
		s.logger.Warn("game_history_full",
			zap.Int("capacity", HistorySize),
			zap.Int("ply", s.plies),
		)
	}
	s.logger.Debug("game_move_applied",
		zap.String("move", MoveLabel(m)),
		zap.Int("ply", s.plies),
	)
}

func (s *Session) undo() {
	s.history.Rewind()
	s.plies = s.history.Ply()
	if err := s.history.Replay(s.engine); err != nil {
		s.logger.Error("game_undo_replay_failed", zap.Int("ply", s.plies), zap.Error(err))
	}
	s.pending = EmptyMove
	if last, ok := s.history.At(s.plies - 1); ok {
		s.pending = last
	}
	s.over = false
	s.logger.Info("game_undo", zap.Int("ply", s.plies))
}

// populate reloads the legal moves for the side to move and returns to
// origin selection.
func (s *Session) populate() {
	s.cursor.Load(s.engine, s.humanBlack)
	s.state = StateSelectFirstMove

	if s.cursor.Len() > 0 && !s.cursor.grouped() {
		s.logger.DPanic("engine_moves_not_grouped", zap.Int("moves", s.cursor.Len()))
	}

	switch {
	case s.cursor.Len() == 0:
		s.pending = EmptyMove
		if !s.over {
			s.over = true
			s.logger.Info("game_over",
				zap.Int("ply", s.plies),
				zap.String("side_to_move", s.sideToMove().String()),
				zap.Bool("human_to_move", s.isHumanTurn()),
			)
			s.gameOver.fire()
		}
	case s.plies == 0:
		s.pending = Move{From: s.cursor.Current().From, To: NoSquare}
	}
}

// Tick advances the clock of the side to move by one tick and refreshes the
// times of the cached view. It does not take the session lock.
func (s *Session) Tick() {
	if !s.clock.Tick() {
		return
	}
	s.viewMu.Lock()
	s.view.Times = s.clockTimes(s.view.HumanPlaysBlack)
	s.viewMu.Unlock()
	s.repaint.fire()
}

func (s *Session) publishClock() {
	running := s.active && !(s.state == StateSelectFirstMove && s.cursor.Len() == 0)
	s.clock.Track(s.sideToMove(), running)
}

// publish reprojects the board, refreshes the cached view and requests a
// repaint. Callers hold s.mu.
func (s *Session) publish() {
	s.publishClock()
	s.board = s.projectBoard()
	v := s.buildView()
	s.viewMu.Lock()
	s.view = v
	s.viewMu.Unlock()
	s.repaint.fire()
}

// View returns the last projected view. It does not wait for a search.
func (s *Session) View() View {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view
}

// Snapshot describes the game for archiving.
type Snapshot struct {
	HumanPlaysBlack bool
	SkillLevel      int
	Plies           int
	Moves           []Move
	Times           [2]int
	Over            bool
	SideToMove      Side
	HumanToMove     bool
	StartedAt       time.Time
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		HumanPlaysBlack: s.humanBlack,
		SkillLevel:      s.skill,
		Plies:           s.plies,
		Moves:           s.history.Moves(),
		Times:           [2]int{s.clock.Elapsed(White), s.clock.Elapsed(Black)},
		Over:            s.over,
		SideToMove:      s.sideToMove(),
		HumanToMove:     s.isHumanTurn(),
		StartedAt:       s.startedAt,
	}
}
