package game

func (s *Session) debugState() (State, int, Move) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.plies, s.pending
}

func (s *Session) debugCursor() (index int, focused bool, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Index(), s.cursor.ButtonFocused(), s.cursor.Len()
}

func (s *Session) debugHistoryPly() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Ply()
}
