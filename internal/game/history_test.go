package game

import "testing"

func TestHistory_RecordSaturates(t *testing.T) {
	var h History
	m := Move{From: NewSquare(6, 4), To: NewSquare(4, 4)}
	for i := 0; i < HistorySize; i++ {
		if !h.Record(m) {
			t.Fatalf("record %d rejected below capacity", i)
		}
	}
	if h.Record(m) {
		t.Fatalf("record past capacity must be a no-op")
	}
	if h.Ply() != HistorySize {
		t.Fatalf("ply = %d, want %d", h.Ply(), HistorySize)
	}
	if _, ok := h.At(HistorySize); ok {
		t.Fatalf("At past capacity must fail")
	}
}

func TestHistory_RewindClamps(t *testing.T) {
	var h History
	h.Record(Move{From: NewSquare(6, 0), To: NewSquare(5, 0)})
	h.Record(Move{From: NewSquare(1, 0), To: NewSquare(2, 0)})
	h.Record(Move{From: NewSquare(6, 1), To: NewSquare(5, 1)})

	h.Rewind()
	if h.Ply() != 1 {
		t.Fatalf("ply after rewind = %d, want 1", h.Ply())
	}
	h.Rewind()
	if h.Ply() != 0 {
		t.Fatalf("rewind must clamp at zero, got %d", h.Ply())
	}
	if len(h.Moves()) != 0 {
		t.Fatalf("expected no moves")
	}
}

func TestHistory_Replay(t *testing.T) {
	var h History
	moves := groupedMoves(1, 1, 1)
	for _, m := range moves {
		h.Record(m)
	}

	f := newFakeEngine(nil)
	f.applied = []Move{{From: NewSquare(0, 0), To: NewSquare(7, 7)}}
	if err := h.Replay(f); err != nil {
		t.Fatalf("replay: %v", err)
	}
	got := f.appliedMoves()
	if f.resets != 1 || len(got) != len(moves) {
		t.Fatalf("replay must reset then apply every move, resets=%d applied=%v", f.resets, got)
	}
	for i := range moves {
		if got[i] != moves[i] {
			t.Fatalf("move %d = %v, want %v", i, got[i], moves[i])
		}
	}

	f.reject = func(m Move) bool { return m == moves[1] }
	if err := h.Replay(f); err == nil {
		t.Fatalf("expected replay to surface the engine error")
	}
}
