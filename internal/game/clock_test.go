package game

import "testing"

func TestClock_TicksRunningSideOnly(t *testing.T) {
	var c Clock
	c.Tick()
	if c.Elapsed(White) != 0 {
		t.Fatalf("stopped clock must not advance")
	}

	c.Track(White, true)
	c.Tick()
	c.Tick()
	c.Track(Black, true)
	c.Tick()
	if c.Elapsed(White) != 2 || c.Elapsed(Black) != 1 {
		t.Fatalf("unexpected times %d/%d", c.Elapsed(White), c.Elapsed(Black))
	}

	c.Track(Black, false)
	c.Tick()
	if c.Elapsed(Black) != 1 || c.Running() {
		t.Fatalf("clock must stop when not running")
	}

	c.Reset()
	if c.Elapsed(White) != 0 || c.Elapsed(Black) != 0 {
		t.Fatalf("reset must zero both counters")
	}
}

func TestClock_Saturates(t *testing.T) {
	var c Clock
	c.Track(White, true)
	for i := 0; i < ClockCeiling+10; i++ {
		c.Tick()
	}
	if got := c.Elapsed(White); got != ClockCeiling-1 {
		t.Fatalf("elapsed = %d, want %d", got, ClockCeiling-1)
	}
	if got := FormatClock(c.Elapsed(White)); got != "59:59" {
		t.Fatalf("FormatClock = %q", got)
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[int]string{0: "00:00", 59: "00:59", 61: "01:01", 754: "12:34", -3: "00:00"}
	for in, want := range cases {
		if got := FormatClock(in); got != want {
			t.Fatalf("FormatClock(%d) = %q, want %q", in, got, want)
		}
	}
}
