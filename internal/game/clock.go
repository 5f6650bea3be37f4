package game

import (
	"fmt"
	"sync"
)

// Clock keeps one saturating elapsed-time counter per side. The session
// tells it which side is running; Tick only touches the clock, so a tick is
// never held up by a search in progress.
type Clock struct {
	mu      sync.Mutex
	time    [2]int
	side    Side
	running bool
}

func (c *Clock) Reset() {
	c.mu.Lock()
	c.time = [2]int{}
	c.running = false
	c.mu.Unlock()
}

// Track sets the side whose counter advances and whether counting is on.
func (c *Clock) Track(side Side, running bool) {
	c.mu.Lock()
	c.side = side
	c.running = running
	c.mu.Unlock()
}

// Tick advances the running side by one tick, stopping at ClockCeiling. It
// reports whether a counter changed.
func (c *Clock) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return false
	}
	t := c.time[c.side] + 1
	if t >= ClockCeiling {
		return false
	}
	c.time[c.side] = t
	return true
}

func (c *Clock) Elapsed(side Side) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.time[side]
}

func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// FormatClock renders ticks (seconds) as mm:ss.
func FormatClock(ticks int) string {
	if ticks < 0 {
		ticks = 0
	}
	return fmt.Sprintf("%02d:%02d", ticks/60, ticks%60)
}
