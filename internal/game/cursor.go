package game

import "fmt"

// Cursor walks the engine's legal-move list. Moves sharing an origin square
// form contiguous groups; the cursor rests on one entry of the list, or on
// the button slot when buttonFocused is set.
type Cursor struct {
	moves    [MaxValidMoves]Move
	n        int
	index    int
	focused  bool
	mirrored bool
}

func (c *Cursor) Len() int            { return c.n }
func (c *Cursor) Index() int          { return c.index }
func (c *Cursor) ButtonFocused() bool { return c.focused }

func (c *Cursor) Clear() {
	c.n = 0
	c.index = 0
	c.focused = false
}

// Load fills the list from e, truncating at MaxValidMoves, and places the
// cursor on its default entry: the last one when mirrored, else the first.
// An empty list focuses the button.
func (c *Cursor) Load(e Engine, mirrored bool) {
	c.mirrored = mirrored
	c.n = e.LegalMoves(c.moves[:])
	if c.n > MaxValidMoves {
		c.n = MaxValidMoves
	}
	if c.n < 0 {
		c.n = 0
	}
	c.index = 0
	if mirrored && c.n > 0 {
		c.index = c.n - 1
	}
	c.focused = c.n == 0
}

// Current is the entry under the cursor.
func (c *Cursor) Current() Move {
	return c.at(c.index)
}

// Moves returns a copy of the loaded list.
func (c *Cursor) Moves() []Move {
	out := make([]Move, c.n)
	copy(out, c.moves[:c.n])
	return out
}

func (c *Cursor) at(i int) Move {
	if i < 0 || i >= c.n {
		panic(fmt.Errorf("%w: index %d, len %d", ErrCursorInvariant, i, c.n))
	}
	return c.moves[i]
}

func (c *Cursor) orient(direction int) int {
	if c.mirrored {
		return -direction
	}
	return direction
}

// grouped reports whether same-origin moves are contiguous.
func (c *Cursor) grouped() bool {
	seen := make(map[Square]bool, c.n)
	for i := 0; i < c.n; i++ {
		from := c.moves[i].From
		if i > 0 && c.moves[i-1].From == from {
			continue
		}
		if seen[from] {
			return false
		}
		seen[from] = true
	}
	return true
}

// traverse moves the index to the last entry of the current origin group in
// direction.
func (c *Cursor) traverse(direction int) {
	if c.n == 0 {
		return
	}
	from := c.at(c.index).From
	for {
		c.index += direction
		if c.index < 0 || c.index >= c.n {
			break
		}
		if c.moves[c.index].From != from {
			break
		}
	}
	c.index -= direction
}

// SelectFrom steps the origin selection one group in direction. Running off
// either end of the list wraps around, landing on the button when undoLegal.
// It returns the selected origin, or NoSquare when the button is focused.
func (c *Cursor) SelectFrom(direction int, undoLegal bool) Square {
	if c.n == 0 {
		return NoSquare
	}
	direction = c.orient(direction)

	if c.focused {
		c.focused = false
		if direction == 1 {
			c.index = 0
		} else {
			c.index = c.n - 1
		}
	} else {
		c.traverse(direction)
		c.index += direction
		if c.index >= c.n {
			c.index = 0
			if undoLegal {
				c.focused = true
			}
		} else if c.index < 0 {
			c.index = c.n - 1
			if undoLegal {
				c.focused = true
			}
		}
	}

	c.traverse(c.orient(-1))

	if c.focused {
		return NoSquare
	}
	return c.at(c.index).From
}

// SelectTo steps the destination within the current origin group. Stepping
// past either end of the group focuses the button (cancel) instead.
func (c *Cursor) SelectTo(direction int) Move {
	if c.n == 0 {
		return EmptyMove
	}
	direction = c.orient(direction)

	if c.focused {
		c.focused = false
		c.traverse(-direction)
	} else {
		from := c.at(c.index).From
		next := c.index + direction
		if next < 0 || next >= c.n || c.moves[next].From != from {
			c.traverse(-direction)
			c.focused = true
		} else {
			c.index = next
		}
	}

	cur := c.at(c.index)
	if c.focused {
		return Move{From: cur.From, To: NoSquare}
	}
	return cur
}

// DefaultFrom is the origin shown when re-anchoring to origin selection.
func (c *Cursor) DefaultFrom() Square {
	if c.n == 0 {
		return NoSquare
	}
	if c.mirrored {
		return c.at(c.n - 1).From
	}
	return c.at(0).From
}

// Unfocus clears the button focus without moving the index.
func (c *Cursor) Unfocus() { c.focused = false }

// Focus puts the cursor on the button slot.
func (c *Cursor) Focus() { c.focused = true }
