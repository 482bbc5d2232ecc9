package matchinfo

import (
	"errors"
	"fmt"
)

// ErrTruncated reports an attempt to read past the end of the decoded values,
// which means the format string does not describe the buffer.
var ErrTruncated = errors.New("matchinfo: buffer exhausted")

// Cursor reads decoded matchinfo values strictly front to back. The backing
// slice is never modified.
type Cursor struct {
	values []uint32
	pos    int
}

// NewCursor returns a cursor positioned at the first value.
func NewCursor(values []uint32) *Cursor {
	return &Cursor{values: values}
}

// Next returns the next value together with its absolute index.
func (c *Cursor) Next() (uint32, int, error) {
	if c.pos >= len(c.values) {
		return 0, c.pos, fmt.Errorf("%w: read at index %d of %d", ErrTruncated, c.pos, len(c.values))
	}
	idx := c.pos
	c.pos++
	return c.values[idx], idx, nil
}

// Pos is the index of the next value to be read.
func (c *Cursor) Pos() int { return c.pos }

// Remaining is the number of unread values.
func (c *Cursor) Remaining() int { return len(c.values) - c.pos }
