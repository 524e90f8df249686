package epubdoc

import "fmt"

// Cursor is a position over the spine: purely positional bookkeeping for a
// reading session. It never prefetches or caches content. A Cursor is not
// safe for concurrent use; give each concurrent reading session its own
// Cursor via Document.NewCursor.
type Cursor struct {
	spine []SpineItem
	pos   int
}

// Position returns the current spine index.
func (c *Cursor) Position() int {
	return c.pos
}

// Current returns the spine entry at the current position.
func (c *Cursor) Current() SpineItem {
	return c.spine[c.pos]
}

// GoTo moves the cursor to the given spine index. An index outside
// [0, len(spine)-1] fails with a wrapped ErrOutOfBounds and leaves the
// position unchanged.
func (c *Cursor) GoTo(i int) error {
	if i < 0 || i >= len(c.spine) {
		return fmt.Errorf("spine index %d (spine length %d): %w", i, len(c.spine), ErrOutOfBounds)
	}
	c.pos = i
	return nil
}

// Next advances the cursor and returns the new current entry. At the last
// index the position is left unchanged and the current entry is returned.
func (c *Cursor) Next() SpineItem {
	if c.pos < len(c.spine)-1 {
		c.pos++
	}
	return c.spine[c.pos]
}

// Prev moves the cursor back and returns the new current entry. At index 0
// the position is left unchanged and the current entry is returned.
func (c *Cursor) Prev() SpineItem {
	if c.pos > 0 {
		c.pos--
	}
	return c.spine[c.pos]
}

// NewCursor returns an independent cursor over the document's spine,
// starting at index 0. The built-in cursor and all clones share the
// immutable spine but move independently.
func (d *Document) NewCursor() *Cursor {
	return &Cursor{spine: d.spine}
}

// Position returns the built-in cursor's current spine index.
func (d *Document) Position() int { return d.cursor.Position() }

// Current returns the spine entry at the built-in cursor's position.
func (d *Document) Current() SpineItem { return d.cursor.Current() }

// GoTo moves the built-in cursor. See Cursor.GoTo.
func (d *Document) GoTo(i int) error { return d.cursor.GoTo(i) }

// Next advances the built-in cursor. See Cursor.Next.
func (d *Document) Next() SpineItem { return d.cursor.Next() }

// Prev moves the built-in cursor back. See Cursor.Prev.
func (d *Document) Prev() SpineItem { return d.cursor.Prev() }
