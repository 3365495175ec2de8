package stream

import (
	"fmt"
	"io"
)

// Source is anything the codecs can pull bytes from: the raw Cursor or an
// opened Context.
type Source interface {
	// ReadFull fills p completely or fails with ErrUnexpectedEOF.
	ReadFull(p []byte) error
	// Skip advances n bytes without returning them.
	Skip(n int64) error
	// FieldMarkers reports whether every fixed-width read is followed by a
	// one byte marker that must be consumed.
	FieldMarkers() bool
	// Remaining is an upper bound on the bytes still readable, checked
	// before allocating for a length read from the file.
	Remaining() int64
}

// Cursor is a forward reader over a raw save file. It keeps its own
// position so the backing io.ReaderAt can be shared.
type Cursor struct {
	r            io.ReaderAt
	size         int64
	pos          int64
	fieldMarkers bool
}

// NewCursor creates a cursor positioned at the start of r.
func NewCursor(r io.ReaderAt, size int64) *Cursor {
	return &Cursor{r: r, size: size}
}

// SetFieldMarkers toggles the trailing marker byte after fixed-width reads.
func (c *Cursor) SetFieldMarkers(enabled bool) {
	c.fieldMarkers = enabled
}

func (c *Cursor) FieldMarkers() bool {
	return c.fieldMarkers
}

// Pos returns the absolute offset of the next byte to be read.
func (c *Cursor) Pos() int64 {
	return c.pos
}

// Size returns the length of the underlying file.
func (c *Cursor) Size() int64 {
	return c.size
}

func (c *Cursor) Remaining() int64 {
	return max(0, c.size-c.pos)
}

func (c *Cursor) ReadFull(p []byte) error {
	if int64(len(p)) > c.size-c.pos {
		return fmt.Errorf("%w: need %d bytes at offset %d, file is %d bytes",
			ErrUnexpectedEOF, len(p), c.pos, c.size)
	}
	n, err := c.r.ReadAt(p, c.pos)
	c.pos += int64(n)
	if n != len(p) {
		if err == nil || err == io.EOF {
			err = ErrUnexpectedEOF
		}
		return fmt.Errorf("failed to read %d bytes at offset %d: %w", len(p), c.pos-int64(n), err)
	}
	return nil
}

// ReadBytes reads n bytes into a freshly allocated slice.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || int64(n) > c.size-c.pos {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d", ErrUnexpectedEOF, n, c.pos)
	}
	b := make([]byte, n)
	if err := c.ReadFull(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Cursor) Skip(n int64) error {
	if n < 0 || n > c.size-c.pos {
		return fmt.Errorf("%w: cannot skip %d bytes at offset %d", ErrUnexpectedEOF, n, c.pos)
	}
	c.pos += n
	return nil
}

// SeekTo moves the cursor to an absolute offset.
func (c *Cursor) SeekTo(pos int64) error {
	if pos < 0 || pos > c.size {
		return fmt.Errorf("%w: cannot seek to %d, file is %d bytes", ErrUnexpectedEOF, pos, c.size)
	}
	c.pos = pos
	return nil
}

// section exposes the raw bytes from off to the end of the file without
// moving the cursor.
func (c *Cursor) section(off int64) *io.SectionReader {
	return io.NewSectionReader(c.r, off, c.size-off)
}
