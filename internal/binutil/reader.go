package binutil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"go4.org/readerutil"
)

// OutOfBoundsError is returned when a read would go past the end of the data.
type OutOfBoundsError struct {
	Path   string
	Offset int64
	Length int
	Size   int64
	What   string // what was being read
}

func (e *OutOfBoundsError) Error() string {
	if e.Offset >= e.Size {
		return fmt.Sprintf("%s: offset %d out of bounds (size: %d) while reading %s",
			e.Path, e.Offset, e.Size, e.What)
	}
	return fmt.Sprintf("%s: read of %d bytes at offset %d would exceed size %d while reading %s",
		e.Path, e.Length, e.Offset, e.Size, e.What)
}

// SafeReader performs bounds-checked reads against a sized source.
type SafeReader struct {
	r    readerutil.SizeReaderAt
	path string
}

// NewSafeReader wraps r. path is only used in error messages.
func NewSafeReader(r readerutil.SizeReaderAt, path string) *SafeReader {
	return &SafeReader{r: r, path: path}
}

// Size returns the total number of readable bytes.
func (sr *SafeReader) Size() int64 {
	return sr.r.Size()
}

// Path returns the path the reader reports in errors.
func (sr *SafeReader) Path() string {
	return sr.path
}

// ReadAt reads exactly n bytes at off.
func (sr *SafeReader) ReadAt(off int64, n int, what string) ([]byte, error) {
	size := sr.r.Size()
	if off < 0 || n < 0 || off+int64(n) > size {
		return nil, &OutOfBoundsError{Path: sr.path, Offset: off, Length: n, Size: size, What: what}
	}
	buf := make([]byte, n)
	m, err := sr.r.ReadAt(buf, off)
	if m < n {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("failed to read %s at offset %d: %w", what, off, err)
	}
	return buf, nil
}

// Uint32BE reads a big-endian 32-bit word at off.
func (sr *SafeReader) Uint32BE(off int64, what string) (uint32, error) {
	b, err := sr.ReadAt(off, 4, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Cursor walks an immutable byte slice front to back.
type Cursor struct {
	data []byte
	pos  int
	path string
}

// NewCursor returns a cursor positioned at the start of data.
func NewCursor(data []byte, path string) *Cursor {
	return &Cursor{data: data, path: path}
}

// Pos returns the current offset.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// Bytes returns the next n bytes without copying.
func (c *Cursor) Bytes(n int, what string) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, &OutOfBoundsError{
			Path:   c.path,
			Offset: int64(c.pos),
			Length: n,
			Size:   int64(len(c.data)),
			What:   what,
		}
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Skip advances past n bytes.
func (c *Cursor) Skip(n int, what string) error {
	_, err := c.Bytes(n, what)
	return err
}

// U8 reads one byte.
func (c *Cursor) U8(what string) (uint8, error) {
	b, err := c.Bytes(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16LE reads a little-endian 16-bit value.
func (c *Cursor) U16LE(what string) (uint16, error) {
	b, err := c.Bytes(2, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U16BE reads a big-endian 16-bit value.
func (c *Cursor) U16BE(what string) (uint16, error) {
	b, err := c.Bytes(2, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// U32BE reads a big-endian 32-bit value.
func (c *Cursor) U32BE(what string) (uint32, error) {
	b, err := c.Bytes(4, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// U32LE reads a little-endian 32-bit value.
func (c *Cursor) U32LE(what string) (uint32, error) {
	b, err := c.Bytes(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64LE reads a little-endian 64-bit value.
func (c *Cursor) U64LE(what string) (uint64, error) {
	b, err := c.Bytes(8, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}
