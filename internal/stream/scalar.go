package stream

import (
	"encoding/binary"
	"fmt"
)

// Scalar lists the fixed-width values found in save files. All of them are
// stored little-endian.
type Scalar interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~uint64 | ~int64 | ~float32 | ~float64
}

// Read decodes one T from src and, when src uses field markers, consumes
// the marker byte that follows it.
func Read[T Scalar](src Source) (T, error) {
	var v T
	buf := make([]byte, binary.Size(v))
	if err := src.ReadFull(buf); err != nil {
		return v, err
	}
	if _, err := binary.Decode(buf, binary.LittleEndian, &v); err != nil {
		return v, fmt.Errorf("failed to decode %T: %w", v, err)
	}
	if src.FieldMarkers() {
		if err := src.Skip(1); err != nil {
			return v, fmt.Errorf("failed to skip field marker: %w", err)
		}
	}
	return v, nil
}

// ReadBool reads a single byte and reports whether it is non-zero.
func ReadBool(src Source) (bool, error) {
	b, err := Read[uint8](src)
	return b != 0, err
}

// SkipN skips count values of type T. Field markers are not consumed.
func SkipN[T Scalar](src Source, count int) error {
	var v T
	return src.Skip(int64(binary.Size(v) * count))
}

// ReadBytes reads n raw bytes from src into a new slice.
func ReadBytes(src Source, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrFormat, n)
	}
	if c, ok := src.(*Cursor); ok {
		return c.ReadBytes(n)
	}
	b := make([]byte, n)
	if err := src.ReadFull(b); err != nil {
		return nil, err
	}
	return b, nil
}
