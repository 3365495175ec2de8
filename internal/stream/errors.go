package stream

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every decoding layer. Callers match with errors.Is.
var (
	// ErrFormat is returned when the file does not start with the expected
	// magic or carries values that cannot belong to a valid save.
	ErrFormat = errors.New("wrong file format")

	// ErrUnexpectedEOF is returned by any read, skip or seek that runs past
	// the available bytes, raw or decompressed.
	ErrUnexpectedEOF = errors.New("unexpected end of file")

	// ErrDecompression is returned when inflating or LZ4-decoding fails.
	ErrDecompression = errors.New("decompression failed")

	// ErrUnsupportedCompression is returned for compression codes outside
	// the three known framings.
	ErrUnsupportedCompression = errors.New("unsupported compression type")

	// ErrClosed is returned by reads on a closed Context.
	ErrClosed = errors.New("stream closed")
)

// FormatError reports a magic mismatch.
type FormatError struct {
	Expected string
	Got      string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("wrong file format: expected %q, got %q", e.Expected, e.Got)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// UnsupportedCompressionError carries the unrecognized compression code.
type UnsupportedCompressionError struct {
	Type uint16
}

func (e *UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("unsupported compression type: %d", e.Type)
}

func (e *UnsupportedCompressionError) Is(target error) bool {
	return target == ErrUnsupportedCompression
}
