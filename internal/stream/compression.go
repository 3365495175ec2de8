package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how the trailer of a save is framed.
type Compression uint16

const (
	// CompressionRaw means trailer fields follow the header directly.
	CompressionRaw Compression = iota
	// CompressionZlib is a sequence of zlib (or gzip) streams, each
	// starting on a 16 byte boundary, inflated one at a time on demand.
	//
	// [next_chunk_offset(u64)][uncompressed_size(u64)] ... chunks
	CompressionZlib
	// CompressionLZ4 is one LZ4 block decompressed in a single call.
	//
	// [uncompressed_size(u32)][compressed_size(u32)][compressed bytes]
	CompressionLZ4
)

const (
	// chunkWindow is the size of the raw input and inflated output windows
	// used while inflating one chunk.
	chunkWindow = 16 * 1024

	// chunkAlign is the on-disk alignment of chunk boundaries.
	chunkAlign = 16

	// maxLZ4Ratio bounds the declared uncompressed size of an LZ4 block.
	// A single LZ4 sequence cannot expand by more than 255x.
	maxLZ4Ratio = 255

	// maxDeflateRatio bounds how far a deflate stream can expand.
	maxDeflateRatio = 1032
)

// ParseCompression validates a compression code read from a save header.
func ParseCompression(code uint16) (Compression, error) {
	switch c := Compression(code); c {
	case CompressionRaw, CompressionZlib, CompressionLZ4:
		return c, nil
	default:
		return 0, &UnsupportedCompressionError{Type: code}
	}
}

func (c Compression) String() string {
	switch c {
	case CompressionRaw:
		return "raw"
	case CompressionZlib:
		return "zlib"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", uint16(c))
	}
}

// Context dispatches trailer reads either straight to the raw cursor or to
// a decompressed working buffer. The buffer never leaves the Context: reads
// always copy out of it.
type Context struct {
	cursor *Cursor
	logger *slog.Logger

	kind    Compression
	kindSet bool
	opened  bool
	closed  bool

	// chunked zlib bookkeeping
	nextChunk  uint64
	targetSize uint64
	inflated   uint64

	buf []byte
	off int
}

// NewContext wraps cursor. Until Open is called every read goes to the
// cursor unchanged.
func NewContext(cursor *Cursor, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{cursor: cursor, logger: logger}
}

// SetCompressionType selects the trailer framing. It may only be called
// once, and only before Open.
func (x *Context) SetCompressionType(kind Compression) error {
	if x.kindSet || x.opened {
		return fmt.Errorf("compression type already set to %s", x.kind)
	}
	if _, err := ParseCompression(uint16(kind)); err != nil {
		return err
	}
	x.kind = kind
	x.kindSet = true
	return nil
}

// Kind returns the selected framing.
func (x *Context) Kind() Compression {
	return x.kind
}

// Open establishes the trailer framing at the cursor's current position and
// discards bytesToIgnore bytes of the resulting stream. It reports whether
// a decompressed stream is now active.
func (x *Context) Open(bytesToIgnore int) (bool, error) {
	if x.closed {
		return false, ErrClosed
	}
	if x.opened {
		return false, errors.New("compressed data already opened")
	}
	x.opened = true
	x.kindSet = true

	switch x.kind {
	case CompressionRaw:
		if bytesToIgnore > 0 {
			if err := x.cursor.Skip(int64(bytesToIgnore)); err != nil {
				return false, err
			}
		}
		return false, nil

	case CompressionZlib:
		var err error
		if x.nextChunk, err = Read[uint64](x.cursor); err != nil {
			return false, fmt.Errorf("failed to read next chunk offset: %w", err)
		}
		if x.targetSize, err = Read[uint64](x.cursor); err != nil {
			return false, fmt.Errorf("failed to read uncompressed size: %w", err)
		}
		x.buf = x.buf[:0]
		x.off = 0

		ok, err := x.FetchNextChunk()
		if err != nil || !ok {
			return false, err
		}
		if err := x.Skip(int64(bytesToIgnore)); err != nil {
			return false, err
		}
		return true, nil

	case CompressionLZ4:
		uncompressedSize, err := Read[uint32](x.cursor)
		if err != nil {
			return false, fmt.Errorf("failed to read uncompressed size: %w", err)
		}
		compressedSize, err := Read[uint32](x.cursor)
		if err != nil {
			return false, fmt.Errorf("failed to read compressed size: %w", err)
		}
		if uint64(uncompressedSize) > uint64(compressedSize)*maxLZ4Ratio+chunkWindow {
			return false, fmt.Errorf("%w: lz4 block claims %d bytes from %d",
				ErrFormat, uncompressedSize, compressedSize)
		}
		compressed, err := x.cursor.ReadBytes(int(compressedSize))
		if err != nil {
			return false, fmt.Errorf("failed to read compressed block: %w", err)
		}

		decompressed := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(compressed, decompressed)
		if err != nil {
			return false, fmt.Errorf("%w: lz4: %v", ErrDecompression, err)
		}
		x.buf = decompressed[:n]
		x.off = 0

		x.logger.Debug("decompressed lz4 block",
			"compressed_size", compressedSize,
			"uncompressed_size", uncompressedSize,
			"produced", n,
		)

		if err := x.Skip(int64(bytesToIgnore)); err != nil {
			return false, err
		}
		return true, nil
	}

	return false, &UnsupportedCompressionError{Type: uint16(x.kind)}
}

// FetchNextChunk replaces the working buffer with the next inflated chunk.
// It returns false when no further chunk is expected.
func (x *Context) FetchNextChunk() (bool, error) {
	if x.kind != CompressionZlib || x.closed {
		return false, nil
	}
	if x.nextChunk >= uint64(x.cursor.Size()) {
		return false, nil
	}
	// a trailer declaring no uncompressed bytes has nothing to inflate
	if x.inflated >= x.targetSize {
		return false, nil
	}

	start := x.nextChunk
	in := &countingReader{r: bufio.NewReaderSize(x.cursor.section(int64(start)), chunkWindow)}

	magic, _ := in.r.Peek(2)
	if len(magic) < 2 {
		return false, nil
	}

	var zr io.ReadCloser
	if magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(in)
		if err != nil {
			return false, fmt.Errorf("%w: gzip chunk at %d: %v", ErrDecompression, start, err)
		}
		// padding follows each chunk, not another gzip member
		gz.Multistream(false)
		zr = gz
	} else {
		z, err := zlib.NewReader(in)
		if err != nil {
			return false, fmt.Errorf("%w: zlib chunk at %d: %v", ErrDecompression, start, err)
		}
		zr = z
	}
	defer zr.Close()

	var data []byte
	window := make([]byte, chunkWindow)
	exhausted := false
	for {
		n, err := zr.Read(window)
		data = append(data, window[:n]...)
		if err == io.EOF {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			exhausted = true
			break
		}
		if err != nil {
			return false, fmt.Errorf("%w: chunk at %d: %v", ErrDecompression, start, err)
		}
	}

	if exhausted && len(data) == 0 {
		return false, nil
	}

	end := start + uint64(in.n)
	if rem := end % chunkAlign; rem != 0 {
		end += chunkAlign - rem
	}
	x.nextChunk = end
	x.inflated += uint64(len(data))
	x.buf = data
	x.off = 0

	x.logger.Debug("inflated chunk",
		"offset", start,
		"compressed_size", in.n,
		"uncompressed_size", len(data),
		"next_chunk", x.nextChunk,
		"total_inflated", x.inflated,
	)

	return true, nil
}

// buffered reports whether reads are served from the working buffer.
func (x *Context) buffered() bool {
	return x.opened && x.kind != CompressionRaw
}

func (x *Context) ReadFull(p []byte) error {
	if x.closed {
		return ErrClosed
	}
	if !x.buffered() {
		return x.cursor.ReadFull(p)
	}

	n := copy(p, x.buf[x.off:])
	x.off += n
	if n < len(p) && x.kind == CompressionZlib {
		ok, err := x.FetchNextChunk()
		if err != nil {
			return err
		}
		if ok {
			m := copy(p[n:], x.buf[x.off:])
			x.off += m
			n += m
		}
	}
	if n != len(p) {
		return fmt.Errorf("%w: needed %d decompressed bytes, %d available",
			ErrUnexpectedEOF, len(p), n)
	}
	return nil
}

func (x *Context) Skip(n int64) error {
	if x.closed {
		return ErrClosed
	}
	if n < 0 {
		return fmt.Errorf("%w: negative skip %d", ErrUnexpectedEOF, n)
	}
	if !x.buffered() {
		return x.cursor.Skip(n)
	}

	skipped := min(n, int64(len(x.buf)-x.off))
	x.off += int(skipped)
	if skipped < n && x.kind == CompressionZlib {
		ok, err := x.FetchNextChunk()
		if err != nil {
			return err
		}
		if ok {
			more := min(n-skipped, int64(len(x.buf)-x.off))
			x.off += int(more)
			skipped += more
		}
	}
	if skipped != n {
		return fmt.Errorf("%w: cannot skip %d decompressed bytes, %d available",
			ErrUnexpectedEOF, n, skipped)
	}
	return nil
}

// Remaining counts the unread part of the working buffer plus, for chunked
// zlib, the most the next chunk could inflate to.
func (x *Context) Remaining() int64 {
	if x.closed {
		return 0
	}
	if !x.buffered() {
		return x.cursor.Remaining()
	}
	n := int64(len(x.buf) - x.off)
	size := uint64(x.cursor.Size())
	if x.kind == CompressionZlib && x.nextChunk < size && x.inflated < x.targetSize {
		n += int64(min(x.targetSize-x.inflated, (size-x.nextChunk)*maxDeflateRatio))
	}
	return n
}

// FieldMarkers is only honoured on the raw path; decompressed streams
// never carry them.
func (x *Context) FieldMarkers() bool {
	if x.buffered() {
		return false
	}
	return x.cursor.FieldMarkers()
}

// Close releases the working buffer. Reads after Close fail.
func (x *Context) Close() error {
	x.buf = nil
	x.off = 0
	x.closed = true
	return nil
}

// countingReader counts the compressed bytes the decompressor actually
// consumed. It implements io.ByteReader so the inflater does not wrap it in
// its own read-ahead buffer.
type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}
