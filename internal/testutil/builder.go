// Package testutil builds synthetic save files for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/text/encoding/charmap"

	"github.com/ossyrian/gbsave/internal/codec"
)

// Marker is the byte written for field markers.
const Marker = '|'

// Builder appends little-endian save data.
type Builder struct {
	buf bytes.Buffer
	// Markers appends a marker byte after every fixed-width value.
	Markers bool
}

func (b *Builder) Bytes() []byte { return b.buf.Bytes() }
func (b *Builder) Len() int      { return b.buf.Len() }

func (b *Builder) Raw(p []byte) *Builder {
	b.buf.Write(p)
	return b
}

func (b *Builder) fixed(v any) *Builder {
	binary.Write(&b.buf, binary.LittleEndian, v)
	if b.Markers {
		b.buf.WriteByte(Marker)
	}
	return b
}

func (b *Builder) U8(v uint8) *Builder    { return b.fixed(v) }
func (b *Builder) U16(v uint16) *Builder  { return b.fixed(v) }
func (b *Builder) U32(v uint32) *Builder  { return b.fixed(v) }
func (b *Builder) U64(v uint64) *Builder  { return b.fixed(v) }
func (b *Builder) F32(v float32) *Builder { return b.fixed(v) }

func (b *Builder) Bool(v bool) *Builder {
	if v {
		return b.U8(1)
	}
	return b.U8(0)
}

// Zeros appends n zero bytes.
func (b *Builder) Zeros(n int) *Builder {
	b.buf.Write(make([]byte, n))
	return b
}

// Align pads with zeros until the length is a multiple of n.
func (b *Builder) Align(n int) *Builder {
	if rem := b.buf.Len() % n; rem != 0 {
		b.Zeros(n - rem)
	}
	return b
}

// String appends s using enc. BZStrings get a NUL counted in the length.
func (b *Builder) String(s string, enc codec.StringEncoding) *Builder {
	payload := []byte(s)
	if enc.Charset == codec.Local8Bit {
		encoded, err := charmap.Windows1252.NewEncoder().Bytes(payload)
		if err != nil {
			panic(err)
		}
		payload = encoded
	}
	if enc.Prefix == codec.BZString {
		payload = append(payload, 0)
	}

	switch enc.Prefix {
	case codec.WString:
		binary.Write(&b.buf, binary.LittleEndian, uint16(len(payload)))
	default:
		b.buf.WriteByte(byte(len(payload)))
	}
	if enc.FieldMarkers {
		b.buf.WriteByte(Marker)
	}
	b.buf.Write(payload)
	if enc.FieldMarkers {
		b.buf.WriteByte(Marker)
	}
	return b
}

// SystemTime appends a 16 byte Windows SYSTEMTIME.
func (b *Builder) SystemTime(year, month, day, hour, minute, second, ms uint16) *Builder {
	for _, v := range []uint16{year, month, 0, day, hour, minute, second, ms} {
		binary.Write(&b.buf, binary.LittleEndian, v)
	}
	return b
}

// Zlib compresses data as one zlib stream.
func Zlib(data []byte) []byte {
	var out bytes.Buffer
	w := zlib.NewWriter(&out)
	w.Write(data)
	w.Close()
	return out.Bytes()
}

// Gzip compresses data as one gzip member.
func Gzip(data []byte) []byte {
	var out bytes.Buffer
	w := gzip.NewWriter(&out)
	w.Write(data)
	w.Close()
	return out.Bytes()
}

// LZ4Block compresses data as a single LZ4 block.
func LZ4Block(data []byte) []byte {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		panic(err)
	}
	if n == 0 {
		panic("testutil: data is not compressible")
	}
	return dst[:n]
}

// ChunkedZlib appends a chunked zlib trailer for the given chunks. The
// first chunk starts on the next 16 byte boundary after the trailer
// header; every following chunk is aligned too.
func (b *Builder) ChunkedZlib(chunks ...[]byte) *Builder {
	var total uint64
	for _, c := range chunks {
		total += uint64(len(c))
	}
	first := b.buf.Len() + 16
	if rem := first % 16; rem != 0 {
		first += 16 - rem
	}
	b.U64(uint64(first)).U64(total)
	b.Align(16)
	for i, c := range chunks {
		b.Raw(Zlib(c))
		if i < len(chunks)-1 {
			b.Align(16)
		}
	}
	return b
}

// LZ4 appends an LZ4 trailer holding data.
func (b *Builder) LZ4(data []byte) *Builder {
	block := LZ4Block(data)
	return b.U32(uint32(len(data))).U32(uint32(len(block))).Raw(block)
}

// WriteFile stores data in a temporary directory and returns its path.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
