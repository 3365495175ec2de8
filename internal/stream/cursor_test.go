package stream_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ossyrian/gbsave/internal/stream"
	"github.com/ossyrian/gbsave/internal/testutil"
)

func newCursor(data []byte) *stream.Cursor {
	return stream.NewCursor(bytes.NewReader(data), int64(len(data)))
}

func TestCursor_Read(t *testing.T) {
	b := &testutil.Builder{}
	b.U8(7).U16(0x1234).U32(0xdeadbeef).U64(1 << 40).F32(1.5)
	c := newCursor(b.Bytes())

	u8, err := stream.Read[uint8](c)
	require.NoError(t, err)
	require.Equal(t, uint8(7), u8)

	u16, err := stream.Read[uint16](c)
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), u16)

	u32, err := stream.Read[uint32](c)
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), u32)

	u64, err := stream.Read[uint64](c)
	require.NoError(t, err)
	require.Equal(t, uint64(1<<40), u64)

	f32, err := stream.Read[float32](c)
	require.NoError(t, err)
	require.Equal(t, float32(1.5), f32)

	require.Equal(t, int64(b.Len()), c.Pos())

	_, err = stream.Read[uint8](c)
	require.ErrorIs(t, err, stream.ErrUnexpectedEOF)
}

func TestCursor_FieldMarkers(t *testing.T) {
	b := &testutil.Builder{Markers: true}
	b.U32(640).U32(480).U8(1)
	c := newCursor(b.Bytes())
	c.SetFieldMarkers(true)

	w, err := stream.Read[uint32](c)
	require.NoError(t, err)
	h, err := stream.Read[uint32](c)
	require.NoError(t, err)
	ok, err := stream.ReadBool(c)
	require.NoError(t, err)

	require.Equal(t, uint32(640), w)
	require.Equal(t, uint32(480), h)
	require.True(t, ok)
	require.Equal(t, int64(12), c.Pos())
}

func TestCursor_Errors(t *testing.T) {
	tests := []struct {
		name string
		op   func(c *stream.Cursor) error
	}{
		{
			name: "short scalar",
			op: func(c *stream.Cursor) error {
				_, err := stream.Read[uint64](c)
				return err
			},
		},
		{
			name: "skip past end",
			op:   func(c *stream.Cursor) error { return c.Skip(5) },
		},
		{
			name: "negative skip",
			op:   func(c *stream.Cursor) error { return c.Skip(-1) },
		},
		{
			name: "seek past end",
			op:   func(c *stream.Cursor) error { return c.SeekTo(5) },
		},
		{
			name: "read bytes past end",
			op: func(c *stream.Cursor) error {
				_, err := c.ReadBytes(10)
				return err
			},
		},
		{
			name: "skip scalars past end",
			op:   func(c *stream.Cursor) error { return stream.SkipN[uint16](c, 3) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCursor([]byte{1, 2, 3, 4})
			require.ErrorIs(t, tt.op(c), stream.ErrUnexpectedEOF)
		})
	}
}

func TestCursor_SeekToAndReadBytes(t *testing.T) {
	c := newCursor([]byte("abcdefgh"))

	require.NoError(t, c.SeekTo(4))
	got, err := c.ReadBytes(3)
	require.NoError(t, err)
	require.Equal(t, []byte("efg"), got)

	require.NoError(t, c.SeekTo(0))
	require.NoError(t, stream.SkipN[uint16](c, 2))
	got, err = stream.ReadBytes(c, 2)
	require.NoError(t, err)
	require.Equal(t, []byte("ef"), got)
}
