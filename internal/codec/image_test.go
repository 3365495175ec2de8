package codec_test

import (
	"image/color"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ossyrian/gbsave/internal/codec"
	"github.com/ossyrian/gbsave/internal/stream"
	"github.com/ossyrian/gbsave/internal/testutil"
)

func rgbPixels(w, h int) []byte {
	px := make([]byte, 0, w*h*3)
	for i := range w * h {
		px = append(px, byte(i), byte(i*2), byte(i*3))
	}
	return px
}

func TestReadImage_InlineDimensions(t *testing.T) {
	b := (&testutil.Builder{}).U32(4).U32(2).Raw(rgbPixels(4, 2))
	c := cursorOver(b.Bytes())

	img, err := codec.ReadImage(c, codec.ImageOptions{})
	require.NoError(t, err)
	require.Equal(t, 4, img.Bounds().Dx())
	require.Equal(t, 2, img.Bounds().Dy())
	require.Equal(t, color.RGBA{R: 5, G: 10, B: 15, A: 0xff}, img.RGBAAt(1, 1))
	require.Equal(t, c.Size(), c.Pos())
}

func TestReadImage_KnownDimensionsWithAlpha(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 0xaa}
	c := cursorOver(data)

	img, err := codec.ReadImage(c, codec.ImageOptions{Width: 2, Height: 1, Alpha: true})
	require.NoError(t, err)
	require.Equal(t, color.RGBA{R: 5, G: 6, B: 7, A: 8}, img.RGBAAt(1, 0))
	require.Equal(t, int64(8), c.Pos())

	// the image must not alias the source bytes
	data[4] = 99
	require.Equal(t, uint8(5), img.RGBAAt(1, 0).R)
}

func TestReadImage_FieldMarkersOnDimensions(t *testing.T) {
	b := (&testutil.Builder{Markers: true}).U32(1).U32(1).Raw([]byte{9, 8, 7})
	c := cursorOver(b.Bytes())
	c.SetFieldMarkers(true)

	img, err := codec.ReadImage(c, codec.ImageOptions{})
	require.NoError(t, err)
	require.Equal(t, color.RGBA{R: 9, G: 8, B: 7, A: 0xff}, img.RGBAAt(0, 0))
}

func TestReadImage_Scale(t *testing.T) {
	b := (&testutil.Builder{}).U32(8).U32(4).Raw(rgbPixels(8, 4))

	img, err := codec.ReadImage(cursorOver(b.Bytes()), codec.ImageOptions{Scale: 4})
	require.NoError(t, err)
	require.Equal(t, 4, img.Bounds().Dx())
	require.Equal(t, 2, img.Bounds().Dy())
}

func TestReadImage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{
			name:    "missing height",
			input:   (&testutil.Builder{}).U32(2).Bytes(),
			wantErr: stream.ErrUnexpectedEOF,
		},
		{
			name:    "truncated pixels",
			input:   (&testutil.Builder{}).U32(2).U32(2).Raw([]byte{1, 2, 3}).Bytes(),
			wantErr: stream.ErrUnexpectedEOF,
		},
		{
			name:    "implausible size",
			input:   (&testutil.Builder{}).U32(1 << 20).U32(1 << 20).Bytes(),
			wantErr: stream.ErrFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.ReadImage(cursorOver(tt.input), codec.ImageOptions{})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadImage_DimensionsBeyondInput(t *testing.T) {
	header := (&testutil.Builder{}).U32(8192).U32(8192).Raw(rgbPixels(2, 2)).Bytes()

	lz4 := (&testutil.Builder{}).LZ4(header).Bytes()
	ctx := stream.NewContext(cursorOver(lz4), nil)
	require.NoError(t, ctx.SetCompressionType(stream.CompressionLZ4))
	ok, err := ctx.Open(0)
	require.NoError(t, err)
	require.True(t, ok)

	tests := []struct {
		name string
		src  stream.Source
		opts codec.ImageOptions
	}{
		{"raw", cursorOver(header), codec.ImageOptions{Alpha: true}},
		{"decompressed", ctx, codec.ImageOptions{Alpha: true}},
		{"known dimensions", cursorOver(header[8:]), codec.ImageOptions{Width: 8192, Height: 8192}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)
			_, err := codec.ReadImage(tt.src, tt.opts)
			runtime.ReadMemStats(&after)

			require.ErrorIs(t, err, stream.ErrUnexpectedEOF)
			require.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
		})
	}
}
