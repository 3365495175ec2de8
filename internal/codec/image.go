package codec

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/ossyrian/gbsave/internal/stream"
)

// maxScreenshotSide rejects dimensions no game writes, before allocating.
const maxScreenshotSide = 8192

// ImageOptions controls ReadImage.
type ImageOptions struct {
	// Width and Height, when both non-zero, are the dimensions already
	// known from the header. Otherwise they are read as two u32 values
	// directly before the pixels.
	Width  uint32
	Height uint32
	// Scale, when non-zero, is the target width of a downscaled copy.
	Scale int
	// Alpha selects 4 bytes per pixel instead of 3.
	Alpha bool
}

// ReadImage decodes a packed RGB(A)8 screenshot, rows top to bottom. The
// returned image owns its pixels.
func ReadImage(src stream.Source, opts ImageOptions) (*image.RGBA, error) {
	width, height := opts.Width, opts.Height
	if width == 0 || height == 0 {
		var err error
		if width, err = stream.Read[uint32](src); err != nil {
			return nil, fmt.Errorf("failed to read screenshot width: %w", err)
		}
		if height, err = stream.Read[uint32](src); err != nil {
			return nil, fmt.Errorf("failed to read screenshot height: %w", err)
		}
	}
	if width > maxScreenshotSide || height > maxScreenshotSide {
		return nil, fmt.Errorf("%w: implausible screenshot size %dx%d",
			stream.ErrFormat, width, height)
	}

	bpp := 3
	if opts.Alpha {
		bpp = 4
	}
	size := int64(width) * int64(height) * int64(bpp)
	if left := src.Remaining(); size > left {
		return nil, fmt.Errorf("failed to read %dx%d screenshot: %w: need %d bytes, %d left",
			width, height, stream.ErrUnexpectedEOF, size, left)
	}
	pixels := make([]byte, size)
	if err := src.ReadFull(pixels); err != nil {
		return nil, fmt.Errorf("failed to read %dx%d screenshot: %w", width, height, err)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	if opts.Alpha {
		copy(img.Pix, pixels)
	} else {
		for i, j := 0, 0; i < len(pixels); i, j = i+3, j+4 {
			img.Pix[j] = pixels[i]
			img.Pix[j+1] = pixels[i+1]
			img.Pix[j+2] = pixels[i+2]
			img.Pix[j+3] = 0xff
		}
	}

	if opts.Scale == 0 || width == 0 || height == 0 {
		return img, nil
	}
	return ScaleToWidth(img, opts.Scale), nil
}

// ScaleToWidth returns a copy of img resized to width, keeping the aspect
// ratio.
func ScaleToWidth(img *image.RGBA, width int) *image.RGBA {
	b := img.Bounds()
	if width <= 0 || b.Dx() == 0 {
		return img
	}
	height := max(1, b.Dy()*width/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
