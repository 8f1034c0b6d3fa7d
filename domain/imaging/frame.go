package imaging

import (
	"fmt"
	"image"

	"psyphy/domain/core"
)

// Channels is the fixed channel count for stimulus frames (RGB).
const Channels = 3

// Frame is an in-memory stimulus image: width x height x 3 channels,
// 8 bits per channel, row-major interleaved. It is the unit of exchange
// between the degradation engine and the presentation layer.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewFrame allocates a zeroed frame of the given dimensions
func NewFrame(width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, core.NewValidationError("frame",
			fmt.Sprintf("dimensions %dx%d must be positive", width, height))
	}
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}, nil
}

// FrameFromPix wraps an existing interleaved pixel buffer
func FrameFromPix(width, height int, pix []uint8) (*Frame, error) {
	f := &Frame{Width: width, Height: height, Pix: pix}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks the buffer length against the declared dimensions
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", core.ErrInvalidFrame)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", core.ErrInvalidFrame, f.Width, f.Height)
	}
	if len(f.Pix) != f.Width*f.Height*Channels {
		return fmt.Errorf("%w: buffer length %d, want %d",
			core.ErrInvalidFrame, len(f.Pix), f.Width*f.Height*Channels)
	}
	return nil
}

// Clone returns a deep copy with its own pixel buffer
func (f *Frame) Clone() *Frame {
	pix := make([]uint8, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{Width: f.Width, Height: f.Height, Pix: pix}
}

// Shape returns (width, height, channels)
func (f *Frame) Shape() (int, int, int) {
	return f.Width, f.Height, Channels
}

// At returns channel c of pixel (x, y)
func (f *Frame) At(x, y, c int) uint8 {
	return f.Pix[(y*f.Width+x)*Channels+c]
}

// Set assigns channel c of pixel (x, y)
func (f *Frame) Set(x, y, c int, v uint8) {
	f.Pix[(y*f.Width+x)*Channels+c] = v
}

// RGBA converts the frame to a stdlib image for encoding. Alpha is opaque.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			src := (y*f.Width + x) * Channels
			dst := img.PixOffset(x, y)
			img.Pix[dst+0] = f.Pix[src+0]
			img.Pix[dst+1] = f.Pix[src+1]
			img.Pix[dst+2] = f.Pix[src+2]
			img.Pix[dst+3] = 0xff
		}
	}
	return img
}
