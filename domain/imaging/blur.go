package imaging

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"psyphy/domain/core"
)

// Blur applies an isotropic separable Gaussian with standard deviation
// sigma to every channel of src, preserving shape. The source frame is
// never mutated. sigma == 0 is the defined identity edge case; sigma < 0
// is an invalid argument.
func Blur(src *Frame, sigma float64) (*Frame, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(sigma) || sigma < 0 {
		return nil, fmt.Errorf("%w: %g", core.ErrInvalidSigma, sigma)
	}
	if sigma == 0 {
		return src.Clone(), nil
	}

	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2

	w, h := src.Width, src.Height
	// Horizontal pass into a float buffer, then vertical pass back to
	// 8-bit. Two passes of a 1-D kernel are equivalent to the full 2-D
	// Gaussian and cost O(k) rather than O(k^2) per pixel.
	tmp := make([]float64, w*h*Channels)
	for y := 0; y < h; y++ {
		row := y * w * Channels
		for x := 0; x < w; x++ {
			for c := 0; c < Channels; c++ {
				var acc float64
				for k := -radius; k <= radius; k++ {
					sx := reflect(x+k, w)
					acc += kernel[k+radius] * float64(src.Pix[row+sx*Channels+c])
				}
				tmp[row+x*Channels+c] = acc
			}
		}
	}

	dst := &Frame{Width: w, Height: h, Pix: make([]uint8, len(src.Pix))}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < Channels; c++ {
				var acc float64
				for k := -radius; k <= radius; k++ {
					sy := reflect(y+k, h)
					acc += kernel[k+radius] * tmp[(sy*w+x)*Channels+c]
				}
				dst.Pix[(y*w+x)*Channels+c] = clampByte(acc)
			}
		}
	}
	return dst, nil
}

// gaussianKernel builds a normalized 1-D kernel with radius 3*sigma, the
// kernel-size convention OpenCV uses for 8-bit images.
func gaussianKernel(sigma float64) []float64 {
	radius := int(3*sigma + 0.5)
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	inv := 1 / (2 * sigma * sigma)
	for k := -radius; k <= radius; k++ {
		kernel[k+radius] = math.Exp(-float64(k*k) * inv)
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

// reflect maps an out-of-range coordinate back inside [0, n) by mirroring
// across the edge, edge pixel included (cv2 BORDER_REFLECT: fedcba|abcdef).
// Iterative so kernels wider than the image still resolve.
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}

func clampByte(v float64) uint8 {
	r := math.Round(v)
	if r <= 0 {
		return 0
	}
	if r >= 255 {
		return 255
	}
	return uint8(r)
}
