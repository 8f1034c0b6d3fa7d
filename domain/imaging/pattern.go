package imaging

import (
	"fmt"

	"psyphy/domain/core"
)

// Checkerboard builds a high-contrast black/white checker pattern. Used as
// the default calibration stimulus and by the blur tests, where the sharp
// edges make smoothing easy to measure.
func Checkerboard(size, checker int) (*Frame, error) {
	if checker <= 0 {
		return nil, core.NewValidationError("checkerboard",
			fmt.Sprintf("checker size %d must be positive", checker))
	}
	f, err := NewFrame(size, size)
	if err != nil {
		return nil, err
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if ((x/checker)+(y/checker))%2 == 0 {
				idx := (y*size + x) * Channels
				f.Pix[idx] = 255
				f.Pix[idx+1] = 255
				f.Pix[idx+2] = 255
			}
		}
	}
	return f, nil
}
