package stimulus

import (
	"fmt"
	"math"

	"psyphy/domain/core"
)

// OpticalModel converts a modulation-transfer-function percentage into a
// blur sigma using the display's physical geometry. It inverts
// MTF = exp(-2*pi^2*f^2*sigma^2) for sigma, then converts millimeters to
// pixels. Unlike the piecewise table, this model is tied to a calibrated
// spatial frequency and pixel pitch.
type OpticalModel struct {
	FrequencyLpmm float64 // spatial frequency in line pairs per millimeter
	PixelSizeMM   float64 // physical pixel pitch in millimeters
}

// Calibration defaults for the reference display setup
const (
	DefaultFrequencyLpmm = 44.25
	DefaultPixelSizeMM   = 0.005649806841172989
)

// DefaultOpticalModel returns the model for the reference display
func DefaultOpticalModel() OpticalModel {
	return OpticalModel{
		FrequencyLpmm: DefaultFrequencyLpmm,
		PixelSizeMM:   DefaultPixelSizeMM,
	}
}

// Sigma returns the blur sigma in pixels for an MTF percentage. The
// percentage must lie strictly inside (0, 100): 0 would need infinite blur
// and 100 zero blur, neither of which the inversion can represent.
func (m OpticalModel) Sigma(mtfPercent float64) (float64, error) {
	if m.FrequencyLpmm <= 0 || m.PixelSizeMM <= 0 {
		return 0, core.NewValidationError("optical model", "frequency and pixel size must be positive")
	}
	if math.IsNaN(mtfPercent) || mtfPercent <= 0 || mtfPercent >= 100 {
		return 0, core.NewValidationError("mtf percent",
			fmt.Sprintf("%g must lie strictly between 0 and 100", mtfPercent))
	}

	ratio := mtfPercent / 100.0
	f := m.FrequencyLpmm
	sigmaMM := math.Sqrt(-math.Log(ratio) / (2 * math.Pow(math.Pi*f, 2)))
	return sigmaMM / m.PixelSizeMM, nil
}
