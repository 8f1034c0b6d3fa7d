package stimulus

import (
	"fmt"
	"math"

	"psyphy/domain/core"
)

// Intensity is the clarity percentage driving degradation severity.
// Higher intensity means a clearer stimulus.
type Intensity float64

// Intensity domain bounds
const (
	MinIntensity Intensity = 0
	MaxIntensity Intensity = 100
)

// Validate checks that the intensity is finite and within [0, 100]
func (i Intensity) Validate() error {
	v := float64(i)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return core.NewValidationError("intensity", "must be finite")
	}
	if i < MinIntensity || i > MaxIntensity {
		return core.NewValidationError("intensity",
			fmt.Sprintf("%g outside [%g, %g]", v, float64(MinIntensity), float64(MaxIntensity)))
	}
	return nil
}

// Clamp returns the intensity clipped to the valid domain. ComputeSigma has
// no upper bound of its own, so callers are expected to clamp first.
func (i Intensity) Clamp() Intensity {
	if i < MinIntensity {
		return MinIntensity
	}
	if i > MaxIntensity {
		return MaxIntensity
	}
	return i
}

func (i Intensity) Float() float64 { return float64(i) }
