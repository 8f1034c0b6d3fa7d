package psychometric

import (
	"fmt"
	"math"

	"psyphy/domain/core"
)

// Params is the parameter vector of a psychometric function.
// Location (alpha/mu) is the threshold, Scale (beta/sigma) the spread;
// Guess and Lapse bound the curve's range to (Guess, 1-Lapse).
type Params struct {
	Location float64 `json:"location"`
	Scale    float64 `json:"scale"`
	Guess    float64 `json:"guess"`
	Lapse    float64 `json:"lapse"`
}

// Validate enforces the asymptote invariant and positive scale
func (p Params) Validate() error {
	for _, v := range []float64{p.Location, p.Scale, p.Guess, p.Lapse} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.NewValidationError("params", "all parameters must be finite")
		}
	}
	if p.Scale <= 0 {
		return core.NewValidationError("scale", fmt.Sprintf("%g must be positive", p.Scale))
	}
	if p.Guess < 0 || p.Lapse < 0 || p.Guess+p.Lapse >= 1 {
		return core.NewValidationError("asymptotes",
			fmt.Sprintf("need 0 <= gamma, lambda and gamma+lambda < 1, got gamma=%g lambda=%g", p.Guess, p.Lapse))
	}
	return nil
}

// Range returns the usable response range (Guess, 1-Lapse)
func (p Params) Range() (lo, hi float64) {
	return p.Guess, 1 - p.Lapse
}

// Midpoint is the response probability halfway between the guess and
// lapse bounds; the location parameter is the intensity that attains it.
func (p Params) Midpoint() float64 {
	return p.Guess + (1-p.Guess-p.Lapse)/2
}
