package stimulus

import "math"

// segment is one row of the intensity-to-sigma table. Within a segment the
// blur radius is base + (upper - intensity) * slope, so sigma grows as the
// intensity falls away from the segment's upper reference point.
type segment struct {
	lower float64 // inclusive lower intensity bound
	upper float64 // reference point the slope is measured from
	base  float64 // sigma at the reference point
	slope float64 // sigma increase per unit of intensity below upper
}

// sigmaTable maps clarity intensity to Gaussian blur sigma, highest segment
// first. Adjacent rows meet exactly: each row's base equals the row above
// evaluated at this row's upper bound (checked by tests). The top row is a
// constant 0.5 blur floor for near-clear stimuli.
var sigmaTable = []segment{
	{lower: 90, upper: 90, base: 0.5, slope: 0},
	{lower: 70, upper: 90, base: 1.5, slope: 0.2},
	{lower: 50, upper: 70, base: 5.5, slope: 0.3},
	{lower: 30, upper: 50, base: 11.5, slope: 0.4},
	{lower: math.Inf(-1), upper: 30, base: 19.5, slope: 0.5},
}

// MinSigma is the blur floor applied to even the clearest stimuli.
const MinSigma = 0.5

func (s segment) eval(intensity float64) float64 {
	return s.base + (s.upper-intensity)*s.slope
}

// ComputeSigma deterministically maps an intensity to the standard
// deviation of the Gaussian blur kernel. Same intensity always yields the
// same sigma; sigma is monotone non-increasing in intensity and never
// drops below MinSigma. The function itself enforces no upper intensity
// bound; callers pre-clamp to the experiment domain.
func ComputeSigma(intensity Intensity) float64 {
	x := float64(intensity)
	for _, s := range sigmaTable {
		if x >= s.lower {
			return s.eval(x)
		}
	}
	// Unreachable: the last row's lower bound is -Inf.
	return sigmaTable[len(sigmaTable)-1].eval(x)
}
