package psychometric

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"psyphy/domain/core"
)

// Family is one sigmoid family. Evaluate maps an intensity to response
// probability under the given parameters; Threshold is its inverse at a
// target performance level. New families plug in here without touching
// the optimizer driver.
type Family interface {
	Name() string
	Evaluate(p Params, x float64) float64
	Threshold(p Params, performance float64) (float64, error)
}

// Family names
const (
	FamilyLogistic           = "logistic"
	FamilyCumulativeGaussian = "cumulative-gaussian"
	FamilyWeibull            = "weibull"
)

// Families returns the closed set of supported sigmoid families
func Families() []Family {
	return []Family{Logistic{}, CumulativeGaussian{}, Weibull{}}
}

// FamilyByName resolves a family name
func FamilyByName(name string) (Family, error) {
	for _, f := range Families() {
		if f.Name() == name {
			return f, nil
		}
	}
	return nil, core.NewValidationError("family", fmt.Sprintf("unknown family %q", name))
}

// normalizedTarget maps a performance level into the sigmoid's unit range,
// rejecting targets outside (Guess, 1-Lapse).
func normalizedTarget(p Params, performance float64) (float64, error) {
	lo, hi := p.Range()
	if performance <= lo || performance >= hi {
		return 0, core.NewValidationError("performance",
			fmt.Sprintf("%g outside attainable range (%g, %g)", performance, lo, hi))
	}
	return (performance - p.Guess) / (1 - p.Guess - p.Lapse), nil
}

// Logistic is P(x) = gamma + (1-gamma-lambda) / (1 + exp(-(x-alpha)/beta))
type Logistic struct{}

func (Logistic) Name() string { return FamilyLogistic }

func (Logistic) Evaluate(p Params, x float64) float64 {
	return p.Guess + (1-p.Guess-p.Lapse)/(1+math.Exp(-(x-p.Location)/p.Scale))
}

func (Logistic) Threshold(p Params, performance float64) (float64, error) {
	z, err := normalizedTarget(p, performance)
	if err != nil {
		return 0, err
	}
	return p.Location + p.Scale*math.Log(z/(1-z)), nil
}

// CumulativeGaussian is P(x) = gamma + (1-gamma-lambda) * Phi((x-mu)/sigma)
type CumulativeGaussian struct{}

func (CumulativeGaussian) Name() string { return FamilyCumulativeGaussian }

func (CumulativeGaussian) Evaluate(p Params, x float64) float64 {
	return p.Guess + (1-p.Guess-p.Lapse)*distuv.UnitNormal.CDF((x-p.Location)/p.Scale)
}

func (CumulativeGaussian) Threshold(p Params, performance float64) (float64, error) {
	z, err := normalizedTarget(p, performance)
	if err != nil {
		return 0, err
	}
	return p.Location + p.Scale*distuv.UnitNormal.Quantile(z), nil
}

// Weibull is P(x) = gamma + (1-gamma-lambda) * (1 - exp(-(x/alpha)^beta)),
// defined for non-negative intensities.
type Weibull struct{}

func (Weibull) Name() string { return FamilyWeibull }

func (Weibull) Evaluate(p Params, x float64) float64 {
	if x <= 0 {
		return p.Guess
	}
	return p.Guess + (1-p.Guess-p.Lapse)*(1-math.Exp(-math.Pow(x/p.Location, p.Scale)))
}

func (Weibull) Threshold(p Params, performance float64) (float64, error) {
	z, err := normalizedTarget(p, performance)
	if err != nil {
		return 0, err
	}
	if p.Location <= 0 {
		return 0, core.NewValidationError("location", "weibull threshold requires positive alpha")
	}
	return p.Location * math.Pow(-math.Log(1-z), 1/p.Scale), nil
}
