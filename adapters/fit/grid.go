package fit

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"psyphy/domain/core"
	"psyphy/domain/psychometric"
)

// GridBayes estimates threshold and slope by Bayesian inference on a
// location x scale grid with a uniform prior and Bernoulli likelihood.
// It trades the optimizer's point estimate for a full posterior, which is
// what adaptive procedures consume between trials. Proportion responses
// are handled as fractional Bernoulli outcomes.
type GridBayes struct {
	LocationMin float64
	LocationMax float64
	ScaleMin    float64
	ScaleMax    float64
	GridSize    int
}

// NewGridBayes returns an estimator spanning the experiment's intensity
// domain with a moderate grid.
func NewGridBayes() *GridBayes {
	return &GridBayes{
		LocationMin: 0,
		LocationMax: 100,
		ScaleMin:    0.5,
		ScaleMax:    40,
		GridSize:    80,
	}
}

// PosteriorEstimate is the posterior mean and spread of the two free
// parameters.
type PosteriorEstimate struct {
	Family     string  `json:"family"`
	Location   float64 `json:"location"`
	LocationSD float64 `json:"location_sd"`
	Scale      float64 `json:"scale"`
	ScaleSD    float64 `json:"scale_sd"`
}

// Estimate computes the posterior over (location, scale) given the
// observations, with guess and lapse fixed from opts. Validation rules
// match the least-squares fitter.
func (g *GridBayes) Estimate(ctx context.Context, family psychometric.Family,
	observations []psychometric.TrialObservation,
	opts psychometric.FitOptions) (*PosteriorEstimate, error) {

	if family == nil {
		return nil, core.NewValidationError("family", "must not be nil")
	}
	if g.GridSize < 2 || g.LocationMax <= g.LocationMin || g.ScaleMax <= g.ScaleMin || g.ScaleMin <= 0 {
		return nil, core.NewValidationError("grid", "degenerate parameter grid")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := psychometric.ValidateObservations(observations); err != nil {
		return nil, err
	}

	locations := gridPoints(g.LocationMin, g.LocationMax, g.GridSize)
	scales := gridPoints(g.ScaleMin, g.ScaleMax, g.GridSize)

	// Log-likelihood surface; uniform prior means the posterior is the
	// normalized exponentiated likelihood.
	logLik := make([]float64, g.GridSize*g.GridSize)
	maxLL := math.Inf(-1)
	for i, loc := range locations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j, sc := range scales {
			p := psychometric.Params{Location: loc, Scale: sc, Guess: opts.Guess, Lapse: opts.Lapse}
			var ll float64
			for _, o := range observations {
				prob := family.Evaluate(p, o.Intensity)
				ll += o.Response*safeLog(prob) + (1-o.Response)*safeLog(1-prob)
			}
			logLik[i*g.GridSize+j] = ll
			if ll > maxLL {
				maxLL = ll
			}
		}
	}

	posterior := make([]float64, len(logLik))
	for i, ll := range logLik {
		posterior[i] = math.Exp(ll - maxLL)
	}
	total := floats.Sum(posterior)
	if total == 0 || math.IsNaN(total) {
		return nil, &psychometric.ConvergenceError{
			Family: family.Name(),
			Status: "posterior mass vanished over the whole grid",
		}
	}
	floats.Scale(1/total, posterior)

	var meanLoc, meanScale float64
	for i, loc := range locations {
		for j, sc := range scales {
			w := posterior[i*g.GridSize+j]
			meanLoc += w * loc
			meanScale += w * sc
		}
	}

	var varLoc, varScale float64
	for i, loc := range locations {
		for j, sc := range scales {
			w := posterior[i*g.GridSize+j]
			varLoc += w * (loc - meanLoc) * (loc - meanLoc)
			varScale += w * (sc - meanScale) * (sc - meanScale)
		}
	}

	return &PosteriorEstimate{
		Family:     family.Name(),
		Location:   meanLoc,
		LocationSD: math.Sqrt(varLoc),
		Scale:      meanScale,
		ScaleSD:    math.Sqrt(varScale),
	}, nil
}

func gridPoints(min, max float64, n int) []float64 {
	pts := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range pts {
		pts[i] = min + float64(i)*step
	}
	return pts
}

// safeLog guards against log(0) at the asymptotes
func safeLog(x float64) float64 {
	const epsilon = 1e-10
	if x < epsilon {
		x = epsilon
	}
	return math.Log(x)
}
