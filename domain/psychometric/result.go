package psychometric

import (
	"fmt"
	"math"
	"time"

	"psyphy/domain/core"
)

// FitResult is the immutable outcome of one fit invocation for one family.
type FitResult struct {
	Family     string         `json:"family"`
	Params     Params         `json:"params"`
	Covariance [][]float64    `json:"covariance,omitempty"`
	RSS        float64        `json:"rss"`
	RSquared   float64        `json:"r_squared"`
	Iterations int            `json:"iterations"`
	Converged  bool           `json:"converged"`
	FittedAt   core.Timestamp `json:"fitted_at"`
}

// Threshold reads the estimated perceptual threshold (the location
// parameter) from the result.
func (r *FitResult) Threshold() float64 { return r.Params.Location }

// FitOptions configures a fit invocation. Guess and Lapse are held fixed
// unless FreeAsymptotes is set. The lapse and initial-scale defaults are
// display-dependent heuristics, never hardcoded into the optimizer.
type FitOptions struct {
	Guess           float64
	Lapse           float64
	InitialLocation float64 // NaN: use the median of the observed intensities
	InitialScale    float64
	MaxIterations   int
	MaxRuntime      time.Duration
	FreeAsymptotes  bool
}

// Fit option defaults
const (
	DefaultLapse         = 0.02
	DefaultInitialScale  = 10.0
	DefaultMaxIterations = 2000
	DefaultMaxRuntime    = 5 * time.Second
)

// DefaultFitOptions returns the reference defaults: gamma=0, lambda=0.02,
// location seeded from the data, scale guess 10.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		Guess:           0,
		Lapse:           DefaultLapse,
		InitialLocation: math.NaN(),
		InitialScale:    DefaultInitialScale,
		MaxIterations:   DefaultMaxIterations,
		MaxRuntime:      DefaultMaxRuntime,
	}
}

// Validate checks the fixed asymptotes and bounds
func (o FitOptions) Validate() error {
	if o.Guess < 0 || o.Lapse < 0 || o.Guess+o.Lapse >= 1 {
		return core.NewValidationError("fit options",
			fmt.Sprintf("need 0 <= gamma, lambda and gamma+lambda < 1, got gamma=%g lambda=%g", o.Guess, o.Lapse))
	}
	if o.InitialScale <= 0 {
		return core.NewValidationError("fit options", "initial scale guess must be positive")
	}
	if o.MaxIterations <= 0 {
		return core.NewValidationError("fit options", "max iterations must be positive")
	}
	return nil
}

// ConvergenceError reports a failed optimization. It carries the last
// attempted parameters for diagnostics; callers must never confuse it
// with a valid FitResult.
type ConvergenceError struct {
	Family     string
	LastParams Params
	Iterations int
	Status     string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s fit did not converge after %d iterations (%s); last params location=%.4g scale=%.4g",
		e.Family, e.Iterations, e.Status, e.LastParams.Location, e.LastParams.Scale)
}

func (e *ConvergenceError) Unwrap() error { return core.ErrFitDidNotConverge }
