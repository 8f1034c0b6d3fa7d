package fit

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/optimize"

	"psyphy/domain/core"
	"psyphy/domain/psychometric"
)

// LeastSquares fits psychometric functions by nonlinear least squares,
// minimizing the squared residuals between observed responses and model
// predictions with a derivative-free simplex search. The scale parameter
// is optimized in log space so the search can never step into a
// non-positive scale.
type LeastSquares struct{}

// NewLeastSquares creates the least-squares fitter
func NewLeastSquares() *LeastSquares {
	return &LeastSquares{}
}

// Fit estimates location and scale (plus guess/lapse when FreeAsymptotes
// is set) for one family. Degenerate inputs are rejected analytically
// before any optimization; an optimizer that hits its iteration or time
// budget surfaces a ConvergenceError carrying the last attempted
// parameters, never a FitResult.
func (f *LeastSquares) Fit(ctx context.Context, family psychometric.Family,
	observations []psychometric.TrialObservation,
	opts psychometric.FitOptions) (*psychometric.FitResult, error) {

	if family == nil {
		return nil, core.NewValidationError("family", "must not be nil")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := psychometric.ValidateObservations(observations); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	xs := psychometric.Intensities(observations)
	ys := psychometric.Responses(observations)

	initLocation := opts.InitialLocation
	if math.IsNaN(initLocation) {
		median, err := stats.Median(stats.Float64Data(xs))
		if err != nil {
			return nil, core.NewValidationError("intensities", err.Error())
		}
		initLocation = median
	}

	theta0 := []float64{initLocation, math.Log(opts.InitialScale)}
	if opts.FreeAsymptotes {
		theta0 = append(theta0, opts.Guess, opts.Lapse)
	}

	objective := func(theta []float64) float64 {
		p, ok := decodeParams(theta, opts)
		if !ok {
			// Out of the feasible asymptote region: steer the simplex
			// back with a large finite penalty (Inf destabilizes it).
			return penalty
		}
		var sse float64
		for i := range xs {
			r := ys[i] - family.Evaluate(p, xs[i])
			sse += r * r
		}
		return sse
	}

	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{
		MajorIterations: opts.MaxIterations,
		Runtime:         opts.MaxRuntime,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Iterations: 100,
		},
	}

	result, err := optimize.Minimize(problem, theta0, settings, &optimize.NelderMead{})
	if err != nil {
		last, _ := decodeParams(theta0, opts)
		if result != nil && len(result.X) == len(theta0) {
			if p, ok := decodeParams(result.X, opts); ok {
				last = p
			}
		}
		return nil, &psychometric.ConvergenceError{
			Family:     family.Name(),
			LastParams: last,
			Status:     err.Error(),
		}
	}

	switch result.Status {
	case optimize.Success, optimize.FunctionConvergence, optimize.FunctionThreshold,
		optimize.GradientThreshold, optimize.StepConvergence, optimize.MethodConverge:
		// converged
	default:
		last, _ := decodeParams(result.X, opts)
		return nil, &psychometric.ConvergenceError{
			Family:     family.Name(),
			LastParams: last,
			Iterations: result.MajorIterations,
			Status:     result.Status.String(),
		}
	}

	params, ok := decodeParams(result.X, opts)
	if !ok || params.Validate() != nil {
		return nil, &psychometric.ConvergenceError{
			Family:     family.Name(),
			LastParams: params,
			Iterations: result.MajorIterations,
			Status:     "optimizer terminated outside the feasible region",
		}
	}

	rss := result.F
	return &psychometric.FitResult{
		Family:     family.Name(),
		Params:     params,
		Covariance: covariance(family, params, xs, rss, freeCount(opts)),
		RSS:        rss,
		RSquared:   rSquared(ys, rss),
		Iterations: result.MajorIterations,
		Converged:  true,
		FittedAt:   core.Now(),
	}, nil
}

const penalty = 1e10

func freeCount(opts psychometric.FitOptions) int {
	if opts.FreeAsymptotes {
		return 4
	}
	return 2
}

// decodeParams maps an optimizer vector back to model parameters. The
// second component is log(scale). Returns ok=false when free asymptotes
// stray outside 0 <= gamma, lambda with gamma+lambda < 1.
func decodeParams(theta []float64, opts psychometric.FitOptions) (psychometric.Params, bool) {
	p := psychometric.Params{
		Location: theta[0],
		Scale:    math.Exp(theta[1]),
		Guess:    opts.Guess,
		Lapse:    opts.Lapse,
	}
	if opts.FreeAsymptotes && len(theta) >= 4 {
		p.Guess = theta[2]
		p.Lapse = theta[3]
	}
	if p.Guess < 0 || p.Lapse < 0 || p.Guess+p.Lapse >= 1 {
		return p, false
	}
	if math.IsInf(p.Scale, 0) || p.Scale == 0 {
		return p, false
	}
	return p, true
}

func rSquared(ys []float64, rss float64) float64 {
	var mean float64
	for _, y := range ys {
		mean += y
	}
	mean /= float64(len(ys))

	var tss float64
	for _, y := range ys {
		d := y - mean
		tss += d * d
	}
	if tss == 0 {
		return 0
	}
	return 1 - rss/tss
}
