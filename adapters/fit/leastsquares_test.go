package fit

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psyphy/domain/core"
	"psyphy/domain/psychometric"
)

// syntheticLogistic builds a deterministic trial table from a known
// logistic observer: at each level the positive-response count is the
// rounded expected count, so the proportions track the true curve to
// within half a trial.
func syntheticLogistic(alpha, beta float64, levels []float64, perLevel int) []psychometric.TrialObservation {
	truth := psychometric.Params{Location: alpha, Scale: beta, Guess: 0, Lapse: 0.02}
	fam := psychometric.Logistic{}

	var obs []psychometric.TrialObservation
	for _, x := range levels {
		prob := fam.Evaluate(truth, x)
		positives := int(math.Round(prob * float64(perLevel)))
		for i := 0; i < perLevel; i++ {
			r := 0.0
			if i < positives {
				r = 1.0
			}
			obs = append(obs, psychometric.TrialObservation{Intensity: x, Response: r})
		}
	}
	return obs
}

func nineLevels() []float64 {
	return []float64{10, 20, 30, 40, 50, 60, 70, 80, 90}
}

func TestLeastSquares_RecoversLogisticParameters(t *testing.T) {
	obs := syntheticLogistic(50, 8, nineLevels(), 20)

	fitter := NewLeastSquares()
	result, err := fitter.Fit(context.Background(), psychometric.Logistic{}, obs, psychometric.DefaultFitOptions())
	require.NoError(t, err)
	require.True(t, result.Converged)

	assert.InDelta(t, 50, result.Params.Location, 2, "threshold recovery")
	assert.InDelta(t, 8, result.Params.Scale, 3, "slope recovery")
	assert.Equal(t, psychometric.FamilyLogistic, result.Family)

	// On raw 0/1 responses the residuals are dominated by irreducible
	// Bernoulli variance, so R-squared tops out well below 1 even for a
	// perfect fit. The tight goodness-of-fit bound belongs on the
	// per-level proportions.
	assert.Greater(t, result.RSquared, 0.55)
	assert.Less(t, result.RSquared, 0.75)
}

func TestLeastSquares_ThresholdsAgreeAcrossSymmetricFamilies(t *testing.T) {
	obs := syntheticLogistic(50, 8, nineLevels(), 20)
	fitter := NewLeastSquares()
	opts := psychometric.DefaultFitOptions()

	logRes, err := fitter.Fit(context.Background(), psychometric.Logistic{}, obs, opts)
	require.NoError(t, err)

	gaussRes, err := fitter.Fit(context.Background(), psychometric.CumulativeGaussian{}, obs, opts)
	require.NoError(t, err)

	a, b := logRes.Threshold(), gaussRes.Threshold()
	spread := math.Abs(a-b) / math.Max(math.Abs(a), math.Abs(b))
	assert.Lessf(t, spread, 0.10, "logistic %g vs gaussian %g", a, b)
}

func TestLeastSquares_DegenerateResponses(t *testing.T) {
	fitter := NewLeastSquares()
	opts := psychometric.DefaultFitOptions()

	allOnes := []psychometric.TrialObservation{
		{Intensity: 30, Response: 1},
		{Intensity: 50, Response: 1},
		{Intensity: 70, Response: 1},
	}
	_, err := fitter.Fit(context.Background(), psychometric.Logistic{}, allOnes, opts)
	assert.ErrorIs(t, err, core.ErrInsufficientVariability)

	allZeros := []psychometric.TrialObservation{
		{Intensity: 30, Response: 0},
		{Intensity: 50, Response: 0},
	}
	_, err = fitter.Fit(context.Background(), psychometric.Logistic{}, allZeros, opts)
	assert.ErrorIs(t, err, core.ErrInsufficientVariability)
}

func TestLeastSquares_InvalidInputs(t *testing.T) {
	fitter := NewLeastSquares()
	opts := psychometric.DefaultFitOptions()
	ctx := context.Background()

	_, err := fitter.Fit(ctx, psychometric.Logistic{}, nil, opts)
	assert.ErrorIs(t, err, core.ErrInvalidArgument, "empty observations")

	oneLevel := []psychometric.TrialObservation{
		{Intensity: 50, Response: 0},
		{Intensity: 50, Response: 1},
	}
	_, err = fitter.Fit(ctx, psychometric.Logistic{}, oneLevel, opts)
	assert.ErrorIs(t, err, core.ErrInvalidArgument, "single intensity level")

	_, err = fitter.Fit(ctx, nil, syntheticLogistic(50, 8, nineLevels(), 5), opts)
	assert.ErrorIs(t, err, core.ErrInvalidArgument, "nil family")

	bad := opts
	bad.InitialScale = -1
	_, err = fitter.Fit(ctx, psychometric.Logistic{}, syntheticLogistic(50, 8, nineLevels(), 5), bad)
	assert.ErrorIs(t, err, core.ErrInvalidArgument, "invalid options")
}

func TestLeastSquares_ProportionInput(t *testing.T) {
	// Pre-aggregated proportions fit the same way as raw binaries.
	obs := syntheticLogistic(50, 8, nineLevels(), 20)
	points, err := psychometric.Aggregate(obs)
	require.NoError(t, err)

	fitter := NewLeastSquares()
	result, err := fitter.Fit(context.Background(), psychometric.Logistic{},
		psychometric.Flatten(points), psychometric.DefaultFitOptions())
	require.NoError(t, err)
	require.True(t, result.Converged)
	assert.InDelta(t, 50, result.Params.Location, 2)

	// With the Bernoulli noise averaged out, the model explains nearly
	// all the per-level variance.
	assert.Greater(t, result.RSquared, 0.95)
}

func TestLeastSquares_InitialGuessOverride(t *testing.T) {
	obs := syntheticLogistic(50, 8, nineLevels(), 20)

	opts := psychometric.DefaultFitOptions()
	opts.InitialLocation = 65
	opts.InitialScale = 4

	fitter := NewLeastSquares()
	result, err := fitter.Fit(context.Background(), psychometric.Logistic{}, obs, opts)
	require.NoError(t, err)
	assert.InDelta(t, 50, result.Params.Location, 2, "fit should not depend on a reasonable starting point")
}

func TestLeastSquares_ReportsDiagnostics(t *testing.T) {
	obs := syntheticLogistic(50, 8, nineLevels(), 20)

	fitter := NewLeastSquares()
	result, err := fitter.Fit(context.Background(), psychometric.Logistic{}, obs, psychometric.DefaultFitOptions())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.RSS, 0.0)
	if assert.NotNil(t, result.Covariance, "covariance should be available for a well-posed fit") {
		require.Len(t, result.Covariance, 2)
		assert.GreaterOrEqual(t, result.Covariance[0][0], 0.0, "location variance")
		assert.GreaterOrEqual(t, result.Covariance[1][1], 0.0, "scale variance")
	}
}

func TestLeastSquares_ConvergenceErrorShape(t *testing.T) {
	// Starve the optimizer so it reports the budget instead of a result.
	obs := syntheticLogistic(50, 8, nineLevels(), 20)
	opts := psychometric.DefaultFitOptions()
	opts.MaxIterations = 1

	fitter := NewLeastSquares()
	_, err := fitter.Fit(context.Background(), psychometric.Logistic{}, obs, opts)
	require.Error(t, err)
	require.ErrorIs(t, err, core.ErrFitDidNotConverge)

	var convErr *psychometric.ConvergenceError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, psychometric.FamilyLogistic, convErr.Family)
	assert.False(t, math.IsNaN(convErr.LastParams.Location), "diagnostic params must be populated")
}
