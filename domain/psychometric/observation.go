package psychometric

import (
	"fmt"
	"math"

	"psyphy/domain/core"
)

// TrialObservation is one (intensity, response) pair. Response is either
// a binary outcome (0/1) or a pre-aggregated proportion in [0, 1].
type TrialObservation struct {
	Intensity float64 `json:"intensity" db:"intensity"`
	Response  float64 `json:"response" db:"response"`
}

// Validate checks a single observation
func (o TrialObservation) Validate() error {
	if math.IsNaN(o.Intensity) || math.IsInf(o.Intensity, 0) {
		return core.NewValidationError("intensity", "must be finite")
	}
	if math.IsNaN(o.Response) || o.Response < 0 || o.Response > 1 {
		return core.NewValidationError("response",
			fmt.Sprintf("%g outside [0, 1]", o.Response))
	}
	return nil
}

// Session is one participant's run. Trial order is kept for audit only;
// fitting is order-independent.
type Session struct {
	ID          core.SessionID `json:"id" db:"id"`
	Participant string         `json:"participant" db:"participant"`
	StartedAt   core.Timestamp `json:"started_at" db:"started_at"`
}

// ValidateObservations runs the analytic pre-checks shared by every
// estimator: well-formed pairs, at least two distinct intensity levels,
// and some variability in the responses. Degenerate response vectors are
// detectable before any optimization starts, so they get their own error
// rather than masquerading as non-convergence.
func ValidateObservations(obs []TrialObservation) error {
	if len(obs) == 0 {
		return fmt.Errorf("%w: no trial observations", core.ErrInvalidArgument)
	}

	distinct := make(map[float64]struct{}, len(obs))
	first := obs[0].Response
	varied := false
	for _, o := range obs {
		if err := o.Validate(); err != nil {
			return err
		}
		distinct[o.Intensity] = struct{}{}
		if o.Response != first {
			varied = true
		}
	}

	if len(distinct) < 2 {
		return fmt.Errorf("%w: fewer than two distinct intensity levels", core.ErrInvalidArgument)
	}
	if !varied {
		return fmt.Errorf("%w: all %d responses equal %g",
			core.ErrInsufficientVariability, len(obs), first)
	}
	return nil
}

// Intensities extracts the intensity column
func Intensities(obs []TrialObservation) []float64 {
	xs := make([]float64, len(obs))
	for i, o := range obs {
		xs[i] = o.Intensity
	}
	return xs
}

// Responses extracts the response column
func Responses(obs []TrialObservation) []float64 {
	ys := make([]float64, len(obs))
	for i, o := range obs {
		ys[i] = o.Response
	}
	return ys
}
