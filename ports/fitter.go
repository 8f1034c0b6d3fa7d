package ports

import (
	"context"

	"psyphy/domain/psychometric"
)

// FitterPort estimates psychometric function parameters for one sigmoid
// family from raw trial observations. Implementations are pure and safe
// for concurrent use.
type FitterPort interface {
	Fit(ctx context.Context, family psychometric.Family,
		observations []psychometric.TrialObservation,
		opts psychometric.FitOptions) (*psychometric.FitResult, error)
}
