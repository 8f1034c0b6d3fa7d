package app

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"psyphy/domain/core"
	"psyphy/domain/psychometric"
	"psyphy/internal/config"
	"psyphy/ports"
)

// AnalysisService orchestrates threshold estimation: it pulls a session's
// trials from the ledger, fits every sigmoid family concurrently and
// persists whatever converged.
type AnalysisService struct {
	fitter ports.FitterPort
	ledger ports.TrialLedgerPort
	opts   psychometric.FitOptions
}

// ThresholdEstimate is the cross-family outcome for one session.
type ThresholdEstimate struct {
	SessionID core.SessionID                     `json:"session_id"`
	Results   map[string]*psychometric.FitResult `json:"results"`
	Failures  map[string]string                  `json:"failures,omitempty"`
	Best      string                             `json:"best_family"`
	Threshold float64                            `json:"threshold"`
	Spread    float64                            `json:"spread"`
}

// NewAnalysisService creates an analysis service. Fit defaults come from
// configuration; per-call overrides go through EstimateFromObservations.
func NewAnalysisService(fitter ports.FitterPort, ledger ports.TrialLedgerPort,
	cfg config.FitterConfig) *AnalysisService {

	opts := psychometric.DefaultFitOptions()
	opts.Guess = cfg.GuessRate
	opts.Lapse = cfg.LapseRate
	opts.InitialScale = cfg.InitialScale
	opts.MaxIterations = cfg.MaxIterations
	opts.MaxRuntime = cfg.MaxRuntime

	return &AnalysisService{fitter: fitter, ledger: ledger, opts: opts}
}

// EstimateThreshold fits every family to a stored session's trials and
// saves the converged results to the ledger.
func (s *AnalysisService) EstimateThreshold(ctx context.Context, id core.SessionID) (*ThresholdEstimate, error) {
	trials, err := s.ledger.ListTrials(ctx, id)
	if err != nil {
		return nil, err
	}

	estimate, err := s.EstimateFromObservations(ctx, trials, s.opts)
	if err != nil {
		return nil, err
	}
	estimate.SessionID = id

	for _, res := range estimate.Results {
		if err := s.ledger.SaveFitResult(ctx, id, res); err != nil {
			return nil, fmt.Errorf("failed to persist fit result: %w", err)
		}
	}
	return estimate, nil
}

// EstimateFromObservations fits every family to the given observations
// without touching storage. Families fit concurrently; per-family failures
// are reported in the estimate, and only an across-the-board failure is an
// error.
func (s *AnalysisService) EstimateFromObservations(ctx context.Context,
	obs []psychometric.TrialObservation, opts psychometric.FitOptions) (*ThresholdEstimate, error) {

	if err := psychometric.ValidateObservations(obs); err != nil {
		return nil, err
	}

	estimate := &ThresholdEstimate{
		Results:  make(map[string]*psychometric.FitResult),
		Failures: make(map[string]string),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, family := range psychometric.Families() {
		family := family
		g.Go(func() error {
			res, err := s.fitter.Fit(gctx, family, obs, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if core.IsEstimationError(err) {
					log.Printf("[AnalysisService] %s fit failed: %v", family.Name(), err)
					estimate.Failures[family.Name()] = err.Error()
					return nil
				}
				return err
			}
			estimate.Results[family.Name()] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(estimate.Results) == 0 {
		return nil, fmt.Errorf("%w: no sigmoid family converged on %d observations",
			core.ErrInsufficientData, len(obs))
	}

	estimate.Best, estimate.Threshold = bestByFit(estimate.Results)
	estimate.Spread = thresholdSpread(estimate.Results)
	return estimate, nil
}

// bestByFit picks the converged family with the lowest residual sum of
// squares.
func bestByFit(results map[string]*psychometric.FitResult) (string, float64) {
	best := ""
	bestRSS := math.Inf(1)
	for name, res := range results {
		if res.RSS < bestRSS {
			best = name
			bestRSS = res.RSS
		}
	}
	return best, results[best].Threshold()
}

// thresholdSpread measures cross-family agreement as the relative range of
// the estimated thresholds. Large spreads flag data that the sigmoid shape
// assumptions describe poorly.
func thresholdSpread(results map[string]*psychometric.FitResult) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, res := range results {
		t := res.Threshold()
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}
	if len(results) < 2 || lo == 0 {
		return 0
	}
	return (hi - lo) / math.Abs(lo)
}
