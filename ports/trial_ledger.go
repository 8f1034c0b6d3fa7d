package ports

import (
	"context"

	"psyphy/domain/core"
	"psyphy/domain/psychometric"
)

// TrialLedgerPort stores experiment sessions, their trial observations and
// the fit results derived from them. The fitting core never touches
// storage; this port is how the surrounding platform feeds it.
type TrialLedgerPort interface {
	CreateSession(ctx context.Context, participant string) (*psychometric.Session, error)
	GetSession(ctx context.Context, id core.SessionID) (*psychometric.Session, error)
	AppendTrial(ctx context.Context, id core.SessionID, obs psychometric.TrialObservation) error
	ListTrials(ctx context.Context, id core.SessionID) ([]psychometric.TrialObservation, error)
	SaveFitResult(ctx context.Context, id core.SessionID, result *psychometric.FitResult) error
	ListFitResults(ctx context.Context, id core.SessionID) ([]*psychometric.FitResult, error)
}
