package memory

import (
	"context"
	"sync"

	"psyphy/domain/core"
	"psyphy/domain/psychometric"
	"psyphy/ports"
)

// TrialLedger is the in-memory ports.TrialLedgerPort used when no
// database is configured, and by tests. All methods are safe for
// concurrent sessions.
type TrialLedger struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*psychometric.Session
	trials   map[core.SessionID][]psychometric.TrialObservation
	results  map[core.SessionID][]*psychometric.FitResult
}

// NewTrialLedger creates an empty in-memory ledger
func NewTrialLedger() *TrialLedger {
	return &TrialLedger{
		sessions: make(map[core.SessionID]*psychometric.Session),
		trials:   make(map[core.SessionID][]psychometric.TrialObservation),
		results:  make(map[core.SessionID][]*psychometric.FitResult),
	}
}

var _ ports.TrialLedgerPort = (*TrialLedger)(nil)

func (l *TrialLedger) CreateSession(ctx context.Context, participant string) (*psychometric.Session, error) {
	session := &psychometric.Session{
		ID:          core.SessionID(core.NewID()),
		Participant: participant,
		StartedAt:   core.Now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessions[session.ID] = session

	copied := *session
	return &copied, nil
}

func (l *TrialLedger) GetSession(ctx context.Context, id core.SessionID) (*psychometric.Session, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	session, ok := l.sessions[id]
	if !ok {
		return nil, core.NewNotFoundError("session", id.String())
	}
	copied := *session
	return &copied, nil
}

func (l *TrialLedger) AppendTrial(ctx context.Context, id core.SessionID, obs psychometric.TrialObservation) error {
	if err := obs.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.sessions[id]; !ok {
		return core.NewNotFoundError("session", id.String())
	}
	l.trials[id] = append(l.trials[id], obs)
	return nil
}

func (l *TrialLedger) ListTrials(ctx context.Context, id core.SessionID) ([]psychometric.TrialObservation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.sessions[id]; !ok {
		return nil, core.NewNotFoundError("session", id.String())
	}
	trials := make([]psychometric.TrialObservation, len(l.trials[id]))
	copy(trials, l.trials[id])
	return trials, nil
}

func (l *TrialLedger) SaveFitResult(ctx context.Context, id core.SessionID, result *psychometric.FitResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.sessions[id]; !ok {
		return core.NewNotFoundError("session", id.String())
	}
	copied := *result
	l.results[id] = append(l.results[id], &copied)
	return nil
}

func (l *TrialLedger) ListFitResults(ctx context.Context, id core.SessionID) ([]*psychometric.FitResult, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.sessions[id]; !ok {
		return nil, core.NewNotFoundError("session", id.String())
	}
	results := make([]*psychometric.FitResult, len(l.results[id]))
	copy(results, l.results[id])
	return results, nil
}
