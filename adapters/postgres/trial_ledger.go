package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"psyphy/domain/core"
	"psyphy/domain/psychometric"
	apperrors "psyphy/internal/errors"
	"psyphy/ports"
)

// TrialLedger implements ports.TrialLedgerPort on PostgreSQL
type TrialLedger struct {
	db *sqlx.DB
}

var _ ports.TrialLedgerPort = (*TrialLedger)(nil)

// NewTrialLedger creates a new PostgreSQL trial ledger
func NewTrialLedger(db *sqlx.DB) *TrialLedger {
	return &TrialLedger{db: db}
}

// EnsureSchema creates the ledger tables when they do not exist yet
func (r *TrialLedger) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			participant TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS trials (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			seq BIGSERIAL,
			intensity DOUBLE PRECISION NOT NULL,
			response DOUBLE PRECISION NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS fit_results (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			family TEXT NOT NULL,
			location DOUBLE PRECISION NOT NULL,
			scale DOUBLE PRECISION NOT NULL,
			guess_rate DOUBLE PRECISION NOT NULL,
			lapse_rate DOUBLE PRECISION NOT NULL,
			rss DOUBLE PRECISION NOT NULL,
			r_squared DOUBLE PRECISION NOT NULL,
			iterations INTEGER NOT NULL,
			converged BOOLEAN NOT NULL,
			fitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return apperrors.Wrap(err, "failed to create ledger schema")
		}
	}
	return nil
}

// CreateSession starts a new experiment session for a participant
func (r *TrialLedger) CreateSession(ctx context.Context, participant string) (*psychometric.Session, error) {
	session := &psychometric.Session{
		ID:          core.SessionID(core.NewID()),
		Participant: participant,
		StartedAt:   core.Now(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, participant, started_at)
		VALUES ($1, $2, $3)
	`, session.ID.String(), session.Participant, session.StartedAt.Time())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create session")
	}
	return session, nil
}

// GetSession retrieves a session by ID
func (r *TrialLedger) GetSession(ctx context.Context, id core.SessionID) (*psychometric.Session, error) {
	var row struct {
		ID          string         `db:"id"`
		Participant string         `db:"participant"`
		StartedAt   sql.NullTime   `db:"started_at"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT id, participant, started_at
		FROM sessions
		WHERE id = $1
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("session", id.String())
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load session")
	}

	return &psychometric.Session{
		ID:          core.SessionID(row.ID),
		Participant: row.Participant,
		StartedAt:   core.NewTimestamp(row.StartedAt.Time),
	}, nil
}

// AppendTrial records one observation in presentation order
func (r *TrialLedger) AppendTrial(ctx context.Context, id core.SessionID, obs psychometric.TrialObservation) error {
	if err := obs.Validate(); err != nil {
		return err
	}
	if _, err := r.GetSession(ctx, id); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO trials (id, session_id, intensity, response, recorded_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, core.TrialID(core.NewID()).String(), id.String(), obs.Intensity, obs.Response)
	if err != nil {
		return apperrors.Wrap(err, "failed to append trial")
	}
	return nil
}

// ListTrials returns a session's observations in presentation order
func (r *TrialLedger) ListTrials(ctx context.Context, id core.SessionID) ([]psychometric.TrialObservation, error) {
	if _, err := r.GetSession(ctx, id); err != nil {
		return nil, err
	}

	var trials []psychometric.TrialObservation
	err := r.db.SelectContext(ctx, &trials, `
		SELECT intensity, response
		FROM trials
		WHERE session_id = $1
		ORDER BY seq ASC
	`, id.String())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list trials")
	}
	return trials, nil
}

// SaveFitResult stores one model family's fit for a session
func (r *TrialLedger) SaveFitResult(ctx context.Context, id core.SessionID, result *psychometric.FitResult) error {
	if _, err := r.GetSession(ctx, id); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fit_results (id, session_id, family, location, scale, guess_rate, lapse_rate,
			rss, r_squared, iterations, converged, fitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, core.FitID(core.NewID()).String(), id.String(), result.Family,
		result.Params.Location, result.Params.Scale, result.Params.Guess, result.Params.Lapse,
		result.RSS, result.RSquared, result.Iterations, result.Converged, result.FittedAt.Time())
	if err != nil {
		return apperrors.Wrap(err, "failed to save fit result")
	}
	return nil
}

// ListFitResults returns all stored fits for a session, newest first
func (r *TrialLedger) ListFitResults(ctx context.Context, id core.SessionID) ([]*psychometric.FitResult, error) {
	if _, err := r.GetSession(ctx, id); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryxContext(ctx, `
		SELECT family, location, scale, guess_rate, lapse_rate, rss, r_squared, iterations, converged, fitted_at
		FROM fit_results
		WHERE session_id = $1
		ORDER BY fitted_at DESC
	`, id.String())
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list fit results")
	}
	defer rows.Close()

	var results []*psychometric.FitResult
	for rows.Next() {
		var (
			res      psychometric.FitResult
			fittedAt sql.NullTime
		)
		if err := rows.Scan(&res.Family, &res.Params.Location, &res.Params.Scale,
			&res.Params.Guess, &res.Params.Lapse, &res.RSS, &res.RSquared,
			&res.Iterations, &res.Converged, &fittedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan fit result")
		}
		res.FittedAt = core.NewTimestamp(fittedAt.Time)
		results = append(results, &res)
	}
	return results, rows.Err()
}
