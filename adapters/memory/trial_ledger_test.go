package memory

import (
	"context"
	"testing"

	"psyphy/domain/core"
	"psyphy/domain/psychometric"
)

func TestTrialLedger_SessionLifecycle(t *testing.T) {
	ledger := NewTrialLedger()
	ctx := context.Background()

	session, err := ledger.CreateSession(ctx, "participant-7")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.ID == "" || session.Participant != "participant-7" {
		t.Fatalf("bad session: %+v", session)
	}

	got, err := ledger.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.ID != session.ID {
		t.Errorf("got session %s, want %s", got.ID, session.ID)
	}

	if _, err := ledger.GetSession(ctx, "missing"); !core.IsNotFoundError(err) {
		t.Errorf("missing session: got %v", err)
	}
}

func TestTrialLedger_TrialsAndResults(t *testing.T) {
	ledger := NewTrialLedger()
	ctx := context.Background()

	session, err := ledger.CreateSession(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}

	obs := []psychometric.TrialObservation{
		{Intensity: 70, Response: 1},
		{Intensity: 30, Response: 0},
	}
	for _, o := range obs {
		if err := ledger.AppendTrial(ctx, session.ID, o); err != nil {
			t.Fatalf("AppendTrial: %v", err)
		}
	}

	// Order preserved for audit
	trials, err := ledger.ListTrials(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(trials) != 2 || trials[0].Intensity != 70 || trials[1].Intensity != 30 {
		t.Errorf("trials out of order: %+v", trials)
	}

	result := &psychometric.FitResult{
		Family:    psychometric.FamilyLogistic,
		Params:    psychometric.Params{Location: 48.2, Scale: 7.5, Lapse: 0.02},
		Converged: true,
	}
	if err := ledger.SaveFitResult(ctx, session.ID, result); err != nil {
		t.Fatalf("SaveFitResult: %v", err)
	}
	results, err := ledger.ListFitResults(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Family != psychometric.FamilyLogistic {
		t.Errorf("results wrong: %+v", results)
	}

	// Stored copy is detached from the caller's struct
	result.Params.Location = 0
	if results[0].Params.Location != 48.2 {
		t.Error("ledger stored a shared pointer instead of a copy")
	}
}

func TestTrialLedger_RejectsUnknownSessionAndBadTrial(t *testing.T) {
	ledger := NewTrialLedger()
	ctx := context.Background()

	err := ledger.AppendTrial(ctx, "nope", psychometric.TrialObservation{Intensity: 50, Response: 1})
	if !core.IsNotFoundError(err) {
		t.Errorf("unknown session: got %v", err)
	}

	session, _ := ledger.CreateSession(ctx, "p")
	err = ledger.AppendTrial(ctx, session.ID, psychometric.TrialObservation{Intensity: 50, Response: 1.5})
	if !core.IsValidationError(err) {
		t.Errorf("bad response: got %v", err)
	}
}
