package psychometric

import (
	"errors"
	"testing"

	"psyphy/domain/core"
)

func TestAggregate(t *testing.T) {
	obs := []TrialObservation{
		{Intensity: 70, Response: 1},
		{Intensity: 30, Response: 0},
		{Intensity: 70, Response: 0},
		{Intensity: 70, Response: 1},
		{Intensity: 30, Response: 1},
		{Intensity: 50, Response: 1},
	}

	points, err := Aggregate(obs)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d levels, want 3", len(points))
	}

	// Sorted ascending by intensity
	want := []AggregatedPoint{
		{Intensity: 30, Trials: 2, Proportion: 0.5},
		{Intensity: 50, Trials: 1, Proportion: 1},
		{Intensity: 70, Trials: 3, Proportion: 2.0 / 3.0},
	}
	for i, p := range points {
		if p.Intensity != want[i].Intensity || p.Trials != want[i].Trials {
			t.Errorf("level %d: got %+v, want %+v", i, p, want[i])
		}
		if diff := p.Proportion - want[i].Proportion; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("level %d proportion: got %g, want %g", i, p.Proportion, want[i].Proportion)
		}
	}
}

func TestAggregate_Flatten(t *testing.T) {
	points := []AggregatedPoint{
		{Intensity: 30, Trials: 20, Proportion: 0.15},
		{Intensity: 50, Trials: 20, Proportion: 0.55},
	}
	obs := Flatten(points)
	if len(obs) != 2 {
		t.Fatalf("got %d observations", len(obs))
	}
	if obs[0].Response != 0.15 || obs[1].Intensity != 50 {
		t.Errorf("flattened observations wrong: %+v", obs)
	}
}

func TestValidateObservations(t *testing.T) {
	tests := []struct {
		name    string
		obs     []TrialObservation
		wantErr error
	}{
		{
			name:    "empty",
			obs:     nil,
			wantErr: core.ErrInvalidArgument,
		},
		{
			name: "single level",
			obs: []TrialObservation{
				{Intensity: 50, Response: 0},
				{Intensity: 50, Response: 1},
			},
			wantErr: core.ErrInvalidArgument,
		},
		{
			name: "all ones",
			obs: []TrialObservation{
				{Intensity: 30, Response: 1},
				{Intensity: 50, Response: 1},
				{Intensity: 70, Response: 1},
			},
			wantErr: core.ErrInsufficientVariability,
		},
		{
			name: "all zeros",
			obs: []TrialObservation{
				{Intensity: 30, Response: 0},
				{Intensity: 50, Response: 0},
			},
			wantErr: core.ErrInsufficientVariability,
		},
		{
			name: "response out of range",
			obs: []TrialObservation{
				{Intensity: 30, Response: 1.1},
				{Intensity: 50, Response: 0},
			},
			wantErr: core.ErrInvalidArgument,
		},
		{
			name: "valid",
			obs: []TrialObservation{
				{Intensity: 30, Response: 0},
				{Intensity: 50, Response: 1},
			},
		},
		{
			name: "conflicting duplicates accepted as-is",
			obs: []TrialObservation{
				{Intensity: 50, Response: 0},
				{Intensity: 50, Response: 1},
				{Intensity: 70, Response: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObservations(tt.obs)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}
