package stimulus

import (
	"math"
	"testing"
)

func TestComputeSigma_BlurFloor(t *testing.T) {
	for _, intensity := range []Intensity{90, 92.5, 95, 99.9, 100} {
		if got := ComputeSigma(intensity); got != MinSigma {
			t.Errorf("ComputeSigma(%g) = %g, want blur floor %g", float64(intensity), got, MinSigma)
		}
	}
}

func TestComputeSigma_LiteralTable(t *testing.T) {
	tests := []struct {
		intensity Intensity
		want      float64
	}{
		{90, 0.5},
		{70, 5.5},
		{50, 11.5},
		{30, 19.5},
		{10, 29.5},
		{80, 1.5 + 10*0.2},
		{60, 5.5 + 10*0.3},
		{40, 11.5 + 10*0.4},
		{20, 19.5 + 10*0.5},
		{0, 19.5 + 30*0.5},
	}

	for _, tt := range tests {
		if got := ComputeSigma(tt.intensity); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("ComputeSigma(%g) = %g, want %g", float64(tt.intensity), got, tt.want)
		}
	}
}

// Adjacent table rows must produce the same sigma at the shared breakpoint.
// The 90 boundary is excluded on purpose: the top row is a constant blur
// floor below the limit of the segment beneath it.
func TestComputeSigma_ContinuityAtBreakpoints(t *testing.T) {
	for i := 1; i < len(sigmaTable)-1; i++ {
		upper := sigmaTable[i]
		lowerSeg := sigmaTable[i+1]
		boundary := upper.lower

		a := upper.eval(boundary)
		b := lowerSeg.eval(boundary)
		if a != b {
			t.Errorf("discontinuity at intensity %g: %g vs %g", boundary, a, b)
		}
	}
}

func TestComputeSigma_Monotone(t *testing.T) {
	prev := math.Inf(1)
	for x := 0.0; x <= 100.0; x += 0.25 {
		sigma := ComputeSigma(Intensity(x))
		if sigma > prev {
			t.Fatalf("sigma increased with intensity at %g: %g > %g", x, sigma, prev)
		}
		if sigma < MinSigma {
			t.Fatalf("sigma %g below floor at intensity %g", sigma, x)
		}
		prev = sigma
	}
}

func TestComputeSigma_Deterministic(t *testing.T) {
	for _, x := range []Intensity{0, 12.34, 55.5, 89.999, 100} {
		if ComputeSigma(x) != ComputeSigma(x) {
			t.Errorf("ComputeSigma(%g) not deterministic", float64(x))
		}
	}
}

func TestIntensity_Validate(t *testing.T) {
	tests := []struct {
		name      string
		intensity Intensity
		wantErr   bool
	}{
		{"lower bound", 0, false},
		{"upper bound", 100, false},
		{"interior", 42.5, false},
		{"negative", -0.1, true},
		{"too large", 100.1, true},
		{"NaN", Intensity(math.NaN()), true},
		{"infinite", Intensity(math.Inf(1)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.intensity.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected error for %v, got nil", float64(tt.intensity))
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error for %v: %v", float64(tt.intensity), err)
			}
		})
	}
}

func TestIntensity_Clamp(t *testing.T) {
	if got := Intensity(-5).Clamp(); got != MinIntensity {
		t.Errorf("Clamp(-5) = %g", float64(got))
	}
	if got := Intensity(120).Clamp(); got != MaxIntensity {
		t.Errorf("Clamp(120) = %g", float64(got))
	}
	if got := Intensity(63).Clamp(); got != 63 {
		t.Errorf("Clamp(63) = %g", float64(got))
	}
}
