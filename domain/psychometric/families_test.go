package psychometric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilies_RangeBounded(t *testing.T) {
	p := Params{Location: 50, Scale: 8, Guess: 0.1, Lapse: 0.05}

	for _, fam := range Families() {
		lo, hi := p.Range()
		for x := 1.0; x <= 200; x += 0.5 {
			v := fam.Evaluate(p, x)
			assert.GreaterOrEqualf(t, v, lo, "%s at x=%g below guess rate", fam.Name(), x)
			assert.LessOrEqualf(t, v, hi, "%s at x=%g above 1-lapse", fam.Name(), x)
		}
	}
}

func TestFamilies_Monotone(t *testing.T) {
	p := Params{Location: 50, Scale: 8, Guess: 0, Lapse: 0.02}

	for _, fam := range Families() {
		prev := -1.0
		for x := 1.0; x <= 150; x += 1 {
			v := fam.Evaluate(p, x)
			assert.GreaterOrEqualf(t, v, prev, "%s not monotone at x=%g", fam.Name(), x)
			prev = v
		}
	}
}

func TestFamilies_LocationIsMidpoint(t *testing.T) {
	// For the symmetric families the location parameter attains the
	// midpoint between the asymptote bounds.
	p := Params{Location: 50, Scale: 8, Guess: 0, Lapse: 0.02}

	for _, fam := range []Family{Logistic{}, CumulativeGaussian{}} {
		assert.InDeltaf(t, p.Midpoint(), fam.Evaluate(p, p.Location), 1e-12,
			"%s midpoint", fam.Name())
	}
}

func TestFamilies_ThresholdInvertsEvaluate(t *testing.T) {
	p := Params{Location: 50, Scale: 8, Guess: 0.02, Lapse: 0.03}

	for _, fam := range Families() {
		for _, perf := range []float64{0.25, 0.5, 0.75, 0.84} {
			x, err := fam.Threshold(p, perf)
			require.NoErrorf(t, err, "%s threshold at %g", fam.Name(), perf)
			assert.InDeltaf(t, perf, fam.Evaluate(p, x), 1e-9,
				"%s round trip at %g", fam.Name(), perf)
		}
	}
}

func TestFamilies_ThresholdRejectsUnattainable(t *testing.T) {
	p := Params{Location: 50, Scale: 8, Guess: 0.1, Lapse: 0.1}

	for _, fam := range Families() {
		for _, perf := range []float64{0.05, 0.1, 0.9, 0.99} {
			_, err := fam.Threshold(p, perf)
			assert.Errorf(t, err, "%s should reject performance %g outside (0.1, 0.9)", fam.Name(), perf)
		}
	}
}

func TestFamilyByName(t *testing.T) {
	for _, name := range []string{FamilyLogistic, FamilyCumulativeGaussian, FamilyWeibull} {
		fam, err := FamilyByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, fam.Name())
	}

	_, err := FamilyByName("gumbel")
	assert.Error(t, err)
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"valid", Params{Location: 50, Scale: 8, Guess: 0, Lapse: 0.02}, false},
		{"zero scale", Params{Location: 50, Scale: 0, Guess: 0, Lapse: 0.02}, true},
		{"negative guess", Params{Location: 50, Scale: 8, Guess: -0.1, Lapse: 0}, true},
		{"asymptotes sum to one", Params{Location: 50, Scale: 8, Guess: 0.5, Lapse: 0.5}, true},
		{"boundary asymptotes ok", Params{Location: 50, Scale: 8, Guess: 0.5, Lapse: 0.49}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
