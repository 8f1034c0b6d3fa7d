package psychometric

import (
	"sort"

	"github.com/montanaflynn/stats"
)

// AggregatedPoint is one intensity level with its trial count and the
// proportion of positive responses.
type AggregatedPoint struct {
	Intensity  float64 `json:"intensity"`
	Trials     int     `json:"trials"`
	Proportion float64 `json:"proportion"`
}

// Aggregate groups trials by intensity into proportion rows, sorted by
// intensity. The fitter itself never aggregates or deduplicates; callers
// wanting proportion-based fitting run this first and feed the result back
// through Flatten.
func Aggregate(obs []TrialObservation) ([]AggregatedPoint, error) {
	if err := ValidateObservations(obs); err != nil {
		return nil, err
	}

	groups := make(map[float64][]float64)
	for _, o := range obs {
		groups[o.Intensity] = append(groups[o.Intensity], o.Response)
	}

	points := make([]AggregatedPoint, 0, len(groups))
	for intensity, responses := range groups {
		mean, err := stats.Mean(stats.Float64Data(responses))
		if err != nil {
			return nil, err
		}
		points = append(points, AggregatedPoint{
			Intensity:  intensity,
			Trials:     len(responses),
			Proportion: mean,
		})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Intensity < points[j].Intensity })
	return points, nil
}

// Flatten turns aggregated points back into one observation per level,
// with the proportion as the response.
func Flatten(points []AggregatedPoint) []TrialObservation {
	obs := make([]TrialObservation, len(points))
	for i, p := range points {
		obs[i] = TrialObservation{Intensity: p.Intensity, Response: p.Proportion}
	}
	return obs
}
