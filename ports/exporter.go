package ports

import (
	"context"

	"psyphy/domain/psychometric"
)

// ResultExporterPort writes a session's trials and fit results to an
// external artifact (e.g. an xlsx workbook) for the reporting layer.
type ResultExporterPort interface {
	Export(ctx context.Context, session *psychometric.Session,
		trials []psychometric.TrialObservation,
		results []*psychometric.FitResult, path string) error
}
