package excel

import (
	"context"
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"

	"psyphy/domain/psychometric"
	apperrors "psyphy/internal/errors"
	"psyphy/ports"
)

// ResultsExporter writes a session workbook with a Summary sheet (one row
// per fitted family) and a Trials sheet (the raw observations).
type ResultsExporter struct{}

var _ ports.ResultExporterPort = (*ResultsExporter)(nil)

// NewResultsExporter creates an xlsx results exporter.
func NewResultsExporter() *ResultsExporter {
	return &ResultsExporter{}
}

// Export writes the workbook to path, overwriting any existing file.
func (e *ResultsExporter) Export(ctx context.Context, session *psychometric.Session,
	trials []psychometric.TrialObservation,
	results []*psychometric.FitResult, path string) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	summary := "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return apperrors.WithCode(apperrors.CodeExportError, err)
	}

	if err := writeSummarySheet(f, summary, session, results); err != nil {
		return apperrors.WithCode(apperrors.CodeExportError, err)
	}
	if err := writeTrialsSheet(f, trials); err != nil {
		return apperrors.WithCode(apperrors.CodeExportError, err)
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.WithCode(apperrors.CodeExportError,
			fmt.Errorf("failed to save workbook %s: %w", path, err))
	}

	log.Printf("[ResultsExporter] wrote %s (%d trials, %d fits)", path, len(trials), len(results))
	return nil
}

func writeSummarySheet(f *excelize.File, sheet string, session *psychometric.Session,
	results []*psychometric.FitResult) error {

	headers := []interface{}{"family", "threshold", "scale", "guess", "lapse",
		"rss", "r_squared", "iterations", "converged"}
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}

	for i, res := range results {
		row := []interface{}{
			res.Family,
			res.Params.Location,
			res.Params.Scale,
			res.Params.Guess,
			res.Params.Lapse,
			res.RSS,
			res.RSquared,
			res.Iterations,
			res.Converged,
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	// Session metadata below the result block.
	metaRow := len(results) + 3
	if session != nil {
		meta := []interface{}{"session", string(session.ID), session.Participant,
			session.StartedAt.String()}
		if err := setRow(f, sheet, metaRow, meta); err != nil {
			return err
		}
	}
	return nil
}

func writeTrialsSheet(f *excelize.File, trials []psychometric.TrialObservation) error {
	sheet := "Trials"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	if err := setRow(f, sheet, 1, []interface{}{"intensity", "response"}); err != nil {
		return err
	}
	for i, t := range trials {
		if err := setRow(f, sheet, i+2, []interface{}{t.Intensity, t.Response}); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowIdx int, values []interface{}) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, rowIdx)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
