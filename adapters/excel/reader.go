package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"psyphy/domain/core"
	"psyphy/domain/psychometric"
)

// TrialTableReader reads trial observations from Excel and CSV files.
// The table needs an intensity column and a response column; extra
// columns are ignored.
type TrialTableReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// Column names accepted by the header scan, lowercase.
var (
	intensityColumns = []string{"intensity", "level", "stimulus", "x"}
	responseColumns  = []string{"response", "correct", "detected", "y"}
)

// NewTrialTableReader creates a reader for an xlsx or csv trial table.
func NewTrialTableReader(filePath string) *TrialTableReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &TrialTableReader{filePath: filePath, fileType: fileType}
}

// Read parses the trial table and validates every row.
func (r *TrialTableReader) Read() ([]psychometric.TrialObservation, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: trial table %s", core.ErrNotFound, r.filePath)
	}

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", core.ErrInvalidArgument, r.fileType)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: trial table must have a header row and at least one data row",
			core.ErrInvalidArgument)
	}

	return r.processRows(rows)
}

func (r *TrialTableReader) readExcelRows() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	log.Printf("[TrialTableReader] %s read in %.2fms (%d rows)",
		sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *TrialTableReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Printf("[TrialTableReader] CSV file read (%d rows)", len(rows))
	return rows, nil
}

// processRows locates the intensity and response columns and converts
// data rows into observations.
func (r *TrialTableReader) processRows(rows [][]string) ([]psychometric.TrialObservation, error) {
	header := rows[0]
	intensityIdx, err := findColumn(header, intensityColumns)
	if err != nil {
		return nil, err
	}
	responseIdx, err := findColumn(header, responseColumns)
	if err != nil {
		return nil, err
	}

	observations := make([]psychometric.TrialObservation, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		if intensityIdx >= len(row) || responseIdx >= len(row) {
			return nil, fmt.Errorf("%w: row %d has %d cells, need at least %d",
				core.ErrInvalidArgument, i+1, len(row), max(intensityIdx, responseIdx)+1)
		}

		intensity, err := strconv.ParseFloat(strings.TrimSpace(row[intensityIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d intensity %q is not numeric",
				core.ErrInvalidArgument, i+1, row[intensityIdx])
		}
		response, err := parseResponse(strings.TrimSpace(row[responseIdx]))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d response %q", core.ErrInvalidArgument, i+1, row[responseIdx])
		}

		obs := psychometric.TrialObservation{Intensity: intensity, Response: response}
		if err := obs.Validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		observations = append(observations, obs)
	}

	if len(observations) == 0 {
		return nil, fmt.Errorf("%w: trial table has no data rows", core.ErrInvalidArgument)
	}

	log.Printf("[TrialTableReader] %s file processed (%d observations)",
		strings.ToUpper(r.fileType), len(observations))
	return observations, nil
}

func findColumn(header []string, candidates []string) (int, error) {
	for _, name := range candidates {
		for i, h := range header {
			if strings.ToLower(strings.TrimSpace(h)) == name {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: no column named one of %s in header %v",
		core.ErrInvalidArgument, strings.Join(candidates, "/"), header)
}

// parseResponse accepts proportions as floats plus the usual boolean
// spellings seen in hand-edited sheets.
func parseResponse(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "y":
		return 1, nil
	case "false", "no", "n":
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
