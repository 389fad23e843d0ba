package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const resultsSheet = "Results"

var xlsxHeader = []string{"Project", "Suite", "Test", "Status", "Retries", "Duration (ms)", "Started", "Errors"}

// WriteXLSX exports one row per test result.
func WriteXLSX(path string, run *Run) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for col, h := range xlsxHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(resultsSheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, res := range run.Results {
		row := []interface{}{
			res.Project,
			res.Suite,
			strings.Join(res.TitlePath, " › "),
			StatusLabel(res.Status),
			res.Retries,
			res.Duration.Milliseconds(),
			res.StartedAt.Format("2006-01-02 15:04:05"),
			strings.Join(res.Errors, "\n"),
		}
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(resultsSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
