package report

import (
	"context"
	"strconv"

	"goreplicate/domain/run"
	"goreplicate/domain/stats"
	"goreplicate/internal/errors"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter writes the result table to a "Results" sheet and the sample
// summaries to a "Samples" sheet.
type XLSXWriter struct {
	opts Options
}

// NewXLSXWriter creates a spreadsheet writer
func NewXLSXWriter(opts Options) *XLSXWriter {
	return &XLSXWriter{opts: opts}
}

func (w *XLSXWriter) Format() string { return "xlsx" }

func (w *XLSXWriter) Write(ctx context.Context, table *stats.ResultTable, _ *run.RunManifest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := w.opts.path("xlsx")

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Results"); err != nil {
		return "", errors.OutputFailed(path, err)
	}
	g := BuildGrid(table, w.opts.Decimals)
	if err := writeSheet(f, "Results", g.Headers, g.Rows); err != nil {
		return "", errors.OutputFailed(path, err)
	}

	if _, err := f.NewSheet("Samples"); err != nil {
		return "", errors.OutputFailed(path, err)
	}
	s := SampleGrid(table)
	if err := writeSheet(f, "Samples", s.Headers, s.Rows); err != nil {
		return "", errors.OutputFailed(path, err)
	}

	if err := f.SaveAs(path); err != nil {
		return "", errors.OutputFailed(path, err)
	}
	return path, nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]string) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			var value interface{} = v
			if x, err := strconv.ParseFloat(v, 64); err == nil {
				value = x
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}
