package report

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"goreplicate/domain/run"
	"goreplicate/domain/stats"
	"goreplicate/internal/errors"
)

// CSVWriter writes the delimited result table
type CSVWriter struct {
	opts Options
}

// NewCSVWriter creates a CSV writer
func NewCSVWriter(opts Options) *CSVWriter {
	return &CSVWriter{opts: opts}
}

func (w *CSVWriter) Format() string { return "csv" }

func (w *CSVWriter) Write(ctx context.Context, table *stats.ResultTable, _ *run.RunManifest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := w.opts.path("csv")
	f, err := os.Create(path)
	if err != nil {
		return "", errors.OutputFailed(path, err)
	}

	if err := writeCSV(f, BuildGrid(table, w.opts.Decimals)); err != nil {
		f.Close()
		return "", errors.OutputFailed(path, err)
	}
	// close reports the final flush to disk
	if err := f.Close(); err != nil {
		return "", errors.OutputFailed(path, err)
	}
	return path, nil
}

func writeCSV(out io.Writer, g Grid) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(g.Headers); err != nil {
		return err
	}
	// WriteAll flushes and returns any buffered write error
	return cw.WriteAll(g.Rows)
}
