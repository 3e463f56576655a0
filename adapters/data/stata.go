package data

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	"goreplicate/domain/core"
	"goreplicate/domain/dataset"

	"github.com/kshedden/datareader"
)

// readStataData decodes a Stata dta file. Numeric cells are rendered with
// the shortest exact float representation so the shared decoder sees the
// same strings a CSV export would carry; missing values become empty cells.
func readStataData(path string, raw []byte) (*dataset.RawFrame, error) {
	rdr, err := datareader.NewStataReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to open Stata file: %w", err)
	}
	if rdr.RowCount == 0 {
		return nil, fmt.Errorf("%w: Stata file %s has no rows", core.ErrEmptyDataset, path)
	}

	columns, err := rdr.Read(rdr.RowCount)
	if err != nil {
		return nil, fmt.Errorf("failed to read Stata file: %w", err)
	}
	names := rdr.ColumnNames()
	if len(columns) != len(names) {
		return nil, fmt.Errorf("Stata file %s: %d column names for %d columns", path, len(names), len(columns))
	}

	rows := make([]dataset.RawRow, rdr.RowCount)
	for i := range rows {
		rows[i] = make(dataset.RawRow, len(names))
	}

	for j, series := range columns {
		cells, err := stataCells(series.Data())
		if err != nil {
			return nil, fmt.Errorf("Stata column %q: %w", names[j], err)
		}
		missing := series.Missing()
		for i := 0; i < len(rows) && i < len(cells); i++ {
			if missing != nil && missing[i] {
				continue
			}
			rows[i][names[j]] = cells[i]
		}
	}

	return &dataset.RawFrame{
		Source:  path,
		Headers: names,
		Rows:    rows,
	}, nil
}

func stataCells(data interface{}) ([]string, error) {
	switch v := data.(type) {
	case []float64:
		out := make([]string, len(v))
		for i, x := range v {
			out[i] = formatStataFloat(x)
		}
		return out, nil
	case []float32:
		out := make([]string, len(v))
		for i, x := range v {
			out[i] = formatStataFloat(float64(x))
		}
		return out, nil
	case []int64:
		return formatInts(v), nil
	case []int32:
		return formatInts(v), nil
	case []int16:
		return formatInts(v), nil
	case []int8:
		return formatInts(v), nil
	case []string:
		return v, nil
	case []time.Time:
		out := make([]string, len(v))
		for i, t := range v {
			out[i] = t.Format(time.RFC3339)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: column type %T", core.ErrUnsupportedInput, data)
}

func formatStataFloat(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return ""
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func formatInts[T int64 | int32 | int16 | int8](v []T) []string {
	out := make([]string, len(v))
	for i, x := range v {
		out[i] = strconv.FormatInt(int64(x), 10)
	}
	return out
}
