package data

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"goreplicate/domain/core"
	"goreplicate/domain/dataset"
	"goreplicate/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading CSV, Excel and Stata files into raw frames
type DataReader struct {
	log *internal.Logger
}

// NewDataReader creates a reader; a nil logger uses the default logger
func NewDataReader(log *internal.Logger) *DataReader {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &DataReader{log: log}
}

// DetectFileType maps a path to one of the supported file types
func DetectFileType(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FileTypeCSV, nil
	case ".xlsx", ".xlsm":
		return FileTypeXLSX, nil
	case ".dta":
		return FileTypeStata, nil
	}
	return "", fmt.Errorf("%w: %s", core.ErrUnsupportedInput, path)
}

// Read loads a file into a raw frame, fingerprinting the raw bytes
func (r *DataReader) Read(ctx context.Context, path string) (*dataset.RawFrame, error) {
	fileType, err := DetectFileType(path)
	if err != nil {
		return nil, err
	}

	readStart := time.Now()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s file not readable: %w", strings.ToUpper(fileType), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var frame *dataset.RawFrame
	switch fileType {
	case FileTypeCSV:
		frame, err = r.readCSVData(path, raw)
	case FileTypeXLSX:
		frame, err = r.readExcelData(path, raw)
	case FileTypeStata:
		frame, err = readStataData(path, raw)
	}
	if err != nil {
		return nil, err
	}

	frame.Hash = core.NewDataHash(raw)
	r.log.Debug("[DataReader] %s read in %.2fms (%d columns, %d rows, sha256 %s)",
		path, float64(time.Since(readStart).Nanoseconds())/1e6, len(frame.Headers), len(frame.Rows), core.Hash(frame.Hash).Short())
	return frame, nil
}

// readExcelData reads the first sheet of a workbook
func (r *DataReader) readExcelData(path string, raw []byte) (*dataset.RawFrame, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: Excel file must have at least a header row and one data row", core.ErrEmptyDataset)
	}

	return processRows(path, rows)
}

// readCSVData reads CSV data into a raw frame
func (r *DataReader) readCSVData(path string, raw []byte) (*dataset.RawFrame, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: CSV file must have at least a header row and one data row", core.ErrEmptyDataset)
	}

	return processRows(path, rows)
}

// processRows converts raw string rows into a frame; short rows leave the
// missing cells empty so the decoder can report them.
func processRows(source string, rows [][]string) (*dataset.RawFrame, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	seen := make(map[string]bool, len(headerRow))
	for i, header := range headerRow {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\uFEFF"))
		if seen[header] && header != "" {
			return nil, fmt.Errorf("%s: duplicate column %q", source, header)
		}
		seen[header] = true
		headers[i] = header
	}

	dataRows := make([]dataset.RawRow, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		rowData := make(dataset.RawRow, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	return &dataset.RawFrame{
		Source:  source,
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
