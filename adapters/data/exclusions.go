package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"goreplicate/domain/core"
)

// idHeaders are column names accepted as the subject column of an exclusion file.
var idHeaders = map[string]bool{
	"sid": true, "wid": true, "id": true, "subject": true, "subject_id": true,
}

// ReadExclusions loads subject ids to drop. The file is either one id per
// line or a CSV whose header names the id column (sid, wid, id, subject).
// Lines starting with # are comments. An empty path yields no exclusions.
func (r *DataReader) ReadExclusions(ctx context.Context, path string) ([]core.SubjectID, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open exclusion list: %w", err)
	}
	defer f.Close()

	ids, err := parseExclusions(f)
	if err != nil {
		return nil, fmt.Errorf("exclusion list %s: %w", path, err)
	}
	r.log.Debug("[DataReader] %d subjects listed for exclusion in %s", len(ids), path)
	return ids, ctx.Err()
}

func parseExclusions(in io.Reader) ([]core.SubjectID, error) {
	reader := csv.NewReader(in)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	col := 0
	start := 0
	if len(records) > 0 {
		for j, cell := range records[0] {
			if idHeaders[strings.ToLower(strings.TrimSpace(cell))] {
				col, start = j, 1
				break
			}
		}
	}

	seen := make(map[core.SubjectID]bool)
	var ids []core.SubjectID
	for i := start; i < len(records); i++ {
		if col >= len(records[i]) || strings.TrimSpace(records[i][col]) == "" {
			continue
		}
		id, err := core.ParseSubjectID(records[i][col])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}
