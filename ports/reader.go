package ports

import (
	"context"

	"goreplicate/domain/core"
	"goreplicate/domain/dataset"
)

// TableReader loads a tabular file into a raw frame. Implementations pick
// the format (csv, xlsx, dta) from the path.
type TableReader interface {
	Read(ctx context.Context, path string) (*dataset.RawFrame, error)
}

// ExclusionReader loads the list of subjects dropped by the published
// exclusion rule.
type ExclusionReader interface {
	ReadExclusions(ctx context.Context, path string) ([]core.SubjectID, error)
}
