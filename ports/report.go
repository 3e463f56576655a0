package ports

import (
	"context"

	"goreplicate/domain/run"
	"goreplicate/domain/stats"
)

// ReportWriter renders the final result table in one format and returns the
// path it wrote.
type ReportWriter interface {
	Format() string
	Write(ctx context.Context, table *stats.ResultTable, manifest *run.RunManifest) (string, error)
}
