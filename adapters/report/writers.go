package report

import (
	"fmt"
	"os"

	"goreplicate/internal/errors"
	"goreplicate/ports"
)

// NewWriters returns one writer per format, creating the output directory.
func NewWriters(formats []string, opts Options) ([]ports.ReportWriter, error) {
	if opts.Basename == "" {
		return nil, errors.ConfigInvalid("output basename is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, errors.OutputFailed(opts.Dir, err)
	}

	writers := make([]ports.ReportWriter, 0, len(formats))
	for _, f := range formats {
		switch f {
		case "csv":
			writers = append(writers, NewCSVWriter(opts))
		case "xlsx":
			writers = append(writers, NewXLSXWriter(opts))
		case "md":
			writers = append(writers, NewMarkdownWriter(opts))
		case "html":
			writers = append(writers, NewHTMLWriter(opts))
		case "json":
			writers = append(writers, NewManifestWriter(opts))
		default:
			return nil, errors.ConfigInvalid(fmt.Sprintf("unknown output format %q", f))
		}
	}
	return writers, nil
}

var (
	_ ports.ReportWriter = (*CSVWriter)(nil)
	_ ports.ReportWriter = (*XLSXWriter)(nil)
	_ ports.ReportWriter = (*MarkdownWriter)(nil)
	_ ports.ReportWriter = (*HTMLWriter)(nil)
	_ ports.ReportWriter = (*ManifestWriter)(nil)
)
