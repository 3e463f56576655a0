package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"goreplicate/domain/core"
	"goreplicate/domain/run"
	"goreplicate/domain/stats"
	"goreplicate/internal/errors"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders the result and sample tables as a Markdown document.
func Markdown(table *stats.ResultTable, manifest *run.RunManifest, decimals int) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s model estimates\n\n", table.Model)
	if manifest != nil {
		fmt.Fprintf(&b, "Run `%s`, data `%s` (sha256 %s), optimizer %s.\n\n",
			manifest.RunID, manifest.DataPath, core.Hash(manifest.DataHash).Short(), manifest.Method)
	}

	b.WriteString("## Estimates\n\n")
	writeMarkdownTable(&b, DisplayGrid(table, decimals))
	b.WriteString("\nStandard errors are clustered by subject. ")
	b.WriteString("z tests are two-sided against each parameter's reference value.\n\n")

	b.WriteString("## Samples\n\n")
	writeMarkdownTable(&b, SampleGrid(table))

	if j := table.Joint; j != nil {
		fmt.Fprintf(&b, "\n## Joint equality\n\nLikelihood-ratio test of one pooled parameter vector: "+
			"chi2(%d) = %s, p = %s.\n", j.DF, fToStr(j.Statistic, decimals), fToStr(j.P, decimals))
	}
	return b.Bytes()
}

func writeMarkdownTable(b *bytes.Buffer, g Grid) {
	b.WriteString("| " + strings.Join(g.Headers, " | ") + " |\n")
	sep := make([]string, len(g.Headers))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("|" + strings.Join(sep, "|") + "|\n")
	for _, row := range g.Rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
}

// MarkdownWriter writes <basename>.md
type MarkdownWriter struct {
	opts Options
}

// NewMarkdownWriter creates a Markdown writer
func NewMarkdownWriter(opts Options) *MarkdownWriter {
	return &MarkdownWriter{opts: opts}
}

func (w *MarkdownWriter) Format() string { return "md" }

func (w *MarkdownWriter) Write(ctx context.Context, table *stats.ResultTable, manifest *run.RunManifest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := w.opts.path("md")
	if err := os.WriteFile(path, Markdown(table, manifest, w.opts.Decimals), 0o644); err != nil {
		return "", errors.OutputFailed(path, err)
	}
	return path, nil
}

// HTMLWriter renders the Markdown report to a standalone HTML page
type HTMLWriter struct {
	opts Options
}

// NewHTMLWriter creates an HTML writer
func NewHTMLWriter(opts Options) *HTMLWriter {
	return &HTMLWriter{opts: opts}
}

func (w *HTMLWriter) Format() string { return "html" }

func (w *HTMLWriter) Write(ctx context.Context, table *stats.ResultTable, manifest *run.RunManifest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := w.opts.path("html")
	page := RenderHTML(Markdown(table, manifest, w.opts.Decimals), fmt.Sprintf("%s estimates", table.Model))
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return "", errors.OutputFailed(path, err)
	}
	return path, nil
}

// RenderHTML converts Markdown to a complete HTML page
func RenderHTML(md []byte, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(md, p, renderer)
}
