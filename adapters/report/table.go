// Package report renders result tables as CSV, XLSX, Markdown, HTML,
// JSON manifests and console summaries.
package report

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"goreplicate/domain/stats"
)

// Grid is a rendered result table: one row per parameter.
type Grid struct {
	Headers []string
	Rows    [][]string
}

// BuildGrid lays out estimate, se, z and p for every sample and, when the
// table carries comparisons, the difference test. Numbers are rounded to
// decimals places.
func BuildGrid(table *stats.ResultTable, decimals int) Grid {
	g := Grid{Headers: []string{"parameter"}}
	for _, r := range table.Results {
		prefix := sampleLabel(r)
		g.Headers = append(g.Headers, prefix+"estimate", prefix+"se", prefix+"z", prefix+"p")
	}
	if len(table.Comparisons) > 0 {
		g.Headers = append(g.Headers, "diff", "diff_z", "diff_p")
	}

	for _, name := range table.Params {
		row := []string{name}
		for _, r := range table.Results {
			e, ok := r.Estimate(name)
			if !ok {
				row = append(row, "", "", "", "")
				continue
			}
			row = append(row, fToStr(e.Value, decimals), fToStr(e.SE, decimals),
				fToStr(e.Z, decimals), fToStr(e.P, decimals))
		}
		if len(table.Comparisons) > 0 {
			if c, ok := findComparison(table.Comparisons, name); ok {
				row = append(row, fToStr(c.Diff, decimals), fToStr(c.Z, decimals), fToStr(c.P, decimals))
			} else {
				row = append(row, "", "", "")
			}
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

// DisplayGrid is BuildGrid with parameter labels in the first column where
// the configuration gives them. The CSV contract keeps the raw names.
func DisplayGrid(table *stats.ResultTable, decimals int) Grid {
	g := BuildGrid(table, decimals)
	for i, name := range table.Params {
		for _, r := range table.Results {
			if e, ok := r.Estimate(name); ok {
				g.Rows[i][0] = e.DisplayName()
				break
			}
		}
	}
	return g
}

func sampleLabel(r *stats.Result) string {
	if r.Sample == "" {
		return ""
	}
	return r.Sample.String() + "_"
}

func findComparison(cs []stats.Comparison, name string) (stats.Comparison, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c, true
		}
	}
	return stats.Comparison{}, false
}

// fToStr rounds half away from zero; NaN prints as "NA".
func fToStr(x float64, decimals int) string {
	if math.IsNaN(x) {
		return "NA"
	}
	if math.IsInf(x, 0) {
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	p := math.Pow10(decimals)
	x = math.Round(x*p) / p
	if x == 0 {
		x = 0 // drop negative zero
	}
	return strconv.FormatFloat(x, 'f', decimals, 64)
}

// Options locate the files a writer produces
type Options struct {
	Dir      string
	Basename string
	Decimals int
}

func (o Options) path(ext string) string {
	return filepath.Join(o.Dir, fmt.Sprintf("%s.%s", o.Basename, ext))
}

// SampleGrid summarizes each estimation sample: size, fit and status.
func SampleGrid(table *stats.ResultTable) Grid {
	g := Grid{Headers: []string{
		"sample", "observations", "subjects", "obs_per_subject", "excluded_subjects",
		"log_lik", "converged", "status", "iterations", "clamped",
	}}
	for _, r := range table.Results {
		g.Rows = append(g.Rows, []string{
			r.Sample.String(),
			strconv.Itoa(r.N),
			strconv.Itoa(r.J),
			fToStr(r.Summary.ObsPerSubjectAvg, 1),
			strconv.Itoa(r.Summary.Excluded),
			fToStr(r.LogLik, 2),
			strconv.FormatBool(r.Fit.Converged),
			r.Fit.Status,
			strconv.Itoa(r.Fit.Iterations),
			strconv.Itoa(r.Clamped),
		})
	}
	return g
}
