package report

import (
	"context"
	"encoding/json"
	"math"
	"os"

	"goreplicate/domain/core"
	"goreplicate/domain/dataset"
	"goreplicate/domain/run"
	"goreplicate/domain/stats"
	"goreplicate/internal/errors"
)

// manifestDocument is the JSON artifact: the run manifest and the full
// unrounded results. Undefined statistics (NaN, Inf) encode as null.
type manifestDocument struct {
	Manifest    *run.RunManifest `json:"manifest"`
	Model       core.ModelName   `json:"model"`
	Results     []resultJSON     `json:"results"`
	Comparisons []comparisonJSON `json:"comparisons,omitempty"`
}

type resultJSON struct {
	Sample     core.SampleID   `json:"sample"`
	N          int             `json:"n"`
	K          int             `json:"k"`
	J          int             `json:"j"`
	Adjustment *float64        `json:"adjustment"`
	LogLik     *float64        `json:"log_lik"`
	Fit        fitJSON         `json:"fit"`
	Estimates  []estimateJSON  `json:"estimates"`
	Clamped    int             `json:"clamped"`
	Summary    dataset.Summary `json:"summary"`
}

type fitJSON struct {
	Theta       []*float64 `json:"theta"`
	NegLogLik   *float64   `json:"neg_log_lik"`
	Status      string     `json:"status"`
	Converged   bool       `json:"converged"`
	Iterations  int        `json:"iterations"`
	Evaluations int        `json:"evaluations"`
	Start       []*float64 `json:"start"`
	StartIndex  int        `json:"start_index"`
	Method      string     `json:"method"`
}

type estimateJSON struct {
	Name      string   `json:"name"`
	Label     string   `json:"label,omitempty"`
	Value     *float64 `json:"value"`
	SE        *float64 `json:"se"`
	NaiveSE   *float64 `json:"naive_se"`
	Reference float64  `json:"reference"`
	Z         *float64 `json:"z"`
	P         *float64 `json:"p"`
	Working   *float64 `json:"working"`
	WorkingSE *float64 `json:"working_se"`
}

type comparisonJSON struct {
	Name string   `json:"name"`
	A    *float64 `json:"a"`
	B    *float64 `json:"b"`
	Diff *float64 `json:"diff"`
	Z    *float64 `json:"z"`
	P    *float64 `json:"p"`
}

func finite(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

func finiteSlice(xs []float64) []*float64 {
	out := make([]*float64, len(xs))
	for i, x := range xs {
		out[i] = finite(x)
	}
	return out
}

func newManifestDocument(table *stats.ResultTable, manifest *run.RunManifest) manifestDocument {
	doc := manifestDocument{Manifest: manifest, Model: table.Model}
	for _, r := range table.Results {
		rj := resultJSON{
			Sample:     r.Sample,
			N:          r.N,
			K:          r.K,
			J:          r.J,
			Adjustment: finite(r.Adjustment),
			LogLik:     finite(r.LogLik),
			Fit: fitJSON{
				Theta:       finiteSlice(r.Fit.Theta),
				NegLogLik:   finite(r.Fit.NegLogLik),
				Status:      r.Fit.Status,
				Converged:   r.Fit.Converged,
				Iterations:  r.Fit.Iterations,
				Evaluations: r.Fit.Evaluations,
				Start:       finiteSlice(r.Fit.Start),
				StartIndex:  r.Fit.StartIndex,
				Method:      r.Fit.Method,
			},
			Clamped: r.Clamped,
			Summary: r.Summary,
		}
		for _, e := range r.Estimates {
			rj.Estimates = append(rj.Estimates, estimateJSON{
				Name:      e.Name,
				Label:     e.Label,
				Value:     finite(e.Value),
				SE:        finite(e.SE),
				NaiveSE:   finite(e.NaiveSE),
				Reference: e.Reference,
				Z:         finite(e.Z),
				P:         finite(e.P),
				Working:   finite(e.Working),
				WorkingSE: finite(e.WorkingSE),
			})
		}
		doc.Results = append(doc.Results, rj)
	}
	for _, c := range table.Comparisons {
		doc.Comparisons = append(doc.Comparisons, comparisonJSON{
			Name: c.Name, A: finite(c.A), B: finite(c.B), Diff: finite(c.Diff), Z: finite(c.Z), P: finite(c.P),
		})
	}
	return doc
}

// ManifestWriter writes <basename>.json
type ManifestWriter struct {
	opts Options
}

// NewManifestWriter creates a manifest writer
func NewManifestWriter(opts Options) *ManifestWriter {
	return &ManifestWriter{opts: opts}
}

func (w *ManifestWriter) Format() string { return "json" }

func (w *ManifestWriter) Write(ctx context.Context, table *stats.ResultTable, manifest *run.RunManifest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := w.opts.path("json")
	raw, err := json.MarshalIndent(newManifestDocument(table, manifest), "", "  ")
	if err != nil {
		return "", errors.OutputFailed(path, err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return "", errors.OutputFailed(path, err)
	}
	return path, nil
}
