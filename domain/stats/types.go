// Package stats defines parameter specifications and estimation results.
package stats

import (
	"fmt"
	"math"

	"goreplicate/domain/core"
	"goreplicate/domain/dataset"
)

// Transform maps the optimizer's working parameter to its reported scale.
type Transform string

const (
	TransformIdentity Transform = "identity"
	TransformExp      Transform = "exp" // working value is log of the reported value
)

// Apply maps a working value to the reported scale.
func (t Transform) Apply(v float64) float64 {
	if t == TransformExp {
		return math.Exp(v)
	}
	return v
}

// Invert maps a reported-scale value to the working scale.
func (t Transform) Invert(v float64) (float64, error) {
	if t == TransformExp {
		if v <= 0 {
			return 0, fmt.Errorf("exp-transformed parameter must be positive, got %g", v)
		}
		return math.Log(v), nil
	}
	return v, nil
}

// Derivative is d Apply / dv, used by the delta method.
func (t Transform) Derivative(v float64) float64 {
	if t == TransformExp {
		return math.Exp(v)
	}
	return 1
}

// Validate rejects unknown transforms.
func (t Transform) Validate() error {
	switch t {
	case TransformIdentity, TransformExp, "":
		return nil
	}
	return fmt.Errorf("unknown transform %q", string(t))
}

// ParamSpec describes one free parameter. Start, Lower and Upper are on the
// reported scale.
type ParamSpec struct {
	Name      string    `yaml:"name" json:"name"`
	Label     string    `yaml:"label" json:"label,omitempty"`
	Start     float64   `yaml:"start" json:"start"`
	Lower     float64   `yaml:"lower" json:"lower"`
	Upper     float64   `yaml:"upper" json:"upper"`
	Transform Transform `yaml:"transform" json:"transform"`
	Reference float64   `yaml:"reference" json:"reference"` // null value of the z-test
}

// WorkingStart returns the start value on the optimizer scale.
func (p ParamSpec) WorkingStart() (float64, error) {
	return p.Transform.Invert(p.Start)
}

// WorkingBounds returns the draw interval on the optimizer scale.
func (p ParamSpec) WorkingBounds() (float64, float64, error) {
	lo, err := p.Transform.Invert(p.Lower)
	if err != nil {
		return 0, 0, fmt.Errorf("%s lower bound: %w", p.Name, err)
	}
	hi, err := p.Transform.Invert(p.Upper)
	if err != nil {
		return 0, 0, fmt.Errorf("%s upper bound: %w", p.Name, err)
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("%s: upper bound %g below lower bound %g", p.Name, p.Upper, p.Lower)
	}
	return lo, hi, nil
}

// Fit is the optimizer outcome on the working scale.
type Fit struct {
	Theta       []float64 `json:"theta"`
	NegLogLik   float64   `json:"neg_log_lik"`
	Status      string    `json:"status"`
	Converged   bool      `json:"converged"`
	Iterations  int       `json:"iterations"`
	Evaluations int       `json:"evaluations"`
	Start       []float64 `json:"start"`
	StartIndex  int       `json:"start_index"`
	Method      string    `json:"method"`
}

// LogLik returns the attained log-likelihood.
func (f Fit) LogLik() float64 {
	return -f.NegLogLik
}

// Estimate is one reported parameter.
type Estimate struct {
	Name      string  `json:"name"`
	Label     string  `json:"label,omitempty"`
	Value     float64 `json:"value"`
	SE        float64 `json:"se"`
	NaiveSE   float64 `json:"naive_se"` // inverse-Hessian, not cluster robust
	Reference float64 `json:"reference"`
	Z         float64 `json:"z"`
	P         float64 `json:"p"`
	Working   float64 `json:"working"`    // optimizer-scale value
	WorkingSE float64 `json:"working_se"` // optimizer-scale robust se
}

// DisplayName prefers the configured label.
func (e Estimate) DisplayName() string {
	if e.Label != "" {
		return e.Label
	}
	return e.Name
}

// Result is the complete estimation output for one sample.
type Result struct {
	RunID      core.RunID      `json:"run_id"`
	Model      core.ModelName  `json:"model"`
	Sample     core.SampleID   `json:"sample"`
	N          int             `json:"n"`
	K          int             `json:"k"`
	J          int             `json:"j"`
	Adjustment float64         `json:"adjustment"`
	LogLik     float64         `json:"log_lik"`
	Fit        Fit             `json:"fit"`
	Estimates  []Estimate      `json:"estimates"`
	Clamped    int             `json:"clamped"`
	Summary    dataset.Summary `json:"summary"`
}

// Estimate looks up a parameter by name.
func (r *Result) Estimate(name string) (Estimate, bool) {
	for _, e := range r.Estimates {
		if e.Name == name {
			return e, true
		}
	}
	return Estimate{}, false
}

// Comparison is the independent two-sample test of one parameter.
type Comparison struct {
	Name string  `json:"name"`
	A    float64 `json:"a"`
	B    float64 `json:"b"`
	Diff float64 `json:"diff"`
	Z    float64 `json:"z"`
	P    float64 `json:"p"`
}

// JointTest is the likelihood-ratio test of one parameter vector shared by
// all samples against separate vectors per sample.
type JointTest struct {
	Pooled    *Result `json:"pooled"`
	Statistic float64 `json:"statistic"`
	DF        int     `json:"df"`
	P         float64 `json:"p"`
}

// ResultTable is the write-once artifact printed and saved at the end of a run.
type ResultTable struct {
	Model       core.ModelName `json:"model"`
	Params      []string       `json:"params"`
	Results     []*Result      `json:"results"`
	Comparisons []Comparison   `json:"comparisons,omitempty"`
	Joint       *JointTest     `json:"joint,omitempty"`
}
