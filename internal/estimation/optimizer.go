package estimation

import (
	"context"
	"fmt"
	"math"

	"goreplicate/domain/stats"
	"goreplicate/internal"
	"goreplicate/ports"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/optimize"
)

// Optimizer methods
const (
	MethodBFGS       = "bfgs"
	MethodNelderMead = "nelder-mead"
)

// StatusInfeasible marks a fit whose objective includes penalized observations.
const StatusInfeasible = "InfeasibleRegion"

// OptimizerSettings configure one minimization
type OptimizerSettings struct {
	Method            string
	MaxIterations     int
	MaxEvaluations    int
	Tolerance         float64
	GradientThreshold float64
}

// Optimizer drives gonum's minimizers over a model's negative log-likelihood
type Optimizer struct {
	settings OptimizerSettings
	log      *internal.Logger
}

// NewOptimizer creates an optimizer; a nil logger uses the default logger
func NewOptimizer(settings OptimizerSettings, log *internal.Logger) (*Optimizer, error) {
	switch settings.Method {
	case MethodBFGS, MethodNelderMead:
	default:
		return nil, fmt.Errorf("unknown optimizer method %q", settings.Method)
	}
	if settings.MaxIterations <= 0 {
		return nil, fmt.Errorf("max iterations must be positive, got %d", settings.MaxIterations)
	}
	if log == nil {
		log = internal.DefaultLogger
	}
	return &Optimizer{settings: settings, log: log}, nil
}

// Method returns the configured method name
func (o *Optimizer) Method() string {
	return o.settings.Method
}

// convergeIterations is how many major iterations may pass without an
// improvement above tolerance before the run counts as converged. Simplex
// steps improve in much smaller increments than quasi-Newton steps.
func (o *Optimizer) convergeIterations() int {
	if o.settings.Method == MethodNelderMead {
		return 500
	}
	return 20
}

// Minimize runs one minimization from start. The returned Fit always
// carries the status; Converged is false when the run stopped on a limit
// or failed. An error is returned only when no location was produced.
func (o *Optimizer) Minimize(ctx context.Context, model ports.Model, grad ports.GradientProvider, start []float64) (stats.Fit, error) {
	if len(start) != len(model.Params()) {
		return stats.Fit{}, fmt.Errorf("start has %d values for %d parameters", len(start), len(model.Params()))
	}

	problem := optimize.Problem{
		Func: model.NegLogLik,
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}

	var method optimize.Method
	switch o.settings.Method {
	case MethodBFGS:
		if grad == nil {
			return stats.Fit{}, fmt.Errorf("bfgs needs a gradient provider")
		}
		problem.Grad = func(dst, x []float64) {
			grad.Gradient(dst, x)
		}
		method = &optimize.BFGS{}
	case MethodNelderMead:
		method = &optimize.NelderMead{}
	}

	settings := &optimize.Settings{
		MajorIterations:   o.settings.MaxIterations,
		FuncEvaluations:   o.settings.MaxEvaluations,
		GradientThreshold: o.settings.GradientThreshold,
		Converger: &optimize.FunctionConverge{
			Absolute:   o.settings.Tolerance,
			Relative:   o.settings.Tolerance,
			Iterations: o.convergeIterations(),
		},
	}

	x0 := append([]float64(nil), start...)
	result, err := optimize.Minimize(problem, x0, settings, method)
	if result == nil {
		if err == nil {
			err = fmt.Errorf("optimizer returned no result")
		}
		return stats.Fit{}, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stats.Fit{}, ctxErr
	}

	fit := stats.Fit{
		Theta:       append([]float64(nil), result.X...),
		NegLogLik:   result.F,
		Status:      result.Status.String(),
		Converged:   err == nil && converged(result.Status) && !math.IsNaN(result.F) && !math.IsInf(result.F, 0),
		Iterations:  result.Stats.MajorIterations,
		Evaluations: result.Stats.FuncEvaluations,
		Start:       append([]float64(nil), start...),
		Method:      o.settings.Method,
	}
	if err != nil {
		o.log.Warn("optimizer %s stopped with %s: %v", o.settings.Method, result.Status, err)
	}
	// A run that settles on the penalty plateau has found no likelihood optimum.
	if pm, ok := model.(ports.PenalizedModel); ok && fit.NegLogLik >= pm.Penalty() {
		o.log.Warn("optimizer %s stopped in an infeasible region (-LL %.4g, status %s)",
			o.settings.Method, fit.NegLogLik, fit.Status)
		fit.Status = StatusInfeasible
		fit.Converged = false
	}
	o.log.Debug("optimizer %s: status=%s f=%.6f iterations=%d evaluations=%d",
		o.settings.Method, fit.Status, fit.NegLogLik, fit.Iterations, fit.Evaluations)
	return fit, nil
}

// MultiStart minimizes from every start and returns the best fit together
// with all candidates. Converged candidates win over non-converged ones;
// among equals the lowest objective wins and ties go to the earlier start,
// so the winner does not depend on scheduling.
func (o *Optimizer) MultiStart(ctx context.Context, model ports.Model, grad ports.GradientProvider, starts [][]float64, workers int) (stats.Fit, []stats.Fit, error) {
	if len(starts) == 0 {
		return stats.Fit{}, nil, fmt.Errorf("no starting points")
	}
	if workers <= 0 {
		workers = 1
	}

	fits := make([]stats.Fit, len(starts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, start := range starts {
		g.Go(func() error {
			fit, err := o.Minimize(gctx, model, grad, start)
			if err != nil {
				return fmt.Errorf("start %d: %w", i, err)
			}
			fit.StartIndex = i
			fits[i] = fit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats.Fit{}, nil, err
	}

	best := 0
	for i := 1; i < len(fits); i++ {
		if better(fits[i], fits[best]) {
			best = i
		}
	}
	if len(fits) > 1 {
		o.log.Info("multi-start: %d starts, best start %d with -LL %.4f (%s)",
			len(fits), best, fits[best].NegLogLik, fits[best].Status)
	}
	return fits[best], fits, nil
}

func better(a, b stats.Fit) bool {
	if a.Converged != b.Converged {
		return a.Converged
	}
	if math.IsNaN(b.NegLogLik) {
		return !math.IsNaN(a.NegLogLik)
	}
	return a.NegLogLik < b.NegLogLik
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success,
		optimize.FunctionThreshold,
		optimize.FunctionConvergence,
		optimize.GradientThreshold,
		optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	}
	return false
}
