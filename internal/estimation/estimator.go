package estimation

import (
	"context"
	"fmt"
	"math"

	"goreplicate/domain/core"
	"goreplicate/domain/stats"
	"goreplicate/internal"
	"goreplicate/internal/errors"
	"goreplicate/ports"
)

// Settings control the estimation stages around the optimizer
type Settings struct {
	Starts            int
	Seed              int64
	Workers           int
	AllowNonConverged bool
	SymmetryTolerance float64
}

// Estimator fits a model and computes cluster-robust inference at the optimum
type Estimator struct {
	optimizer *Optimizer
	rng       ports.RNGPort
	settings  Settings
	log       *internal.Logger
}

// NewEstimator wires the optimizer and random source
func NewEstimator(optimizer *Optimizer, rng ports.RNGPort, settings Settings, log *internal.Logger) *Estimator {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &Estimator{optimizer: optimizer, rng: rng, settings: settings, log: log}
}

// CheckParams verifies that the configured parameters line up with the
// model's parameter vector, name by name and transform by transform.
func CheckParams(model ports.Model, specs []stats.ParamSpec) error {
	shapes := model.Params()
	if len(shapes) != len(specs) {
		return errors.ConfigInvalid(fmt.Sprintf("model %s has %d parameters, config lists %d", model.Name(), len(shapes), len(specs)))
	}
	for k, shape := range shapes {
		spec := specs[k]
		if spec.Name != shape.Name {
			return errors.ConfigInvalid(fmt.Sprintf("parameter %d of model %s is %s, config has %s", k, model.Name(), shape.Name, spec.Name))
		}
		transform := spec.Transform
		if transform == "" {
			transform = stats.TransformIdentity
		}
		if transform != shape.Transform {
			return errors.ConfigInvalid(fmt.Sprintf("parameter %s of model %s needs transform %s, config has %s", spec.Name, model.Name(), shape.Transform, transform))
		}
	}
	return nil
}

// Estimate runs optimizer -> scores -> Hessian -> sandwich -> delta method -> z-tests.
func (e *Estimator) Estimate(ctx context.Context, model ports.Model, grad ports.GradientProvider, specs []stats.ParamSpec) (*stats.Result, error) {
	if err := CheckParams(model, specs); err != nil {
		return nil, err
	}
	n, k, j := model.NumObs(), len(specs), model.Clusters().Count()

	adj, err := DFAdjustment(n, k, j)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDataInvalid, err)
	}

	starts, err := StartingPoints(ctx, e.rng, specs, e.settings.Starts, e.settings.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build starting points")
	}

	e.log.Info("fitting %s: N=%d K=%d clusters=%d method=%s gradient=%s starts=%d",
		model.Name(), n, k, j, e.optimizer.Method(), grad.Name(), len(starts))

	fit, _, err := e.optimizer.MultiStart(ctx, model, grad, starts, e.settings.Workers)
	if err != nil {
		return nil, errors.Wrap(err, "optimization failed")
	}
	if !fit.Converged {
		if !e.settings.AllowNonConverged {
			return nil, errors.NotConverged(fit.Status, core.ErrNotConverged)
		}
		e.log.Warn("%s did not converge (status %s); reporting the last iterate", model.Name(), fit.Status)
	}

	contributions := make([]float64, n)
	clamped := model.ObsNegLogLik(fit.Theta, contributions)
	if clamped > 0 {
		e.log.Debug("%s: %d saturated probabilities clamped at the optimum", model.Name(), clamped)
	}

	scores := grad.Scores(fit.Theta)
	g, err := ClusterOuterProduct(scores, model.Clusters())
	if err != nil {
		return nil, errors.Numerical("cluster outer product failed", err)
	}
	h, err := grad.Hessian(fit.Theta)
	if err != nil {
		return nil, errors.Numerical("hessian failed", err)
	}
	sw, err := NewSandwich(h, g, adj, e.settings.SymmetryTolerance)
	if err != nil {
		return nil, errors.Numerical("sandwich variance failed", err)
	}

	robust, err := StandardErrors(sw.Covariance)
	if err != nil {
		return nil, errors.Numerical("robust standard errors failed", err)
	}
	naive, err := StandardErrors(sw.HInv)
	if err != nil {
		e.log.Warn("%s: inverse hessian is not positive on the diagonal, naive standard errors unavailable: %v", model.Name(), err)
		naive = make([]float64, k)
		for i := range naive {
			naive[i] = math.NaN()
		}
	}

	values, robustReported, err := DeltaMethod(specs, fit.Theta, robust)
	if err != nil {
		return nil, errors.Numerical("delta method failed", err)
	}
	_, naiveReported, err := DeltaMethod(specs, fit.Theta, naive)
	if err != nil {
		return nil, errors.Numerical("delta method failed", err)
	}

	estimates := make([]stats.Estimate, k)
	for i, spec := range specs {
		z, p := ZTest(values[i], robustReported[i], spec.Reference)
		estimates[i] = stats.Estimate{
			Name:      spec.Name,
			Label:     spec.Label,
			Value:     values[i],
			SE:        robustReported[i],
			NaiveSE:   naiveReported[i],
			Reference: spec.Reference,
			Z:         z,
			P:         p,
			Working:   fit.Theta[i],
			WorkingSE: robust[i],
		}
	}

	e.log.Event().Info().
		Str("model", model.Name()).
		Int("n", n).
		Int("clusters", j).
		Float64("loglik", fit.LogLik()).
		Bool("converged", fit.Converged).
		Int("iterations", fit.Iterations).
		Int("clamped", clamped).
		Msg("fit complete")

	return &stats.Result{
		Model:      core.ModelName(model.Name()),
		N:          n,
		K:          k,
		J:          j,
		Adjustment: adj,
		LogLik:     fit.LogLik(),
		Fit:        fit,
		Estimates:  estimates,
		Clamped:    clamped,
	}, nil
}

// Compare runs the independent two-sample test for every parameter the two
// results share, in the order of a.
func Compare(a, b *stats.Result) []stats.Comparison {
	var out []stats.Comparison
	for _, ea := range a.Estimates {
		eb, ok := b.Estimate(ea.Name)
		if !ok {
			continue
		}
		z, p := TwoSampleZ(ea.Value, ea.SE, eb.Value, eb.SE)
		out = append(out, stats.Comparison{
			Name: ea.Name,
			A:    ea.Value,
			B:    eb.Value,
			Diff: ea.Value - eb.Value,
			Z:    z,
			P:    p,
		})
	}
	return out
}
