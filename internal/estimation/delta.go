package estimation

import (
	"math"

	"goreplicate/domain/core"
	"goreplicate/domain/stats"
)

// DeltaMethod maps working-scale estimates and standard errors to the
// reported scale: value = g(theta), se = |g'(theta)| * se(theta). For an
// exp transform this is se(sigma) = sigma * se(log sigma).
func DeltaMethod(specs []stats.ParamSpec, theta, se []float64) (values, reported []float64, err error) {
	if len(theta) != len(specs) {
		return nil, nil, core.NewDimensionError("parameter vector", len(specs), len(theta))
	}
	if len(se) != len(specs) {
		return nil, nil, core.NewDimensionError("standard errors", len(specs), len(se))
	}
	values = make([]float64, len(specs))
	reported = make([]float64, len(specs))
	for k, p := range specs {
		values[k] = p.Transform.Apply(theta[k])
		reported[k] = math.Abs(p.Transform.Derivative(theta[k])) * se[k]
	}
	return values, reported, nil
}
