package estimation

import (
	"context"
	"fmt"

	"goreplicate/domain/stats"
	"goreplicate/ports"
)

// StartingPoints returns the fixed start followed by n seeded draws,
// uniform within each parameter's working-scale bounds. Draw i always comes
// from its own named stream, so the set is reproducible for a seed.
func StartingPoints(ctx context.Context, rng ports.RNGPort, specs []stats.ParamSpec, n int, seed int64) ([][]float64, error) {
	fixed := make([]float64, len(specs))
	for k, p := range specs {
		v, err := p.WorkingStart()
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		fixed[k] = v
	}
	starts := [][]float64{fixed}
	if n <= 0 {
		return starts, nil
	}
	if rng == nil {
		return nil, fmt.Errorf("random starts requested without a random source")
	}

	lower := make([]float64, len(specs))
	upper := make([]float64, len(specs))
	for k, p := range specs {
		lo, hi, err := p.WorkingBounds()
		if err != nil {
			return nil, err
		}
		lower[k], upper[k] = lo, hi
	}

	for i := 0; i < n; i++ {
		stream, err := rng.SeededStream(ctx, fmt.Sprintf("start-%d", i), seed)
		if err != nil {
			return nil, fmt.Errorf("random start %d: %w", i, err)
		}
		draw := make([]float64, len(specs))
		for k := range specs {
			draw[k] = lower[k] + stream.Float64()*(upper[k]-lower[k])
		}
		starts = append(starts, draw)
	}
	return starts, nil
}
