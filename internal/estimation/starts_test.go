package estimation

import (
	"context"
	"math"
	"testing"

	"goreplicate/adapters/rng"
	"goreplicate/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartingPoints_FixedFirst(t *testing.T) {
	starts, err := StartingPoints(context.Background(), nil, normalSpecs(), 0, 0)
	require.NoError(t, err)
	require.Len(t, starts, 1)
	assert.Equal(t, []float64{0, 0}, starts[0])
}

func TestStartingPoints_DrawsWithinWorkingBounds(t *testing.T) {
	specs := normalSpecs()
	starts, err := StartingPoints(context.Background(), rng.New(), specs, 25, 42)
	require.NoError(t, err)
	require.Len(t, starts, 26)

	for _, s := range starts[1:] {
		assert.GreaterOrEqual(t, s[0], -5.0)
		assert.LessOrEqual(t, s[0], 5.0)
		assert.GreaterOrEqual(t, s[1], math.Log(0.2))
		assert.LessOrEqual(t, s[1], math.Log(5))
	}

	again, err := StartingPoints(context.Background(), rng.New(), specs, 25, 42)
	require.NoError(t, err)
	assert.Equal(t, starts, again)

	other, err := StartingPoints(context.Background(), rng.New(), specs, 25, 43)
	require.NoError(t, err)
	assert.NotEqual(t, starts[1], other[1])
}

func TestStartingPoints_Errors(t *testing.T) {
	_, err := StartingPoints(context.Background(), nil, normalSpecs(), 3, 1)
	assert.Error(t, err, "draws need a random source")

	bad := []stats.ParamSpec{{Name: "sigma", Start: 0, Transform: stats.TransformExp}}
	_, err = StartingPoints(context.Background(), rng.New(), bad, 0, 1)
	assert.Error(t, err, "exp start must be positive")
}
