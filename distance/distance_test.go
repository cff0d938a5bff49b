package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistances(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 6, 3}

	assert.Equal(t, 25.0, SquaredL2(a, b))
	assert.Equal(t, 5.0, L2(a, b))
	assert.Equal(t, 7.0, Manhattan(a, b))

	assert.Zero(t, SquaredL2(a, a))
	assert.Zero(t, Manhattan(a, a))
}

func TestProvider(t *testing.T) {
	for _, m := range []Metric{MetricSquaredL2, MetricL2, MetricManhattan} {
		t.Run(m.String(), func(t *testing.T) {
			fn, err := Provider(m)
			require.NoError(t, err)
			assert.NotNil(t, fn)
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		_, err := Provider(Metric(99))
		assert.Error(t, err)
	})
}
