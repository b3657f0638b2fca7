package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemporalAdjustment(t *testing.T) {
	tests := []struct {
		name    string
		history []float64
		check   func(t *testing.T, m float64)
	}{
		{"empty series is neutral", nil, func(t *testing.T, m float64) {
			assert.Equal(t, 1.0, m)
		}},
		{"single point is neutral", []float64{10}, func(t *testing.T, m float64) {
			assert.Equal(t, 1.0, m)
		}},
		{"zero first point is neutral", []float64{0, 100}, func(t *testing.T, m float64) {
			assert.Equal(t, 1.0, m)
		}},
		{"growth raises the multiplier", []float64{100, 110, 121}, func(t *testing.T, m float64) {
			assert.Greater(t, m, 1.0)
			assert.LessOrEqual(t, m, 1.2)
		}},
		{"decline lowers the multiplier", []float64{100, 90, 80}, func(t *testing.T, m float64) {
			assert.Less(t, m, 1.0)
			assert.GreaterOrEqual(t, m, 0.8)
		}},
		{"explosive growth is capped by tanh", []float64{1, 1e9}, func(t *testing.T, m float64) {
			assert.InDelta(t, 1.2, m, 1e-6)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, TemporalAdjustment(tt.history))
		})
	}
}

func TestLocalContextAdjustment(t *testing.T) {
	t.Run("no neighbors is neutral", func(t *testing.T) {
		assert.Equal(t, 1.0, LocalContextAdjustment(0.7, 40, -100, nil))
	})

	t.Run("zero score is neutral", func(t *testing.T) {
		assert.Equal(t, 1.0, LocalContextAdjustment(0, 40, -100, []Neighbor{{Lat: 40.1, Lon: -100, Score: 0.9}}))
	})

	t.Run("strong nearby neighbors pull upward", func(t *testing.T) {
		m := LocalContextAdjustment(0.5, 40, -100, []Neighbor{
			{Lat: 40.05, Lon: -100, Score: 0.95},
			{Lat: 40.0, Lon: -100.05, Score: 0.9},
		})
		assert.Greater(t, m, 1.0)
		assert.LessOrEqual(t, m, 1.2)
	})

	t.Run("weak neighbors pull downward", func(t *testing.T) {
		m := LocalContextAdjustment(0.8, 40, -100, []Neighbor{{Lat: 40.05, Lon: -100, Score: 0.1}})
		assert.Less(t, m, 1.0)
		assert.GreaterOrEqual(t, m, 0.8)
	})

	t.Run("distant neighbors matter less", func(t *testing.T) {
		near := LocalContextAdjustment(0.5, 40, -100, []Neighbor{{Lat: 40.01, Lon: -100, Score: 1.0}})
		far := LocalContextAdjustment(0.5, 40, -100, []Neighbor{{Lat: 49.0, Lon: -100, Score: 1.0}})
		assert.Greater(t, near, far)
	})
}
