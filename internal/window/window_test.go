package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadSize(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)

	_, err = New(3, WithPriceCeiling(-1))
	assert.Error(t, err)
}

func TestColdWindow(t *testing.T) {
	w, err := New(3)
	require.NoError(t, err)

	w.Append(10)
	w.Append(12)
	assert.False(t, w.IsWarm())
	assert.Equal(t, 2, w.Len())

	_, err = w.MovingAverage()
	assert.ErrorIs(t, err, ErrNotWarm)
}

func TestWarmAverage(t *testing.T) {
	w, err := New(3)
	require.NoError(t, err)
	w.Seed([]float64{10, 12, 11})

	require.True(t, w.IsWarm())
	avg, err := w.MovingAverage()
	require.NoError(t, err)
	assert.InDelta(t, 11.0, avg, 1e-9)
}

func TestFIFOEviction(t *testing.T) {
	w, err := New(3)
	require.NoError(t, err)
	w.Seed([]float64{10, 12, 11, 20})

	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []float64{12, 11, 20}, w.Values())

	avg, err := w.MovingAverage()
	require.NoError(t, err)
	assert.InDelta(t, (12.0+11.0+20.0)/3, avg, 1e-9)
}

func TestNeverExceedsCapacity(t *testing.T) {
	w, err := New(5)
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		w.Append(float64(i))
		assert.LessOrEqual(t, w.Len(), w.Cap())
	}
	assert.Equal(t, []float64{995, 996, 997, 998, 999}, w.Values())
}

func TestObservedExtremaAreNotWindowed(t *testing.T) {
	w, err := New(2)
	require.NoError(t, err)

	_, ok := w.ObservedMin()
	assert.False(t, ok)

	w.Seed([]float64{-5, 100, 20, 30})
	lo, ok := w.ObservedMin()
	require.True(t, ok)
	hi, _ := w.ObservedMax()
	assert.Equal(t, -5.0, lo)
	assert.Equal(t, 100.0, hi)
}

func TestObservedExtremaCeiling(t *testing.T) {
	w, err := New(2, WithPriceCeiling(1000))
	require.NoError(t, err)

	w.Seed([]float64{50, 15000, 80})
	hi, ok := w.ObservedMax()
	require.True(t, ok)
	assert.Equal(t, 80.0, hi)

	// the spike still counts toward the average
	avg, err := w.MovingAverage()
	require.NoError(t, err)
	assert.InDelta(t, (15000.0+80.0)/2, avg, 1e-9)
}
