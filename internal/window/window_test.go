package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageEmptyWindow(t *testing.T) {
	w := New(1000)
	_, _, _, ok := w.Average(0)
	assert.False(t, ok)
}

func TestAverageComputesMean(t *testing.T) {
	w := New(3000)
	w.Append(0, 10)
	w.Append(1000, 20)
	w.Append(2000, 30)
	avg, n, maxTs, ok := w.Average(2000)
	assert.True(t, ok)
	assert.InDelta(t, 20.0, avg, 0.0001)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2000.0, maxTs)
}

func TestEvictionInvariant(t *testing.T) {
	w := New(3000)
	w.Append(0, 1)
	w.Append(1000, 2)
	w.Append(5000, 3)
	_, n, _, ok := w.Average(5000)
	assert.True(t, ok)
	for _, e := range w.entries {
		assert.GreaterOrEqual(t, e.timestamp, 5000-3000.0)
	}
	assert.Equal(t, 1, w.Len())
	assert.Equal(t, 1, n)
}

func TestResetClearsEntries(t *testing.T) {
	w := New(1000)
	w.Append(0, 5)
	w.Reset()
	_, _, _, ok := w.Average(0)
	assert.False(t, ok)
}
