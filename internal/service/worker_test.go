package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInterval(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, interval(2))
	assert.Equal(t, time.Second, interval(0))
	assert.Equal(t, time.Second, interval(math.NaN()))

	for _, rate := range []float64{1e-10, 1e-300, math.SmallestNonzeroFloat64} {
		assert.Equal(t, time.Duration(math.MaxInt64), interval(rate), "rate %v", rate)
	}
	assert.Positive(t, interval(1e-9))
}
