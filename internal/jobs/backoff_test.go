package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstantBackoff(t *testing.T) {
	b := ConstantBackoff{Interval: 5 * time.Second}
	for attempt := 1; attempt <= 5; attempt++ {
		assert.Equal(t, 5*time.Second, b.Delay(attempt))
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff{Initial: time.Second, Max: 10 * time.Second}

	assert.Equal(t, 1*time.Second, b.Delay(1))
	assert.Equal(t, 2*time.Second, b.Delay(2))
	assert.Equal(t, 4*time.Second, b.Delay(3))
	assert.Equal(t, 8*time.Second, b.Delay(4))
	// Capped at Max.
	assert.Equal(t, 10*time.Second, b.Delay(5))
	assert.Equal(t, 10*time.Second, b.Delay(10))
}

func TestBackoffFromConfig(t *testing.T) {
	assert.IsType(t, ConstantBackoff{}, BackoffFromConfig("constant", time.Second))
	assert.IsType(t, ConstantBackoff{}, BackoffFromConfig("bogus", time.Second))
	assert.IsType(t, ExponentialBackoff{}, BackoffFromConfig("exponential", time.Second))
}
