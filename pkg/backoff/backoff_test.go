package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicy(t *testing.T) {
	p := Default()

	first, err := p.Delay(0)
	assert.NoError(t, err)
	assert.Equal(t, 1*time.Minute, first)

	last, err := p.Delay(p.MaxAttempts() - 1)
	assert.NoError(t, err)
	assert.Equal(t, 24*time.Hour, last)
}

func TestDelay_Exhausted(t *testing.T) {
	p := NewPolicy(1*time.Minute, 5*time.Minute)

	_, err := p.Delay(2)
	assert.ErrorIs(t, err, ErrMaxAttempts)

	_, err = p.Delay(-1)
	assert.ErrorIs(t, err, ErrMaxAttempts)
}

func TestDelay_Monotonic(t *testing.T) {
	p := Default()
	prev := time.Duration(0)
	for n := 0; n < p.MaxAttempts(); n++ {
		d, err := p.Delay(n)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, d, prev, "delays must not shrink")
		prev = d
	}
}
