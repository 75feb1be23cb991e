package backoff

import (
	"errors"
	"time"
)

// ErrMaxAttempts signals that the attempt count has exhausted the delay table.
var ErrMaxAttempts = errors.New("backoff: max attempts reached")

// Policy is a fixed, payload-agnostic delay table. Delay(n) returns the wait
// before attempt n+1, where n counts completed attempts from zero.
type Policy struct {
	delays []time.Duration
}

func NewPolicy(delays ...time.Duration) *Policy {
	return &Policy{delays: delays}
}

// Default is the schedule shared by reminder retries and domain verification.
func Default() *Policy {
	return NewPolicy(
		1*time.Minute,
		5*time.Minute,
		15*time.Minute,
		30*time.Minute,
		1*time.Hour,
		2*time.Hour,
		4*time.Hour,
		8*time.Hour,
		12*time.Hour,
		24*time.Hour,
	)
}

func (p *Policy) Delay(attempt int) (time.Duration, error) {
	if attempt < 0 || attempt >= len(p.delays) {
		return 0, ErrMaxAttempts
	}
	return p.delays[attempt], nil
}

func (p *Policy) MaxAttempts() int {
	return len(p.delays)
}
