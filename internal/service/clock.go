package service

import "time"

// Clock supplies the current instant. Injected everywhere "now" matters so
// tests can freeze time.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}
