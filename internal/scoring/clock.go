package scoring

import "time"

// Clock supplies wall-clock time to Game and Match. Rally durations are
// derived from it, so tests swap in a deterministic implementation.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock
func SystemClock() Clock { return systemClock{} }
