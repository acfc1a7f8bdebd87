package library

import "time"

// Clock is the time oracle. Now returns unix seconds.
type Clock interface {
	Now() int64
}

type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

// FixedClock always reports the same time, it is mostly useful in tests.
type FixedClock int64

func (f FixedClock) Now() int64 {
	return int64(f)
}
