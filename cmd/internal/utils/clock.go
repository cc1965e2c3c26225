package utils

// Clock is the source of "now" for every time-dependent service.
type Clock interface {
	NowUTC() int64
}

type SystemClock struct{}

func (SystemClock) NowUTC() int64 {
	return NowUTC()
}

// FixedClock always reports the same instant. It can be moved with Set.
type FixedClock struct {
	Millis int64
}

func (f *FixedClock) NowUTC() int64 {
	return f.Millis
}

func (f *FixedClock) Set(millis int64) {
	f.Millis = millis
}
