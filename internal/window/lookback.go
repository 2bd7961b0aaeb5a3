package window

import (
	"strings"
	"time"
)

// Lookback names a trailing time range of the series.
type Lookback string

const (
	Lookback1h  Lookback = "1h"
	Lookback6h  Lookback = "6h"
	Lookback24h Lookback = "24h"
	Lookback3d  Lookback = "3d"
	Lookback7d  Lookback = "7d"
	LookbackAll Lookback = "all"
)

// DefaultLookback is used when the caller does not name one.
const DefaultLookback = Lookback1h

var durations = map[Lookback]time.Duration{
	Lookback1h:  time.Hour,
	Lookback6h:  6 * time.Hour,
	Lookback24h: 24 * time.Hour,
	Lookback3d:  3 * 24 * time.Hour,
	Lookback7d:  7 * 24 * time.Hour,
}

// Lookbacks lists the supported values in display order.
func Lookbacks() []Lookback {
	return []Lookback{Lookback1h, Lookback6h, Lookback24h, Lookback3d, Lookback7d, LookbackAll}
}

// Duration returns the length of the lookback. ok is false for "all" and for
// unrecognized values; both select the whole series.
func (l Lookback) Duration() (time.Duration, bool) {
	d, ok := durations[l]
	return d, ok
}

// Valid reports whether l is one of the supported lookbacks.
func (l Lookback) Valid() bool {
	_, ok := durations[l]
	return ok || l == LookbackAll
}

// Normalize maps raw input to a Lookback. Empty input yields DefaultLookback,
// unrecognized input yields LookbackAll along with recognized == false.
func Normalize(s string) (l Lookback, recognized bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultLookback, true
	}
	l = Lookback(s)
	if l.Valid() {
		return l, true
	}
	return LookbackAll, false
}
