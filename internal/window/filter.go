package window

import (
	"time"

	"PricePulse/internal/model"
)

// Select keeps the samples whose timestamp is at or after now minus the
// lookback, together with their derived signals. "all" and unrecognized
// lookbacks return the snapshot unchanged.
//
// The test is applied to each sample independently and the log order is kept,
// so an out-of-order log is filtered correctly; for an ascending log the result
// is the contiguous suffix.
func Select(snap *model.SeriesSnapshot, l Lookback, now time.Time) *model.SeriesSnapshot {
	d, ok := l.Duration()
	if !ok {
		return snap
	}
	cutoff := now.Add(-d)

	out := &model.SeriesSnapshot{
		Samples:  []model.Sample{},
		Smoothed: []model.NullFloat{},
		Trend:    []float64{},
	}
	for i, s := range snap.Samples {
		if s.Time.Before(cutoff) {
			continue
		}
		out.Samples = append(out.Samples, s)
		out.Smoothed = append(out.Smoothed, snap.Smoothed[i])
		out.Trend = append(out.Trend, snap.Trend[i])
	}
	return out
}
