package calculator

import "PricePulse/internal/model"

// Derive computes the rolling average and the linear trend for samples.
// Both returned slices have len(samples) entries.
func Derive(samples []model.Sample) (smoothed []model.NullFloat, trend []float64) {
	return RollingSMA(model.Prices(samples), SmoothingWindow), LinearTrend(samples)
}

// Snapshot builds a SeriesSnapshot from samples.
func Snapshot(samples []model.Sample) *model.SeriesSnapshot {
	smoothed, trend := Derive(samples)
	return &model.SeriesSnapshot{Samples: samples, Smoothed: smoothed, Trend: trend}
}
