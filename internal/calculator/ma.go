package calculator

import (
	"errors"

	"PricePulse/internal/model"
)

// SmoothingWindow is the number of samples in the trailing rolling average.
const SmoothingWindow = 10

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// RollingSMA returns the trailing SMA at every index. Entries before the first
// full window are undefined. Each window is summed afresh so the value at i is
// exactly the mean of prices[i-period+1..i], with no running-sum drift.
func RollingSMA(prices []float64, period int) []model.NullFloat {
	out := make([]model.NullFloat, len(prices))
	for i := range prices {
		if v, err := CalculateSMA(prices[:i+1], period); err == nil {
			out[i] = model.Float(v)
		}
	}
	return out
}
