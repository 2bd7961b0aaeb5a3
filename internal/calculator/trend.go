package calculator

import (
	"errors"
	"math"

	"PricePulse/internal/model"
)

// ErrSingularFit is returned when the regressors have no variance.
var ErrSingularFit = errors.New("singular fit: regressor has zero variance")

// LinearFit returns the ordinary least-squares slope and intercept of y on x.
// Sums are centred on the means, which keeps the result stable for large x
// such as epoch seconds.
func LinearFit(x, y []float64) (slope, intercept float64, err error) {
	if len(x) != len(y) {
		return 0, 0, errors.New("x and y length mismatch")
	}
	n := len(x)
	if n < 2 {
		return 0, 0, errors.New("need at least 2 points")
	}
	var sx, sy float64
	for i := 0; i < n; i++ {
		sx += x[i]
		sy += y[i]
	}
	mx := sx / float64(n)
	my := sy / float64(n)

	var sxx, sxy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		sxx += dx * dx
		sxy += dx * (y[i] - my)
	}
	if sxx == 0 {
		return 0, 0, ErrSingularFit
	}
	slope = sxy / sxx
	intercept = my - slope*mx
	if math.IsNaN(slope) || math.IsInf(slope, 0) || math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return 0, 0, ErrSingularFit
	}
	return slope, intercept, nil
}

// LinearTrend fits price against epoch seconds over every sample and returns
// the in-sample fitted value per sample. With fewer than 2 samples, or when the
// fit is singular, the prices themselves are returned.
func LinearTrend(samples []model.Sample) []float64 {
	prices := model.Prices(samples)
	if len(samples) < 2 {
		return prices
	}
	// Seconds relative to the first sample; the fitted line is the same as on
	// absolute epoch seconds.
	origin := samples[0].Time.Unix()
	x := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = float64(s.Time.Unix() - origin)
	}
	slope, intercept, err := LinearFit(x, prices)
	if err != nil {
		return prices
	}
	out := make([]float64, len(samples))
	for i := range x {
		out[i] = intercept + slope*x[i]
	}
	return out
}
