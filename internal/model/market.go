package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sample is a single price observation read from the record log.
type Sample struct {
	Time    time.Time
	RawTime string // timestamp text exactly as it appeared in the log
	Price   decimal.Decimal
}

// Prices returns the sample prices as float64 for signal computation.
func Prices(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Price.InexactFloat64()
	}
	return out
}
