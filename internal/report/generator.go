package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"PricePulse/internal/model"
)

// ErrEmptySeries is returned when there is nothing to summarize. No artifact is written.
var ErrEmptySeries = errors.New("empty series: no samples to report")

// Generator writes one report artifact per calendar date.
type Generator struct {
	Dir string
	Log zerolog.Logger
}

// NewGenerator creates a generator writing into dir.
func NewGenerator(dir string, log zerolog.Logger) *Generator {
	return &Generator{Dir: dir, Log: log}
}

// Compute summarizes every sample passed in. The report is cumulative: it
// covers the whole series available at generation time, not just samples
// falling on date.
func Compute(samples []model.Sample, date string) (*model.DailyReport, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySeries
	}

	first, last := 0, 0
	minP, maxP := samples[0].Price, samples[0].Price
	sum := decimal.Zero
	for i, s := range samples {
		sum = sum.Add(s.Price)
		if s.Price.LessThan(minP) {
			minP = s.Price
		}
		if s.Price.GreaterThan(maxP) {
			maxP = s.Price
		}
		// Ties keep the earliest row for first and the latest row for last.
		if s.Time.Before(samples[first].Time) {
			first = i
		}
		if !s.Time.Before(samples[last].Time) {
			last = i
		}
	}

	count := len(samples)
	avg := average(sum, count, samples)
	if avg.LessThan(minP) {
		avg = minP
	}
	if avg.GreaterThan(maxP) {
		avg = maxP
	}
	firstP, lastP := samples[first].Price, samples[last].Price
	start, end := samples[first].RawTime, samples[last].RawTime

	return &model.DailyReport{
		Date:      date,
		Count:     &count,
		StartTime: &start,
		EndTime:   &end,
		First:     &firstP,
		Last:      &lastP,
		Min:       &minP,
		Max:       &maxP,
		Average:   &avg,
	}, nil
}

// average divides sum by count at no less precision than the finest price in
// samples, so a constant series averages to exactly that price.
func average(sum decimal.Decimal, count int, samples []model.Sample) decimal.Decimal {
	places := int32(decimal.DivisionPrecision)
	for _, s := range samples {
		if frac := -s.Price.Exponent(); frac > places {
			places = frac
		}
	}
	return sum.DivRound(decimal.NewFromInt(int64(count)), places)
}

// Generate computes the report for forDate's calendar day (in forDate's
// location) and writes it, replacing any artifact already present for that day.
func (g *Generator) Generate(samples []model.Sample, forDate time.Time) (*model.DailyReport, error) {
	date := forDate.Format(model.DateLayout)
	r, err := Compute(samples, date)
	if err != nil {
		return nil, err
	}
	data, err := encode(r)
	if err != nil {
		return nil, fmt.Errorf("encode report %s: %w", date, err)
	}
	path := filepath.Join(g.Dir, FileName(date))
	if err := writeAtomic(path, data); err != nil {
		return nil, fmt.Errorf("write report %s: %w", date, err)
	}
	g.Log.Info().Str("date", date).Str("path", path).Int("count", *r.Count).Msg("daily report written")
	return r, nil
}
