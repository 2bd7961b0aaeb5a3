package model

import "github.com/shopspring/decimal"

// DateLayout is the calendar date format used for report identifiers.
const DateLayout = "2006-01-02"

// DailyReport holds aggregate statistics over the series for one calendar date.
// Fields are nil when an artifact written by an older format does not carry them.
type DailyReport struct {
	Date      string
	Count     *int
	StartTime *string
	EndTime   *string
	First     *decimal.Decimal
	Last      *decimal.Decimal
	Min       *decimal.Decimal
	Max       *decimal.Decimal
	Average   *decimal.Decimal
}

// Complete reports whether every statistic is present.
func (r *DailyReport) Complete() bool {
	return r.Count != nil && r.StartTime != nil && r.EndTime != nil &&
		r.First != nil && r.Last != nil && r.Min != nil && r.Max != nil && r.Average != nil
}

// Missing returns the artifact keys absent from the report.
func (r *DailyReport) Missing() []string {
	var out []string
	if r.Count == nil {
		out = append(out, "count")
	}
	if r.StartTime == nil {
		out = append(out, "start_time")
	}
	if r.EndTime == nil {
		out = append(out, "end_time")
	}
	if r.First == nil {
		out = append(out, "first")
	}
	if r.Last == nil {
		out = append(out, "last")
	}
	if r.Min == nil {
		out = append(out, "min")
	}
	if r.Max == nil {
		out = append(out, "max")
	}
	if r.Average == nil {
		out = append(out, "avg")
	}
	return out
}
