package series

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"PricePulse/internal/model"
)

// zoned layouts carry their own offset; local layouts are read in the store's location.
var (
	zonedLayouts = []string{
		time.RFC3339,
		"2006-01-02 15:04:05Z07:00",
	}
	localLayouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
)

// ParseTimestamp accepts RFC 3339, zone-less ISO date-times and epoch seconds.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).In(loc), true
	}
	return time.Time{}, false
}

// ParsePrice parses a decimal price. Negative values and values too large for
// a finite float64 are rejected.
func ParsePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	if f := d.InexactFloat64(); math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero, false
	}
	return d, true
}

// parseRecord converts one log record into a Sample. Fields beyond the second are ignored.
func parseRecord(rec []string, loc *time.Location) (model.Sample, bool) {
	if len(rec) < 2 {
		return model.Sample{}, false
	}
	raw := strings.TrimSpace(rec[0])
	ts, ok := ParseTimestamp(raw, loc)
	if !ok {
		return model.Sample{}, false
	}
	price, ok := ParsePrice(rec[1])
	if !ok {
		return model.Sample{}, false
	}
	return model.Sample{Time: ts, RawTime: raw, Price: price}, true
}
