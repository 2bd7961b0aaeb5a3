package window

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PricePulse/internal/calculator"
	"PricePulse/internal/model"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func snapshotAt(times ...time.Time) *model.SeriesSnapshot {
	samples := make([]model.Sample, len(times))
	for i, ts := range times {
		samples[i] = model.Sample{Time: ts, Price: decimal.NewFromInt(int64(100 + i))}
	}
	return calculator.Snapshot(samples)
}

func TestLookbackDurations(t *testing.T) {
	tests := []struct {
		l    Lookback
		want time.Duration
	}{
		{Lookback1h, time.Hour},
		{Lookback6h, 6 * time.Hour},
		{Lookback24h, 24 * time.Hour},
		{Lookback3d, 72 * time.Hour},
		{Lookback7d, 168 * time.Hour},
	}
	for _, tt := range tests {
		d, ok := tt.l.Duration()
		require.True(t, ok, tt.l)
		assert.Equal(t, tt.want, d, tt.l)
	}
	_, ok := LookbackAll.Duration()
	assert.False(t, ok)
	assert.True(t, LookbackAll.Valid())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in         string
		want       Lookback
		recognized bool
	}{
		{"", DefaultLookback, true},
		{"6h", Lookback6h, true},
		{" 7D ", Lookback7d, true},
		{"all", LookbackAll, true},
		{"30min", LookbackAll, false},
		{"12h", LookbackAll, false},
	}
	for _, tt := range tests {
		got, ok := Normalize(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.recognized, ok, tt.in)
	}
}

func TestSelect_InclusiveLowerBound(t *testing.T) {
	snap := snapshotAt(now.Add(-time.Hour-time.Second), now.Add(-time.Hour), now.Add(-time.Minute))
	got := Select(snap, Lookback1h, now)
	require.Equal(t, 2, got.Len())
	assert.True(t, got.Samples[0].Time.Equal(now.Add(-time.Hour)))
	assert.Len(t, got.Smoothed, 2)
	assert.Len(t, got.Trend, 2)
	assert.Equal(t, snap.Trend[1], got.Trend[0])
}

func TestSelect_Idempotent(t *testing.T) {
	var times []time.Time
	for i := 0; i < 24*8; i++ {
		times = append(times, now.Add(-time.Duration(i)*time.Hour))
	}
	snap := snapshotAt(times...)
	for _, l := range Lookbacks() {
		once := Select(snap, l, now)
		twice := Select(once, l, now)
		assert.Equal(t, once, twice, l)
	}
}

func TestSelect_AllAndUnrecognizedAreIdentity(t *testing.T) {
	snap := snapshotAt(now.Add(-30*24*time.Hour), now)
	assert.Same(t, snap, Select(snap, LookbackAll, now))
	assert.Same(t, snap, Select(snap, Lookback("30min"), now))
}

func TestSelect_NoSamplesInWindow(t *testing.T) {
	snap := snapshotAt(now.Add(-2 * time.Hour))
	got := Select(snap, Lookback1h, now)
	require.NotNil(t, got)
	assert.True(t, got.Empty())
	assert.False(t, snap.Empty())
}

func TestSelect_OutOfOrderLog(t *testing.T) {
	snap := snapshotAt(now.Add(-time.Minute), now.Add(-3*time.Hour), now.Add(-2*time.Minute))
	got := Select(snap, Lookback1h, now)
	require.Equal(t, 2, got.Len())
	assert.True(t, got.Samples[0].Time.Equal(now.Add(-time.Minute)))
	assert.True(t, got.Samples[1].Time.Equal(now.Add(-2*time.Minute)))
}
