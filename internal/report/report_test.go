package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PricePulse/internal/model"
)

var day = time.Date(2024, 1, 1, 23, 55, 0, 0, time.UTC)

func sample(raw string, price string) model.Sample {
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		panic(err)
	}
	return model.Sample{Time: ts, RawTime: raw, Price: decimal.RequireFromString(price)}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompute_Scenario(t *testing.T) {
	r, err := Compute([]model.Sample{
		sample("2024-01-01T00:00:00Z", "100"),
		sample("2024-01-01T00:01:00Z", "102"),
	}, "2024-01-01")
	require.NoError(t, err)
	require.True(t, r.Complete())
	assert.Equal(t, 2, *r.Count)
	assert.True(t, r.Min.Equal(dec("100")))
	assert.True(t, r.Max.Equal(dec("102")))
	assert.True(t, r.Average.Equal(dec("101")))
	assert.True(t, r.First.Equal(dec("100")))
	assert.True(t, r.Last.Equal(dec("102")))
	assert.Equal(t, "2024-01-01T00:00:00Z", *r.StartTime)
	assert.Equal(t, "2024-01-01T00:01:00Z", *r.EndTime)
}

func TestCompute_ChronologicalFirstLast(t *testing.T) {
	r, err := Compute([]model.Sample{
		sample("2024-01-01T00:02:00Z", "5"),
		sample("2024-01-01T00:00:00Z", "7"),
		sample("2024-01-01T00:03:00Z", "9"),
		sample("2024-01-01T00:01:00Z", "3"),
	}, "2024-01-01")
	require.NoError(t, err)
	assert.True(t, r.First.Equal(dec("7")))
	assert.True(t, r.Last.Equal(dec("9")))
	assert.Equal(t, "2024-01-01T00:00:00Z", *r.StartTime)
	assert.Equal(t, "2024-01-01T00:03:00Z", *r.EndTime)
}

func TestCompute_Bounds(t *testing.T) {
	prices := []string{"43000.12", "42950.5", "43111", "42999.99", "43000.01", "42000", "44000.333"}
	samples := make([]model.Sample, len(prices))
	for i, p := range prices {
		samples[i] = model.Sample{Time: day.Add(time.Duration(i) * time.Minute), RawTime: "x", Price: dec(p)}
	}
	r, err := Compute(samples, "2024-01-01")
	require.NoError(t, err)
	assert.True(t, r.Min.LessThanOrEqual(*r.Average))
	assert.True(t, r.Average.LessThanOrEqual(*r.Max))
	for _, v := range []decimal.Decimal{*r.First, *r.Last} {
		assert.True(t, r.Min.LessThanOrEqual(v))
		assert.True(t, v.LessThanOrEqual(*r.Max))
	}
}

func TestCompute_AverageKeepsFinePrecision(t *testing.T) {
	tests := []struct {
		name   string
		prices []string
	}{
		{"constant beyond division precision", []string{"0.12345678901234567891", "0.12345678901234567891"}},
		{"repeating quotient", []string{"1", "1", "2"}},
		{"mixed precision", []string{"0.000000000000000000001", "0.000000000000000000002", "0.000000000000000000002"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := make([]model.Sample, len(tt.prices))
			for i, p := range tt.prices {
				samples[i] = model.Sample{Time: day.Add(time.Duration(i) * time.Minute), RawTime: "x", Price: dec(p)}
			}
			r, err := Compute(samples, "2024-01-01")
			require.NoError(t, err)
			assert.True(t, r.Min.LessThanOrEqual(*r.Average), "avg %s below min %s", r.Average, r.Min)
			assert.True(t, r.Average.LessThanOrEqual(*r.Max), "avg %s above max %s", r.Average, r.Max)
		})
	}

	same := []model.Sample{
		{Time: day, RawTime: "x", Price: dec("0.12345678901234567891")},
		{Time: day.Add(time.Minute), RawTime: "y", Price: dec("0.12345678901234567891")},
	}
	r, err := Compute(same, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "0.12345678901234567891", r.Average.String())
}

func TestGenerate_EmptySeriesWritesNothing(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir, zerolog.Nop())

	_, err := g.Generate(nil, day)
	assert.ErrorIs(t, err, ErrEmptySeries)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerate_Idempotent(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir, zerolog.Nop())
	samples := []model.Sample{
		sample("2024-01-01T00:00:00Z", "100"),
		sample("2024-01-01T00:01:00Z", "102"),
		sample("2024-01-01T00:02:00Z", "101.5"),
	}

	_, err := g.Generate(samples, day)
	require.NoError(t, err)
	path := filepath.Join(dir, "report-2024-01-01.json")
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = g.Generate(samples, day)
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGenerate_ArtifactLayout(t *testing.T) {
	dir := t.TempDir()
	_, err := NewGenerator(dir, zerolog.Nop()).Generate([]model.Sample{
		sample("2024-01-01T00:00:00Z", "100"),
		sample("2024-01-01T00:01:00Z", "102"),
	}, day)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "report-2024-01-01.json"))
	require.NoError(t, err)
	want := `{
    "count": 2,
    "min": 100,
    "max": 102,
    "avg": 101,
    "first": 100,
    "last": 102,
    "start_time": "2024-01-01T00:00:00Z",
    "end_time": "2024-01-01T00:01:00Z"
}
`
	assert.Equal(t, want, string(got))
}

func TestCatalog_ListAndGet(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir, zerolog.Nop())
	samples := []model.Sample{sample("2024-01-01T00:00:00Z", "100")}
	for _, d := range []time.Time{day.AddDate(0, 0, 2), day, day.AddDate(0, 0, 1)} {
		_, err := g.Generate(samples, d)
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report-2024-13-40.json"), []byte("{}"), 0644))

	c := NewCatalog(dir)
	ids, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, ids)

	r, found, err := c.Get("2024-01-02")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2024-01-02", r.Date)
	assert.True(t, r.Complete())

	r, found, err = c.Get("report-2024-01-03.json")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2024-01-03", r.Date)
}

func TestCatalog_NotFoundIsNotAnError(t *testing.T) {
	c := NewCatalog(t.TempDir())
	for _, id := range []string{"2030-01-01", "garbage", "../etc/passwd", ""} {
		r, found, err := c.Get(id)
		assert.NoError(t, err, id)
		assert.False(t, found, id)
		assert.Nil(t, r, id)
	}
}

func TestCatalog_MissingDirectory(t *testing.T) {
	ids, err := NewCatalog(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCatalog_OlderFormatHasExplicitAbsence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report-2023-12-31.json"),
		[]byte(`{"count": 3, "min": 1.5, "max": 2.0, "start_time": "2023-12-31 10:00:00"}`), 0644))

	r, found, err := NewCatalog(dir).Get("2023-12-31")
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, r.Complete())
	assert.Equal(t, 3, *r.Count)
	assert.True(t, r.Max.Equal(dec("2")))
	assert.Nil(t, r.Average)
	assert.Nil(t, r.EndTime)
	assert.ElementsMatch(t, []string{"end_time", "first", "last", "avg"}, r.Missing())
}

func TestCatalog_CorruptArtifactIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report-2024-01-01.json"), []byte(`{"count": 2, "min"`), 0644))

	_, found, err := NewCatalog(dir).Get("2024-01-01")
	assert.False(t, found)
	assert.ErrorIs(t, err, ErrReportUnavailable)
}
