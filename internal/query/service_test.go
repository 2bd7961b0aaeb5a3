package query

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PricePulse/internal/metrics"
	"PricePulse/internal/model"
	"PricePulse/internal/report"
	"PricePulse/internal/series"
	"PricePulse/internal/window"
)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type failingSource struct{ err error }

func (f failingSource) Load(context.Context) (*series.Result, error) { return nil, f.err }

func newService(t *testing.T, log string) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(log), 0o644))
	reports := filepath.Join(dir, "reports")
	svc := New(
		series.NewFileStore(path, time.UTC, zerolog.Nop()),
		report.NewCatalog(reports),
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
		WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
	return svc, reports
}

func TestGetSeries_WindowAndHeadline(t *testing.T) {
	svc, _ := newService(t, ""+
		"2024-01-01T09:00:00Z,90\n"+
		"2024-01-01T11:00:00Z,100\n"+
		"2024-01-01T11:30:00Z,bad\n"+
		"2024-01-01T11:45:00Z,102.5\n")

	view, err := svc.GetSeries(context.Background(), "1h")
	require.NoError(t, err)

	assert.Equal(t, StatusOK, view.Status)
	assert.Equal(t, window.Lookback1h, view.Lookback)
	assert.True(t, view.Recognized)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, 1, view.Dropped)
	require.Len(t, view.Points, 2)
	assert.Equal(t, "100", view.Points[0].Price)
	assert.Equal(t, "102.5", view.Points[1].Price)
	require.NotNil(t, view.LatestPrice)
	assert.Equal(t, "102.5", *view.LatestPrice)
	require.NotNil(t, view.UpdatedAt)
	assert.Equal(t, "2024-01-01T11:45:00Z", *view.UpdatedAt)
	assert.Len(t, view.Snapshot.Trend, 2)
}

func TestGetSeries_DefaultAndUnrecognizedLookback(t *testing.T) {
	svc, _ := newService(t, "2024-01-01T00:00:00Z,90\n2024-01-01T11:30:00Z,95\n")

	view, err := svc.GetSeries(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, window.DefaultLookback, view.Lookback)
	assert.Len(t, view.Points, 1)

	view, err = svc.GetSeries(context.Background(), "fortnight")
	require.NoError(t, err)
	assert.False(t, view.Recognized)
	assert.Equal(t, window.LookbackAll, view.Lookback)
	assert.Len(t, view.Points, 2)
}

func TestGetSeries_NoDataStates(t *testing.T) {
	svc, _ := newService(t, "")
	view, err := svc.GetSeries(context.Background(), "24h")
	require.NoError(t, err)
	assert.Equal(t, StatusNoData, view.Status)
	assert.Nil(t, view.LatestPrice)
	assert.Empty(t, view.Points)

	svc, _ = newService(t, "2023-12-01T00:00:00Z,90\n")
	view, err = svc.GetSeries(context.Background(), "7d")
	require.NoError(t, err)
	assert.Equal(t, StatusNoDataInWindow, view.Status)
	require.NotNil(t, view.LatestPrice)
	assert.Equal(t, "90", *view.LatestPrice)
}

func TestGetSeries_SourceUnavailable(t *testing.T) {
	err := errors.Join(series.ErrSourceUnavailable, os.ErrNotExist)
	svc := New(failingSource{err: err}, report.NewCatalog(t.TempDir()))

	view, gotErr := svc.GetSeries(context.Background(), "1h")
	require.Error(t, gotErr)
	assert.True(t, IsUnavailable(gotErr))
	require.NotNil(t, view)
	assert.Equal(t, StatusUnavailable, view.Status)
}

func TestGetReport(t *testing.T) {
	svc, dir := newService(t, "")
	gen := report.NewGenerator(dir, zerolog.Nop())
	samples := []model.Sample{
		{Time: fixedNow.Add(-time.Hour), RawTime: "2024-01-01 11:00:00", Price: decimal.RequireFromString("100")},
		{Time: fixedNow, RawTime: "2024-01-01 12:00:00", Price: decimal.RequireFromString("102")},
	}
	_, err := gen.Generate(samples, fixedNow)
	require.NoError(t, err)

	view, err := svc.GetReport(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", view.Date)
	assert.Equal(t, StatusOK, view.Status)
	require.NotNil(t, view.Report)
	assert.Equal(t, "101", *view.Report.Average)
	assert.Equal(t, 2, *view.Report.Count)
	assert.Empty(t, view.Missing)

	view, err = svc.GetReport(context.Background(), "report-2024-01-01.json")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, view.Status)

	view, err = svc.GetReport(context.Background(), "2023-06-01")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, view.Status)
	assert.Nil(t, view.Report)

	view, err = svc.GetReport(context.Background(), "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, view.Status)

	dates, err := svc.ListReports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01"}, dates)
}

func TestGetReport_Unavailable(t *testing.T) {
	svc, dir := newService(t, "")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, report.FileName("2024-01-01")), []byte("{"), 0o644))

	view, err := svc.GetReport(context.Background(), "2024-01-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, report.ErrReportUnavailable)
	assert.Equal(t, StatusUnavailable, view.Status)
}

func TestToday_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	svc := New(failingSource{}, report.NewCatalog(t.TempDir()),
		WithLocation(loc),
		WithClock(func() time.Time { return time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC) }),
	)
	assert.Equal(t, "2024-01-02", svc.Today())
}

func TestGetSeries_OverflowingPriceIsDropped(t *testing.T) {
	svc, _ := newService(t, "2024-01-01T11:00:00Z,100\n2024-01-01T11:30:00Z,1e400\n")

	view, err := svc.GetSeries(context.Background(), "all")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, view.Status)
	assert.Equal(t, 1, view.Dropped)
	require.Len(t, view.Points, 1)

	_, err = json.Marshal(view)
	assert.NoError(t, err)
}
