package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"PricePulse/internal/calculator"
	"PricePulse/internal/metrics"
	"PricePulse/internal/model"
	"PricePulse/internal/report"
	"PricePulse/internal/series"
	"PricePulse/internal/window"
)

// Status tells the presentation layer which state to render.
type Status string

const (
	StatusOK             Status = "ok"
	StatusNoData         Status = "no_data"
	StatusNoDataInWindow Status = "no_data_in_window"
	StatusUnavailable    Status = "unavailable"
	StatusNotFound       Status = "not_found"
)

// Option configures Service.
type Option func(*Service)

// WithClock overrides the time source used for windows and today's date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTimeout bounds each series read.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithLocation sets the zone that defines the local calendar date.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// Service answers series and report queries. It holds no series state between calls.
type Service struct {
	source  series.Source
	catalog *report.Catalog
	timeout time.Duration
	loc     *time.Location
	now     func() time.Time
	metrics *metrics.Recorder
	log     zerolog.Logger
}

// New creates a query service over src and cat.
func New(src series.Source, cat *report.Catalog, opts ...Option) *Service {
	s := &Service{
		source:  src,
		catalog: cat,
		timeout: 5 * time.Second,
		loc:     time.Local,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time in the service's location.
func (s *Service) Now() time.Time { return s.now().In(s.loc) }

// Today returns the local calendar date used to identify today's report.
func (s *Service) Today() string { return s.Now().Format(model.DateLayout) }

// LoadSeries reads the full sample sequence within the configured timeout.
func (s *Service) LoadSeries(ctx context.Context) (*series.Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.source.Load(ctx)
	if s.metrics != nil {
		var n, dropped int
		var last float64
		if res != nil {
			n, dropped = len(res.Samples), res.Dropped
			if n > 0 {
				last = res.Samples[n-1].Price.InexactFloat64()
			}
		}
		s.metrics.ObserveLoad(time.Since(start), n, dropped, last, err)
	}
	if err != nil {
		return nil, err
	}
	if res.Dropped > 0 {
		s.log.Warn().Int("dropped", res.Dropped).Int("rows", res.Rows).Msg("malformed rows skipped")
	}
	return res, nil
}

// Point is one sample with its derived signals.
type Point struct {
	Time     time.Time       `json:"time"`
	RawTime  string          `json:"raw_time"`
	Price    string          `json:"price"`
	Smoothed model.NullFloat `json:"smoothed"`
	Trend    float64         `json:"trend"`
}

// SeriesView is the result of GetSeries.
type SeriesView struct {
	Lookback    window.Lookback `json:"lookback"`
	Recognized  bool            `json:"recognized"`
	Status      Status          `json:"status"`
	LatestPrice *string         `json:"latest_price"`
	UpdatedAt   *string         `json:"updated_at"`
	Total       int             `json:"total"`
	Dropped     int             `json:"dropped"`
	Points      []Point         `json:"points"`

	Snapshot *model.SeriesSnapshot `json:"-"`
}

// GetSeries loads the series, derives its signals over the full history, then
// narrows it to the lookback. An unrecognized lookback shows the full series.
// The view is always non-nil; err is set only when the log could not be read.
func (s *Service) GetSeries(ctx context.Context, lookback string) (*SeriesView, error) {
	lb, recognized := window.Normalize(lookback)
	view := &SeriesView{Lookback: lb, Recognized: recognized, Points: []Point{}}
	if !recognized {
		s.log.Debug().Str("lookback", lookback).Msg("unrecognized lookback, showing all")
	}

	res, err := s.LoadSeries(ctx)
	if err != nil {
		view.Status = StatusUnavailable
		s.log.Warn().Err(err).Msg("series load failed")
		return view, err
	}
	view.Total = len(res.Samples)
	view.Dropped = res.Dropped

	full := calculator.Snapshot(res.Samples)
	if full.Empty() {
		view.Status = StatusNoData
		view.Snapshot = full
		return view, nil
	}
	if last, ok := full.Last(); ok {
		price := last.Price.String()
		view.LatestPrice = &price
		view.UpdatedAt = &last.RawTime
	}

	snap := window.Select(full, lb, s.Now())
	view.Snapshot = snap
	if snap.Empty() {
		view.Status = StatusNoDataInWindow
		return view, nil
	}

	view.Status = StatusOK
	view.Points = make([]Point, snap.Len())
	for i, sm := range snap.Samples {
		view.Points[i] = Point{
			Time:     sm.Time,
			RawTime:  sm.RawTime,
			Price:    sm.Price.String(),
			Smoothed: snap.Smoothed[i],
			Trend:    snap.Trend[i],
		}
	}
	return view, nil
}

// ReportView is the result of GetReport.
type ReportView struct {
	Date    string        `json:"date"`
	Status  Status        `json:"status"`
	Report  *ReportFields `json:"report,omitempty"`
	Missing []string      `json:"missing,omitempty"`

	Raw *model.DailyReport `json:"-"`
}

// ReportFields mirrors the artifact keys. Absent statistics are null.
type ReportFields struct {
	Count     *int    `json:"count"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	First     *string `json:"first"`
	Last      *string `json:"last"`
	Min       *string `json:"min"`
	Max       *string `json:"max"`
	Average   *string `json:"avg"`
}

func fieldsOf(r *model.DailyReport) *ReportFields {
	return &ReportFields{
		Count:     r.Count,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		First:     decString(r.First),
		Last:      decString(r.Last),
		Min:       decString(r.Min),
		Max:       decString(r.Max),
		Average:   decString(r.Average),
	}
}

func decString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	v := d.String()
	return &v
}

// GetReport looks up the report for id, or today's report when id is empty.
// A missing or unresolvable id gives StatusNotFound with a nil error.
func (s *Service) GetReport(_ context.Context, id string) (*ReportView, error) {
	if id == "" {
		id = s.Today()
	}
	view := &ReportView{Date: id}
	if date, ok := report.ParseID(id); ok {
		view.Date = date
	}

	r, found, err := s.catalog.Get(id)
	switch {
	case err != nil:
		view.Status = StatusUnavailable
		s.log.Warn().Err(err).Str("id", id).Msg("report read failed")
		return view, err
	case !found:
		view.Status = StatusNotFound
		return view, nil
	}

	view.Status = StatusOK
	view.Raw = r
	view.Report = fieldsOf(r)
	view.Missing = r.Missing()
	return view, nil
}

// ListReports returns the available report dates, oldest first.
func (s *Service) ListReports(_ context.Context) ([]string, error) {
	dates, err := s.catalog.List()
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return dates, nil
}

// IsUnavailable reports whether err is one of the transient read failures.
func IsUnavailable(err error) bool {
	return errors.Is(err, series.ErrSourceUnavailable) || errors.Is(err, report.ErrReportUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
