package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes the pipeline's Prometheus metrics.
type Recorder struct {
	seriesLoads   *prometheus.CounterVec
	droppedRows   prometheus.Counter
	loadDuration  prometheus.Histogram
	samples       prometheus.Gauge
	lastPrice     prometheus.Gauge
	reportRuns    *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// New registers the metrics on reg. Pass prometheus.DefaultRegisterer to expose them on /metrics.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		seriesLoads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pricepulse_series_loads_total",
			Help: "Series loads by outcome",
		}, []string{"result"}),
		droppedRows: f.NewCounter(prometheus.CounterOpts{
			Name: "pricepulse_series_dropped_rows_total",
			Help: "Malformed log rows skipped while loading",
		}),
		loadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricepulse_series_load_duration_seconds",
			Help:    "Duration of series loads",
			Buckets: prometheus.DefBuckets,
		}),
		samples: f.NewGauge(prometheus.GaugeOpts{
			Name: "pricepulse_series_samples",
			Help: "Samples in the most recent load",
		}),
		lastPrice: f.NewGauge(prometheus.GaugeOpts{
			Name: "pricepulse_last_price",
			Help: "Price of the last sample in the most recent load",
		}),
		reportRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pricepulse_report_runs_total",
			Help: "Daily report generation runs by trigger and status",
		}, []string{"trigger", "status"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pricepulse_cache_lookups_total",
			Help: "Series memo cache lookups",
		}, []string{"result"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pricepulse_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDurations: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricepulse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "method"}),
	}
}

// ObserveLoad records one series load. err is nil on success.
func (r *Recorder) ObserveLoad(d time.Duration, samples, dropped int, last float64, err error) {
	r.loadDuration.Observe(d.Seconds())
	if err != nil {
		r.seriesLoads.WithLabelValues("error").Inc()
		return
	}
	r.seriesLoads.WithLabelValues("ok").Inc()
	r.droppedRows.Add(float64(dropped))
	r.samples.Set(float64(samples))
	if samples > 0 {
		r.lastPrice.Set(last)
	}
}

func (r *Recorder) RecordReportRun(trigger, status string) {
	r.reportRuns.WithLabelValues(trigger, status).Inc()
}

func (r *Recorder) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordHTTP(route, method, status string, d time.Duration) {
	r.httpRequests.WithLabelValues(route, method, status).Inc()
	r.httpDurations.WithLabelValues(route, method).Observe(d.Seconds())
}
