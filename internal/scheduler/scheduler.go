package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"PricePulse/internal/metrics"
	"PricePulse/internal/model"
	"PricePulse/internal/notifier"
	"PricePulse/internal/query"
	"PricePulse/internal/recorder"
	"PricePulse/internal/report"
	"PricePulse/internal/series"
)

// Sender delivers report notifications.
type Sender interface {
	Notify(ctx context.Context, n notifier.Notification) error
}

// Queries is the part of the query service the scheduler reads through.
type Queries interface {
	Now() time.Time
	LoadSeries(ctx context.Context) (*series.Result, error)
	GetReport(ctx context.Context, id string) (*query.ReportView, error)
	ListReports(ctx context.Context) ([]string, error)
}

// Scheduler runs the daily report job and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Queries   Queries
	Generator *report.Generator
	Notifier  Sender
	Recorder  recorder.Recorder
	Metrics   *metrics.Recorder
	Log       zerolog.Logger
	Ctx       context.Context

	mu sync.Mutex // one generation at a time
}

// NewScheduler creates a new Scheduler. Cron specs are evaluated in loc.
// n and m may be nil.
func NewScheduler(ctx context.Context, q Queries, gen *report.Generator, n Sender, rec recorder.Recorder,
	m *metrics.Recorder, loc *time.Location, log zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{log: log}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Queries:   q,
		Generator: gen,
		Notifier:  n,
		Recorder:  rec,
		Metrics:   m,
		Log:       log,
		Ctx:       ctx,
	}
}

// Register adds the daily report job.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily report task: %w", err)
	}
	s.Log.Info().Str("cron", dailyCron).Msg("daily report task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info().Msg("scheduler stopped")
}

// RunDailyNow executes the daily task immediately (for RUN_ON_START).
func (s *Scheduler) RunDailyNow() {
	s.runAndNotify(model.TriggerStartup)
}

func (s *Scheduler) dailyTask() {
	s.runAndNotify(model.TriggerScheduled)
}

func (s *Scheduler) runAndNotify(trigger model.TriggerType) {
	run, r, err := s.Generate(s.Ctx, trigger)
	switch {
	case err == nil:
		s.notify(notifier.Notification{Date: run.ReportDate, Kind: notifier.KindReport, Text: notifier.FormatDailyReport(r)})
	case errors.Is(err, report.ErrEmptySeries):
		s.notify(notifier.Notification{Date: run.ReportDate, Kind: notifier.KindEmpty, Text: notifier.FormatEmptySeries(run.ReportDate)})
	default:
		s.notify(notifier.Notification{Date: run.ReportDate, Kind: notifier.KindFailure, Text: notifier.FormatFailure(run.ReportDate, err)})
	}
}

// Generate loads the series and writes today's report. The run is always
// returned and recorded, including when generation fails.
func (s *Scheduler) Generate(ctx context.Context, trigger model.TriggerType) (*recorder.GenerationRun, *model.DailyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	now := s.Queries.Now()
	run := &recorder.GenerationRun{
		StartedAt:  start,
		ReportDate: now.Format(model.DateLayout),
		Trigger:    trigger,
	}
	s.Log.Info().Str("trigger", string(trigger)).Str("date", run.ReportDate).Msg("running daily report")

	r, err := s.generate(ctx, now, run)
	run.DurationMs = time.Since(start).Milliseconds()
	switch {
	case err == nil:
		run.Status = model.RunOK
	case errors.Is(err, report.ErrEmptySeries):
		run.Status = model.RunEmptySeries
		run.Note = err.Error()
		s.Log.Warn().Str("date", run.ReportDate).Msg("no samples, report skipped")
	default:
		run.Status = model.RunFailed
		run.Note = err.Error()
		s.Log.Error().Err(err).Str("date", run.ReportDate).Msg("daily report failed")
	}

	if s.Metrics != nil {
		s.Metrics.RecordReportRun(string(trigger), string(run.Status))
	}
	if err := s.Recorder.RecordRun(run); err != nil {
		s.Log.Error().Err(err).Msg("record generation run failed")
	}
	return run, r, err
}

func (s *Scheduler) generate(ctx context.Context, now time.Time, run *recorder.GenerationRun) (*model.DailyReport, error) {
	res, err := s.Queries.LoadSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	run.Samples = len(res.Samples)
	run.Dropped = res.Dropped
	return s.Generator.Generate(res.Samples, now)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Commands in groups arrive as /report@BotName.
	name, _, _ := strings.Cut(fields[0], "@")

	switch name {
	case "/report":
		id := ""
		if len(fields) > 1 {
			id = fields[1]
		}
		view, err := s.Queries.GetReport(s.Ctx, id)
		if err != nil {
			return fmt.Sprintf("⚠️ Report for %s is temporarily unavailable, try again later.", view.Date)
		}
		if view.Status == query.StatusNotFound {
			return notifier.FormatNoReport(view.Date)
		}
		return notifier.FormatDailyReport(view.Raw)
	case "/reports":
		dates, err := s.Queries.ListReports(s.Ctx)
		if err != nil {
			s.Log.Warn().Err(err).Msg("list reports failed")
			return "⚠️ Report list is temporarily unavailable, try again later."
		}
		return notifier.FormatReportList(dates, 10)
	case "/generate":
		run, r, err := s.Generate(s.Ctx, model.TriggerManual)
		switch {
		case err == nil:
			return notifier.FormatDailyReport(r)
		case errors.Is(err, report.ErrEmptySeries):
			return notifier.FormatEmptySeries(run.ReportDate)
		default:
			return notifier.FormatFailure(run.ReportDate, err)
		}
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) notify(n notifier.Notification) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(s.Ctx, n); err != nil {
		s.Log.Error().Err(err).Msg("send notification failed")
	}
}
