package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"PricePulse/internal/model"
	"PricePulse/internal/query"
	"PricePulse/internal/recorder"
	"PricePulse/internal/report"
)

// Generator produces today's report on demand.
type Generator interface {
	Generate(ctx context.Context, trigger model.TriggerType) (*recorder.GenerationRun, *model.DailyReport, error)
}

// RunLister returns recent generation runs.
type RunLister interface {
	RecentRuns(limit int) ([]recorder.GenerationRun, error)
}

// API serves the query surface over HTTP.
type API struct {
	queries *query.Service
	gen     Generator
	runs    RunLister
	log     zerolog.Logger
}

func NewAPI(q *query.Service, gen Generator, runs RunLister, log zerolog.Logger) *API {
	return &API{queries: q, gen: gen, runs: runs, log: log}
}

// RegisterRoutes implements Handler.
func (a *API) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/series", a.getSeries)
	g.GET("/reports", a.listReports)
	g.GET("/reports/today", a.getToday)
	g.GET("/reports/runs", a.listRuns)
	g.GET("/reports/:id", a.getReport)
	g.POST("/reports/generate", a.generate)
}

type seriesRequest struct {
	Range string `query:"range" default:"1h" validate:"max=16"`
}

type runsRequest struct {
	Limit int `query:"limit" default:"20" validate:"min=1,max=200"`
}

type runView struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	ReportDate string    `json:"report_date"`
	Trigger    string    `json:"trigger"`
	Status     string    `json:"status"`
	Samples    int       `json:"samples"`
	Dropped    int       `json:"dropped"`
	DurationMs int64     `json:"duration_ms"`
	Note       string    `json:"note,omitempty"`
}

func toRunView(r *recorder.GenerationRun) runView {
	return runView{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		ReportDate: r.ReportDate,
		Trigger:    string(r.Trigger),
		Status:     string(r.Status),
		Samples:    r.Samples,
		Dropped:    r.Dropped,
		DurationMs: r.DurationMs,
		Note:       r.Note,
	}
}

func (a *API) getSeries(c echo.Context) error {
	var req seriesRequest
	if errs := ReadAndValidateRequest(c, &req); errs != nil {
		return BadRequestResponse(c, errs)
	}
	view, err := a.queries.GetSeries(c.Request().Context(), req.Range)
	if err != nil {
		return DataResponse(c, http.StatusServiceUnavailable, view)
	}
	return SuccessResponse(c, view)
}

func (a *API) listReports(c echo.Context) error {
	dates, err := a.queries.ListReports(c.Request().Context())
	if err != nil {
		return AppErrorResponse(c, UnavailableError("report list unavailable", err))
	}
	return ListResponse(c, dates, len(dates))
}

func (a *API) getToday(c echo.Context) error {
	return a.reportResponse(c, "")
}

func (a *API) getReport(c echo.Context) error {
	return a.reportResponse(c, c.Param("id"))
}

func (a *API) reportResponse(c echo.Context, id string) error {
	view, err := a.queries.GetReport(c.Request().Context(), id)
	switch {
	case err != nil:
		return DataResponse(c, http.StatusServiceUnavailable, view)
	case view.Status == query.StatusNotFound:
		return DataResponse(c, http.StatusNotFound, view)
	}
	return SuccessResponse(c, view)
}

func (a *API) listRuns(c echo.Context) error {
	var req runsRequest
	if errs := ReadAndValidateRequest(c, &req); errs != nil {
		return BadRequestResponse(c, errs)
	}
	runs, err := a.runs.RecentRuns(req.Limit)
	if err != nil {
		return AppErrorResponse(c, UnavailableError("run history unavailable", err))
	}
	out := make([]runView, len(runs))
	for i := range runs {
		out[i] = toRunView(&runs[i])
	}
	return ListResponse(c, out, len(out))
}

func (a *API) generate(c echo.Context) error {
	run, _, err := a.gen.Generate(c.Request().Context(), model.TriggerManual)
	switch {
	case err == nil:
	case errors.Is(err, report.ErrEmptySeries):
		return DataResponse(c, http.StatusUnprocessableEntity, toRunView(run))
	case query.IsUnavailable(err):
		return DataResponse(c, http.StatusServiceUnavailable, toRunView(run))
	default:
		a.log.Error().Err(err).Msg("manual generation failed")
		return DataResponse(c, http.StatusInternalServerError, toRunView(run))
	}

	view, err := a.queries.GetReport(c.Request().Context(), run.ReportDate)
	if err != nil {
		return DataResponse(c, http.StatusServiceUnavailable, view)
	}
	return DataResponse(c, http.StatusCreated, map[string]interface{}{
		"run":    toRunView(run),
		"report": view,
	})
}
