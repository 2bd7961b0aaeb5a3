package recorder

import (
	"time"

	"PricePulse/internal/model"
)

// GenerationRun records one attempt to produce a daily report.
type GenerationRun struct {
	ID         string
	StartedAt  time.Time
	ReportDate string
	Trigger    model.TriggerType
	Status     model.RunStatus
	Samples    int
	Dropped    int
	DurationMs int64
	Note       string
}

// Recorder persists report generation history.
type Recorder interface {
	RecordRun(run *GenerationRun) error
	RecentRuns(limit int) ([]GenerationRun, error)
	Close() error
}
