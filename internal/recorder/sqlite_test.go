package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PricePulse/internal/model"
)

func TestSQLiteRecorder_RecordAndList(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "db", "runs.db"), zerolog.Nop())
	require.NoError(t, err)
	defer rec.Close()

	base := time.Date(2024, 1, 1, 23, 55, 0, 0, time.UTC)
	first := &GenerationRun{StartedAt: base, ReportDate: "2024-01-01", Trigger: model.TriggerScheduled, Status: model.RunOK, Samples: 1440}
	second := &GenerationRun{StartedAt: base.Add(24 * time.Hour), ReportDate: "2024-01-02", Trigger: model.TriggerManual, Status: model.RunEmptySeries, Note: "empty"}
	require.NoError(t, rec.RecordRun(first))
	require.NoError(t, rec.RecordRun(second))
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	runs, err := rec.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "2024-01-02", runs[0].ReportDate)
	assert.Equal(t, model.RunEmptySeries, runs[0].Status)
	assert.Equal(t, model.TriggerManual, runs[0].Trigger)
	assert.Equal(t, "empty", runs[0].Note)
	assert.Equal(t, 1440, runs[1].Samples)
	assert.True(t, runs[1].StartedAt.Equal(base))

	runs, err = rec.RecentRuns(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestNoopRecorder(t *testing.T) {
	rec := NewNoopRecorder()
	assert.NoError(t, rec.RecordRun(&GenerationRun{}))
	runs, err := rec.RecentRuns(5)
	assert.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, rec.Close())
}
