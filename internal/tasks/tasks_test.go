package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarsmart/api/internal/reports"
)

type fakePublisher struct {
	published []map[string]any
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, values map[string]any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.published = append(f.published, values)
	return "1-0", nil
}

type fakeExporter struct {
	days []time.Time
	err  error
}

func (f *fakeExporter) ExportDay(_ context.Context, day time.Time) (reports.Result, error) {
	if f.err != nil {
		return reports.Result{}, f.err
	}
	f.days = append(f.days, day)
	return reports.Result{Key: reports.ObjectKey(day), Rows: 3}, nil
}

// toStreamValues mimics what XREADGROUP hands back: every value as a string.
func toStreamValues(values map[string]any) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		out[k] = v.(string)
	}
	return out
}

func TestDispatchThenProcess(t *testing.T) {
	pub := &fakePublisher{}
	taskID, err := NewDispatcher(pub).EnqueueLoginExport(context.Background(), time.Date(2026, time.May, 2, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotEmpty(t, taskID)
	require.Len(t, pub.published, 1)
	assert.Equal(t, TypeExportLogins, pub.published[0]["type"])
	assert.Equal(t, "2026-05-02", pub.published[0]["day"])
	assert.Equal(t, taskID, pub.published[0]["task_id"])

	exp := &fakeExporter{}
	err = NewProcessor(exp, zerolog.Nop()).Handle(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: toStreamValues(pub.published[0]),
	})
	require.NoError(t, err)
	require.Len(t, exp.days, 1)
	assert.Equal(t, time.Date(2026, time.May, 2, 0, 0, 0, 0, time.UTC), exp.days[0])
}

func TestDispatcherWrapsPublishError(t *testing.T) {
	boom := errors.New("redis down")
	_, err := NewDispatcher(&fakePublisher{err: boom}).EnqueueLoginExport(context.Background(), time.Now())
	assert.ErrorIs(t, err, boom)
}

func TestProcessorSkipsBadMessages(t *testing.T) {
	exp := &fakeExporter{}
	p := NewProcessor(exp, zerolog.Nop())

	require.NoError(t, p.Handle(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]interface{}{"type": "resize"}}))
	require.NoError(t, p.Handle(context.Background(), redis.XMessage{ID: "2-0", Values: map[string]interface{}{"type": TypeExportLogins, "day": "yesterday"}}))
	assert.Empty(t, exp.days)
}

func TestProcessorReturnsExportErrorForRetry(t *testing.T) {
	boom := errors.New("minio unavailable")
	p := NewProcessor(&fakeExporter{err: boom}, zerolog.Nop())

	err := p.Handle(context.Background(), redis.XMessage{
		ID:     "3-0",
		Values: map[string]interface{}{"type": TypeExportLogins, "task_id": "abc", "day": "2026-05-02"},
	})
	assert.ErrorIs(t, err, boom)
}
