// Package tasks defines the messages carried on the report stream.
package tasks

import (
	"context"
	"fmt"
	"time"

	"solarsmart/api/internal/ids"
)

const (
	TypeExportLogins = "export_logins"

	dayLayout = "2006-01-02"
)

type Payload struct {
	Type   string `mapstructure:"type"`
	TaskID string `mapstructure:"task_id"`
	Day    string `mapstructure:"day"`
}

type StreamPublisher interface {
	Publish(ctx context.Context, values map[string]any) (string, error)
}

// Dispatcher publishes export tasks. It satisfies the handlers' report queue
// and the scheduler's enqueuer.
type Dispatcher struct {
	publisher StreamPublisher
}

func NewDispatcher(publisher StreamPublisher) *Dispatcher {
	return &Dispatcher{publisher: publisher}
}

// EnqueueLoginExport queues an export of the UTC day containing day and
// returns the task id.
func (d *Dispatcher) EnqueueLoginExport(ctx context.Context, day time.Time) (string, error) {
	taskID := ids.New()
	_, err := d.publisher.Publish(ctx, map[string]any{
		"type":    TypeExportLogins,
		"task_id": taskID,
		"day":     day.UTC().Format(dayLayout),
	})
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", TypeExportLogins, err)
	}
	return taskID, nil
}
