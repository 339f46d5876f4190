package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"solarsmart/api/internal/reports"
)

type DayExporter interface {
	ExportDay(ctx context.Context, day time.Time) (reports.Result, error)
}

type Processor struct {
	exporter DayExporter
	logger   zerolog.Logger
}

func NewProcessor(exporter DayExporter, logger zerolog.Logger) *Processor {
	return &Processor{
		exporter: exporter,
		logger:   logger,
	}
}

// Handle runs one stream message. Malformed or unknown messages are logged and
// acknowledged so they do not block the group.
func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload Payload
	if err := decodePayload(msg.Values, &payload); err != nil {
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping undecodable task")
		return nil
	}

	switch payload.Type {
	case TypeExportLogins:
		return p.handleExportLogins(ctx, payload)
	default:
		p.logger.Warn().Str("type", payload.Type).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *Payload) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(values)
}

func (p *Processor) handleExportLogins(ctx context.Context, payload Payload) error {
	day, err := time.Parse(dayLayout, payload.Day)
	if err != nil {
		p.logger.Warn().Str("task_id", payload.TaskID).Str("day", payload.Day).Msg("invalid export day")
		return nil
	}

	result, err := p.exporter.ExportDay(ctx, day)
	if err != nil {
		return fmt.Errorf("export %s: %w", payload.Day, err)
	}

	p.logger.Info().
		Str("task_id", payload.TaskID).
		Str("key", result.Key).
		Int("rows", result.Rows).
		Msg("export task done")
	return nil
}
