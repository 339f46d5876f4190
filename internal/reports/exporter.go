// Package reports turns one UTC day of the login ledger into a CSV object.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"solarsmart/api/internal/models"
)

const ContentType = "text/csv"

var header = []string{"id", "user_id", "login_time", "ip_address", "user_agent"}

type EventSource interface {
	EventsBetween(ctx context.Context, from, to time.Time) ([]models.LoginEvent, error)
}

type ObjectWriter interface {
	PutObject(ctx context.Context, key, contentType string, data []byte) error
}

type Result struct {
	Key  string
	Rows int
}

type Exporter struct {
	events  EventSource
	objects ObjectWriter
	log     zerolog.Logger
}

func NewExporter(events EventSource, objects ObjectWriter, log zerolog.Logger) *Exporter {
	return &Exporter{events: events, objects: objects, log: log}
}

// ObjectKey is where the export for day is stored, e.g. logins/2026/05/2026-05-01.csv.
func ObjectKey(day time.Time) string {
	day = day.UTC()
	return fmt.Sprintf("logins/%s/%s.csv", day.Format("2006/01"), day.Format("2006-01-02"))
}

// ExportDay writes every login recorded during the UTC calendar day containing
// day. Re-running it overwrites the same object.
func (e *Exporter) ExportDay(ctx context.Context, day time.Time) (Result, error) {
	y, m, d := day.UTC().Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	events, err := e.events.EventsBetween(ctx, from, to)
	if err != nil {
		return Result{}, fmt.Errorf("load events: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, events); err != nil {
		return Result{}, err
	}

	key := ObjectKey(from)
	if err := e.objects.PutObject(ctx, key, ContentType, buf.Bytes()); err != nil {
		return Result{}, fmt.Errorf("upload report: %w", err)
	}

	e.log.Info().
		Str("key", key).
		Int("rows", len(events)).
		Msg("login report exported")

	return Result{Key: key, Rows: len(events)}, nil
}

func WriteCSV(w io.Writer, events []models.LoginEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, ev := range events {
		record := []string{
			strconv.FormatInt(ev.ID, 10),
			strconv.FormatInt(ev.UserID, 10),
			ev.LoginTime.UTC().Format(time.RFC3339),
			ev.IPAddress,
			ev.UserAgent,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", ev.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
