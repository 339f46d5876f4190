// Package analytics answers histogram queries over the login ledger.
//
// Every window and bucket key is computed in UTC: days are keyed
// "YYYY-MM-DD" and months "YYYY-MM".
package analytics

import (
	"context"
	"fmt"
	"time"

	"solarsmart/api/internal/models"
)

const (
	WeeklyDays    = 7
	MonthlyMonths = 6
)

type BucketSource interface {
	CountBuckets(ctx context.Context, unit models.BucketUnit, from, to time.Time) ([]models.LoginBucket, error)
}

type Engine struct {
	source BucketSource
}

func NewEngine(source BucketSource) *Engine {
	return &Engine{source: source}
}

// Weekly returns login counts per day for today and the six days before it.
// Days without logins are omitted.
func (e *Engine) Weekly(ctx context.Context, now time.Time) ([]models.LoginBucket, error) {
	from, to := WeeklyWindow(now)
	buckets, err := e.source.CountBuckets(ctx, models.BucketDay, from, to)
	if err != nil {
		return nil, fmt.Errorf("weekly histogram: %w", err)
	}
	return buckets, nil
}

// Monthly returns login counts per calendar month for the current month and the
// five before it. Months without logins are omitted.
func (e *Engine) Monthly(ctx context.Context, now time.Time) ([]models.LoginBucket, error) {
	from, to := MonthlyWindow(now)
	buckets, err := e.source.CountBuckets(ctx, models.BucketMonth, from, to)
	if err != nil {
		return nil, fmt.Errorf("monthly histogram: %w", err)
	}
	return buckets, nil
}

// WeeklyWindow returns the half-open range [from, to) covering the UTC day of
// now and the six preceding days.
func WeeklyWindow(now time.Time) (time.Time, time.Time) {
	day := startOfDay(now)
	return day.AddDate(0, 0, -(WeeklyDays - 1)), day.AddDate(0, 0, 1)
}

// MonthlyWindow returns the half-open range [from, to) covering the UTC month
// of now and the five preceding months.
func MonthlyWindow(now time.Time) (time.Time, time.Time) {
	month := startOfMonth(now)
	return month.AddDate(0, -(MonthlyMonths - 1), 0), month.AddDate(0, 1, 0)
}

// FillDays returns one bucket per day of the weekly window ending at now,
// inserting zero counts where buckets has no entry.
func FillDays(now time.Time, buckets []models.LoginBucket) []models.LoginBucket {
	from, to := WeeklyWindow(now)
	return fill(buckets, models.BucketDay, from, to, func(t time.Time) time.Time { return t.AddDate(0, 0, 1) })
}

// FillMonths is FillDays for the monthly window.
func FillMonths(now time.Time, buckets []models.LoginBucket) []models.LoginBucket {
	from, to := MonthlyWindow(now)
	return fill(buckets, models.BucketMonth, from, to, func(t time.Time) time.Time { return t.AddDate(0, 1, 0) })
}

func fill(buckets []models.LoginBucket, unit models.BucketUnit, from, to time.Time, next func(time.Time) time.Time) []models.LoginBucket {
	counts := make(map[string]int64, len(buckets))
	for _, b := range buckets {
		counts[b.Key] = b.Count
	}

	filled := make([]models.LoginBucket, 0)
	for t := from; t.Before(to); t = next(t) {
		key := t.Format(unit.Layout())
		filled = append(filled, models.LoginBucket{Key: key, Count: counts[key]})
	}
	return filled
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
