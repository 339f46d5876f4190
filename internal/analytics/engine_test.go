package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarsmart/api/internal/models"
	"solarsmart/api/internal/testutil"
)

var now = time.Date(2026, time.March, 15, 14, 30, 0, 0, time.UTC)

func TestWeeklyWindow(t *testing.T) {
	from, to := WeeklyWindow(now)
	assert.Equal(t, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC), to)
}

func TestWeeklyWindowUsesUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2026-03-16 02:00 in Tokyo is still the 15th in UTC.
	from, to := WeeklyWindow(time.Date(2026, time.March, 16, 2, 0, 0, 0, tokyo))
	assert.Equal(t, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC), to)
}

func TestMonthlyWindowCrossesYear(t *testing.T) {
	from, to := MonthlyWindow(time.Date(2026, time.February, 28, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestWeeklyOmitsEmptyDays(t *testing.T) {
	store := testutil.NewMemStore()
	store.AddEvent(1, now.AddDate(0, 0, -6))
	store.AddEvent(1, now.AddDate(0, 0, -3))
	store.AddEvent(2, now)
	// outside the window on both sides
	store.AddEvent(1, now.AddDate(0, 0, -7))
	store.AddEvent(1, now.AddDate(0, 0, 1))

	buckets, err := NewEngine(store).Weekly(context.Background(), now)
	require.NoError(t, err)

	require.Len(t, buckets, 3)
	assert.Equal(t, "2026-03-09", buckets[0].Key)
	assert.Equal(t, "2026-03-12", buckets[1].Key)
	assert.Equal(t, "2026-03-15", buckets[2].Key)

	var total int64
	for _, b := range buckets {
		total += b.Count
	}
	assert.Equal(t, int64(3), total)
}

func TestMonthlyGroupsByCalendarMonth(t *testing.T) {
	store := testutil.NewMemStore()
	store.AddEvent(1, time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC))
	store.AddEvent(1, time.Date(2025, time.October, 31, 23, 59, 59, 0, time.UTC))
	store.AddEvent(1, time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC))
	store.AddEvent(1, time.Date(2025, time.September, 30, 23, 59, 59, 0, time.UTC))

	buckets, err := NewEngine(store).Monthly(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, []models.LoginBucket{
		{Key: "2025-10", Count: 2},
		{Key: "2026-03", Count: 1},
	}, buckets)
}

func TestFillDays(t *testing.T) {
	filled := FillDays(now, []models.LoginBucket{{Key: "2026-03-12", Count: 4}})

	require.Len(t, filled, WeeklyDays)
	assert.Equal(t, "2026-03-09", filled[0].Key)
	assert.Equal(t, "2026-03-15", filled[6].Key)
	assert.Equal(t, int64(4), filled[3].Count)
	assert.Equal(t, int64(0), filled[0].Count)
}

func TestFillMonths(t *testing.T) {
	filled := FillMonths(now, nil)

	require.Len(t, filled, MonthlyMonths)
	assert.Equal(t, "2025-10", filled[0].Key)
	assert.Equal(t, "2026-03", filled[5].Key)
}

func TestEngineWrapsSourceErrors(t *testing.T) {
	store := testutil.NewMemStore()
	boom := errors.New("connection reset")
	store.FailWith(boom)

	_, err := NewEngine(store).Weekly(context.Background(), now)
	assert.ErrorIs(t, err, boom)
}
