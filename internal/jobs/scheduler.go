package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const lockTTL = 24 * time.Hour

type LoginExportQueue interface {
	EnqueueLoginExport(ctx context.Context, day time.Time) (string, error)
}

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Scheduler enqueues the daily login export. Every API replica runs one; the
// lock keeps the export to a single task per day.
type Scheduler struct {
	cron     *cron.Cron
	queue    LoginExportQueue
	locker   Locker
	schedule string
	log      zerolog.Logger
	now      func() time.Time
}

func NewScheduler(queue LoginExportQueue, locker Locker, schedule string, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))
	return &Scheduler{
		cron:     c,
		queue:    queue,
		locker:   locker,
		schedule: schedule,
		log:      log,
		now:      time.Now,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.exportPreviousDay); err != nil {
		return fmt.Errorf("schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("login export scheduled")
	return nil
}

// Stop halts the cron and returns a context that is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) exportPreviousDay() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error().Err(err).Msg("enqueue login export failed")
	}
}

// RunOnce enqueues yesterday's export unless another replica already did.
// It returns the task id, or "" when the lock was held elsewhere.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	y, m, d := s.now().UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	if s.locker != nil {
		key := "reports:export:" + day.Format("2006-01-02")
		acquired, err := s.locker.TryLock(ctx, key, lockTTL)
		if err != nil {
			return "", err
		}
		if !acquired {
			s.log.Debug().Str("lock", key).Msg("export already enqueued")
			return "", nil
		}
	}

	taskID, err := s.queue.EnqueueLoginExport(ctx, day)
	if err != nil {
		return "", err
	}
	s.log.Info().Str("task_id", taskID).Str("day", day.Format("2006-01-02")).Msg("login export enqueued")
	return taskID, nil
}
