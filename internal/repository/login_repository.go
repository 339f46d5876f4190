package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"solarsmart/api/internal/models"
)

// LoginRepository is the login ledger. It only ever inserts and reads;
// login_logs also carries a trigger that rejects UPDATE and DELETE.
type LoginRepository struct {
	pool *pgxpool.Pool
}

func NewLoginRepository(pool *pgxpool.Pool) *LoginRepository {
	return &LoginRepository{pool: pool}
}

func (r *LoginRepository) Record(ctx context.Context, event models.LoginEvent) (models.LoginEvent, error) {
	const query = `
		INSERT INTO login_logs (user_id, ip_address, user_agent)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
		RETURNING id, login_time
	`

	if err := r.pool.QueryRow(ctx, query,
		event.UserID,
		event.IPAddress,
		event.UserAgent,
	).Scan(&event.ID, &event.LoginTime); err != nil {
		return models.LoginEvent{}, err
	}
	event.LoginTime = event.LoginTime.UTC()
	return event, nil
}

// PreviousLogin returns the login time of the user's newest event older than eventID.
func (r *LoginRepository) PreviousLogin(ctx context.Context, userID int64, eventID int64) (*time.Time, error) {
	const query = `
		SELECT login_time FROM login_logs
		WHERE user_id = $1 AND id < $2
		ORDER BY id DESC
		LIMIT 1
	`
	return scanOptionalTime(r.pool.QueryRow(ctx, query, userID, eventID))
}

func (r *LoginRepository) MostRecentBefore(ctx context.Context, userID int64, excludeLatest bool) (*time.Time, error) {
	const query = `
		SELECT login_time FROM login_logs
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT 1 OFFSET $2
	`
	offset := 0
	if excludeLatest {
		offset = 1
	}
	return scanOptionalTime(r.pool.QueryRow(ctx, query, userID, offset))
}

func (r *LoginRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM login_logs WHERE user_id = $1`
	var count int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Summaries returns total logins and the previous-session time for every user
// with at least one ledger row.
func (r *LoginRepository) Summaries(ctx context.Context) (map[int64]models.LoginSummary, error) {
	const query = `
		SELECT user_id,
		       COUNT(*),
		       (array_agg(login_time ORDER BY id DESC))[2]
		FROM login_logs
		GROUP BY user_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make(map[int64]models.LoginSummary)
	for rows.Next() {
		var (
			userID   int64
			summary  models.LoginSummary
			previous *time.Time
		)
		if err := rows.Scan(&userID, &summary.Total, &previous); err != nil {
			return nil, err
		}
		if previous != nil {
			utc := previous.UTC()
			summary.Previous = &utc
		}
		summaries[userID] = summary
	}
	return summaries, rows.Err()
}

// ListByUser returns the user's events newest first. A limit <= 0 returns all of them.
func (r *LoginRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.LoginEvent, error) {
	const query = `
		SELECT id, user_id, login_time, COALESCE(ip_address, ''), COALESCE(user_agent, '')
		FROM login_logs
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, err := r.pool.Query(ctx, query, userID, limitArg)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// EventsBetween returns events with from <= login_time < to in insertion order.
func (r *LoginRepository) EventsBetween(ctx context.Context, from, to time.Time) ([]models.LoginEvent, error) {
	const query = `
		SELECT id, user_id, login_time, COALESCE(ip_address, ''), COALESCE(user_agent, '')
		FROM login_logs
		WHERE login_time >= $1 AND login_time < $2
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// CountBuckets groups events in [from, to) by UTC calendar day or month.
// Buckets without events are absent.
func (r *LoginRepository) CountBuckets(ctx context.Context, unit models.BucketUnit, from, to time.Time) ([]models.LoginBucket, error) {
	const query = `
		SELECT to_char(login_time AT TIME ZONE 'UTC', $3) AS bucket, COUNT(*)
		FROM login_logs
		WHERE login_time >= $1 AND login_time < $2
		GROUP BY bucket
		ORDER BY bucket ASC
	`

	format := "YYYY-MM-DD"
	if unit == models.BucketMonth {
		format = "YYYY-MM"
	}

	rows, err := r.pool.Query(ctx, query, from, to, format)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make([]models.LoginBucket, 0)
	for rows.Next() {
		var bucket models.LoginBucket
		if err := rows.Scan(&bucket.Key, &bucket.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, bucket)
	}
	return buckets, rows.Err()
}

func collectEvents(rows pgx.Rows) ([]models.LoginEvent, error) {
	defer rows.Close()

	events := make([]models.LoginEvent, 0)
	for rows.Next() {
		var event models.LoginEvent
		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.LoginTime,
			&event.IPAddress,
			&event.UserAgent,
		); err != nil {
			return nil, err
		}
		event.LoginTime = event.LoginTime.UTC()
		events = append(events, event)
	}
	return events, rows.Err()
}

func scanOptionalTime(row pgx.Row) (*time.Time, error) {
	var t time.Time
	if err := row.Scan(&t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
