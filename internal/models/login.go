package models

import "time"

// LoginEvent is one row of the append-only login ledger.
type LoginEvent struct {
	ID        int64
	UserID    int64
	LoginTime time.Time
	IPAddress string
	UserAgent string
}

// LoginSummary aggregates a user's ledger rows for listings.
type LoginSummary struct {
	Total    int64
	Previous *time.Time
}

type BucketUnit string

const (
	BucketDay   BucketUnit = "day"
	BucketMonth BucketUnit = "month"
)

// Layout returns the Go time layout of the bucket key.
func (u BucketUnit) Layout() string {
	if u == BucketMonth {
		return "2006-01"
	}
	return "2006-01-02"
}

// LoginBucket is a login count for one calendar day or month, keyed in UTC.
type LoginBucket struct {
	Key   string
	Count int64
}
