// Package testutil provides an in-memory stand-in for the Postgres
// repositories so services and handlers can be tested without a database.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"solarsmart/api/internal/models"
	"solarsmart/api/internal/repository"
)

// MemStore implements the user store and login ledger with the same observable
// behaviour as the Postgres repositories.
type MemStore struct {
	mu     sync.Mutex
	users  []models.User
	events []models.LoginEvent
	err    error

	// Now stamps recorded events. Defaults to time.Now.
	Now func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{Now: time.Now}
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (s *MemStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *MemStore) Create(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.User{}, s.err
	}

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return models.User{}, repository.ErrDuplicateEmail
		}
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	user.ID = int64(len(s.users) + 1)
	user.CreatedAt = s.Now().UTC()
	s.users = append(s.users, user)
	return user, nil
}

func (s *MemStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.User{}, s.err
	}

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *MemStore) GetByID(_ context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.User{}, s.err
	}

	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *MemStore) List(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	users := make([]models.User, len(s.users))
	copy(users, s.users)
	return users, nil
}

func (s *MemStore) UpdateRole(_ context.Context, email string, role models.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}

	for i := range s.users {
		if s.users[i].Email == email {
			s.users[i].Role = role
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (s *MemStore) Record(_ context.Context, event models.LoginEvent) (models.LoginEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.LoginEvent{}, s.err
	}
	return s.appendLocked(event.UserID, s.Now(), event.IPAddress, event.UserAgent), nil
}

// AddEvent appends a ledger row stamped at the given time.
func (s *MemStore) AddEvent(userID int64, at time.Time) models.LoginEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(userID, at, "", "")
}

func (s *MemStore) appendLocked(userID int64, at time.Time, ip, userAgent string) models.LoginEvent {
	event := models.LoginEvent{
		ID:        int64(len(s.events) + 1),
		UserID:    userID,
		LoginTime: at.UTC().Truncate(time.Second),
		IPAddress: ip,
		UserAgent: userAgent,
	}
	s.events = append(s.events, event)
	return event
}

// Events returns a copy of the ledger in insertion order.
func (s *MemStore) Events() []models.LoginEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]models.LoginEvent, len(s.events))
	copy(events, s.events)
	return events
}

func (s *MemStore) PreviousLogin(_ context.Context, userID int64, eventID int64) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if e.UserID == userID && e.ID < eventID {
			t := e.LoginTime
			return &t, nil
		}
	}
	return nil, nil
}

func (s *MemStore) MostRecentBefore(_ context.Context, userID int64, excludeLatest bool) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	skip := 0
	if excludeLatest {
		skip = 1
	}
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if e.UserID != userID {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		t := e.LoginTime
		return &t, nil
	}
	return nil, nil
}

func (s *MemStore) CountByUser(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}

	var n int64
	for _, e := range s.events {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) Summaries(_ context.Context) (map[int64]models.LoginSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	summaries := make(map[int64]models.LoginSummary)
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		summary := summaries[e.UserID]
		summary.Total++
		if summary.Total == 2 {
			t := e.LoginTime
			summary.Previous = &t
		}
		summaries[e.UserID] = summary
	}
	return summaries, nil
}

func (s *MemStore) ListByUser(_ context.Context, userID int64, limit int) ([]models.LoginEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	events := make([]models.LoginEvent, 0)
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].UserID != userID {
			continue
		}
		events = append(events, s.events[i])
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events, nil
}

func (s *MemStore) EventsBetween(_ context.Context, from, to time.Time) ([]models.LoginEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	events := make([]models.LoginEvent, 0)
	for _, e := range s.events {
		if !e.LoginTime.Before(from) && e.LoginTime.Before(to) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (s *MemStore) CountBuckets(_ context.Context, unit models.BucketUnit, from, to time.Time) ([]models.LoginBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	counts := make(map[string]int64)
	for _, e := range s.events {
		if e.LoginTime.Before(from) || !e.LoginTime.Before(to) {
			continue
		}
		counts[e.LoginTime.UTC().Format(unit.Layout())]++
	}

	buckets := make([]models.LoginBucket, 0, len(counts))
	for key, n := range counts {
		buckets = append(buckets, models.LoginBucket{Key: key, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets, nil
}
