package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solarsmart/api/internal/models"
	"solarsmart/api/internal/repository"
)

// UserOverview is a user joined with their ledger summary. LastLogin follows
// the login response: the previous session, not the latest one.
type UserOverview struct {
	User        models.User
	LastLogin   *time.Time
	TotalLogins int64
}

type UserService struct {
	users  UserStore
	logins LoginLedger
}

func NewUserService(users UserStore, logins LoginLedger) *UserService {
	return &UserService{users: users, logins: logins}
}

func (s *UserService) List(ctx context.Context) ([]UserOverview, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	summaries, err := s.logins.Summaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("login summaries: %w", err)
	}

	overviews := make([]UserOverview, 0, len(users))
	for _, u := range users {
		summary := summaries[u.ID]
		overviews = append(overviews, UserOverview{
			User:        u,
			LastLogin:   summary.Previous,
			TotalLogins: summary.Total,
		})
	}
	return overviews, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (UserOverview, error) {
	user, err := s.lookup(ctx, id)
	if err != nil {
		return UserOverview{}, err
	}

	lastLogin, err := s.logins.MostRecentBefore(ctx, id, true)
	if err != nil {
		return UserOverview{}, fmt.Errorf("last login: %w", err)
	}
	total, err := s.logins.CountByUser(ctx, id)
	if err != nil {
		return UserOverview{}, fmt.Errorf("count logins: %w", err)
	}

	return UserOverview{User: user, LastLogin: lastLogin, TotalLogins: total}, nil
}

// Logins returns the user's ledger newest first.
func (s *UserService) Logins(ctx context.Context, id int64, limit int) ([]models.LoginEvent, error) {
	if _, err := s.lookup(ctx, id); err != nil {
		return nil, err
	}

	events, err := s.logins.ListByUser(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list logins: %w", err)
	}
	return events, nil
}

// SetRole changes a user's role. It has no HTTP route; cmd/promote calls it.
func (s *UserService) SetRole(ctx context.Context, email string, role models.UserRole) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if err := s.users.UpdateRole(ctx, email, role); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update role: %w", err)
	}
	return nil
}

func (s *UserService) lookup(ctx context.Context, id int64) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
