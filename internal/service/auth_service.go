package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"solarsmart/api/internal/models"
	"solarsmart/api/internal/repository"
	"solarsmart/api/internal/security"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrUserNotFound      = errors.New("user not found")
	ErrIncorrectPassword = errors.New("incorrect password")
)

type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, email string, role models.UserRole) error
}

type LoginLedger interface {
	Record(ctx context.Context, event models.LoginEvent) (models.LoginEvent, error)
	PreviousLogin(ctx context.Context, userID int64, eventID int64) (*time.Time, error)
	MostRecentBefore(ctx context.Context, userID int64, excludeLatest bool) (*time.Time, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	Summaries(ctx context.Context) (map[int64]models.LoginSummary, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.LoginEvent, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, digest string) (bool, error)
}

type TokenIssuer interface {
	Issue(userID int64, email string, role string) (string, time.Time, error)
}

type AuthService struct {
	users  UserStore
	logins LoginLedger
	hasher PasswordHasher
	tokens TokenIssuer
	log    zerolog.Logger
}

func NewAuthService(users UserStore, logins LoginLedger, hasher PasswordHasher, tokens TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		logins: logins,
		hasher: hasher,
		tokens: tokens,
		log:    log,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Gender   string
}

func (in RegisterInput) validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"name", in.Name, 100},
		{"email", in.Email, 255},
		{"password", in.Password, 0},
		{"gender", in.Gender, 20},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, f.name)
		}
		if f.max > 0 && utf8.RuneCountInString(f.value) > f.max {
			return fmt.Errorf("%w: %s is longer than %d characters", ErrValidation, f.name, f.max)
		}
	}
	return nil
}

// Register creates a user with the default role. The email is stored exactly
// as given.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Gender = strings.TrimSpace(input.Gender)
	if err := input.validate(); err != nil {
		return models.User{}, err
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return models.User{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Gender:       input.Gender,
		Role:         models.UserRoleUser,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Msg("user registered")
	return user, nil
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
	Event     models.LoginEvent
	// LastLogin is the start of the previous session, nil on a first login.
	LastLogin *time.Time
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrUserNotFound
		}
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}

	ok, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return LoginResult{}, ErrIncorrectPassword
	}

	event, err := s.logins.Record(ctx, models.LoginEvent{
		UserID:    user.ID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("record login: %w", err)
	}

	lastLogin, err := s.logins.PreviousLogin(ctx, user.ID, event.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("previous login: %w", err)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email, string(user.Role))
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	return LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
		Event:     event,
		LastLogin: lastLogin,
	}, nil
}
