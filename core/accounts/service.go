package accounts

import (
	"context"
	"errors"
	"strings"

	"incidesk/core/auth"
	"incidesk/core/rbac"
	"incidesk/core/store"
	"incidesk/core/utils"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrEmailTaken       = errors.New("email already registered")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrInvalidInput     = errors.New("invalid input")
)

type Registration struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// AuthView is the subset of a user needed to verify a login attempt.
type AuthView struct {
	User    *store.User
	Hash    auth.PasswordHash
	Enabled bool
}

type Service struct {
	users  store.UsersStore
	audits store.AuditStore
	pepper string
	logger *utils.Logger
}

func NewService(users store.UsersStore, audits store.AuditStore, pepper string, logger *utils.Logger) *Service {
	return &Service{users: users, audits: audits, pepper: pepper, logger: logger}
}

// Register creates a new reporter account. Username and email
// uniqueness are both checked before any write so a taken email never
// leaves a half-created user behind.
func (s *Service) Register(ctx context.Context, reg Registration) (*store.User, error) {
	reg.Username = strings.ToLower(strings.TrimSpace(reg.Username))
	reg.Email = strings.TrimSpace(reg.Email)
	if err := utils.ValidateUsername(reg.Username); err != nil {
		return nil, ErrInvalidInput
	}
	if err := utils.ValidateEmail(reg.Email); err != nil {
		return nil, ErrInvalidInput
	}
	if err := utils.ValidatePassword(reg.Password); err != nil {
		return nil, ErrInvalidInput
	}
	if reg.Password != reg.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	taken, err := s.users.UsernameExists(ctx, reg.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	taken, err = s.users.EmailExists(ctx, reg.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	ph, err := auth.HashPassword(reg.Password, s.pepper)
	if err != nil {
		return nil, err
	}
	now := utils.NowUTC()
	user := &store.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: ph.Hash,
		Salt:         ph.Salt,
		Role:         rbac.RoleReporter,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if s.audits != nil {
		_ = s.audits.Log(ctx, user.Username, "accounts.register", "")
	}
	return user, nil
}

func (s *Service) FindByUsername(ctx context.Context, username string) (*store.User, error) {
	user, err := s.users.FindByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *Service) FindByID(ctx context.Context, id int64) (*store.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// LoadForAuthentication returns credentials material for a login
// attempt. Callers treat ErrNotFound the same as a bad password.
func (s *Service) LoadForAuthentication(ctx context.Context, username string) (*AuthView, error) {
	user, err := s.users.FindByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return &AuthView{
		User:    user,
		Hash:    auth.PasswordHash{Hash: user.PasswordHash, Salt: user.Salt},
		Enabled: user.Enabled,
	}, nil
}
