package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/postmuse/internal/apperror"
	"github.com/sakif/postmuse/internal/auth"
	"github.com/sakif/postmuse/internal/model"
	"github.com/sakif/postmuse/internal/repository"
)

// DefaultUserLimit is the number of draft generations a regular user gets.
const DefaultUserLimit = 10

// AccountService covers registration, login, usage accounting and the
// administrative user management screens.
type AccountService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	userLimit int
	logger    *slog.Logger
}

func NewAccountService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	userLimit int,
	logger *slog.Logger,
) *AccountService {
	if userLimit <= 0 {
		userLimit = DefaultUserLimit
	}
	return &AccountService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		userLimit: userLimit,
		logger:    logger,
	}
}

// LoginResult bundles the user and the session token issued for them.
type LoginResult struct {
	User  *model.User
	Token string
}

// Usage describes a user's draft-generation allowance.
type Usage struct {
	Used      int  `json:"used"`
	Limit     int  `json:"limit,omitempty"`
	Unlimited bool `json:"unlimited"`
}

// Register creates a regular user. A taken email is apperror.ErrConflict.
func (s *AccountService) Register(ctx context.Context, email, password string) (*model.User, error) {
	return s.create(ctx, email, password, model.RoleUser)
}

// CreateUser is the admin variant of Register with an explicit role.
func (s *AccountService) CreateUser(ctx context.Context, email, password, role string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, apperror.ValidationFailed("role", "role must be user or admin")
	}
	return s.create(ctx, email, password, role)
}

func (s *AccountService) create(ctx context.Context, email, password, role string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{Email: email, PasswordHash: hash, Role: role}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Warn("user already exists", slog.String("email", email))
			return nil, err
		}
		return nil, fmt.Errorf("service: creating user %s: %w", email, err)
	}

	s.logger.Info("user created", slog.String("email", email), slog.String("role", role))
	return user, nil
}

// Login checks credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = model.NormalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("login for unknown user", slog.String("email", email))
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("service: loading user %s: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Warn("invalid credentials", slog.String("email", email))
		return nil, apperror.Unauthorized("invalid credentials")
	}

	token, err := s.tokens.Issue(auth.Session{Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("service: issuing token for %s: %w", email, err)
	}

	s.logger.Info("user logged in", slog.String("email", email))
	return &LoginResult{User: user, Token: token}, nil
}

// Me returns the stored record for the session's user.
func (s *AccountService) Me(ctx context.Context, email string) (*model.User, error) {
	return s.users.GetUserByEmail(ctx, model.NormalizeEmail(email))
}

// CurrentRole satisfies auth.RoleLookup.
func (s *AccountService) CurrentRole(ctx context.Context, email string) (string, error) {
	u, err := s.Me(ctx, email)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// EnsureAdmin seeds an admin account if no user with that email exists.
// An existing account is left untouched. Reports whether one was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = model.NormalizeEmail(email)
	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return false, fmt.Errorf("service: checking admin %s: %w", email, err)
	}

	if _, err := s.create(ctx, email, password, model.RoleAdmin); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// seeded concurrently by the other process
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UsageFor reports the user's allowance without consuming any.
func (s *AccountService) UsageFor(ctx context.Context, email string) (*Usage, error) {
	user, err := s.Me(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.usage(user), nil
}

// RecordGeneration consumes one draft generation. Regular users are capped
// at the configured limit; admins are not.
func (s *AccountService) RecordGeneration(ctx context.Context, email string) (*Usage, error) {
	email = model.NormalizeEmail(email)
	ok, err := s.users.IncrementAPICalls(ctx, email, s.userLimit)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service: recording generation for %s: %w", email, err)
	}
	if !ok {
		s.logger.Warn("generation limit reached", slog.String("email", email), slog.Int("limit", s.userLimit))
		return nil, apperror.Forbidden("generation limit reached; contact an admin for more access")
	}
	return s.UsageFor(ctx, email)
}

func (s *AccountService) usage(u *model.User) *Usage {
	if u.IsAdmin() {
		return &Usage{Used: u.APICalls, Unlimited: true}
	}
	return &Usage{Used: u.APICalls, Limit: s.userLimit}
}

func (s *AccountService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: listing users: %w", err)
	}
	return users, nil
}

// UpdateUser applies an administrative edit of role and/or usage counter.
func (s *AccountService) UpdateUser(ctx context.Context, email string, role *string, apiCalls *int) error {
	email = model.NormalizeEmail(email)
	if role != nil && !model.ValidRole(*role) {
		return apperror.ValidationFailed("role", "role must be user or admin")
	}
	if apiCalls != nil && *apiCalls < 0 {
		return apperror.ValidationFailed("apiCalls", "usage counter cannot be negative")
	}

	if err := s.users.UpdateUser(ctx, email, repository.UserUpdate{Role: role, APICalls: apiCalls}); err != nil {
		return fmt.Errorf("service: updating user %s: %w", email, err)
	}
	s.logger.Info("user updated", slog.String("email", email))
	return nil
}

// DeleteUser removes a user and all their scheduled posts. An admin cannot
// delete their own account.
func (s *AccountService) DeleteUser(ctx context.Context, actor, email string) error {
	email = model.NormalizeEmail(email)
	if email == model.NormalizeEmail(actor) {
		return apperror.Forbidden("cannot delete your own account")
	}
	if err := s.users.DeleteUser(ctx, email); err != nil {
		return fmt.Errorf("service: deleting user %s: %w", email, err)
	}
	s.logger.Info("user and scheduled posts deleted", slog.String("email", email), slog.String("actor", actor))
	return nil
}
