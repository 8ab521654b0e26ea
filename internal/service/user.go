package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/recipeboxapp/recipebox-server/internal/auth"
	"github.com/recipeboxapp/recipebox-server/internal/domain"
	domainerrors "github.com/recipeboxapp/recipebox-server/internal/errors"
	"github.com/recipeboxapp/recipebox-server/internal/store"
	"github.com/recipeboxapp/recipebox-server/internal/validation"
)

// User-facing authentication messages.
const (
	msgEmailTaken      = "user with this email already exists."
	msgBadCredentials  = "Unable to authenticate with provided credentials"
	msgInvalidToken    = "Invalid token."
	msgInactiveOrGone  = "User inactive or deleted."
	fieldNonFieldError = "non_field_errors"
)

// UserService registers users, issues access tokens, and resolves tokens back
// to principals.
type UserService struct {
	store     store.Store
	tokens    *auth.TokenService
	hasher    *auth.PasswordHasher
	validator *validation.Validator
	logger    *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	store store.Store,
	tokens *auth.TokenService,
	hasher *auth.PasswordHasher,
	validator *validation.Validator,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		store:     store,
		tokens:    tokens,
		hasher:    hasher,
		validator: validator,
		logger:    logger,
	}
}

// CreateUserRequest is the registration payload.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5,max=1024"`
	Name     string `json:"name" validate:"max=255"`
}

// TokenRequest carries login credentials.
type TokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest changes the caller's own account. Nil fields are left alone.
type UpdateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=5,max=1024"`
	Name     *string `json:"name" validate:"omitempty,max=255"`
}

// CreateUser registers an active, non-staff user.
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	return s.create(ctx, req, false)
}

// CreateSuperuser registers an active staff user.
func (s *UserService) CreateSuperuser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	return s.create(ctx, req, true)
}

func (s *UserService) create(ctx context.Context, req CreateUserRequest, staff bool) (*domain.User, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	verifier, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, domainerrors.FieldError("password", err.Error())
	}

	u := &domain.User{
		Email:            req.Email,
		Name:             req.Name,
		IsActive:         true,
		IsStaff:          staff,
		PasswordVerifier: verifier,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.FieldError("email", msgEmailTaken).WithCause(err)
		}
		return nil, translate(err)
	}

	s.logger.Info("user created",
		"user_id", u.ID,
		"email", u.Email,
		"staff", staff,
	)
	return u, nil
}

// IssueToken checks credentials and returns a new access token. Unknown
// emails, wrong passwords, and inactive accounts all fail the same way.
func (s *UserService) IssueToken(ctx context.Context, req TokenRequest) (string, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return "", err
	}

	u, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", translate(err)
	}
	if u == nil || !u.IsActive || !s.hasher.Verify(u.PasswordVerifier, req.Password) {
		return "", domainerrors.FieldError(fieldNonFieldError, msgBadCredentials)
	}

	if s.hasher.NeedsRehash(u.PasswordVerifier) {
		s.rehash(ctx, u, req.Password)
	}

	token, err := s.tokens.GenerateAccessToken(u)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, msgInternalFailure)
	}

	s.logger.Info("token issued", "user_id", u.ID)
	return token, nil
}

// rehash upgrades a verifier made with old parameters. Failure only costs
// another rehash attempt at the next login.
func (s *UserService) rehash(ctx context.Context, u *domain.User, password string) {
	verifier, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("password rehash failed", "user_id", u.ID, "error", err)
		return
	}
	u.PasswordVerifier = verifier
	if err := s.store.UpdateUser(ctx, u); err != nil {
		s.logger.Warn("password rehash not saved", "user_id", u.ID, "error", err)
	}
}

// Authenticate resolves an access token to the principal of an active user.
func (s *UserService) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return domain.Principal{}, domainerrors.Unauthorized(msgInvalidToken).WithCause(err)
	}

	u, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Principal{}, domainerrors.Unauthorized(msgInactiveOrGone)
	}
	if err != nil {
		return domain.Principal{}, translate(err)
	}
	if !u.IsActive {
		return domain.Principal{}, domainerrors.Unauthorized(msgInactiveOrGone)
	}
	return u.Principal(), nil
}

// Me returns the caller's account.
func (s *UserService) Me(ctx context.Context, p domain.Principal) (*domain.User, error) {
	if p.Anonymous() {
		return nil, domainerrors.Unauthorized(msgNotProvided)
	}
	u, err := s.store.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

// UpdateMe applies req to the caller's account.
func (s *UserService) UpdateMe(ctx context.Context, p domain.Principal, req UpdateUserRequest) (*domain.User, error) {
	u, err := s.Me(ctx, p)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		normalized := domain.NormalizeEmail(*req.Email)
		req.Email = &normalized
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Password != nil {
		if u.PasswordVerifier, err = s.hasher.Hash(*req.Password); err != nil {
			return nil, domainerrors.FieldError("password", err.Error())
		}
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.FieldError("email", msgEmailTaken).WithCause(err)
		}
		return nil, translate(err)
	}

	s.logger.Info("user updated",
		"user_id", u.ID,
		"password_changed", req.Password != nil,
	)
	return u, nil
}

// GetByEmail looks a user up by email. Used by operator tooling.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.store.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

// TokenFor issues an access token for an existing active user without a
// password check. Used by operator tooling.
func (s *UserService) TokenFor(ctx context.Context, email string) (string, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !u.IsActive {
		return "", domainerrors.Unauthorized(msgInactiveOrGone)
	}
	token, err := s.tokens.GenerateAccessToken(u)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, msgInternalFailure)
	}
	return token, nil
}

// DeleteUser removes the user with email together with everything they own.
func (s *UserService) DeleteUser(ctx context.Context, email string) error {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, u.ID); err != nil {
		return translate(err)
	}

	s.logger.Info("user deleted", "user_id", u.ID, "email", u.Email)
	return nil
}
