package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:      "createUser",
		Method:           http.MethodPost,
		Path:             userPrefix + "/create",
		Summary:          "Register",
		Description:      "Creates an active user account",
		Tags:             []string{"Users"},
		DefaultStatus:    http.StatusCreated,
		SkipValidateBody: true,
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID:      "createToken",
		Method:           http.MethodPost,
		Path:             userPrefix + "/token",
		Summary:          "Obtain token",
		Description:      "Exchanges email and password for an access token. Rate limited per client IP.",
		Tags:             []string{"Users"},
		SkipValidateBody: true,
		Middlewares:      huma.Middlewares{s.rateLimitByIP},
	}, s.handleCreateToken)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMe",
		Method:      http.MethodGet,
		Path:        userPrefix + "/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's account",
		Tags:        []string{"Users"},
		Security:    bearer,
	}, s.handleGetMe)

	huma.Register(s.api, huma.Operation{
		OperationID:      "updateMe",
		Method:           http.MethodPatch,
		Path:             userPrefix + "/me",
		Summary:          "Update current user",
		Description:      "Updates the authenticated user's email, name, or password",
		Tags:             []string{"Users"},
		Security:         bearer,
		SkipValidateBody: true,
	}, s.handleUpdateMe)
}

// === DTOs ===

// CreateUserRequest is the request body for registration.
type CreateUserRequest struct {
	Email    string `json:"email" doc:"Email address, also the login"`
	Password string `json:"password" minLength:"5" doc:"Password"`
	Name     string `json:"name,omitempty" doc:"Display name"`
}

// CreateUserInput wraps the registration request for Huma.
type CreateUserInput struct {
	Body CreateUserRequest `required:"false"`
}

// TokenRequest is the request body for obtaining a token.
type TokenRequest struct {
	Email    string `json:"email" doc:"Email address"`
	Password string `json:"password" doc:"Password"`
}

// TokenInput wraps the token request for Huma.
type TokenInput struct {
	Body TokenRequest `required:"false"`
}

// TokenResponse carries an access token.
type TokenResponse struct {
	Token string `json:"token" doc:"Access token for the Authorization header"`
}

// TokenOutput wraps the token response for Huma.
type TokenOutput struct {
	Body TokenResponse
}

// UpdateMeRequest is the request body for updating the current user.
type UpdateMeRequest struct {
	Email    *string `json:"email,omitempty" doc:"New email address"`
	Password *string `json:"password,omitempty" minLength:"5" doc:"New password"`
	Name     *string `json:"name,omitempty" doc:"New display name"`
}

// UpdateMeInput wraps the update request for Huma.
type UpdateMeInput struct {
	Body UpdateMeRequest `required:"false"`
}

// UserResponse contains user data in API responses. The password is never returned.
type UserResponse struct {
	Email string `json:"email" doc:"Email address"`
	Name  string `json:"name" doc:"Display name"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

// === Handlers ===

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
	u, err := s.services.Users.CreateUser(ctx, service.CreateUserRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &UserOutput{Body: userResponse(u)}, nil
}

func (s *Server) handleCreateToken(ctx context.Context, input *TokenInput) (*TokenOutput, error) {
	token, err := s.services.Users.IssueToken(ctx, service.TokenRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &TokenOutput{Body: TokenResponse{Token: token}}, nil
}

func (s *Server) handleGetMe(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.services.Users.Me(ctx, p)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &UserOutput{Body: userResponse(u)}, nil
}

func (s *Server) handleUpdateMe(ctx context.Context, input *UpdateMeInput) (*UserOutput, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.services.Users.UpdateMe(ctx, p, service.UpdateUserRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Name:     input.Body.Name,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return &UserOutput{Body: userResponse(u)}, nil
}

func userResponse(u *domain.User) UserResponse {
	return UserResponse{Email: u.Email, Name: u.Name}
}
