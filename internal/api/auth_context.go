package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipeboxapp/recipebox-server/internal/domain"
	"github.com/recipeboxapp/recipebox-server/internal/service"
)

// 401 details.
const (
	msgNotProvided   = "Authentication credentials were not provided."
	msgNoCredentials = "Invalid token header. No credentials provided."
	msgNotFound      = "Not found."
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	principalKey ctxKey = "principal"
	authErrKey   ctxKey = "authError"
)

// authenticator resolves access tokens to principals.
type authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Principal, error)
}

var _ authenticator = (*service.UserService)(nil)

// authMiddleware resolves "Authorization: Bearer <token>" (or "Token <token>")
// into a principal stored in the request context. Requests without the
// header continue anonymously; a bad credential is remembered so handlers
// can report why authentication failed.
func authMiddleware(auth authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
			if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				ctx = context.WithValue(ctx, authErrKey, detailError(http.StatusUnauthorized, msgNoCredentials))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			p, err := auth.Authenticate(ctx, token)
			if err != nil {
				ctx = context.WithValue(ctx, authErrKey, toAPIError(err))
			} else {
				ctx = context.WithValue(ctx, principalKey, p)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requirePrincipal returns the authenticated caller, or the 401 explaining
// why there is none.
func requirePrincipal(ctx context.Context) (domain.Principal, error) {
	if p, ok := ctx.Value(principalKey).(domain.Principal); ok && !p.Anonymous() {
		return p, nil
	}
	if err, ok := ctx.Value(authErrKey).(*APIError); ok {
		return domain.Principal{}, err
	}
	return domain.Principal{}, detailError(http.StatusUnauthorized, msgNotProvided)
}

// requireAuth answers 401 for operations that declare a security requirement
// when the request carries no valid principal. It runs before huma reads
// parameters or the body.
func (s *Server) requireAuth(ctx huma.Context, next func(huma.Context)) {
	if op := ctx.Operation(); op == nil || len(op.Security) == 0 {
		next(ctx)
		return
	}

	if _, err := requirePrincipal(ctx.Context()); err != nil {
		apiErr := toAPIError(err)
		_ = huma.WriteErr(s.api, ctx, apiErr.status, apiErr.Detail, apiErr)
		return
	}
	next(ctx)
}
