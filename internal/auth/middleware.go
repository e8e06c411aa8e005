package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ms-gallery/internal/apperr"
	"ms-gallery/internal/logger"
	"ms-gallery/internal/models"
	"ms-gallery/internal/utils"
)

type contextKey string

const principalKey contextKey = "principal"

// Verifier turns a raw bearer token into a principal.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*models.Principal, error)
}

// Middleware rejects requests without a verifiable bearer token. Clients get
// the same generic 401 whatever the reason; the reason is only logged.
func Middleware(verifier Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				log.LogSecurity("AUTH_MISSING", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				unauthorized(w)
				return
			}

			principal, err := verifier.Verify(r.Context(), rawToken)
			if err != nil {
				log.LogSecurity("AUTH_INVALID", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("Unauthorized", apperr.ErrUnauthorized.Error()))
}

func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*models.Principal)
	return p, ok && p != nil && p.Subject != ""
}

// RequirePrincipal returns apperr.ErrUnauthorized when ctx carries no principal.
func RequirePrincipal(ctx context.Context) (*models.Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	return p, nil
}

// ErrInvalidToken wraps every verification failure.
var ErrInvalidToken = errors.New("invalid token")
