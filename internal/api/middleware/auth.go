package middleware

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/agenda/internal/api/problem"
	"github.com/Togather-Foundation/agenda/internal/auth"
)

const claimsKey contextKey = "authClaims"

// TokenValidator is satisfied by *auth.JWTManager.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// RequireToken rejects requests without a valid bearer token with 401 and
// stores the verified claims in the context otherwise. It belongs inside the
// mux, on the routes it guards.
func RequireToken(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err == nil {
				var claims *auth.Claims
				claims, err = validator.Validate(token)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
					return
				}
			}

			w.Header().Set("WWW-Authenticate", `Bearer realm="agenda"`)
			problem.Write(w, r, http.StatusUnauthorized, problem.TitleUnauthorized, err, "")
		})
	}
}

// ClaimsFromContext returns the claims stored by RequireToken.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}
