package middleware

import (
	"net/http"
	"strings"

	"canopy/internal/auth"
	"canopy/internal/httputil"
)

// Auth validates the Bearer token on every request and stores the user and
// tenant identity in the request context. Health checks pass through
// unauthenticated so load balancers can probe without credentials.
func Auth(verifier auth.JWTVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, httputil.WithIdentity(r, claims.GetUserID(), claims.TenantID))
		})
	}
}
