package middleware

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// TokenHeader carries the shared secret for operational endpoints.
const TokenHeader = "X-Auth-Token"

// RequireToken rejects requests whose X-Auth-Token does not match the bcrypt
// hash. An empty hash disables the protected routes entirely.
func RequireToken(hash []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(hash) == 0 {
				http.Error(w, "Not found", http.StatusNotFound)
				return
			}
			token := r.Header.Get(TokenHeader)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if err := bcrypt.CompareHashAndPassword(hash, []byte(token)); err != nil {
				logger.Warn("rejected token", "path", r.URL.Path, "remote", RealIP(r))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
