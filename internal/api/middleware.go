package api

import (
	"net/http"

	"github.com/vrsandeep/tvguide/internal/auth"
)

// AdminOnlyMiddleware guards admin routes with HTTP Basic auth against the
// configured admin account. When no password hash is configured the admin
// surface is disabled and every request is refused.
func (s *Server) AdminOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := s.app.Config()
		if cfg.Admin.PasswordHash == "" {
			RespondWithError(w, http.StatusForbidden, "Forbidden: admin access is not configured")
			return
		}

		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="tvguide admin"`)
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !auth.CheckCredentials(username, password, cfg.Admin.Username, cfg.Admin.PasswordHash) {
			RespondWithError(w, http.StatusForbidden, "Forbidden: Administrator access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
