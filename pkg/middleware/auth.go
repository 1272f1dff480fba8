package middleware

import (
	"crypto/subtle"
	"net/http"

	"ticket-broker/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminBasicAuth protects the admin API with HTTP basic auth. The password
// is verified against a bcrypt hash from config, the username with a
// constant-time compare.
func AdminBasicAuth(config utils.AdminConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(config.User)) == 1
			passErr := bcrypt.CompareHashAndPassword([]byte(config.PasswordHash), []byte(pass))

			if !userMatch || passErr != nil {
				logger.Warn("Admin auth failed",
					zap.String("user", user),
					zap.String("ip", r.RemoteAddr),
				)
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				utils.ResponseUnauthorized(w, "Invalid credentials")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
