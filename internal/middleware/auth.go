package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apierrors "github.com/Adolanium/SWLic/internal/errors"
)

// BasicAuthFunc reports whether a username and password are accepted
type BasicAuthFunc func(username, password string) bool

// FixedBasicAuthFunc accepts exactly one username and password
func FixedBasicAuthFunc(username, password string) BasicAuthFunc {
	return func(user, pass string) bool {
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		return userOK && passOK
	}
}

// HashedBasicAuthFunc accepts one username whose password matches a bcrypt hash
func HashedBasicAuthFunc(username, passwordHash string) BasicAuthFunc {
	hash := []byte(passwordHash)
	return func(user, pass string) bool {
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		// Always run bcrypt so a wrong username costs as much as a wrong password
		passOK := bcrypt.CompareHashAndPassword(hash, []byte(pass)) == nil
		return userOK && passOK
	}
}

// BasicAuth challenges requests without valid credentials. Paths listed in
// skip (exact match or prefix ending in "/") pass through unauthenticated.
func BasicAuth(check BasicAuthFunc, realm string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, skip ...string) func(next http.Handler) http.Handler {
	challenge := `Basic realm="` + sanitizeRealm(realm) + `", charset="UTF-8"`

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipped(r.URL.Path, skip) {
				next.ServeHTTP(w, r)
				return
			}

			user, pass, ok := r.BasicAuth()
			if ok && check != nil && check(user, pass) {
				next.ServeHTTP(w, r)
				return
			}

			logger.WarnContext(r.Context(), "authentication failed",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"credentials_sent", ok,
			)

			w.Header().Set("WWW-Authenticate", challenge)
			errorHandler.HandleError(w, r, apierrors.ErrUnauthorized)
		})
	}
}

func skipped(path string, skip []string) bool {
	for _, s := range skip {
		if path == s || (strings.HasSuffix(s, "/") && strings.HasPrefix(path, s)) {
			return true
		}
	}
	return false
}

func sanitizeRealm(realm string) string {
	realm = strings.TrimSpace(realm)
	return strings.NewReplacer("\r", "", "\n", "", "\"", "").Replace(realm)
}
