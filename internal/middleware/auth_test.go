package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apierrors "github.com/Adolanium/SWLic/internal/errors"
)

func TestBasicAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	checks := map[string]BasicAuthFunc{
		"fixed":  FixedBasicAuthFunc("admin", "s3cret"),
		"hashed": HashedBasicAuthFunc("admin", string(hash)),
	}

	tests := []struct {
		name       string
		path       string
		user, pass string
		sendAuth   bool
		wantStatus int
	}{
		{"valid credentials", "/api/check/X", "admin", "s3cret", true, http.StatusOK},
		{"wrong password", "/api/check/X", "admin", "nope", true, http.StatusUnauthorized},
		{"wrong user", "/api/check/X", "root", "s3cret", true, http.StatusUnauthorized},
		{"no credentials", "/check", "", "", false, http.StatusUnauthorized},
		{"health is open", "/api/health", "", "", false, http.StatusOK},
		{"health subpath is open", "/api/health/ready", "", "", false, http.StatusOK},
		{"metrics is open", "/metrics", "", "", false, http.StatusOK},
		{"prefix without slash is exact", "/metricsx", "", "", false, http.StatusUnauthorized},
	}

	for name, check := range checks {
		h := RequestID(BasicAuth(check, `SW"Lic`, testLogger(), testErrorHandler(), "/api/health", "/api/health/", "/metrics")(okHandler()))

		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, tt.path, nil)
				if tt.sendAuth {
					req.SetBasicAuth(tt.user, tt.pass)
				}
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)

				assert.Equal(t, tt.wantStatus, rec.Code)
				if tt.wantStatus == http.StatusUnauthorized {
					assert.Equal(t, `Basic realm="SWLic", charset="UTF-8"`, rec.Header().Get("WWW-Authenticate"))
					assert.Equal(t, apierrors.TypeUnauthorized, decodeProblem(t, rec.Body)["type"])
				}
			})
		}
	}
}

func TestBasicAuth_NilCheckRejects(t *testing.T) {
	h := BasicAuth(nil, "SWLic", testLogger(), testErrorHandler())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/check", nil)
	req.SetBasicAuth("admin", "admin")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
