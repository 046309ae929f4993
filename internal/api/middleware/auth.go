package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/newthinker/insight/internal/api/response"
	"github.com/newthinker/insight/internal/core"
)

// APIKeyHeader carries the API key; "Authorization: Bearer <key>" is also
// accepted.
const APIKeyHeader = "X-API-Key"

var errNoKey = errors.New("api key required in " + APIKeyHeader + " or Authorization header")

// APIKeyAuth rejects requests that do not present apiKey. An empty apiKey
// disables the check.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	want := []byte(apiKey)
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := presentedKey(r)
			if got == "" {
				response.Fail(w, core.WrapError(core.ErrUnauthorized, errNoKey))
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				response.Fail(w, core.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func presentedKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
