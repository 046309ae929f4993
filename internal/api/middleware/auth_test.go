package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/insight/internal/api/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		configured string
		header     map[string]string
		wantStatus int
	}{
		{"header key", "secret-key", map[string]string{"X-API-Key": "secret-key"}, http.StatusNoContent},
		{"bearer token", "secret-key", map[string]string{"Authorization": "Bearer secret-key"}, http.StatusNoContent},
		{"lowercase bearer", "secret-key", map[string]string{"Authorization": "bearer secret-key"}, http.StatusNoContent},
		{"missing", "secret-key", nil, http.StatusUnauthorized},
		{"wrong key", "secret-key", map[string]string{"X-API-Key": "guess"}, http.StatusUnauthorized},
		{"basic scheme", "secret-key", map[string]string{"Authorization": "Basic secret-key"}, http.StatusUnauthorized},
		{"disabled", "", nil, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/watchlist", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			APIKeyAuth(tt.configured)(ok).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				var resp response.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
			}
		})
	}
}
