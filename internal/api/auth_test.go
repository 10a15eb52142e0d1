package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/config"

	"github.com/stretchr/testify/assert"
)

func authTestConfig() config.APIConfig {
	return config.APIConfig{
		Enabled: true,
		HTTP:    config.APIHTTPConfig{Enabled: true},
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			HeaderExtra:  "x-api-extra",
			APIKeys: []config.APIClientKey{
				{Key: "key-full", Extra: "extra-full", Name: "full"},
				{Key: "key-ro", Extra: "extra-ro", Name: "readonly", Permissions: []string{"read:events"}},
			},
		},
	}
}

func doAuth(t *testing.T, auth *HTTPAuth, method, path, key, extra string) *httptest.ResponseRecorder {
	t.Helper()

	handler := auth.Wrap(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	if extra != "" {
		req.Header.Set("x-api-extra", extra)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHTTPAuth(t *testing.T) {
	auth := NewHTTPAuth(authTestConfig())

	t.Run("MissingHeaders", func(t *testing.T) {
		rec := doAuth(t, auth, http.MethodGet, "/v1/events", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		rec := doAuth(t, auth, http.MethodGet, "/v1/events", "nope", "extra-full")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongExtra", func(t *testing.T) {
		rec := doAuth(t, auth, http.MethodGet, "/v1/events", "key-full", "wrong")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ValidKey", func(t *testing.T) {
		rec := doAuth(t, auth, http.MethodGet, "/v1/events", "key-full", "extra-full")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("PermissionGranted", func(t *testing.T) {
		rec := doAuth(t, auth, http.MethodGet, "/v1/events/1/capacity", "key-ro", "extra-ro")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		rec := doAuth(t, auth, http.MethodPost, "/v1/events", "key-ro", "extra-ro")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("HealthzBypassesAuth", func(t *testing.T) {
		rec := doAuth(t, auth, http.MethodGet, "/healthz", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("NoKeysConfiguredSkipsAuth", func(t *testing.T) {
		open := NewHTTPAuth(config.APIConfig{Auth: config.APIAuthConfig{Enabled: true}})
		rec := doAuth(t, open, http.MethodGet, "/v1/events", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHTTPAuthRateLimit(t *testing.T) {
	cfg := authTestConfig()
	cfg.RateLimit.RPS = 1
	cfg.RateLimit.Burst = 2
	auth := NewHTTPAuth(cfg)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := doAuth(t, auth, http.MethodGet, "/v1/events", "key-full", "extra-full")
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[3])
}

func TestRequiredPermission(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/v1/events", "read:events"},
		{http.MethodPost, "/v1/events", "write:events"},
		{http.MethodGet, "/v1/reservations/5", "read:reservations"},
		{http.MethodDelete, "/v1/reservations/5", "write:reservations"},
		{http.MethodPost, "/v1/buses", "write:buses"},
		{http.MethodPost, "/v1/comments", "write:comments"},
		{http.MethodPost, "/v1/sessions", ""},
		{http.MethodGet, "/healthz", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		assert.Equal(t, tt.want, requiredPermission(req), "%s %s", tt.method, tt.path)
	}
}
