package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/catalogsync/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ClientIP(r)))
	})
}

func TestAPIKeyAuth(t *testing.T) {
	secured := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}

	tests := []struct {
		name     string
		cfg      *config.SecurityConfig
		headers  map[string]string
		wantCode int
	}{
		{name: "auth disabled", cfg: &config.SecurityConfig{}, wantCode: http.StatusOK},
		{name: "missing key", cfg: secured, wantCode: http.StatusUnauthorized},
		{name: "invalid key", cfg: secured, headers: map[string]string{"X-API-Key": "nope"}, wantCode: http.StatusForbidden},
		{name: "valid header key", cfg: secured, headers: map[string]string{"X-API-Key": "k2"}, wantCode: http.StatusOK},
		{name: "valid bearer key", cfg: secured, headers: map[string]string{"Authorization": "Bearer k1"}, wantCode: http.StatusOK},
		{name: "empty bearer", cfg: secured, headers: map[string]string{"Authorization": "Bearer "}, wantCode: http.StatusUnauthorized},
		{name: "no keys configured", cfg: &config.SecurityConfig{RequireAPIKey: true}, headers: map[string]string{"X-API-Key": "k1"}, wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			APIKeyAuth(tt.cfg)(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.Contains(t, rec.Body.String(), `"code":"AUTH_`)
			}
		})
	}
}

func TestTrustedRealIP(t *testing.T) {
	mw := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.5", "not-a-cidr"})

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "trusted proxy with real ip", remoteAddr: "10.1.2.3:5000", headers: map[string]string{"X-Real-IP": "203.0.113.7"}, want: "203.0.113.7"},
		{name: "trusted bare ip with forwarded chain", remoteAddr: "192.168.1.5:80", headers: map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.1"}, want: "198.51.100.2"},
		{name: "untrusted client spoofing", remoteAddr: "203.0.113.9:4000", headers: map[string]string{"X-Real-IP": "1.1.1.1"}, want: "203.0.113.9"},
		{name: "garbage header ignored", remoteAddr: "10.1.2.3:5000", headers: map[string]string{"X-Real-IP": "localhost"}, want: "10.1.2.3"},
		{name: "no headers", remoteAddr: "10.1.2.3:5000", want: "10.1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			mw(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		status    int
		wantLevel string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusConflict, "level=WARN"},
		{http.StatusBadGateway, "level=ERROR"},
	}

	for _, tt := range tests {
		buf.Reset()
		h := Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte("body"))
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/media/export", nil))

		out := buf.String()
		assert.Contains(t, out, tt.wantLevel)
		assert.Contains(t, out, "path=/api/media/export")
		assert.Contains(t, out, "bytes=4")
	}
}
