package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"accmarket/internal/infrastructure/firebase"
	"accmarket/internal/infrastructure/ratelimit"
	"accmarket/pkg/logger"
)

type fakeVerifier map[string]*auth.Token

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	tok, ok := f[idToken]
	if !ok {
		return nil, fmt.Errorf("token %q is not valid", idToken)
	}
	return tok, nil
}

var tokens = fakeVerifier{
	"seller-token": {UID: "seller-1", Claims: map[string]interface{}{}},
	"admin-token":  {UID: "admin-1", Claims: map[string]interface{}{firebase.RoleClaim: firebase.RoleAdmin}},
}

func whoami(c echo.Context) error {
	uid, _ := c.Get(ContextUID).(string)
	role, _ := c.Get(ContextRole).(string)
	return c.JSON(http.StatusOK, map[string]string{"uid": uid, "role": role})
}

func serve(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestAuthenticate(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddleware(tokens)
	e.GET("/me", whoami, m.Authenticate)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic seller-token", http.StatusUnauthorized},
		{"empty token", "Bearer  ", http.StatusUnauthorized},
		{"unknown token", "Bearer forged", http.StatusUnauthorized},
		{"valid token", "Bearer seller-token", http.StatusOK},
		{"scheme is case insensitive", "bearer seller-token", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodGet, "/me", tt.header)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
			}
		})
	}

	rec := serve(e, http.MethodGet, "/me", "Bearer admin-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"uid":"admin-1","role":"admin"}`, rec.Body.String())
}

func TestAdminOnly(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddleware(tokens)
	e.GET("/admin", whoami, m.Authenticate, AdminOnly)
	e.GET("/unguarded", whoami, AdminOnly)

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/admin", "Bearer admin-token").Code)

	rec := serve(e, http.MethodGet, "/admin", "Bearer seller-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/unguarded", "").Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, fmt.Errorf("redis down")
}

type keyRecorder struct {
	keys []string
}

func (k *keyRecorder) Allow(_ context.Context, key string) (ratelimit.Decision, error) {
	k.keys = append(k.keys, key)
	return ratelimit.Decision{Allowed: true, Remaining: 9}, nil
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	e.GET("/ping", whoami, RateLimit(ratelimit.NewMemoryLimiter(2, time.Minute)))

	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodGet, "/ping", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, fmt.Sprint(1-i), rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := serve(e, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, "TOO_MANY_REQUESTS", errorCode(t, rec))
}

func TestRateLimitKeysByUser(t *testing.T) {
	e := echo.New()
	rec := &keyRecorder{}
	m := NewAuthMiddleware(tokens)
	e.GET("/ping", whoami, RateLimit(rec))
	e.GET("/me", whoami, m.Authenticate, RateLimit(rec))

	serve(e, http.MethodGet, "/ping", "")
	serve(e, http.MethodGet, "/me", "Bearer seller-token")
	require.Len(t, rec.keys, 2)
	assert.Regexp(t, `^ip:`, rec.keys[0])
	assert.Equal(t, "user:seller-1", rec.keys[1])
}

func TestRateLimitFailsOpen(t *testing.T) {
	e := echo.New()
	e.GET("/ping", whoami, RateLimit(failingLimiter{}))
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/ping", "").Code)
}

func TestRequestLoggerKeepsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(zap.NewNop()) })

	e := echo.New()
	e.Use(RequestLogger)
	e.GET("/ok", whoami)
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot)
	})

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/ok", "").Code)
	assert.Equal(t, http.StatusTeapot, serve(e, http.MethodGet, "/boom", "").Code)

	served := logs.FilterMessage("request served").All()
	require.Len(t, served, 1)
	assert.Equal(t, "/ok", served[0].ContextMap()["path"])

	rejected := logs.FilterMessage("request rejected").All()
	require.Len(t, rejected, 1)
	assert.EqualValues(t, http.StatusTeapot, rejected[0].ContextMap()["status"])
}

func TestIdentify(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddleware(tokens)
	e.GET("/me", whoami, m.Identify)
	e.GET("/guarded", whoami, m.Identify, m.Authenticate)

	rec := serve(e, http.MethodGet, "/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"uid":"","role":""}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/me", "Bearer forged")
	require.Equal(t, http.StatusOK, rec.Code, "invalid tokens are ignored, not rejected")
	assert.JSONEq(t, `{"uid":"","role":""}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/me", "Bearer seller-token")
	assert.JSONEq(t, `{"uid":"seller-1","role":""}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/guarded", "Bearer seller-token").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/guarded", "Bearer forged").Code)
}
