package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"chatrelay/internal/configs"
	"chatrelay/internal/pkg/auth/jwt"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/limiter"
)

type wsErrorResponse struct {
	Code int `json:"code"`
}

func wsDeps() *AppDeps {
	return &AppDeps{Config: &configs.AppConfig{JWTSecret: "test-secret"}}
}

func TestHandleWebSocketRejectsInvalidToken(t *testing.T) {
	handlerFn := HandleWebSocket(websocket.Upgrader{}, limiter.NewIPRateLimiter(rate.Limit(1), 5), wsDeps())

	req := httptest.NewRequest(http.MethodGet, "/ws?token=not.a.token", nil)
	rec := httptest.NewRecorder()
	handlerFn(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body wsErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, errs.ErrTokenInvalid, body.Code)
}

func TestHandleWebSocketRejectsWrongSecretToken(t *testing.T) {
	handlerFn := HandleWebSocket(websocket.Upgrader{}, limiter.NewIPRateLimiter(rate.Limit(1), 5), wsDeps())

	token, err := jwt.GenerateToken("alice", "other-secret", jwt.IdentityExpiration)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	rec := httptest.NewRecorder()
	handlerFn(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleWebSocketRateLimited(t *testing.T) {
	// Zero rate, zero burst: the very first connection attempt is throttled.
	handlerFn := HandleWebSocket(websocket.Upgrader{}, limiter.NewIPRateLimiter(rate.Limit(0), 0), wsDeps())

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	handlerFn(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body wsErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, errs.ErrRateLimitExceeded, body.Code)
}
