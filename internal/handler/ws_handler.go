/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting, resolving
the optional identity token, upgrading the HTTP connection to WebSocket, and initiating the
session lifecycle.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/pkg/auth/jwt"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/limiter"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// A connection may carry a signed identity token in the `token` query parameter; if it
// parses, the session is announced immediately on attach instead of waiting for an
// ANNOUNCE frame. A connection without a token starts unclaimed; a token that fails
// validation rejects the upgrade outright so the client can refresh its credentials
// instead of silently losing its identity.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			rateLimitErr := errs.NewError(errs.ErrRateLimitExceeded)
			resp.RespondError(w, r, rateLimitErr)
			return
		}

		identity := ""
		if token := r.URL.Query().Get("token"); token != "" {
			payload, parseErr := jwt.ParseToken(token, deps.Config.JWTSecret)
			if parseErr != nil {
				logx.Warn("WebSocket connection rejected: Invalid identity token.", "ip", ip)
				resp.RespondError(w, r, errs.NewError(errs.ErrTokenInvalid))
				return
			}
			identity = payload.Identity
		}

		logx.Info("Attempting to upgrade connection", "ip", ip, "identity", identity)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		session := chat.NewSession(deps.Hub, conn, identity)

		go session.WritePump()

		logx.Info("WebSocket connection established and session attached", "identity", identity)

		deps.Hub.Register(session)

		session.ReadPump()
	}
}
