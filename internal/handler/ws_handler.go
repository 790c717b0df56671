/*
Package handler provides the HTTP handler function for WebSocket connection
upgrading and initialization.

This file contains the HandleWebSocket function: it rate-limits connection
attempts, authenticates the credential token before upgrading, upgrades the
connection, admits the client into the hub, and runs the client lifecycle.
*/
package handler

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/aryankinha/chattingAPP/internal/app/chat"
	"github.com/aryankinha/chattingAPP/internal/pkg/auth/jwt"
	"github.com/aryankinha/chattingAPP/internal/pkg/errs"
	"github.com/aryankinha/chattingAPP/internal/pkg/limiter"
	"github.com/aryankinha/chattingAPP/internal/pkg/logx"
	"github.com/aryankinha/chattingAPP/internal/pkg/metrics"
	"github.com/aryankinha/chattingAPP/internal/pkg/resp"
)

// connectionToken extracts the credential token from the request. Browsers
// cannot set headers on WebSocket dials, so the query parameter is the
// primary channel; the Authorization header is accepted for non-browser
// clients.
func connectionToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	return ""
}

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket
// connection requests. Authentication happens before the upgrade, so a
// rejected credential is answered with a plain HTTP error and never
// consumes a connection slot.
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
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		payload, err := jwt.ParseToken(connectionToken(r), deps.Config.JWTSecret)
		if err != nil {
			var code int
			switch {
			case errors.Is(err, jwt.ErrTokenMissing):
				code = errs.ErrTokenMissing
			case errors.Is(err, jwt.ErrTokenExpired):
				code = errs.ErrTokenExpired
			default:
				code = errs.ErrTokenInvalid
			}

			logx.Warn("WebSocket connection rejected: Credential rejected.", "reason", err.Error())
			resp.RespondError(w, r, errs.NewError(code))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, conn, payload.ID)

		if err := deps.Hub.Admit(r.Context(), client); err != nil {
			logx.Error(err, "Failed to admit WebSocket connection", "identity", payload.ID)
			conn.Close()
			return
		}

		metrics.ConnOpened()

		go client.WritePump()

		logx.Info("WebSocket connection established and client registered",
			"identity", payload.ID,
			"conn_id", client.ConnID(),
		)

		client.ReadPump()

		metrics.ConnClosed()
	}
}
