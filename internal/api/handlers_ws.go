// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package api

import (
	"net/http"

	"github.com/firelinehq/fireline/internal/auth"
	"github.com/firelinehq/fireline/internal/logging"
	"github.com/firelinehq/fireline/internal/metrics"
	"github.com/firelinehq/fireline/internal/websocket"
)

// WebSocket upgrades the connection and registers the client with the
// notification hub.
//
// The token is carried in the `token` query parameter because browser
// WebSocket clients cannot set an Authorization header. A missing or
// invalid token rejects the request before the upgrade, so unauthorized
// connections never reach the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		NewResponseWriter(w, r).ServiceUnavailable("WebSocket service unavailable")
		return
	}

	token, err := auth.TokenFromRequest(r)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("missing_token").Inc()
		NewResponseWriter(w, r).Unauthorized("Authentication token required")
		return
	}

	claims, err := h.jwtManager.ValidateToken(token)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("invalid_token").Inc()
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket connection rejected: invalid token")
		NewResponseWriter(w, r).Unauthorized("Invalid authentication token")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		logging.Ctx(r.Context()).Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	identity := websocket.Identity{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		StationID: claims.StationID,
	}

	client := websocket.NewClient(h.hub, conn, identity)
	h.hub.Register <- client
	client.Start()
}
