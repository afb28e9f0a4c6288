// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package api

import (
	"net/http"
	"time"
)

// healthStatus is the payload for the health endpoints.
type healthStatus struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Connections   int    `json:"ws_connections"`
	StoreReady    bool   `json:"store_ready"`
}

// Health returns overall service health: store reachability plus hub
// connection count.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := healthStatus{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		StoreReady:    h.storeReady(r),
	}
	if h.hub != nil {
		status.Connections = h.hub.ClientCount()
	}
	if !status.StoreReady {
		status.Status = "degraded"
		rw.writeJSON(http.StatusServiceUnavailable, APIResponse{Success: false, Data: status})
		return
	}

	rw.Success(status)
}

// HealthLive is the liveness probe. It answers as long as the process is
// serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe. Fails until the store answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if !h.storeReady(r) {
		rw.ServiceUnavailable("Store not ready")
		return
	}

	rw.Success(map[string]string{"status": "ready"})
}

// storeReady probes the store with a cheap read.
func (h *Handler) storeReady(r *http.Request) bool {
	if h.store == nil {
		return false
	}
	_, err := h.store.Settings.Get(r.Context())
	return err == nil
}
