// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package websocket

import (
	"context"
	"time"

	"github.com/firelinehq/fireline/internal/logging"
	"github.com/firelinehq/fireline/internal/metrics"
)

// DefaultKeepaliveInterval is the heartbeat period used when none is
// configured.
const DefaultKeepaliveInterval = 60 * time.Second

// Keepalive periodically broadcasts a server_keepalive heartbeat so
// intermediary infrastructure does not consider idle connections dead.
// Ticks with zero connections skip the send entirely.
type Keepalive struct {
	hub      *Hub
	interval time.Duration
}

// NewKeepalive creates a keepalive loop on the hub. A non-positive interval
// selects the default.
func NewKeepalive(hub *Hub, interval time.Duration) *Keepalive {
	if interval <= 0 {
		interval = DefaultKeepaliveInterval
	}
	return &Keepalive{hub: hub, interval: interval}
}

// Interval returns the configured heartbeat period.
func (k *Keepalive) Interval() time.Duration {
	return k.interval
}

// RunWithContext runs the heartbeat loop until the context is canceled.
// The ticker is created per call and stopped on return, so a supervisor
// restart never leaves a duplicate timer running.
func (k *Keepalive) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	logging.Info().
		Dur("interval", k.interval).
		Msg("keepalive loop started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().
				Str("component", "keepalive").
				Str("reason", string(getShutdownReason(ctx))).
				Msg("keepalive loop stopped")
			return ctx.Err()

		case <-ticker.C:
			k.Tick()
		}
	}
}

// Tick broadcasts one heartbeat, or skips it when nobody is connected.
func (k *Keepalive) Tick() {
	if k.hub.ClientCount() == 0 {
		metrics.KeepalivesSkipped.Inc()
		return
	}

	sent := k.hub.SendToAll(Message{
		Type: EventServerKeepalive,
		Data: KeepaliveData{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Message:   "Server connection is active",
		},
	})

	metrics.KeepalivesSent.Inc()
	logging.Debug().Int("recipients", sent).Msg("sent server keepalive")
}
