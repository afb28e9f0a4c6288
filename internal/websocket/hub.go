// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

// Package websocket implements the realtime notification gateway: a
// connection registry with group membership derived from the authenticated
// identity, a fan-out publisher that reports delivery outcomes, and a
// keepalive heartbeat loop.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/firelinehq/fireline/internal/logging"
	"github.com/firelinehq/fireline/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Hub maintains the set of active clients and their group index, and fans
// messages out to audiences. Lifecycle events flow through the Register and
// Unregister channels and are applied by the run loop; sends are synchronous
// so callers get recipient counts back.
type Hub struct {
	clients map[*Client]bool
	groups  map[Group]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client

	sendBuffer int
	mu         sync.RWMutex
}

// NewHub creates a new Hub. sendBuffer sets the per-client outbound buffer;
// zero selects the default.
func NewHub(sendBuffer int) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		groups:     make(map[Group]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		sendBuffer: sendBuffer,
	}
}

// RunWithContext starts the hub with context support for graceful shutdown.
// This method is designed for use with suture supervision.
//
// When the context is canceled all connected clients are closed and the
// method returns ctx.Err(), so a supervisor restart begins from an empty
// registry without orphaned connections.
//
// Uses priority-based selection for predictable behavior when multiple
// channels are ready:
//   - Priority 1: context cancellation (shutdown)
//   - Priority 2: client lifecycle events (Register/Unregister)
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: check for shutdown (non-blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: handle client lifecycle events (non-blocking check)
		select {
		case client := <-h.Register:
			h.registerClient(client)
			continue
		case client := <-h.Unregister:
			h.unregisterClient(client)
			continue
		default:
			// No lifecycle events pending
		}

		// Wait for any event (blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

// registerClient admits a client and indexes its group memberships. A client
// is either fully admitted with all memberships set or not present at all;
// there is no partial state.
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	for _, group := range client.groups {
		members, ok := h.groups[group]
		if !ok {
			members = make(map[*Client]bool)
			h.groups[group] = members
		}
		members[client] = true
		metrics.WSGroupMembers.WithLabelValues(string(group)).Set(float64(len(members)))
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().
		Int("total_clients", total).
		Str("user_id", client.identity.UserID.String()).
		Str("role", string(client.identity.Role)).
		Msg("websocket client connected")
}

// unregisterClient removes a client and all its group bookkeeping.
// Idempotent no-op if the client is already gone.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		h.removeClientLocked(client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// removeClientLocked deletes a client from the registry and the group index.
// Caller must hold h.mu.
func (h *Hub) removeClientLocked(client *Client) {
	delete(h.clients, client)
	for _, group := range client.groups {
		members, ok := h.groups[group]
		if !ok {
			continue
		}
		delete(members, client)
		if len(members) == 0 {
			delete(h.groups, group)
			metrics.WSGroupMembers.DeleteLabelValues(string(group))
		} else {
			metrics.WSGroupMembers.WithLabelValues(string(group)).Set(float64(len(members)))
		}
	}
}

// SendToAll delivers a message to every connected client and returns the
// number of clients the send was attempted against. Clients with a full
// send buffer are dropped from the registry, matching the slow-consumer
// policy of the write pump.
func (h *Hub) SendToAll(message Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return h.sendToClientsLocked(clients, message)
}

// SendToGroup delivers a message to every connection in a group and returns
// the attempted recipient count. A group with no subscribers yields zero,
// not an error.
func (h *Hub) SendToGroup(group Group, message Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.groups[group]
	clients := make([]*Client, 0, len(members))
	for client := range members {
		clients = append(clients, client)
	}
	return h.sendToClientsLocked(clients, message)
}

// sendToClientsLocked fans a message out to clients in ID order. Caller must
// hold h.mu. Returns the number of successful buffer handoffs.
func (h *Hub) sendToClientsLocked(clients []*Client, message Message) int {
	// Sort by client ID for deterministic delivery order
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	sent := 0

	for _, client := range clients {
		select {
		case client.send <- message:
			sent++
			metrics.WSMessagesSent.Inc()
		default:
			// Buffer full or channel closed, mark for removal
			toRemove = append(toRemove, client)
			metrics.WSMessagesDropped.Inc()
		}
	}

	for _, client := range toRemove {
		close(client.send)
		h.removeClientLocked(client)
		logging.Warn().Uint64("client_id", client.id).Msg("dropped slow websocket client")
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}

	return sent
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GroupCount returns the current membership count of a group. Zero for a
// group with no subscribers.
func (h *Hub) GroupCount(group Group) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// logGracefulShutdown closes all clients and logs structured shutdown
// information. ctx.Err() is not logged as an error because cancellation is
// expected during graceful shutdown.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.ClientCount()
	h.closeAllClients()
	reason := getShutdownReason(ctx)

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// getShutdownReason determines the shutdown reason from the context error.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// closeAllClients closes all connected clients in ID order. Called during
// shutdown.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		h.removeClientLocked(client)
	}
	metrics.WSConnections.Set(0)
	logging.Info().Msg("closed all websocket clients during shutdown")
}
