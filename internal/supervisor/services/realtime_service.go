// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package services

import (
	"context"
)

// ContextRunner matches components whose main loop is RunWithContext,
// which is already the suture.Service pattern. Satisfied by both
// *websocket.Hub and *websocket.Keepalive.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// HubService wraps the WebSocket hub as a supervised service.
type HubService struct {
	hub  ContextRunner
	name string
}

// NewHubService creates a new hub service wrapper.
func NewHubService(hub ContextRunner) *HubService {
	return &HubService{
		hub:  hub,
		name: "websocket-hub",
	}
}

// Serve implements suture.Service. The hub processes registrations and
// broadcasts until the context is canceled, then closes all clients.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for supervisor logging.
func (s *HubService) String() string {
	return s.name
}

// KeepaliveService wraps the keepalive loop as a supervised service.
// On restart the loop starts a fresh ticker, so a crash never leaves a
// stale interval behind.
type KeepaliveService struct {
	keepalive ContextRunner
	name      string
}

// NewKeepaliveService creates a new keepalive service wrapper.
func NewKeepaliveService(keepalive ContextRunner) *KeepaliveService {
	return &KeepaliveService{
		keepalive: keepalive,
		name:      "keepalive",
	}
}

// Serve implements suture.Service.
func (s *KeepaliveService) Serve(ctx context.Context) error {
	return s.keepalive.RunWithContext(ctx)
}

// String implements fmt.Stringer for supervisor logging.
func (s *KeepaliveService) String() string {
	return s.name
}
