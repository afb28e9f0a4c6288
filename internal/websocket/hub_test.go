// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package websocket

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/firelinehq/fireline/internal/logging"
	"github.com/firelinehq/fireline/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub creates a hub and runs it until the test ends.
func setupHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(10 * time.Millisecond)
	return hub
}

// testIdentity builds an identity for a role, with a station for
// station-scoped roles.
func testIdentity(role models.Role, stationID *uuid.UUID) Identity {
	return Identity{
		UserID:    uuid.New(),
		Username:  "tester",
		Role:      role,
		StationID: stationID,
	}
}

// createTestClient creates a client without a real connection.
func createTestClient(hub *Hub, identity Identity) *Client {
	return &Client{
		id:       clientIDCounter.Add(1),
		hub:      hub,
		send:     make(chan Message, 8),
		identity: identity,
		groups:   GroupsForIdentity(identity),
	}
}

// registerClient registers a client and waits for the run loop to apply it.
func registerClient(hub *Hub, client *Client) {
	hub.Register <- client
	time.Sleep(20 * time.Millisecond)
}

func TestNewHub(t *testing.T) {
	hub := NewHub(0)

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}
	if hub.clients == nil || hub.groups == nil {
		t.Error("registry maps not initialized")
	}
	if hub.Register == nil || hub.Unregister == nil {
		t.Error("lifecycle channels not initialized")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}
}

func TestHub_RegisterDerivesGroups(t *testing.T) {
	hub := setupHub(t)
	stationID := uuid.New()
	identity := testIdentity(models.RoleStationDispatcher, &stationID)

	client := createTestClient(hub, identity)
	registerClient(hub, client)

	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", hub.ClientCount())
	}
	if got := hub.GroupCount(StationGroup(stationID)); got != 1 {
		t.Errorf("station group count = %d, want 1", got)
	}
	if got := hub.GroupCount(RoleGroup(models.RoleStationDispatcher)); got != 1 {
		t.Errorf("role group count = %d, want 1", got)
	}
	if got := hub.GroupCount(UserGroup(identity.UserID)); got != 1 {
		t.Errorf("user group count = %d, want 1", got)
	}
}

func TestHub_CentralDispatcherJoinsNoStationGroup(t *testing.T) {
	hub := setupHub(t)
	stationID := uuid.New()

	// Station ID on a non-station-scoped role must not create a station
	// membership.
	identity := testIdentity(models.RoleCentralDispatcher, &stationID)
	client := createTestClient(hub, identity)
	registerClient(hub, client)

	if got := hub.GroupCount(StationGroup(stationID)); got != 0 {
		t.Errorf("station group count = %d, want 0", got)
	}
	if got := hub.GroupCount(RoleGroup(models.RoleCentralDispatcher)); got != 1 {
		t.Errorf("role group count = %d, want 1", got)
	}
}

func TestHub_UnregisterCleansGroups(t *testing.T) {
	hub := setupHub(t)
	stationID := uuid.New()
	client := createTestClient(hub, testIdentity(models.RoleStationDispatcher, &stationID))
	registerClient(hub, client)

	hub.Unregister <- client
	time.Sleep(20 * time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}
	if got := hub.GroupCount(StationGroup(stationID)); got != 0 {
		t.Errorf("station group count = %d, want 0", got)
	}

	// Unregistering again is an idempotent no-op.
	hub.Unregister <- client
	time.Sleep(20 * time.Millisecond)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount after double unregister = %d, want 0", hub.ClientCount())
	}
}

func TestHub_ReconnectSameGroups(t *testing.T) {
	hub := setupHub(t)
	stationID := uuid.New()
	identity := testIdentity(models.RoleStationDispatcher, &stationID)

	first := createTestClient(hub, identity)
	registerClient(hub, first)
	before := GroupsForIdentity(first.identity)

	hub.Unregister <- first
	time.Sleep(20 * time.Millisecond)

	// A reconnect with the same identity lands in the identical group set.
	second := createTestClient(hub, identity)
	registerClient(hub, second)
	after := GroupsForIdentity(second.identity)

	if len(before) != len(after) {
		t.Fatalf("group count changed across reconnect: %d != %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("group %d = %q, want %q", i, after[i], before[i])
		}
	}
	for _, g := range after {
		if got := hub.GroupCount(g); got != 1 {
			t.Errorf("GroupCount(%q) = %d, want 1", g, got)
		}
	}
}

func TestHub_SendToAllCounts(t *testing.T) {
	hub := setupHub(t)

	c1 := createTestClient(hub, testIdentity(models.RoleCentralDispatcher, nil))
	c2 := createTestClient(hub, testIdentity(models.RoleAdmin, nil))
	registerClient(hub, c1)
	registerClient(hub, c2)

	sent := hub.SendToAll(Message{Type: EventFireCreated})
	if sent != 2 {
		t.Errorf("sent = %d, want 2", sent)
	}

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.send:
			if msg.Type != EventFireCreated {
				t.Errorf("msg.Type = %q, want fireCreated", msg.Type)
			}
		default:
			t.Error("client did not receive broadcast")
		}
	}
}

func TestHub_SendToGroupScoping(t *testing.T) {
	hub := setupHub(t)
	station5 := uuid.New()
	station6 := uuid.New()

	in := createTestClient(hub, testIdentity(models.RoleStationDispatcher, &station5))
	out := createTestClient(hub, testIdentity(models.RoleStationDispatcher, &station6))
	registerClient(hub, in)
	registerClient(hub, out)

	sent := hub.SendToGroup(StationGroup(station5), Message{Type: EventFireStatusUpdate})
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}

	if len(in.send) != 1 {
		t.Errorf("station_5 client received %d messages, want 1", len(in.send))
	}
	if len(out.send) != 0 {
		t.Errorf("station_6 client received %d messages, want 0", len(out.send))
	}
}

func TestHub_SendToEmptyGroup(t *testing.T) {
	hub := setupHub(t)

	sent := hub.SendToGroup(StationGroup(uuid.New()), Message{Type: EventFireStatusUpdate})
	if sent != 0 {
		t.Errorf("sent = %d, want 0", sent)
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := setupHub(t)

	slow := createTestClient(hub, testIdentity(models.RoleCentralDispatcher, nil))
	slow.send = make(chan Message, 1)
	registerClient(hub, slow)

	// First send fills the buffer, second drops the client.
	if sent := hub.SendToAll(Message{Type: EventFireCreated}); sent != 1 {
		t.Fatalf("first send = %d, want 1", sent)
	}
	if sent := hub.SendToAll(Message{Type: EventFireUpdated}); sent != 0 {
		t.Errorf("second send = %d, want 0", sent)
	}

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0 after slow client dropped", hub.ClientCount())
	}
}

func TestHub_RunWithContextShutdown(t *testing.T) {
	hub := NewHub(0)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- hub.RunWithContext(ctx)
	}()
	time.Sleep(10 * time.Millisecond)

	client := createTestClient(hub, testIdentity(models.RoleAdmin, nil))
	registerClient(hub, client)

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunWithContext did not return after cancel")
	}

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0 after shutdown", hub.ClientCount())
	}

	// Client channel must be closed so its write pump exits.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected client send channel to be closed")
		}
	default:
		t.Error("client send channel not closed")
	}
}

func TestGetShutdownReason(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("reason = %q, want context_canceled", got)
	}

	deadline, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	if got := getShutdownReason(deadline); got != ShutdownReasonContextDeadline {
		t.Errorf("reason = %q, want context_deadline", got)
	}
}

func TestMarshalMessage(t *testing.T) {
	msg := Message{
		Type: EventServerKeepalive,
		Data: KeepaliveData{Timestamp: "2026-08-30T12:00:00Z", Message: "Server connection is active"},
	}

	data, err := MarshalMessage(msg)
	if err != nil {
		t.Fatalf("MarshalMessage: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("MarshalMessage returned empty data")
	}
}
