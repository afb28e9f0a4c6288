// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// mockServer implements HTTPServer for testing.
type mockServer struct {
	listenErr   error
	shutdownErr error
	shutdown    atomic.Bool
	release     chan struct{}
}

func newMockServer() *mockServer {
	return &mockServer{release: make(chan struct{})}
}

func (m *mockServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.release
	return nil
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	m.shutdown.Store(true)
	close(m.release)
	return m.shutdownErr
}

func TestHTTPServerServiceStartFailure(t *testing.T) {
	server := newMockServer()
	server.listenErr = errors.New("address in use")

	svc := NewHTTPServerService(server, time.Second)
	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.listenErr) {
		t.Errorf("Serve() error = %v, want wrapped listen error", err)
	}
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	server := newMockServer()
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	if !server.shutdown.Load() {
		t.Error("Shutdown was not called")
	}
}

func TestHTTPServerServiceString(t *testing.T) {
	svc := NewHTTPServerService(newMockServer(), 0)
	if svc.String() != "http-server" {
		t.Errorf("String() = %q", svc.String())
	}
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("default shutdown timeout = %v", svc.shutdownTimeout)
	}
}

// fakeRunner implements ContextRunner and records calls.
type fakeRunner struct {
	calls atomic.Int32
}

func (f *fakeRunner) RunWithContext(ctx context.Context) error {
	f.calls.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestHubAndKeepaliveServicesDelegate(t *testing.T) {
	runner := &fakeRunner{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewHubService(runner).Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HubService.Serve() error = %v", err)
	}
	if err := NewKeepaliveService(runner).Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("KeepaliveService.Serve() error = %v", err)
	}
	if got := runner.calls.Load(); got != 2 {
		t.Errorf("RunWithContext calls = %d, want 2", got)
	}
}

// fakeGC implements GarbageCollector and counts runs.
type fakeGC struct {
	runs atomic.Int32
}

func (f *fakeGC) RunGC() { f.runs.Add(1) }

func TestStoreGCServiceTicks(t *testing.T) {
	gc := &fakeGC{}
	svc := NewStoreGCService(gc, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(55 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	if got := gc.runs.Load(); got < 2 {
		t.Errorf("RunGC calls = %d, want at least 2", got)
	}
}

func TestStoreGCServiceDefaultInterval(t *testing.T) {
	svc := NewStoreGCService(&fakeGC{}, 0)
	if svc.interval != DefaultGCInterval {
		t.Errorf("interval = %v, want %v", svc.interval, DefaultGCInterval)
	}
}
