// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package services

import (
	"context"
	"time"
)

// GarbageCollector matches the store's value log GC trigger.
type GarbageCollector interface {
	RunGC()
}

// StoreGCService periodically runs badger value log garbage collection.
// Badger does not reclaim value log space on its own; the owner has to
// trigger GC from a background loop.
type StoreGCService struct {
	store    GarbageCollector
	interval time.Duration
	name     string
}

// DefaultGCInterval is how often value log GC runs unless configured.
const DefaultGCInterval = 10 * time.Minute

// NewStoreGCService creates the GC loop service.
func NewStoreGCService(store GarbageCollector, interval time.Duration) *StoreGCService {
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	return &StoreGCService{
		store:    store,
		interval: interval,
		name:     "store-gc",
	}
}

// Serve implements suture.Service.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.store.RunGC()
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *StoreGCService) String() string {
	return s.name
}
