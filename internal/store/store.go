// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

// Package store persists dispatch state in an embedded BadgerDB key-value
// store. Documents are JSON-encoded under typed key prefixes, one prefix
// per collection. Every repository shares a single *badger.DB handle.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/firelinehq/fireline/internal/config"
	"github.com/firelinehq/fireline/internal/logging"
	"github.com/firelinehq/fireline/internal/metrics"
)

// Key prefixes for BadgerDB storage. One prefix per collection so list
// operations can iterate a collection without touching the others.
const (
	incidentKeyPrefix   = "incident:"
	reportKeyPrefix     = "report:"
	stationKeyPrefix    = "station:"
	vehicleKeyPrefix    = "vehicle:"
	userKeyPrefix       = "user:"
	userByNameKeyPrefix = "user_name:"
	settingsKey         = "settings"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrConflict is returned when a create collides with an existing document,
// such as a duplicate username.
var ErrConflict = errors.New("document already exists")

// Store wraps an embedded BadgerDB instance and exposes typed repositories.
type Store struct {
	db *badger.DB

	Incidents *IncidentRepo
	Reports   *ReportRepo
	Stations  *StationRepo
	Vehicles  *VehicleRepo
	Users     *UserRepo
	Settings  *SettingsRepo
}

// Open opens (or creates) the store at the configured path. An empty path
// selects an in-memory database, used by tests and throwaway runs.
func Open(cfg *config.DatabaseConfig) (*Store, error) {
	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}

	s := &Store{db: db}
	s.Incidents = &IncidentRepo{s: s}
	s.Reports = &ReportRepo{s: s}
	s.Stations = &StationRepo{s: s}
	s.Vehicles = &VehicleRepo{s: s}
	s.Users = &UserRepo{s: s}
	s.Settings = &SettingsRepo{s: s}
	return s, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunGC runs Badger value-log garbage collection once. Safe to call
// periodically; returns without error when there is nothing to collect.
func (s *Store) RunGC() {
	err := s.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		logging.Warn().Err(err).Msg("Badger value log GC failed")
	}
}

// put JSON-encodes doc and stores it under key.
func (s *Store) put(collection, key string, doc interface{}) error {
	start := time.Now()
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", collection, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	metrics.RecordStoreOp("put", collection, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("put %s: %w", collection, err)
	}
	return nil
}

// get loads the document stored under key into out.
func (s *Store) get(collection, key string, out interface{}) error {
	start := time.Now()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if errors.Is(err, ErrNotFound) {
		// Not-found is a normal outcome, not a store error.
		metrics.RecordStoreOp("get", collection, time.Since(start), nil)
		return ErrNotFound
	}
	metrics.RecordStoreOp("get", collection, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("get %s: %w", collection, err)
	}
	return nil
}

// delete removes the document stored under key. Returns ErrNotFound when
// the key does not exist.
func (s *Store) delete(collection, key string) error {
	start := time.Now()
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
	metrics.RecordStoreOp("delete", collection, time.Since(start), err)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	return nil
}

// list iterates every document under prefix, calling fn with each raw value.
func (s *Store) list(collection, prefix string, fn func(val []byte) error) error {
	start := time.Now()
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				return fn(val)
			}); err != nil {
				return err
			}
		}
		return nil
	})
	metrics.RecordStoreOp("list", collection, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("list %s: %w", collection, err)
	}
	return nil
}

// badgerLogger routes Badger's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}
