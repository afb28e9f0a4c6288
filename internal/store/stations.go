// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package store

import (
	"context"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/firelinehq/fireline/internal/models"
)

// StationRepo persists fire stations.
type StationRepo struct {
	s *Store
}

// Create stores a new station.
func (r *StationRepo) Create(ctx context.Context, station *models.FireStation) error {
	if station.ID == uuid.Nil {
		station.ID = uuid.New()
	}
	now := time.Now().UTC()
	if station.CreatedAt.IsZero() {
		station.CreatedAt = now
	}
	station.UpdatedAt = now
	return r.s.put("stations", stationKeyPrefix+station.ID.String(), station)
}

// Get retrieves a station by ID.
func (r *StationRepo) Get(ctx context.Context, id uuid.UUID) (*models.FireStation, error) {
	var station models.FireStation
	if err := r.s.get("stations", stationKeyPrefix+id.String(), &station); err != nil {
		return nil, err
	}
	return &station, nil
}

// Update replaces an existing station.
func (r *StationRepo) Update(ctx context.Context, station *models.FireStation) error {
	if _, err := r.Get(ctx, station.ID); err != nil {
		return err
	}
	station.UpdatedAt = time.Now().UTC()
	return r.s.put("stations", stationKeyPrefix+station.ID.String(), station)
}

// Delete removes a station by ID.
func (r *StationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.delete("stations", stationKeyPrefix+id.String())
}

// List returns all stations sorted by name.
func (r *StationRepo) List(ctx context.Context) ([]*models.FireStation, error) {
	var stations []*models.FireStation
	err := r.s.list("stations", stationKeyPrefix, func(val []byte) error {
		var station models.FireStation
		if err := json.Unmarshal(val, &station); err != nil {
			return err
		}
		stations = append(stations, &station)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(stations, func(i, j int) bool {
		return stations[i].Name < stations[j].Name
	})
	return stations, nil
}

// VehicleRepo persists station vehicles.
type VehicleRepo struct {
	s *Store
}

// Create stores a new vehicle.
func (r *VehicleRepo) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID == uuid.Nil {
		vehicle.ID = uuid.New()
	}
	now := time.Now().UTC()
	if vehicle.CreatedAt.IsZero() {
		vehicle.CreatedAt = now
	}
	vehicle.UpdatedAt = now
	if vehicle.Status == "" {
		vehicle.Status = models.VehicleStatusAvailable
	}
	return r.s.put("vehicles", vehicleKeyPrefix+vehicle.ID.String(), vehicle)
}

// Get retrieves a vehicle by ID.
func (r *VehicleRepo) Get(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.s.get("vehicles", vehicleKeyPrefix+id.String(), &vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// Update replaces an existing vehicle.
func (r *VehicleRepo) Update(ctx context.Context, vehicle *models.Vehicle) error {
	if _, err := r.Get(ctx, vehicle.ID); err != nil {
		return err
	}
	vehicle.UpdatedAt = time.Now().UTC()
	return r.s.put("vehicles", vehicleKeyPrefix+vehicle.ID.String(), vehicle)
}

// Delete removes a vehicle by ID.
func (r *VehicleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.delete("vehicles", vehicleKeyPrefix+id.String())
}

// List returns vehicles, optionally filtered by station, sorted by callsign.
func (r *VehicleRepo) List(ctx context.Context, stationID *uuid.UUID) ([]*models.Vehicle, error) {
	var vehicles []*models.Vehicle
	err := r.s.list("vehicles", vehicleKeyPrefix, func(val []byte) error {
		var vehicle models.Vehicle
		if err := json.Unmarshal(val, &vehicle); err != nil {
			return err
		}
		if stationID != nil && vehicle.StationID != *stationID {
			return nil
		}
		vehicles = append(vehicles, &vehicle)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(vehicles, func(i, j int) bool {
		return vehicles[i].Callsign < vehicles[j].Callsign
	})
	return vehicles, nil
}
