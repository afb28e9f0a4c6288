// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package models

import (
	"time"

	"github.com/google/uuid"
)

// FireStation is a dispatchable station with a fixed location.
type FireStation struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VehicleStatus is the availability state of a fire engine.
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "available"
	VehicleStatusDispatched  VehicleStatus = "dispatched"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
)

// Valid reports whether s is a known vehicle status.
func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusDispatched, VehicleStatusMaintenance:
		return true
	}
	return false
}

// VehicleKind is the apparatus type.
type VehicleKind string

const (
	VehicleKindEngine VehicleKind = "engine"
	VehicleKindLadder VehicleKind = "ladder"
	VehicleKindTanker VehicleKind = "tanker"
	VehicleKindRescue VehicleKind = "rescue"
)

// Valid reports whether k is a known vehicle kind.
func (k VehicleKind) Valid() bool {
	switch k {
	case VehicleKindEngine, VehicleKindLadder, VehicleKindTanker, VehicleKindRescue:
		return true
	}
	return false
}

// Vehicle is a fire engine or other apparatus belonging to a station.
type Vehicle struct {
	ID        uuid.UUID     `json:"id"`
	StationID uuid.UUID     `json:"station_id"`
	Callsign  string        `json:"callsign"`
	Kind      VehicleKind   `json:"kind"`
	Status    VehicleStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
