// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of Fireline user roles. Roles drive both REST
// authorization and realtime group membership (role_<role> groups).
type Role string

const (
	// RoleAdmin manages stations, vehicles, users, and settings.
	RoleAdmin Role = "admin"

	// RoleCentralDispatcher watches all incidents across stations.
	RoleCentralDispatcher Role = "central_dispatcher"

	// RoleStationDispatcher is scoped to a single station and receives
	// station-targeted assignment notifications.
	RoleStationDispatcher Role = "station_dispatcher"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCentralDispatcher, RoleStationDispatcher:
		return true
	}
	return false
}

// StationScoped reports whether the role is bound to a single station.
// Only station-scoped identities join station_<id> groups.
func (r Role) StationScoped() bool {
	return r == RoleStationDispatcher
}

// User is a Fireline account. PasswordHash is a bcrypt hash and never
// serialized in API responses.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"display_name,omitempty"`
	Role         Role       `json:"role"`
	StationID    *uuid.UUID `json:"station_id,omitempty"`
	PasswordHash string     `json:"-"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SystemSettings is the singleton application configuration record exposed
// over the settings CRUD endpoints.
type SystemSettings struct {
	// MapCenterLatitude and MapCenterLongitude position the dispatch map.
	MapCenterLatitude  float64 `json:"map_center_latitude"`
	MapCenterLongitude float64 `json:"map_center_longitude"`

	// AlertSoundEnabled globally enables audible alerts on clients;
	// the per-event needsSound flag is still respected when disabled.
	AlertSoundEnabled bool `json:"alert_sound_enabled"`

	// IncidentAutoCloseHours closes resolved incidents after this many
	// hours. Zero disables auto-close.
	IncidentAutoCloseHours int `json:"incident_auto_close_hours"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSystemSettings returns the settings used before an admin saves any.
func DefaultSystemSettings() SystemSettings {
	return SystemSettings{
		AlertSoundEnabled:      true,
		IncidentAutoCloseHours: 24,
	}
}
