// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package api

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/firelinehq/fireline/internal/validation"
)

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

// CreateIncidentRequest is the body for POST /incidents.
type CreateIncidentRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Address     string  `json:"address" validate:"required,min=1,max=300"`
	Latitude    float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude   float64 `json:"longitude" validate:"min=-180,max=180"`
	Severity    string  `json:"severity" validate:"required,incident_severity"`
}

// UpdateIncidentRequest is the body for PUT /incidents/{id}. Zero-valued
// fields keep the stored value.
type UpdateIncidentRequest struct {
	Title       string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Address     string   `json:"address" validate:"omitempty,min=1,max=300"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Severity    string   `json:"severity" validate:"omitempty,incident_severity"`
}

// AssignIncidentRequest is the body for POST /incidents/{id}/assign.
// AssignedTo is the optional dispatcher taking ownership.
type AssignIncidentRequest struct {
	StationID  uuid.UUID  `json:"station_id" validate:"required"`
	AssignedTo *uuid.UUID `json:"assigned_to"`
}

// IncidentStatusRequest is the body for POST /incidents/{id}/status.
type IncidentStatusRequest struct {
	Status string `json:"status" validate:"required,incident_status"`
}

// CreateReportRequest is the body for POST /incidents/{id}/reports.
type CreateReportRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=200"`
	Summary string `json:"summary" validate:"max=4000"`
}

// StationRequest is the body for station create and update.
type StationRequest struct {
	Name      string  `json:"name" validate:"required,min=1,max=120"`
	Address   string  `json:"address" validate:"required,min=1,max=300"`
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	Phone     string  `json:"phone" validate:"max=32"`
}

// VehicleRequest is the body for vehicle create and update.
type VehicleRequest struct {
	StationID uuid.UUID `json:"station_id" validate:"required"`
	Callsign  string    `json:"callsign" validate:"required,min=1,max=32"`
	Kind      string    `json:"kind" validate:"required,vehicle_kind"`
	Status    string    `json:"status" validate:"omitempty,vehicle_status"`
}

// CreateUserRequest is the body for POST /users.
type CreateUserRequest struct {
	Username    string     `json:"username" validate:"required,min=1,max=64"`
	DisplayName string     `json:"display_name" validate:"max=120"`
	Password    string     `json:"password" validate:"required,min=8,max=128"`
	Role        string     `json:"role" validate:"required,user_role"`
	StationID   *uuid.UUID `json:"station_id"`
}

// UpdateUserRequest is the body for PUT /users/{id}.
type UpdateUserRequest struct {
	DisplayName string     `json:"display_name" validate:"max=120"`
	Password    string     `json:"password" validate:"omitempty,min=8,max=128"`
	Role        string     `json:"role" validate:"omitempty,user_role"`
	StationID   *uuid.UUID `json:"station_id"`
	Active      *bool      `json:"active"`
}

// UpdateSettingsRequest is the body for PUT /settings.
type UpdateSettingsRequest struct {
	MapCenterLatitude      float64 `json:"map_center_latitude" validate:"min=-90,max=90"`
	MapCenterLongitude     float64 `json:"map_center_longitude" validate:"min=-180,max=180"`
	AlertSoundEnabled      bool    `json:"alert_sound_enabled"`
	IncidentAutoCloseHours int     `json:"incident_auto_close_hours" validate:"min=0,max=720"`
}

// decodeAndValidate decodes the request body into dst and runs struct
// validation. On failure it writes the error response and returns false;
// handlers just return when it does.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	rw := NewResponseWriter(w, r)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rw.BadRequest("Invalid request body")
		return false
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}

	return true
}
