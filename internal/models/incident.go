// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

// Package models defines the data structures used throughout Fireline:
// fire incidents, stations, vehicles, users, settings, and the payloads
// exchanged over the realtime gateway.
package models

import (
	"time"

	"github.com/google/uuid"
)

// IncidentStatus is the lifecycle state of a fire incident.
type IncidentStatus string

const (
	IncidentStatusReported   IncidentStatus = "reported"
	IncidentStatusDispatched IncidentStatus = "dispatched"
	IncidentStatusOnScene    IncidentStatus = "on_scene"
	IncidentStatusContained  IncidentStatus = "contained"
	IncidentStatusResolved   IncidentStatus = "resolved"
	IncidentStatusCancelled  IncidentStatus = "cancelled"
)

// Valid reports whether s is a known incident status.
func (s IncidentStatus) Valid() bool {
	switch s {
	case IncidentStatusReported, IncidentStatusDispatched, IncidentStatusOnScene,
		IncidentStatusContained, IncidentStatusResolved, IncidentStatusCancelled:
		return true
	}
	return false
}

// IncidentSeverity grades the operational urgency of an incident.
type IncidentSeverity string

const (
	IncidentSeverityLow      IncidentSeverity = "low"
	IncidentSeverityMedium   IncidentSeverity = "medium"
	IncidentSeverityHigh     IncidentSeverity = "high"
	IncidentSeverityCritical IncidentSeverity = "critical"
)

// Valid reports whether s is a known severity.
func (s IncidentSeverity) Valid() bool {
	switch s {
	case IncidentSeverityLow, IncidentSeverityMedium, IncidentSeverityHigh, IncidentSeverityCritical:
		return true
	}
	return false
}

// FireIncident is the core dispatch record: a reported fire with location,
// severity, lifecycle status, and an optional station assignment.
//
// AssignedStationID and AssignedTo are nil until an assignment happens;
// gateway code that builds per-user notifications must treat them as
// optional and skip the target when absent.
type FireIncident struct {
	ID          uuid.UUID        `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Address     string           `json:"address"`
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	Severity    IncidentSeverity `json:"severity"`
	Status      IncidentStatus   `json:"status"`

	// ReportedBy is the user who filed the incident.
	ReportedBy uuid.UUID `json:"reported_by"`

	// AssignedStationID is set when a station takes the incident.
	AssignedStationID *uuid.UUID `json:"assigned_station_id,omitempty"`

	// AssignedTo is the dispatcher responsible for the incident.
	AssignedTo *uuid.UUID `json:"assigned_to,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IncidentReport is the metadata record of a generated incident report.
// Rendering the report document itself is handled elsewhere; Fireline only
// stores and announces the record.
type IncidentReport struct {
	ID          uuid.UUID `json:"id"`
	IncidentID  uuid.UUID `json:"incident_id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	GeneratedBy uuid.UUID `json:"generated_by"`
	CreatedAt   time.Time `json:"created_at"`
}
