// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package websocket

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/firelinehq/fireline/internal/models"
)

// Event kinds for WebSocket communication. Incident lifecycle events go to
// everyone or a station group; notification events target users or roles.
const (
	EventFireCreated      = "fireCreated"
	EventFireUpdated      = "fireUpdated"
	EventFireAssigned     = "fireAssigned"
	EventReportCreated    = "reportCreated"
	EventNewFireIncident  = "new_fire_incident"
	EventFireStatusUpdate = "fire_status_update"
	EventNotification     = "notification"
	EventServerKeepalive  = "server_keepalive"
	EventPing             = "ping"
	EventPong             = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// IncidentEventData is the payload of incident lifecycle events. The
// incident fields are inlined; needsSound tells receiving clients whether
// to play an audible alert. Only assignment events set it.
type IncidentEventData struct {
	*models.FireIncident
	NeedsSound bool `json:"needsSound"`
}

// NewFireIncidentData is the payload of new_fire_incident, delivered to the
// assigned station's group.
type NewFireIncidentData struct {
	FireIncident *models.FireIncident `json:"fireIncident"`
	Message      string               `json:"message"`
}

// FireStatusUpdateData is the payload of fire_status_update, delivered to
// the incident's station group and the central-dispatcher role group.
type FireStatusUpdateData struct {
	FireIncidentID uuid.UUID             `json:"fireIncidentId"`
	Status         models.IncidentStatus `json:"status"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// NotificationData is the payload of notification, delivered to an
// individual user group or a role group.
type NotificationData struct {
	Type           string     `json:"type"`
	Message        string     `json:"message"`
	FireIncidentID *uuid.UUID `json:"fireIncidentId,omitempty"`
}

// KeepaliveData is the payload of server_keepalive heartbeats.
type KeepaliveData struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// DeliveryReport is the result of one publish attempt, returned
// synchronously to the caller. A publish with zero current recipients is
// still a success; only resolution or emission failures clear the flag.
// Reports are never delivered to clients.
type DeliveryReport struct {
	Success        bool      `json:"success"`
	RecipientCount int       `json:"recipientCount"`
	SentAt         time.Time `json:"sentAt"`
	Error          string    `json:"error,omitempty"`
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
