// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package websocket

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/firelinehq/fireline/internal/logging"
	"github.com/firelinehq/fireline/internal/metrics"
	"github.com/firelinehq/fireline/internal/models"
)

// Publisher broadcasts typed incident events to an audience and produces
// delivery feedback. Every publish-family method returns a DeliveryReport
// and never returns an error or panics: notification failures are absorbed
// here so they cannot abort the CRUD write that triggered them.
type Publisher struct {
	hub *Hub
}

// NewPublisher creates a Publisher on top of the hub's registry.
func NewPublisher(hub *Hub) *Publisher {
	return &Publisher{hub: hub}
}

// BroadcastAll sends an event to every connected client regardless of group.
// Fire-and-forget: the only guarantee is that the send was attempted against
// the connection set known at call time.
func (p *Publisher) BroadcastAll(eventKind string, payload interface{}) DeliveryReport {
	return p.publish(eventKind, payload, func(msg Message) int {
		return p.hub.SendToAll(msg)
	})
}

// BroadcastToStation sends an event only to the station's group.
func (p *Publisher) BroadcastToStation(eventKind string, stationID uuid.UUID, payload interface{}) DeliveryReport {
	group := StationGroup(stationID)
	return p.publish(eventKind, payload, func(msg Message) int {
		return p.sendToGroup(group, msg, eventKind)
	})
}

// NotifyUser sends a notification to a single user's connections.
func (p *Publisher) NotifyUser(userID uuid.UUID, notification NotificationData) DeliveryReport {
	group := UserGroup(userID)
	return p.publish(EventNotification, notification, func(msg Message) int {
		return p.sendToGroup(group, msg, EventNotification)
	})
}

// NotifyRole sends a notification to every connection of a role.
func (p *Publisher) NotifyRole(role models.Role, notification NotificationData) DeliveryReport {
	group := RoleGroup(role)
	return p.publish(EventNotification, notification, func(msg Message) int {
		return p.sendToGroup(group, msg, EventNotification)
	})
}

// sendToGroup checks membership before sending. An empty group still gets
// the send attempted (a no-op) and the zero recipient count lands in the
// DeliveryReport; the caller's write must not fail because nobody is
// subscribed right now.
func (p *Publisher) sendToGroup(group Group, msg Message, eventKind string) int {
	if p.hub.GroupCount(group) == 0 {
		logging.Debug().
			Str("group", string(group)).
			Str("event_type", eventKind).
			Msg("publishing to group with no subscribers")
	}
	return p.hub.SendToGroup(group, msg)
}

// publish wraps a fan-out with the uniform delivery contract. Payloads that
// cannot be serialized and any panic during emission downgrade to a failed
// report instead of propagating.
func (p *Publisher) publish(eventKind string, payload interface{}, send func(Message) int) (report DeliveryReport) {
	sentAt := time.Now().UTC()

	defer func() {
		if r := recover(); r != nil {
			errMsg := fmt.Sprintf("publish %s: %v", eventKind, r)
			logging.Error().Str("event_type", eventKind).Msg(errMsg)
			metrics.RecordEventDelivery(eventKind, 0, errors.New(errMsg))
			report = DeliveryReport{Success: false, SentAt: sentAt, Error: errMsg}
		}
	}()

	msg := Message{Type: eventKind, Data: payload}
	if _, err := MarshalMessage(msg); err != nil {
		errMsg := fmt.Sprintf("publish %s: marshal payload: %v", eventKind, err)
		logging.Error().Str("event_type", eventKind).Err(err).Msg("failed to marshal event payload")
		metrics.RecordEventDelivery(eventKind, 0, err)
		return DeliveryReport{Success: false, SentAt: sentAt, Error: errMsg}
	}

	count := send(msg)
	metrics.RecordEventDelivery(eventKind, count, nil)

	return DeliveryReport{
		Success:        true,
		RecipientCount: count,
		SentAt:         sentAt,
	}
}

// PublishIncidentCreated broadcasts a fireCreated event to all connections.
func (p *Publisher) PublishIncidentCreated(incident *models.FireIncident) DeliveryReport {
	return p.BroadcastAll(EventFireCreated, IncidentEventData{FireIncident: incident, NeedsSound: false})
}

// PublishIncidentUpdated broadcasts a fireUpdated event to all connections.
func (p *Publisher) PublishIncidentUpdated(incident *models.FireIncident) DeliveryReport {
	return p.BroadcastAll(EventFireUpdated, IncidentEventData{FireIncident: incident, NeedsSound: false})
}

// PublishIncidentAssigned notifies the assigned station of a new incident.
// The fireAssigned event carries the audible-alert flag that other kinds do
// not; the companion new_fire_incident message carries the readable summary.
// When the incident has no assigned station the publish is skipped with a
// failed report rather than delivered to nobody in particular.
func (p *Publisher) PublishIncidentAssigned(incident *models.FireIncident) []DeliveryReport {
	if incident.AssignedStationID == nil {
		logging.Warn().
			Str("incident_id", incident.ID.String()).
			Msg("incident assignment event without a station, skipping")
		return []DeliveryReport{{
			Success: false,
			SentAt:  time.Now().UTC(),
			Error:   "incident has no assigned station",
		}}
	}

	stationID := *incident.AssignedStationID
	assigned := p.BroadcastToStation(EventFireAssigned, stationID,
		IncidentEventData{FireIncident: incident, NeedsSound: true})
	announce := p.BroadcastToStation(EventNewFireIncident, stationID,
		NewFireIncidentData{
			FireIncident: incident,
			Message:      fmt.Sprintf("New fire incident assigned: %s", incident.Title),
		})
	return []DeliveryReport{assigned, announce}
}

// PublishStatusUpdate fans a fire_status_update out to the incident's
// station group and the central-dispatcher role group, plus personal
// notifications to the assignee and the reporter. A missing relation skips
// that target with a log line; it is not an error.
func (p *Publisher) PublishStatusUpdate(incident *models.FireIncident) []DeliveryReport {
	update := FireStatusUpdateData{
		FireIncidentID: incident.ID,
		Status:         incident.Status,
		UpdatedAt:      incident.UpdatedAt,
	}

	var reports []DeliveryReport

	if incident.AssignedStationID != nil {
		reports = append(reports, p.BroadcastToStation(EventFireStatusUpdate, *incident.AssignedStationID, update))
	} else {
		logging.Info().
			Str("incident_id", incident.ID.String()).
			Msg("status update for incident without station, skipping station group")
	}

	reports = append(reports, p.publish(EventFireStatusUpdate, update, func(msg Message) int {
		return p.sendToGroup(RoleGroup(models.RoleCentralDispatcher), msg, EventFireStatusUpdate)
	}))

	notification := NotificationData{
		Type:           "status_update",
		Message:        fmt.Sprintf("Incident %q is now %s", incident.Title, incident.Status),
		FireIncidentID: &incident.ID,
	}

	if incident.AssignedTo != nil {
		reports = append(reports, p.NotifyUser(*incident.AssignedTo, notification))
	} else {
		logging.Info().
			Str("incident_id", incident.ID.String()).
			Msg("status update for incident without assignee, skipping user notification")
	}

	if incident.ReportedBy != uuid.Nil {
		reports = append(reports, p.NotifyUser(incident.ReportedBy, notification))
	} else {
		logging.Info().
			Str("incident_id", incident.ID.String()).
			Msg("status update for incident without reporter, skipping user notification")
	}

	return reports
}

// PublishReportCreated broadcasts a reportCreated event to all connections.
func (p *Publisher) PublishReportCreated(report *models.IncidentReport) DeliveryReport {
	return p.BroadcastAll(EventReportCreated, report)
}
