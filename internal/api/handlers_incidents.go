// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/firelinehq/fireline/internal/auth"
	"github.com/firelinehq/fireline/internal/logging"
	"github.com/firelinehq/fireline/internal/models"
	"github.com/firelinehq/fireline/internal/store"
	"github.com/firelinehq/fireline/internal/websocket"
)

// ListIncidents returns incidents, newest first, with optional status,
// severity and station filters.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	filter := store.ListFilter{
		Status:   models.IncidentStatus(r.URL.Query().Get("status")),
		Severity: models.IncidentSeverity(r.URL.Query().Get("severity")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		rw.BadRequest("Invalid status filter")
		return
	}
	if filter.Severity != "" && !filter.Severity.Valid() {
		rw.BadRequest("Invalid severity filter")
		return
	}
	if raw := r.URL.Query().Get("station_id"); raw != "" {
		stationID, err := uuid.Parse(raw)
		if err != nil {
			rw.BadRequest("Invalid station_id filter")
			return
		}
		filter.StationID = &stationID
	}

	incidents, err := h.store.Incidents.List(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	limit, offset := h.parsePagination(r)
	page, pagination := paginate(incidents, limit, offset)
	rw.SuccessWithPagination(page, pagination)
}

// GetIncident returns a single incident by id.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	incident, err := h.store.Incidents.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("Incident not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(incident)
}

// CreateIncident records a new fire incident reported by the
// authenticated user and broadcasts it to all connected clients.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		rw.Unauthorized("Authentication required")
		return
	}

	var req CreateIncidentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	incident := &models.FireIncident{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Severity:    models.IncidentSeverity(req.Severity),
		ReportedBy:  claims.UserID,
	}

	if err := h.store.Incidents.Create(r.Context(), incident); err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("incident_id", incident.ID.String()).
		Str("severity", string(incident.Severity)).
		Msg("Incident created")

	logDeliveryReport(websocket.EventFireCreated, h.publisher.PublishIncidentCreated(incident))

	rw.Created(incident)
}

// UpdateIncident applies a partial update to incident details. Status and
// assignment changes go through their dedicated endpoints so the matching
// notifications fire.
func (h *Handler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateIncidentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	incident, err := h.store.Incidents.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("Incident not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	if req.Title != "" {
		incident.Title = req.Title
	}
	if req.Description != nil {
		incident.Description = *req.Description
	}
	if req.Address != "" {
		incident.Address = req.Address
	}
	if req.Latitude != nil {
		incident.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		incident.Longitude = *req.Longitude
	}
	if req.Severity != "" {
		incident.Severity = models.IncidentSeverity(req.Severity)
	}

	if err := h.store.Incidents.Update(r.Context(), incident); err != nil {
		rw.DatabaseError(err)
		return
	}

	logDeliveryReport(websocket.EventFireUpdated, h.publisher.PublishIncidentUpdated(incident))

	rw.Success(incident)
}

// DeleteIncident removes an incident. Admin only.
func (h *Handler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.Incidents.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("Incident not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("incident_id", id.String()).Msg("Incident deleted")
	rw.NoContent()
}

// AssignIncident assigns an incident to a station (and optionally a
// dispatcher), marks it dispatched, and notifies the station's clients.
func (h *Handler) AssignIncident(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req AssignIncidentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	incident, err := h.store.Incidents.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("Incident not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	if _, err := h.store.Stations.Get(r.Context(), req.StationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.BadRequest("Assigned station does not exist")
			return
		}
		rw.DatabaseError(err)
		return
	}

	incident.AssignedStationID = &req.StationID
	incident.AssignedTo = req.AssignedTo
	incident.Status = models.IncidentStatusDispatched

	if err := h.store.Incidents.Update(r.Context(), incident); err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("incident_id", incident.ID.String()).
		Str("station_id", req.StationID.String()).
		Msg("Incident assigned")

	logDeliveryReport(websocket.EventFireAssigned, h.publisher.PublishIncidentAssigned(incident)...)

	rw.Success(incident)
}

// UpdateIncidentStatus transitions an incident's status and notifies the
// assigned station, central dispatchers, the assignee and the reporter.
func (h *Handler) UpdateIncidentStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req IncidentStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	incident, err := h.store.Incidents.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("Incident not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	incident.Status = models.IncidentStatus(req.Status)

	if err := h.store.Incidents.Update(r.Context(), incident); err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("incident_id", incident.ID.String()).
		Str("status", req.Status).
		Msg("Incident status updated")

	logDeliveryReport(websocket.EventFireStatusUpdate, h.publisher.PublishStatusUpdate(incident)...)

	rw.Success(incident)
}

// ListIncidentReports returns the report records for an incident, oldest
// first.
func (h *Handler) ListIncidentReports(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.store.Incidents.Get(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("Incident not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	reports, err := h.store.Reports.ListByIncident(r.Context(), id)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(reports)
}

// CreateIncidentReport attaches a report record to an incident and
// broadcasts the new report to all connected clients.
func (h *Handler) CreateIncidentReport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		rw.Unauthorized("Authentication required")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req CreateReportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if _, err := h.store.Incidents.Get(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("Incident not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	report := &models.IncidentReport{
		IncidentID:  id,
		Title:       req.Title,
		Summary:     req.Summary,
		GeneratedBy: claims.UserID,
	}

	if err := h.store.Reports.Create(r.Context(), report); err != nil {
		rw.DatabaseError(err)
		return
	}

	logDeliveryReport(websocket.EventReportCreated, h.publisher.PublishReportCreated(report))

	rw.Created(report)
}
