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

// IncidentRepo persists fire incidents.
type IncidentRepo struct {
	s *Store
}

// Create stores a new incident. The ID and timestamps are assigned here
// when unset.
func (r *IncidentRepo) Create(ctx context.Context, incident *models.FireIncident) error {
	if incident.ID == uuid.Nil {
		incident.ID = uuid.New()
	}
	now := time.Now().UTC()
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = now
	}
	incident.UpdatedAt = now
	if incident.Status == "" {
		incident.Status = models.IncidentStatusReported
	}
	return r.s.put("incidents", incidentKeyPrefix+incident.ID.String(), incident)
}

// Get retrieves an incident by ID. Returns ErrNotFound when absent.
func (r *IncidentRepo) Get(ctx context.Context, id uuid.UUID) (*models.FireIncident, error) {
	var incident models.FireIncident
	if err := r.s.get("incidents", incidentKeyPrefix+id.String(), &incident); err != nil {
		return nil, err
	}
	return &incident, nil
}

// Update replaces an existing incident. Returns ErrNotFound when the
// incident does not exist.
func (r *IncidentRepo) Update(ctx context.Context, incident *models.FireIncident) error {
	if _, err := r.Get(ctx, incident.ID); err != nil {
		return err
	}
	incident.UpdatedAt = time.Now().UTC()
	return r.s.put("incidents", incidentKeyPrefix+incident.ID.String(), incident)
}

// Delete removes an incident by ID.
func (r *IncidentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.delete("incidents", incidentKeyPrefix+id.String())
}

// ListFilter narrows List results. Zero-valued fields match everything.
type ListFilter struct {
	Status    models.IncidentStatus
	Severity  models.IncidentSeverity
	StationID *uuid.UUID
}

// List returns incidents matching the filter, newest first.
func (r *IncidentRepo) List(ctx context.Context, filter ListFilter) ([]*models.FireIncident, error) {
	var incidents []*models.FireIncident
	err := r.s.list("incidents", incidentKeyPrefix, func(val []byte) error {
		var incident models.FireIncident
		if err := json.Unmarshal(val, &incident); err != nil {
			return err
		}
		if filter.Status != "" && incident.Status != filter.Status {
			return nil
		}
		if filter.Severity != "" && incident.Severity != filter.Severity {
			return nil
		}
		if filter.StationID != nil {
			if incident.AssignedStationID == nil || *incident.AssignedStationID != *filter.StationID {
				return nil
			}
		}
		incidents = append(incidents, &incident)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(incidents, func(i, j int) bool {
		return incidents[i].CreatedAt.After(incidents[j].CreatedAt)
	})
	return incidents, nil
}

// ReportRepo persists after-action incident reports.
type ReportRepo struct {
	s *Store
}

// Create stores a new report for an incident.
func (r *ReportRepo) Create(ctx context.Context, report *models.IncidentReport) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	// Key by incident so reports of one incident iterate together.
	key := reportKeyPrefix + report.IncidentID.String() + ":" + report.ID.String()
	return r.s.put("reports", key, report)
}

// Get retrieves a report by incident and report ID.
func (r *ReportRepo) Get(ctx context.Context, incidentID, reportID uuid.UUID) (*models.IncidentReport, error) {
	var report models.IncidentReport
	key := reportKeyPrefix + incidentID.String() + ":" + reportID.String()
	if err := r.s.get("reports", key, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListByIncident returns all reports for an incident, oldest first.
func (r *ReportRepo) ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]*models.IncidentReport, error) {
	var reports []*models.IncidentReport
	err := r.s.list("reports", reportKeyPrefix+incidentID.String()+":", func(val []byte) error {
		var report models.IncidentReport
		if err := json.Unmarshal(val, &report); err != nil {
			return err
		}
		reports = append(reports, &report)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt.Before(reports[j].CreatedAt)
	})
	return reports, nil
}
