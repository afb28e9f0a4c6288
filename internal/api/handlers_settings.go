// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package api

import (
	"net/http"

	"github.com/firelinehq/fireline/internal/logging"
	"github.com/firelinehq/fireline/internal/models"
)

// GetSettings returns the system settings, falling back to defaults when
// none have been saved yet.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	settings, err := h.store.Settings.Get(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(settings)
}

// UpdateSettings replaces the system settings. Admin only.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req UpdateSettingsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	settings := &models.SystemSettings{
		MapCenterLatitude:      req.MapCenterLatitude,
		MapCenterLongitude:     req.MapCenterLongitude,
		AlertSoundEnabled:      req.AlertSoundEnabled,
		IncidentAutoCloseHours: req.IncidentAutoCloseHours,
	}

	if err := h.store.Settings.Update(r.Context(), settings); err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().Msg("System settings updated")
	rw.Success(settings)
}
