// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package store

import (
	"context"
	"errors"
	"time"

	"github.com/firelinehq/fireline/internal/models"
)

// SettingsRepo persists the singleton system settings document.
type SettingsRepo struct {
	s *Store
}

// Get returns the stored settings, or defaults when none have been saved.
func (r *SettingsRepo) Get(ctx context.Context) (*models.SystemSettings, error) {
	var settings models.SystemSettings
	err := r.s.get("settings", settingsKey, &settings)
	if errors.Is(err, ErrNotFound) {
		defaults := models.DefaultSystemSettings()
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Update replaces the stored settings.
func (r *SettingsRepo) Update(ctx context.Context, settings *models.SystemSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	return r.s.put("settings", settingsKey, settings)
}
