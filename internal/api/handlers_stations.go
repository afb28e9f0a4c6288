// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/firelinehq/fireline/internal/logging"
	"github.com/firelinehq/fireline/internal/models"
	"github.com/firelinehq/fireline/internal/store"
)

// ListStations returns all fire stations, sorted by name.
func (h *Handler) ListStations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stations, err := h.store.Stations.List(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	limit, offset := h.parsePagination(r)
	page, pagination := paginate(stations, limit, offset)
	rw.SuccessWithPagination(page, pagination)
}

// GetStation returns a single station by id.
func (h *Handler) GetStation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	station, err := h.store.Stations.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("Station not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(station)
}

// CreateStation registers a new fire station.
func (h *Handler) CreateStation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req StationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	station := &models.FireStation{
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Phone:     req.Phone,
	}

	if err := h.store.Stations.Create(r.Context(), station); err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("station_id", station.ID.String()).
		Str("name", station.Name).
		Msg("Station created")

	rw.Created(station)
}

// UpdateStation replaces a station's details.
func (h *Handler) UpdateStation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req StationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	station, err := h.store.Stations.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("Station not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	station.Name = req.Name
	station.Address = req.Address
	station.Latitude = req.Latitude
	station.Longitude = req.Longitude
	station.Phone = req.Phone

	if err := h.store.Stations.Update(r.Context(), station); err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(station)
}

// DeleteStation removes a station. Admin only. Vehicles belonging to the
// station are removed with it.
func (h *Handler) DeleteStation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.Stations.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("Station not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	vehicles, err := h.store.Vehicles.List(r.Context(), &id)
	if err == nil {
		for _, vehicle := range vehicles {
			if derr := h.store.Vehicles.Delete(r.Context(), vehicle.ID); derr != nil {
				logging.Ctx(r.Context()).Warn().Err(derr).
					Str("vehicle_id", vehicle.ID.String()).
					Msg("Orphaned vehicle cleanup failed")
			}
		}
	}

	logging.Ctx(r.Context()).Info().Str("station_id", id.String()).Msg("Station deleted")
	rw.NoContent()
}

// ListVehicles returns vehicles, optionally filtered to one station via
// the station_id query parameter.
func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var stationID *uuid.UUID
	if raw := r.URL.Query().Get("station_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			rw.BadRequest("Invalid station_id filter")
			return
		}
		stationID = &id
	}

	vehicles, err := h.store.Vehicles.List(r.Context(), stationID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	limit, offset := h.parsePagination(r)
	page, pagination := paginate(vehicles, limit, offset)
	rw.SuccessWithPagination(page, pagination)
}

// GetVehicle returns a single vehicle by id.
func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	vehicle, err := h.store.Vehicles.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("Vehicle not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(vehicle)
}

// CreateVehicle registers a new vehicle under an existing station.
func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req VehicleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if _, err := h.store.Stations.Get(r.Context(), req.StationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.BadRequest("Station does not exist")
			return
		}
		rw.DatabaseError(err)
		return
	}

	vehicle := &models.Vehicle{
		StationID: req.StationID,
		Callsign:  req.Callsign,
		Kind:      models.VehicleKind(req.Kind),
		Status:    models.VehicleStatus(req.Status),
	}

	if err := h.store.Vehicles.Create(r.Context(), vehicle); err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Created(vehicle)
}

// UpdateVehicle replaces a vehicle's details.
func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req VehicleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	vehicle, err := h.store.Vehicles.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("Vehicle not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	if _, err := h.store.Stations.Get(r.Context(), req.StationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.BadRequest("Station does not exist")
			return
		}
		rw.DatabaseError(err)
		return
	}

	vehicle.StationID = req.StationID
	vehicle.Callsign = req.Callsign
	vehicle.Kind = models.VehicleKind(req.Kind)
	if req.Status != "" {
		vehicle.Status = models.VehicleStatus(req.Status)
	}

	if err := h.store.Vehicles.Update(r.Context(), vehicle); err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(vehicle)
}

// DeleteVehicle removes a vehicle. Admin only.
func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.Vehicles.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("Vehicle not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.NoContent()
}
