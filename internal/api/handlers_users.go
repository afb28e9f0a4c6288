// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package api

import (
	"errors"
	"net/http"

	"github.com/firelinehq/fireline/internal/auth"
	"github.com/firelinehq/fireline/internal/logging"
	"github.com/firelinehq/fireline/internal/models"
	"github.com/firelinehq/fireline/internal/store"
)

// ListUsers returns all user accounts. Admin only. Password hashes are
// never serialized.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	users, err := h.store.Users.List(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	limit, offset := h.parsePagination(r)
	page, pagination := paginate(users, limit, offset)
	rw.SuccessWithPagination(page, pagination)
}

// GetUser returns a single user account by id. Admin only.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	user, err := h.store.Users.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("User not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(user)
}

// CreateUser registers a new user account. Admin only. Station dispatcher
// accounts must reference an existing station.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	role := models.Role(req.Role)
	if role.StationScoped() && req.StationID == nil {
		rw.BadRequest("Station dispatcher accounts require a station_id")
		return
	}
	if req.StationID != nil {
		if _, err := h.store.Stations.Get(r.Context(), *req.StationID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				rw.BadRequest("Station does not exist")
				return
			}
			rw.DatabaseError(err)
			return
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		rw.InternalError("Could not hash password")
		return
	}

	user := &models.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Role:         role,
		StationID:    req.StationID,
		PasswordHash: hash,
		Active:       true,
	}

	if err := h.store.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			rw.Conflict("Username already taken")
			return
		}
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("username", user.Username).
		Str("role", string(user.Role)).
		Msg("User created")

	rw.Created(user)
}

// UpdateUser applies a partial update to a user account. Admin only.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.store.Users.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("User not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.Role != "" {
		user.Role = models.Role(req.Role)
	}
	if req.StationID != nil {
		if _, err := h.store.Stations.Get(r.Context(), *req.StationID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				rw.BadRequest("Station does not exist")
				return
			}
			rw.DatabaseError(err)
			return
		}
		user.StationID = req.StationID
	}
	if user.Role.StationScoped() && user.StationID == nil {
		rw.BadRequest("Station dispatcher accounts require a station_id")
		return
	}
	if req.Password != "" {
		hash, herr := auth.HashPassword(req.Password)
		if herr != nil {
			rw.InternalError("Could not hash password")
			return
		}
		user.PasswordHash = hash
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := h.store.Users.Update(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			rw.Conflict("Username already taken")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(user)
}

// DeleteUser removes a user account. Admin only. Admins cannot delete
// themselves, which keeps at least one working admin account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims.UserID == id {
		rw.BadRequest("Cannot delete the account you are logged in as")
		return
	}

	if err := h.store.Users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("User not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("user_id", id.String()).Msg("User deleted")
	rw.NoContent()
}
