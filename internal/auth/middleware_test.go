// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/firelinehq/fireline/internal/models"
)

func authedRequest(t *testing.T, m *JWTManager, user *models.User) *http.Request {
	t.Helper()
	token, err := m.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	r := httptest.NewRequest("GET", "/api/v1/incidents", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestAuthenticatePopulatesClaims(t *testing.T) {
	jm := newTestManager(t, time.Hour)
	mw := NewMiddleware(jm)
	user := testUser()

	var got *Claims
	handler := mw.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClaimsFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, jm, user))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got == nil || got.UserID != user.ID {
		t.Fatalf("claims not populated: %+v", got)
	}
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	mw := NewMiddleware(newTestManager(t, time.Hour))

	handler := mw.Authenticate(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/api/v1/incidents", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	jm := newTestManager(t, time.Hour)
	mw := NewMiddleware(jm)

	tests := []struct {
		name     string
		userRole models.Role
		required models.Role
		want     int
	}{
		{"exact match", models.RoleCentralDispatcher, models.RoleCentralDispatcher, http.StatusOK},
		{"admin passes any check", models.RoleAdmin, models.RoleCentralDispatcher, http.StatusOK},
		{"insufficient role", models.RoleStationDispatcher, models.RoleAdmin, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := testUser()
			user.Role = tt.userRole

			handler := mw.RequireRole(tt.required, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			handler(rec, authedRequest(t, jm, user))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireAnyRole(t *testing.T) {
	jm := newTestManager(t, time.Hour)
	mw := NewMiddleware(jm)

	allowed := []models.Role{models.RoleCentralDispatcher, models.RoleStationDispatcher}

	user := testUser()
	user.Role = models.RoleStationDispatcher

	handler := mw.RequireAnyRole(allowed, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, jm, user))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestClaimsFromContextMissing(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if _, ok := ClaimsFromContext(r.Context()); ok {
		t.Error("expected no claims in fresh context")
	}
}
