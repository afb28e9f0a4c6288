// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package validation

import (
	"strings"
	"testing"
)

type incidentForm struct {
	Title    string  `validate:"required,min=3,max=200"`
	Severity string  `validate:"required,incident_severity"`
	Status   string  `validate:"omitempty,incident_status"`
	Lat      float64 `validate:"latitude"`
	Lon      float64 `validate:"longitude"`
}

func TestValidateStructPasses(t *testing.T) {
	form := incidentForm{
		Title:    "Apartment fire on Elm Street",
		Severity: "high",
		Status:   "reported",
		Lat:      52.52,
		Lon:      13.405,
	}

	if err := ValidateStruct(&form); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}
}

func TestValidateStructCustomValidators(t *testing.T) {
	tests := []struct {
		name      string
		form      incidentForm
		wantField string
	}{
		{
			name:      "bad severity",
			form:      incidentForm{Title: "Garage fire", Severity: "catastrophic", Lat: 0, Lon: 0},
			wantField: "Severity",
		},
		{
			name:      "bad status",
			form:      incidentForm{Title: "Garage fire", Severity: "low", Status: "done", Lat: 0, Lon: 0},
			wantField: "Status",
		},
		{
			name:      "missing title",
			form:      incidentForm{Severity: "low", Lat: 0, Lon: 0},
			wantField: "Title",
		},
		{
			name:      "out of range latitude",
			form:      incidentForm{Title: "Garage fire", Severity: "low", Lat: 95.0, Lon: 0},
			wantField: "Lat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.form)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			found := false
			for _, fe := range err.Errors() {
				if fe.Field() == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %s, got %v", tt.wantField, err)
			}
		})
	}
}

func TestRoleValidator(t *testing.T) {
	type form struct {
		Role string `validate:"required,user_role"`
	}

	for _, role := range []string{"admin", "central_dispatcher", "station_dispatcher"} {
		if err := ValidateStruct(&form{Role: role}); err != nil {
			t.Errorf("role %q should validate, got %v", role, err)
		}
	}

	if err := ValidateStruct(&form{Role: "firefighter"}); err == nil {
		t.Error("role firefighter should fail validation")
	}
}

func TestToAPIErrorSingle(t *testing.T) {
	form := incidentForm{Title: "ok title", Severity: "bogus"}
	err := ValidateStruct(&form)
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Details["field"] != "Severity" {
		t.Errorf("Details.field = %v, want Severity", apiErr.Details["field"])
	}
}

func TestToAPIErrorMultiple(t *testing.T) {
	form := incidentForm{}
	err := ValidateStruct(&form)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) < 2 {
		t.Fatalf("expected multiple errors, got %d", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if !strings.Contains(apiErr.Message, ";") {
		t.Errorf("expected combined message, got %q", apiErr.Message)
	}
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("expected fields detail for multiple errors")
	}
}
