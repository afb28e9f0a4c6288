// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"

	"github.com/firelinehq/fireline/internal/auth"
	"github.com/firelinehq/fireline/internal/config"
	"github.com/firelinehq/fireline/internal/logging"
	"github.com/firelinehq/fireline/internal/models"
	"github.com/firelinehq/fireline/internal/store"
	"github.com/firelinehq/fireline/internal/websocket"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

const testJWTSecret = "test-secret-for-api-handlers-0123456789"

// testEnv wires a full API stack against an in-memory store and a running
// hub, served over httptest.
type testEnv struct {
	t      *testing.T
	store  *store.Store
	cfg    *config.Config
	hub    *websocket.Hub
	server *httptest.Server

	admin      *models.User
	dispatcher *models.User

	adminToken      string
	dispatcherToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.Open(&config.DatabaseConfig{})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:        "127.0.0.1",
			Port:        8460,
			Environment: "development",
		},
		Security: config.SecurityConfig{
			JWTSecret:         testJWTSecret,
			SessionTimeout:    time.Hour,
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
		Realtime: config.RealtimeConfig{
			KeepaliveInterval: time.Minute,
			SendBuffer:        16,
		},
		API: config.APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	hub := websocket.NewHub(cfg.Realtime.SendBuffer)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = hub.RunWithContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	publisher := websocket.NewPublisher(hub)
	handler := NewHandler(st, cfg, hub, publisher, jwtManager)
	router := NewRouter(handler, auth.NewMiddleware(jwtManager))

	server := httptest.NewServer(router.Setup())
	t.Cleanup(server.Close)

	env := &testEnv{
		t:      t,
		store:  st,
		cfg:    cfg,
		hub:    hub,
		server: server,
	}

	env.admin, env.adminToken = env.createUser(jwtManager, "chief", models.RoleAdmin, nil)
	env.dispatcher, env.dispatcherToken = env.createUser(jwtManager, "dispatch", models.RoleCentralDispatcher, nil)

	return env
}

// createUser stores a user with a fixed password and mints a token for it.
func (env *testEnv) createUser(jm *auth.JWTManager, username string, role models.Role, stationID *uuid.UUID) (*models.User, string) {
	env.t.Helper()

	hash, err := auth.HashPassword("firefighter-42")
	if err != nil {
		env.t.Fatalf("HashPassword() error = %v", err)
	}

	user := &models.User{
		Username:     username,
		Role:         role,
		StationID:    stationID,
		PasswordHash: hash,
		Active:       true,
	}
	if err := env.store.Users.Create(context.Background(), user); err != nil {
		env.t.Fatalf("Users.Create(%q) error = %v", username, err)
	}

	token, err := jm.GenerateToken(user)
	if err != nil {
		env.t.Fatalf("GenerateToken(%q) error = %v", username, err)
	}
	return user, token
}

// envelope mirrors the response wrapper for decoding in tests.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do issues a request with an optional bearer token and JSON body, and
// decodes the envelope.
func (env *testEnv) do(method, path, token string, body interface{}) (int, *envelope) {
	env.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			env.t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, env.server.URL+path, reader)
	if err != nil {
		env.t.Fatalf("NewRequest(%s %s) error = %v", method, path, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	// The auth middleware writes plain-text errors; only handler
	// responses carry the JSON envelope.
	out := &envelope{}
	if resp.StatusCode != http.StatusNoContent &&
		strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			env.t.Fatalf("%s %s: decode envelope: %v", method, path, err)
		}
	}
	return resp.StatusCode, out
}

func (env *testEnv) createStation(name string) *models.FireStation {
	env.t.Helper()

	status, resp := env.do(http.MethodPost, "/api/v1/stations", env.adminToken, StationRequest{
		Name:    name,
		Address: "1 Main St",
	})
	if status != http.StatusCreated {
		env.t.Fatalf("create station status = %d", status)
	}

	var station models.FireStation
	if err := json.Unmarshal(resp.Data, &station); err != nil {
		env.t.Fatalf("decode station: %v", err)
	}
	return &station
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodGet, "/api/v1/incidents", "", nil)
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Username: "chief",
		Password: "firefighter-42",
	})
	if status != http.StatusOK {
		t.Fatalf("login status = %d", status)
	}

	var payload loginResponse
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if payload.Token == "" {
		t.Error("login returned empty token")
	}

	// The returned token must work for authenticated endpoints.
	status, _ = env.do(http.MethodGet, "/api/v1/auth/me", payload.Token, nil)
	if status != http.StatusOK {
		t.Errorf("me with login token status = %d, want 200", status)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Username: "chief",
		Password: "not-the-password",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
	if resp.Error == nil {
		t.Error("expected error envelope")
	}
}

func TestLoginUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodPost, "/api/v1/auth/login", "", LoginRequest{
		Username: "nobody",
		Password: "whatever-long",
	})
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
}

func TestIncidentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	station := env.createStation("Station 1")

	// Create
	status, resp := env.do(http.MethodPost, "/api/v1/incidents", env.dispatcherToken, CreateIncidentRequest{
		Title:    "Warehouse fire",
		Address:  "12 Dock Rd",
		Severity: "high",
	})
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	var incident models.FireIncident
	if err := json.Unmarshal(resp.Data, &incident); err != nil {
		t.Fatalf("decode incident: %v", err)
	}
	if incident.Status != models.IncidentStatusReported {
		t.Errorf("new incident status = %q, want reported", incident.Status)
	}
	if incident.ReportedBy != env.dispatcher.ID {
		t.Errorf("ReportedBy = %s, want creator id", incident.ReportedBy)
	}

	base := "/api/v1/incidents/" + incident.ID.String()

	// Get
	if status, _ = env.do(http.MethodGet, base, env.dispatcherToken, nil); status != http.StatusOK {
		t.Errorf("get status = %d", status)
	}

	// Update details
	status, resp = env.do(http.MethodPut, base, env.dispatcherToken, map[string]string{"title": "Warehouse fire, two alarms"})
	if status != http.StatusOK {
		t.Fatalf("update status = %d", status)
	}
	if err := json.Unmarshal(resp.Data, &incident); err != nil {
		t.Fatalf("decode updated incident: %v", err)
	}
	if incident.Title != "Warehouse fire, two alarms" {
		t.Errorf("updated title = %q", incident.Title)
	}

	// Assign to station
	status, resp = env.do(http.MethodPost, base+"/assign", env.dispatcherToken, AssignIncidentRequest{
		StationID: station.ID,
	})
	if status != http.StatusOK {
		t.Fatalf("assign status = %d", status)
	}
	if err := json.Unmarshal(resp.Data, &incident); err != nil {
		t.Fatalf("decode assigned incident: %v", err)
	}
	if incident.Status != models.IncidentStatusDispatched {
		t.Errorf("assigned status = %q, want dispatched", incident.Status)
	}
	if incident.AssignedStationID == nil || *incident.AssignedStationID != station.ID {
		t.Error("assigned station not recorded")
	}

	// Status transition
	status, _ = env.do(http.MethodPost, base+"/status", env.dispatcherToken, IncidentStatusRequest{Status: "on_scene"})
	if status != http.StatusOK {
		t.Fatalf("status update status = %d", status)
	}

	// Reports
	status, _ = env.do(http.MethodPost, base+"/reports", env.dispatcherToken, CreateReportRequest{Title: "Initial size-up"})
	if status != http.StatusCreated {
		t.Fatalf("report create status = %d", status)
	}
	status, resp = env.do(http.MethodGet, base+"/reports", env.dispatcherToken, nil)
	if status != http.StatusOK {
		t.Fatalf("report list status = %d", status)
	}
	var reports []models.IncidentReport
	if err := json.Unmarshal(resp.Data, &reports); err != nil {
		t.Fatalf("decode reports: %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("len(reports) = %d, want 1", len(reports))
	}

	// Delete requires admin
	if status, _ = env.do(http.MethodDelete, base, env.dispatcherToken, nil); status != http.StatusForbidden {
		t.Errorf("dispatcher delete status = %d, want 403", status)
	}
	if status, _ = env.do(http.MethodDelete, base, env.adminToken, nil); status != http.StatusNoContent {
		t.Errorf("admin delete status = %d, want 204", status)
	}
	if status, _ = env.do(http.MethodGet, base, env.adminToken, nil); status != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", status)
	}
}

func TestCreateIncidentValidation(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.do(http.MethodPost, "/api/v1/incidents", env.dispatcherToken, CreateIncidentRequest{
		Title:    "Missing severity",
		Address:  "1 Elm St",
		Severity: "apocalyptic",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("error = %+v, want VALIDATION_FAILED", resp.Error)
	}
}

func TestAssignUnknownStation(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.do(http.MethodPost, "/api/v1/incidents", env.dispatcherToken, CreateIncidentRequest{
		Title:    "Brush fire",
		Address:  "Route 9",
		Severity: "low",
	})
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	var incident models.FireIncident
	if err := json.Unmarshal(resp.Data, &incident); err != nil {
		t.Fatalf("decode incident: %v", err)
	}

	status, _ = env.do(http.MethodPost, "/api/v1/incidents/"+incident.ID.String()+"/assign", env.dispatcherToken, AssignIncidentRequest{
		StationID: uuid.New(),
	})
	if status != http.StatusBadRequest {
		t.Errorf("assign to unknown station status = %d, want 400", status)
	}
}

func TestVehicleRequiresStation(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodPost, "/api/v1/vehicles", env.dispatcherToken, VehicleRequest{
		StationID: uuid.New(),
		Callsign:  "E-1",
		Kind:      "engine",
	})
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}

	station := env.createStation("Station 2")
	status, resp := env.do(http.MethodPost, "/api/v1/vehicles", env.dispatcherToken, VehicleRequest{
		StationID: station.ID,
		Callsign:  "E-1",
		Kind:      "engine",
	})
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}

	var vehicle models.Vehicle
	if err := json.Unmarshal(resp.Data, &vehicle); err != nil {
		t.Fatalf("decode vehicle: %v", err)
	}
	if vehicle.Status != models.VehicleStatusAvailable {
		t.Errorf("default vehicle status = %q, want available", vehicle.Status)
	}
}

func TestUsersAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	if status, _ := env.do(http.MethodGet, "/api/v1/users", env.dispatcherToken, nil); status != http.StatusForbidden {
		t.Errorf("dispatcher list users status = %d, want 403", status)
	}

	status, _ := env.do(http.MethodPost, "/api/v1/users", env.adminToken, CreateUserRequest{
		Username: "newbie",
		Password: "long-enough-pw",
		Role:     "central_dispatcher",
	})
	if status != http.StatusCreated {
		t.Fatalf("admin create user status = %d", status)
	}

	// Duplicate username conflicts.
	status, resp := env.do(http.MethodPost, "/api/v1/users", env.adminToken, CreateUserRequest{
		Username: "NEWBIE",
		Password: "long-enough-pw",
		Role:     "central_dispatcher",
	})
	if status != http.StatusConflict {
		t.Errorf("duplicate user status = %d, want 409", status)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeConflict {
		t.Errorf("error = %+v, want CONFLICT", resp.Error)
	}
}

func TestCreateStationDispatcherRequiresStation(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodPost, "/api/v1/users", env.adminToken, CreateUserRequest{
		Username: "lonely",
		Password: "long-enough-pw",
		Role:     "station_dispatcher",
	})
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.do(http.MethodGet, "/api/v1/settings", env.dispatcherToken, nil)
	if status != http.StatusOK {
		t.Fatalf("get settings status = %d", status)
	}
	var settings models.SystemSettings
	if err := json.Unmarshal(resp.Data, &settings); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if !settings.AlertSoundEnabled {
		t.Error("default settings should enable alert sound")
	}

	// Only admins may write.
	body := UpdateSettingsRequest{MapCenterLatitude: 52.52, MapCenterLongitude: 13.4, AlertSoundEnabled: false}
	if status, _ = env.do(http.MethodPut, "/api/v1/settings", env.dispatcherToken, body); status != http.StatusForbidden {
		t.Errorf("dispatcher put settings status = %d, want 403", status)
	}
	if status, _ = env.do(http.MethodPut, "/api/v1/settings", env.adminToken, body); status != http.StatusOK {
		t.Errorf("admin put settings status = %d, want 200", status)
	}
}

func TestPagination(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 5; i++ {
		status, _ := env.do(http.MethodPost, "/api/v1/incidents", env.dispatcherToken, CreateIncidentRequest{
			Title:    "Incident",
			Address:  "Somewhere",
			Severity: "low",
		})
		if status != http.StatusCreated {
			t.Fatalf("create #%d status = %d", i, status)
		}
	}

	status, resp := env.do(http.MethodGet, "/api/v1/incidents?limit=2&offset=4", env.dispatcherToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	var incidents []models.FireIncident
	if err := json.Unmarshal(resp.Data, &incidents); err != nil {
		t.Fatalf("decode incidents: %v", err)
	}
	if len(incidents) != 1 {
		t.Errorf("len(page) = %d, want 1", len(incidents))
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready", "/api/v1/health/"} {
		status, _ := env.do(http.MethodGet, path, "", nil)
		if status != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, status)
		}
	}
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	env := newTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/v1/ws"
	_, resp, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("dial without token succeeded, want rejection")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("handshake response = %+v, want 401", resp)
	}
}

func TestWebSocketConnectsWithQueryToken(t *testing.T) {
	env := newTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/v1/ws?token=" + env.dispatcherToken
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial with token error = %v", err)
	}
	defer conn.Close()

	// The client must be registered and reachable by broadcast.
	time.Sleep(50 * time.Millisecond)
	if got := env.hub.ClientCount(); got != 1 {
		t.Errorf("hub.ClientCount() = %d, want 1", got)
	}

	report := websocket.NewPublisher(env.hub).BroadcastAll("notification", websocket.NotificationData{
		Type:    "info",
		Message: "radio check",
	})
	if !report.Success || report.RecipientCount != 1 {
		t.Errorf("broadcast report = %+v, want success with 1 recipient", report)
	}

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg websocket.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != "notification" {
		t.Errorf("message type = %q, want notification", msg.Type)
	}
}
