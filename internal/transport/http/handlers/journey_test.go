package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"timeoff/internal/app/server"
	"timeoff/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func TestLeaveRequestJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Config{
		DatabaseURL:       dbURL,
		JWTSecret:         "test-secret",
		Environment:       "test",
		SeedAdminEmail:    "admin@test.local",
		SeedAdminPassword: "ChangeMe123!",
		EmailFrom:         "no-reply@test.local",
		RunMigrations:     true,
		RunSeed:           true,
		MaxBodyBytes:      1048576,
	}

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()

	client := ts.Client()
	token := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	departmentID := createDepartment(t, client, ts.URL, token)
	leaveTypeID := createLeaveType(t, client, ts.URL, token)

	employeeEmail := fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano())
	employeeID := createEmployee(t, client, ts.URL, token, employeeEmail, departmentID)

	requestID := createLeaveRequest(t, client, ts.URL, token, employeeID, leaveTypeID)
	submitLeaveRequest(t, client, ts.URL, token, requestID)

	state := approveLeaveRequest(t, client, ts.URL, token, requestID)
	if state != "validate" {
		t.Fatalf("expected request to end in validate, got %s", state)
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	body := map[string]string{"email": email, "password": password}
	data := postJSON(t, client, baseURL+"/api/v1/auth/login", "", body, http.StatusOK)

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	return resp.Token
}

func createDepartment(t *testing.T, client *http.Client, baseURL, token string) string {
	t.Helper()
	body := map[string]string{"name": fmt.Sprintf("Journey Dept %d", time.Now().UnixNano())}
	data := postJSON(t, client, baseURL+"/api/v1/org/departments", token, body, http.StatusCreated)
	return extractID(t, data)
}

func createLeaveType(t *testing.T, client *http.Client, baseURL, token string) string {
	t.Helper()
	body := map[string]any{
		"name":       "Journey Leave",
		"code":       fmt.Sprintf("JL-%d", time.Now().UnixNano()),
		"validation": "single",
	}
	data := postJSON(t, client, baseURL+"/api/v1/leave/types", token, body, http.StatusCreated)
	return extractID(t, data)
}

func createEmployee(t *testing.T, client *http.Client, baseURL, token, email, departmentID string) string {
	t.Helper()
	body := map[string]string{
		"firstName":    "Journey",
		"lastName":     "Tester",
		"email":        email,
		"departmentId": departmentID,
	}
	data := postJSON(t, client, baseURL+"/api/v1/org/employees", token, body, http.StatusCreated)
	return extractID(t, data)
}

func createLeaveRequest(t *testing.T, client *http.Client, baseURL, token, employeeID, leaveTypeID string) string {
	t.Helper()
	from := time.Now().AddDate(0, 1, 0).Format("2006-01-02")
	to := time.Now().AddDate(0, 1, 2).Format("2006-01-02")
	body := map[string]string{
		"employeeId":  employeeID,
		"leaveTypeId": leaveTypeID,
		"dateFrom":    from,
		"dateTo":      to,
	}
	data := postJSON(t, client, baseURL+"/api/v1/leave/requests", token, body, http.StatusCreated)
	return extractID(t, data)
}

func submitLeaveRequest(t *testing.T, client *http.Client, baseURL, token, requestID string) {
	t.Helper()
	postJSON(t, client, baseURL+"/api/v1/leave/requests/"+requestID+"/submit", token, map[string]string{}, http.StatusOK)
}

func approveLeaveRequest(t *testing.T, client *http.Client, baseURL, token, requestID string) string {
	t.Helper()
	data := postJSON(t, client, baseURL+"/api/v1/leave/requests/"+requestID+"/approve", token, map[string]string{}, http.StatusOK)

	var resp struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode approve response: %v", err)
	}
	return resp.State
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any, wantStatus int) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s: %v", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s: expected status %d, got %d: %s", url, wantStatus, resp.StatusCode, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env.Data
}

func extractID(t *testing.T, data json.RawMessage) string {
	t.Helper()
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode id: %v", err)
	}
	if resp.ID == "" {
		t.Fatal("expected an id")
	}
	return resp.ID
}
