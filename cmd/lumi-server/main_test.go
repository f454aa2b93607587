package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumicare/lumi/internal/config"
	"github.com/lumicare/lumi/internal/platform/auth"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		Env:            "test",
		Store:          config.StoreMemory,
		JWTSecret:      "server-test-secret",
		JWTIssuer:      "lumi",
		TokenTTL:       time.Hour,
		FixedOTP:       "1234",
		CORSOrigins:    []string{"http://localhost:5173"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		BodyLimit:      "1M",
		RequestTimeout: 5 * time.Second,
		MetricsPrefix:  "lumi_e2e",
	}
}

func newTestServer(cfg *config.Config) *echo.Echo {
	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.TokenTTL)
	return newServer(cfg, zerolog.Nop(), nil, tokens)
}

type client struct {
	t     *testing.T
	e     *echo.Echo
	token string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func register(t *testing.T, e *echo.Echo, phone, name string) *client {
	t.Helper()
	c := &client{t: t, e: e}
	rec := c.do(http.MethodPost, "/auth/register", map[string]any{
		"phone":       phone,
		"fullname":    name,
		"dob":         "1950-03-14",
		"blood_group": "o+",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "bearer", body["token_type"])
	c.token = body["access_token"].(string)
	return c
}

func TestServer_Infrastructure(t *testing.T) {
	e := newTestServer(testConfig())
	anon := &client{t: t, e: e}

	rec := anon.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Lumi API", decode(t, rec)["message"])

	rec = anon.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = anon.do(http.MethodGet, "/health/db", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = anon.do(http.MethodGet, "/medications", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decode(t, rec), "detail")

	rec = anon.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lumi_e2e_http_requests_total")
}

func TestServer_AuthFlow(t *testing.T) {
	e := newTestServer(testConfig())
	anon := &client{t: t, e: e}

	rec := anon.do(http.MethodPost, "/auth/check-user", map[string]string{"phone": "5550100"})
	assert.Equal(t, false, decode(t, rec)["exists"])

	u := register(t, e, "5550100", "Asha Rao")

	rec = anon.do(http.MethodPost, "/auth/check-user", map[string]string{"phone": "5550100"})
	assert.Equal(t, true, decode(t, rec)["exists"])

	rec = anon.do(http.MethodPost, "/auth/register", map[string]any{
		"phone": "5550100", "fullname": "Dup", "dob": "1960-01-01", "blood_group": "A+",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = anon.do(http.MethodPost, "/auth/login", map[string]string{"phone": "5550100", "otp": "0000"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = anon.do(http.MethodPost, "/auth/login", map[string]string{"phone": "5550100", "otp": "1234"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["access_token"])

	rec = u.do(http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Equal(t, "Asha Rao", me["fullname"])
	assert.Equal(t, "O+", me["blood_group"])
	assert.Equal(t, "1950-03-14", me["dob"])

	rec = u.do(http.MethodPut, "/users/me/", map[string]any{
		"fullname": "Asha R.", "dob": "1950-03-14", "blood_group": "B-", "address": "12 Lake Rd",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "12 Lake Rd", decode(t, rec)["address"])

	rec = u.do(http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = u.do(http.MethodGet, "/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_MedicationAdherence(t *testing.T) {
	e := newTestServer(testConfig())
	u := register(t, e, "5550200", "Ravi Kumar")

	rec := u.do(http.MethodPost, "/medications", map[string]any{
		"name": "Metformin", "dosage": "500mg", "scheduled_time": "08:30", "start_date": "2026-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	medID := int64(decode(t, rec)["id"].(float64))
	logPath := fmt.Sprintf("/medications/%d/log", medID)

	rec = u.do(http.MethodPost, logPath, map[string]any{"date": "2026-01-05", "status": "Missed"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "missed", decode(t, rec)["status"])

	rec = u.do(http.MethodPost, logPath, map[string]any{
		"date": "2026-01-05", "status": "taken", "taken_at": "2026-01-05T08:40:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "taken", decode(t, rec)["status"])

	rec = u.do(http.MethodPost, logPath, map[string]any{"date": "2026-01-06", "status": "missed"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = u.do(http.MethodPost, logPath, map[string]any{"date": "2025-12-31", "status": "taken"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = u.do(http.MethodPost, logPath, map[string]any{"date": "2026-01-07", "status": "skipped"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = u.do(http.MethodGet, "/medications/logs?start_date=2026-01-01&end_date=2026-01-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	assert.Len(t, logs, 2)

	rec = u.do(http.MethodGet, "/medications/adherence?start_date=2026-01-01&end_date=2026-01-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode(t, rec)
	assert.Equal(t, 1.0, summary["taken"])
	assert.Equal(t, 1.0, summary["missed"])
	assert.Equal(t, 2.0, summary["total"])
	assert.Equal(t, 50.0, summary["adherence_rate"])

	rec = u.do(http.MethodGet, "/medications/adherence?start_date=2026-02-01&end_date=2026-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A second user sees none of it.
	other := register(t, e, "5550201", "Meera Iyer")
	rec = other.do(http.MethodGet, fmt.Sprintf("/medications/%d", medID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = other.do(http.MethodPost, logPath, map[string]any{"date": "2026-01-05", "status": "taken"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = other.do(http.MethodGet, "/medications/adherence?start_date=2026-01-01&end_date=2026-01-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100.0, decode(t, rec)["adherence_rate"])
}

func TestServer_EmergencyAndNominees(t *testing.T) {
	e := newTestServer(testConfig())
	u := register(t, e, "5550300", "Lakshmi N")

	rec := u.do(http.MethodGet, "/emergency/active", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = u.do(http.MethodPost, "/emergency", map[string]string{"stage": "alert_family"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	alertID := int64(decode(t, rec)["id"].(float64))

	rec = u.do(http.MethodPost, "/emergency", map[string]string{"stage": "call_ambulance"})
	require.Equal(t, http.StatusOK, rec.Code)
	escalated := decode(t, rec)
	assert.Equal(t, float64(alertID), escalated["id"])
	assert.Equal(t, "call_ambulance", escalated["stage"])

	other := register(t, e, "5550301", "Someone Else")
	rec = other.do(http.MethodPost, fmt.Sprintf("/emergency/%d/resolve", alertID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = u.do(http.MethodPost, fmt.Sprintf("/emergency/%d/resolve", alertID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["is_active"])

	rec = u.do(http.MethodGet, "/emergency/active", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = u.do(http.MethodGet, "/emergency", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, decode(t, rec)["total"])

	rec = u.do(http.MethodPost, "/nominees", map[string]string{
		"name": "Kiran", "relationship": "son", "phone": "5550399",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	nomineeID := int64(decode(t, rec)["id"].(float64))

	rec = other.do(http.MethodDelete, fmt.Sprintf("/nominees/%d", nomineeID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = u.do(http.MethodDelete, fmt.Sprintf("/nominees/%d", nomineeID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
