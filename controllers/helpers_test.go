package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stationlab/weatherapi/database/storetest"
	"github.com/stationlab/weatherapi/models"
	"github.com/stationlab/weatherapi/routes"
	"github.com/stationlab/weatherapi/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	t         *testing.T
	users     *storetest.Users
	readings  *storetest.Readings
	changelog *storetest.Changelog
	router    http.Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:         t,
		users:     storetest.NewUsers(),
		readings:  storetest.NewReadings(),
		changelog: &storetest.Changelog{},
	}
	h.router = routes.NewRouter(routes.Dependencies{
		Users:      h.users,
		Readings:   h.readings,
		Changelog:  h.changelog,
		AuthHeader: "Authorization",
		Limits:     utils.QueryLimits{Max: 50, Default: 2},
	})
	return h
}

// session stores a user holding token and returns it.
func (h *harness) session(email string, role models.Role, token string) *models.User {
	h.t.Helper()
	hash, err := utils.HashPassword("abc123")
	if err != nil {
		h.t.Fatalf("hash: %v", err)
	}
	return h.users.Put(models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		AuthToken:    &token,
		CreatedAt:    time.Now().UTC(),
	})
}

func (h *harness) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}
