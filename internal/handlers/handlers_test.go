package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"rideaxis/internal/models"
	"rideaxis/internal/routes"
	"rideaxis/internal/services"
	"rideaxis/internal/testutil"
	"rideaxis/internal/utils"
	"rideaxis/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type testApp struct {
	db     *gorm.DB
	router *gin.Engine
	issuer *utils.TokenIssuer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	issuer := utils.NewTokenIssuer("test-secret", time.Hour)
	hub := websocket.NewHub(nil)

	r := gin.New()
	routes.SetupRoutes(r.Group(""), routes.Deps{
		DB:        db,
		Issuer:    issuer,
		Tracker:   services.NewTracker(nil, hub, nil),
		Hub:       hub,
		Terminals: services.NewTerminalCache(db, time.Minute),
		Location:  time.UTC,
		UploadDir: t.TempDir(),
	})
	return &testApp{db: db, router: r, issuer: issuer}
}

func (a *testApp) driverToken(t *testing.T, d *models.Driver) string {
	t.Helper()
	token, err := a.issuer.GenerateDriverToken(d.ID, d.Username)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

func (a *testApp) adminToken(t *testing.T, admin *models.TerminalAdmin) string {
	t.Helper()
	token, err := a.issuer.GenerateTerminalAdminToken(admin.ID, admin.Username, admin.Terminal.ID, admin.Terminal.Name)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

// doRequest sends body as JSON. A url.Values body is sent form encoded.
func (a *testApp) doRequest(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, path, nil)
	case url.Values:
		req = httptest.NewRequest(method, path, strings.NewReader(b.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		data, _ := json.Marshal(b)
		req = httptest.NewRequest(method, path, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) map[string]interface{} {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, want, rec.Body.String())
	}
	return decode(t, rec)
}
