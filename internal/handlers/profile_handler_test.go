package handlers_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"rideaxis/internal/models"
	"rideaxis/internal/testutil"
)

func TestProfileTerminalRequest(t *testing.T) {
	app := newTestApp(t)
	naval := testutil.Terminal(t, app.db, models.RouteNaval)
	driver := testutil.Driver(t, app.db, "joiner", nil, models.TerminalStatusPending)
	token := app.driverToken(t, driver)

	body := expectStatus(t, app.doRequest(http.MethodGet, "/profile", token, nil), http.StatusOK)
	info := body["terminal_info"].(map[string]interface{})
	if info["terminal_name"] != "None" || info["is_approved"] != false {
		t.Fatalf("terminal_info = %v", info)
	}
	if n := len(body["terminals"].([]interface{})); n != 1 {
		t.Fatalf("terminal options = %d", n)
	}

	body = expectStatus(t, app.doRequest(http.MethodPost, "/profile", token, url.Values{
		"username":             {"joiner"},
		"email":                {"joiner@example.com"},
		"first_name":           {"Jo"},
		"assigned_terminal_id": {"999"},
	}), http.StatusBadRequest)
	if errs := body["errors"].(map[string]interface{}); errs["assigned_terminal_id"] == nil {
		t.Fatalf("errors = %v", errs)
	}

	body = expectStatus(t, app.doRequest(http.MethodPost, "/profile", token, map[string]interface{}{
		"username":             "joiner",
		"email":                "joiner@example.com",
		"first_name":           "Jo",
		"assigned_terminal_id": naval.ID,
	}), http.StatusOK)
	want := "Profile updated! Your request to join NAVAL Terminal has been submitted for approval."
	if body["message"] != want {
		t.Fatalf("message = %v", body["message"])
	}
	info = body["terminal_info"].(map[string]interface{})
	if info["status"] != string(models.TerminalStatusPending) || info["status_color"] != "#ffc107" {
		t.Fatalf("terminal_info = %v", info)
	}
}

func TestProfileSwitchesExistingTerminal(t *testing.T) {
	app := newTestApp(t)
	naval := testutil.Terminal(t, app.db, models.RouteNaval)
	ormoc := testutil.Terminal(t, app.db, models.RouteOrmoc)
	driver := testutil.Driver(t, app.db, "mover", naval, models.TerminalStatusRejected)
	token := app.driverToken(t, driver)

	body := expectStatus(t, app.doRequest(http.MethodPost, "/profile", token, url.Values{
		"username":             {"mover"},
		"email":                {"mover@example.com"},
		"assigned_terminal_id": {fmt.Sprint(ormoc.ID)},
	}), http.StatusOK)
	want := "Profile updated! Your request to join ORMOC Terminal has been submitted for approval."
	if body["message"] != want {
		t.Fatalf("message = %v", body["message"])
	}

	var stored models.Driver
	app.db.First(&stored, driver.ID)
	if stored.AssignedTerminalID == nil || *stored.AssignedTerminalID != ormoc.ID {
		t.Fatalf("terminal = %v, want %d", stored.AssignedTerminalID, ormoc.ID)
	}
	if stored.TerminalStatus != models.TerminalStatusPending {
		t.Fatalf("status = %s", stored.TerminalStatus)
	}

	expectStatus(t, app.doRequest(http.MethodPost, "/profile", token, url.Values{
		"username": {"mover"},
		"email":    {"mover@example.com"},
	}), http.StatusOK)
	stored = models.Driver{}
	app.db.First(&stored, driver.ID)
	if stored.AssignedTerminalID != nil {
		t.Fatalf("terminal not cleared: %d", *stored.AssignedTerminalID)
	}
}

func TestDeactivatedDriverLosesSession(t *testing.T) {
	app := newTestApp(t)
	naval := testutil.Terminal(t, app.db, models.RouteNaval)
	admin := testutil.TerminalAdmin(t, app.db, "boss", naval)
	driver := testutil.Driver(t, app.db, "benched", naval, models.TerminalStatusApproved)
	ride := testutil.Ride(t, app.db, driver, naval.Code, models.RideStatusWaiting, time.Now())
	token := app.driverToken(t, driver)

	expectStatus(t, app.doRequest(http.MethodGet, "/profile", token, nil), http.StatusOK)

	body := expectStatus(t, app.doRequest(http.MethodPost, fmt.Sprintf("/terminal-admin/drivers/%d/toggle", driver.ID), app.adminToken(t, admin), nil), http.StatusOK)
	if body["message"] != "Driver benched has been deactivated." {
		t.Fatalf("toggle = %v", body["message"])
	}

	expectStatus(t, app.doRequest(http.MethodGet, "/profile", token, nil), http.StatusUnauthorized)
	expectStatus(t, app.doRequest(http.MethodPost, fmt.Sprintf("/ride/depart/%d", ride.ID), token, nil), http.StatusUnauthorized)
	expectStatus(t, app.doRequest(http.MethodPost, "/save-location", token, map[string]interface{}{
		"ride_id":   ride.ID,
		"latitude":  11.2,
		"longitude": 125.0,
	}), http.StatusUnauthorized)

	var stored models.Ride
	app.db.First(&stored, ride.ID)
	if stored.Status != models.RideStatusWaiting {
		t.Fatalf("ride status = %s", stored.Status)
	}
}

func TestProfilePictureUpload(t *testing.T) {
	app := newTestApp(t)
	driver := testutil.Driver(t, app.db, "pictured", nil, models.TerminalStatusPending)

	upload := func(filename string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, _ := w.CreateFormFile("profile_picture", filename)
		part.Write([]byte("\x89PNG fake image"))
		w.Close()

		req := httptest.NewRequest(http.MethodPost, "/profile/picture", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+app.driverToken(t, driver))
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, req)
		return rec
	}

	expectStatus(t, upload("notes.txt"), http.StatusBadRequest)

	body := expectStatus(t, upload("me.PNG"), http.StatusOK)
	path := body["profile_picture"].(string)
	if !strings.HasPrefix(path, "/uploads/profile_pictures/") || !strings.HasSuffix(path, ".png") {
		t.Fatalf("path = %q", path)
	}

	var stored models.Driver
	app.db.First(&stored, driver.ID)
	if "/uploads/"+stored.ProfilePicture != path {
		t.Fatalf("stored = %q", stored.ProfilePicture)
	}
}

func TestDeleteProfile(t *testing.T) {
	app := newTestApp(t)
	term := testutil.Terminal(t, app.db, models.RouteNaval)
	driver := testutil.Driver(t, app.db, "goodbye", term, models.TerminalStatusApproved)
	testutil.Ride(t, app.db, driver, term.Code, models.RideStatusWaiting, time.Now())
	token := app.driverToken(t, driver)

	expectStatus(t, app.doRequest(http.MethodPost, "/delete-profile", token, nil), http.StatusOK)

	var rides int64
	app.db.Model(&models.Ride{}).Count(&rides)
	if rides != 0 {
		t.Fatalf("rides left = %d", rides)
	}
	// the token outlives the account
	expectStatus(t, app.doRequest(http.MethodGet, "/profile", token, nil), http.StatusUnauthorized)
}
