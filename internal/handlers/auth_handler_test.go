package handlers_test

import (
	"net/http"
	"net/url"
	"testing"

	"rideaxis/internal/middleware"
	"rideaxis/internal/models"
	"rideaxis/internal/testutil"
	"rideaxis/internal/utils"
)

func TestRegister(t *testing.T) {
	app := newTestApp(t)

	rec := app.doRequest(http.MethodPost, "/register", "", url.Values{
		"username":  {"newdriver"},
		"email":     {"new@example.com"},
		"password1": {"long-password"},
		"password2": {"other-password"},
	})
	body := expectStatus(t, rec, http.StatusBadRequest)
	errs := body["errors"].(map[string]interface{})
	if errs["password2"] != "Passwords do not match." {
		t.Fatalf("errors = %v", errs)
	}

	rec = app.doRequest(http.MethodPost, "/register", "", map[string]string{
		"username":  "newdriver",
		"email":     "not-an-email",
		"password1": "short",
		"password2": "short",
	})
	errs = expectStatus(t, rec, http.StatusBadRequest)["errors"].(map[string]interface{})
	if errs["email"] != "Enter a valid email address." {
		t.Fatalf("email error = %v", errs["email"])
	}
	if errs["password1"] != "Ensure this value has at least 8 characters." {
		t.Fatalf("password1 error = %v", errs["password1"])
	}

	rec = app.doRequest(http.MethodPost, "/register", "", map[string]string{
		"username":  "newdriver",
		"email":     "new@example.com",
		"password1": "long-password",
		"password2": "long-password",
		"sex":       "Female",
	})
	body = expectStatus(t, rec, http.StatusCreated)
	if body["token"] == "" {
		t.Fatal("no token returned")
	}
	if cookie := rec.Result().Cookies(); len(cookie) == 0 || cookie[0].Name != middleware.SessionCookie {
		t.Fatalf("session cookie not set: %v", cookie)
	}

	rec = app.doRequest(http.MethodPost, "/register", "", map[string]string{
		"username":  "newdriver",
		"email":     "other@example.com",
		"password1": "long-password",
		"password2": "long-password",
	})
	errs = expectStatus(t, rec, http.StatusBadRequest)["errors"].(map[string]interface{})
	if errs["username"] == nil {
		t.Fatalf("duplicate username accepted: %v", errs)
	}
}

func TestUnifiedLogin(t *testing.T) {
	app := newTestApp(t)
	term := testutil.Terminal(t, app.db, models.RouteNaval)
	testutil.Driver(t, app.db, "driverone", term, models.TerminalStatusApproved)
	testutil.TerminalAdmin(t, app.db, "adminone", term)

	body := expectStatus(t, app.doRequest(http.MethodPost, "/login", "", map[string]string{
		"username": "driverone", "password": testutil.Password,
	}), http.StatusOK)
	if body["role"] != utils.RoleDriver || body["redirect"] != "profile" {
		t.Fatalf("driver login = %v", body)
	}

	body = expectStatus(t, app.doRequest(http.MethodPost, "/login", "", map[string]string{
		"username": "adminone", "password": testutil.Password,
	}), http.StatusOK)
	if body["role"] != utils.RoleTerminalAdmin || body["redirect"] != "terminal_admin_dashboard" {
		t.Fatalf("admin login = %v", body)
	}

	// the admin token opens the dashboard
	token := body["token"].(string)
	expectStatus(t, app.doRequest(http.MethodGet, "/terminal-admin/dashboard", token, nil), http.StatusOK)

	body = expectStatus(t, app.doRequest(http.MethodPost, "/login", "", map[string]string{
		"username": "driverone", "password": "wrong",
	}), http.StatusUnauthorized)
	if body["error"] != "Invalid username or password" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestRoleGates(t *testing.T) {
	app := newTestApp(t)
	term := testutil.Terminal(t, app.db, models.RouteNaval)
	driver := testutil.Driver(t, app.db, "gated", term, models.TerminalStatusApproved)
	admin := testutil.TerminalAdmin(t, app.db, "gatekeeper", term)

	expectStatus(t, app.doRequest(http.MethodGet, "/profile", "", nil), http.StatusUnauthorized)
	expectStatus(t, app.doRequest(http.MethodGet, "/profile", app.adminToken(t, admin), nil), http.StatusForbidden)
	expectStatus(t, app.doRequest(http.MethodGet, "/terminal-admin/dashboard", app.driverToken(t, driver), nil), http.StatusForbidden)

	body := expectStatus(t, app.doRequest(http.MethodGet, "/terminal-admin/dashboard", "", nil), http.StatusUnauthorized)
	if body["error"] != "Please login to access the admin panel." {
		t.Fatalf("error = %v", body["error"])
	}

	expectStatus(t, app.doRequest(http.MethodPost, "/logout", "", nil), http.StatusOK)
}
