package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rideaxis/internal/middleware"
	"rideaxis/internal/models"
	"rideaxis/internal/testutil"
	"rideaxis/internal/utils"

	"github.com/gin-gonic/gin"
)

func newRouter(issuer *utils.TokenIssuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.SessionLoader(issuer))

	r.GET("/driver", middleware.DriverRequired(), func(c *gin.Context) {
		id, _ := middleware.DriverID(c)
		c.JSON(http.StatusOK, gin.H{"driver_id": id})
	})
	r.GET("/admin", middleware.TerminalAdminRequired(), func(c *gin.Context) {
		id, _ := middleware.TerminalAdminID(c)
		c.JSON(http.StatusOK, gin.H{"admin_id": id, "terminal_id": c.GetUint(middleware.KeyTerminalID)})
	})
	r.POST("/login", func(c *gin.Context) {
		token, _ := issuer.GenerateDriverToken(5, "juan")
		middleware.SetSession(c, issuer, token, false)
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r http.Handler, method, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDriverRequired(t *testing.T) {
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	r := newRouter(issuer)
	driverToken, _ := issuer.GenerateDriverToken(5, "juan")
	adminToken, _ := issuer.GenerateTerminalAdminToken(2, "admin", 1, "Naval")

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"invalid token", "not-a-token", http.StatusUnauthorized},
		{"terminal admin", adminToken, http.StatusForbidden},
		{"driver", driverToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(r, http.MethodGet, "/driver", func(req *http.Request) {
				if tt.token != "" {
					req.Header.Set("Authorization", "Bearer "+tt.token)
				}
			})
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d (%s)", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTerminalAdminRequiredUsesCookie(t *testing.T) {
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	r := newRouter(issuer)
	adminToken, _ := issuer.GenerateTerminalAdminToken(2, "admin", 4, "Naval")
	driverToken, _ := issuer.GenerateDriverToken(5, "juan")

	rec := doRequest(r, http.MethodGet, "/admin", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: adminToken})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != `{"admin_id":2,"terminal_id":4}` {
		t.Errorf("unexpected body %s", body)
	}

	rec = doRequest(r, http.MethodGet, "/admin", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: driverToken})
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for driver session, got %d", rec.Code)
	}
}

func TestSetSessionWritesHttpOnlyCookie(t *testing.T) {
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	r := newRouter(issuer)

	rec := doRequest(r, http.MethodPost, "/login", nil)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	if cookies[0].Name != middleware.SessionCookie || !cookies[0].HttpOnly {
		t.Errorf("unexpected cookie %+v", cookies[0])
	}

	rec = doRequest(r, http.MethodGet, "/driver", func(req *http.Request) {
		req.AddCookie(cookies[0])
	})
	if rec.Code != http.StatusOK {
		t.Errorf("expected cookie session to pass, got %d", rec.Code)
	}
}

func TestActiveDriverDropsDeactivatedSessions(t *testing.T) {
	db := testutil.NewDB(t)
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	driver := testutil.Driver(t, db, "juan", nil, models.TerminalStatusPending)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.SessionLoader(issuer))
	r.GET("/driver", middleware.DriverRequired(), middleware.ActiveDriver(db), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	token, _ := issuer.GenerateDriverToken(driver.ID, driver.Username)
	withToken := func(tok string) func(*http.Request) {
		return func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+tok) }
	}

	if rec := doRequest(r, http.MethodGet, "/driver", withToken(token)); rec.Code != http.StatusOK {
		t.Fatalf("active driver: expected 200, got %d", rec.Code)
	}

	if err := db.Model(&models.Driver{}).Where("id = ?", driver.ID).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}
	if rec := doRequest(r, http.MethodGet, "/driver", withToken(token)); rec.Code != http.StatusUnauthorized {
		t.Errorf("deactivated driver: expected 401, got %d", rec.Code)
	}

	ghost, _ := issuer.GenerateDriverToken(driver.ID+100, "ghost")
	if rec := doRequest(r, http.MethodGet, "/driver", withToken(ghost)); rec.Code != http.StatusUnauthorized {
		t.Errorf("deleted driver: expected 401, got %d", rec.Code)
	}
}
