package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"agora/internal/testutil"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	testSecret  = "test-secret"
	testSession = "agora_session"
)

func newTestEngine(t *testing.T) (*gin.Engine, uint) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conn := testutil.SetupTestDB(t)
	user := testutil.CreateTestUser(t, conn, "alice")

	r := gin.New()
	r.Use(sessions.Sessions(testSession, cookie.NewStore([]byte(testSecret))))
	r.Use(LoadUser(conn))
	r.GET("/open", func(c *gin.Context) {
		name := ""
		if u := CurrentUser(c); u != nil {
			name = u.Name
		}
		c.String(http.StatusOK, name)
	})
	r.GET("/closed", AuthRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r, user.ID
}

func TestLoadUserFromSessionCookie(t *testing.T) {
	r, userID := newTestEngine(t)
	value, err := SessionCookie(testSecret, testSession, userID)
	if err != nil {
		t.Fatalf("SessionCookie failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.AddCookie(&http.Cookie{Name: testSession, Value: value})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "alice" {
		t.Errorf("Expected session user alice, got %q", w.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	r, userID := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/closed", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without session, got %d", w.Code)
	}

	forged, _ := SessionCookie("wrong-secret", testSession, userID)
	req := httptest.NewRequest(http.MethodGet, "/closed", nil)
	req.AddCookie(&http.Cookie{Name: testSession, Value: forged})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with forged cookie, got %d", w.Code)
	}

	value, _ := SessionCookie(testSecret, testSession, userID)
	req = httptest.NewRequest(http.MethodGet, "/closed", nil)
	req.AddCookie(&http.Cookie{Name: testSession, Value: value})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with session, got %d", w.Code)
	}
}

func TestRequestLoggerSetsID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	id := w.Header().Get(RequestIDHeader)
	if id == "" || id != w.Body.String() {
		t.Errorf("Expected generated request id echoed, header %q body %q", id, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get(RequestIDHeader) != "abc" {
		t.Errorf("Expected incoming request id kept, got %q", w.Header().Get(RequestIDHeader))
	}
}
