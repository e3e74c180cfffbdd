package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smarthealth-frontend/internal/chat"
	"smarthealth-frontend/internal/gateway"
	"smarthealth-frontend/internal/service"
)

var testOrigins = []string{"https://app.example"}

type testEnv struct {
	router   *gin.Engine
	registry *chat.Registry
	tokens   *service.JWTService
	auth     *service.AuthController
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	tokens := service.NewJWTService("test-secret", time.Hour)
	authCtrl := service.NewAuthController(logger, gateway.NewMockAuthGateway(0, 0, logger), tokens, service.NewLoginRateLimiter(time.Minute, 50))
	registry := chat.NewRegistry()

	authH := NewAuthHandler(logger, authCtrl, registry, false, time.Hour)
	chatH := NewChatHandler(logger, registry, gateway.NewMockQueryGateway(0), service.NewHistoryService(logger, nil))
	wsH := NewWSHandler(logger, authCtrl, chatH, registry, WSConfig{AllowedOrigins: testOrigins})

	return &testEnv{
		router:   NewRouter(logger, testOrigins, authCtrl, authH, chatH, wsH),
		registry: registry,
		tokens:   tokens,
		auth:     authCtrl,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func formRequest(method, path string, values url.Values, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func jsonRequest(method, path, body string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatalf("session cookie not set")
	return nil
}

// login inicia sesión con las credenciales de prueba y devuelve la cookie.
func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := e.do(formRequest(http.MethodPost, "/login", url.Values{
		"email":    {gateway.MockEmail},
		"password": {gateway.MockPassword},
	}, nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login: expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	return sessionCookieFrom(t, rec)
}

func ginTestContext(rec *httptest.ResponseRecorder, method, path string) (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, engine
}
