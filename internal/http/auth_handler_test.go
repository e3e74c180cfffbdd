package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"smarthealth-frontend/internal/gateway"
	"smarthealth-frontend/internal/service"
)

func TestLoginPage_RendersForm(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `id="loginForm"`) {
		t.Fatalf("expected login form, got %s", body)
	}
	if !strings.Contains(body, `name="email" value="" autofocus`) {
		t.Fatalf("expected email field focused")
	}
}

func TestLogin_SuccessSetsCookie(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(formRequest(http.MethodPost, "/login", url.Values{
		"email":    {gateway.MockEmail},
		"password": {gateway.MockPassword},
	}, nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/chat" {
		t.Fatalf("expected redirect to /chat, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	cookie := sessionCookieFrom(t, rec)
	if !cookie.HttpOnly {
		t.Fatalf("expected HttpOnly cookie")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected SameSite=Lax, got %v", cookie.SameSite)
	}
	if strings.HasPrefix(cookie.Value, "mock_jwt_token_") {
		t.Fatalf("backend token must not reach the browser")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(formRequest(http.MethodPost, "/login", url.Values{
		"email":    {gateway.MockEmail},
		"password": {"otra-clave"},
	}, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Credenciales inválidas") {
		t.Fatalf("expected inline error, got %s", body)
	}
	if strings.Contains(body, "disabled") {
		t.Fatalf("expected form re-enabled")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("expected no cookie")
	}
}

func TestLogin_JSONValidationError(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(jsonRequest(http.MethodPost, "/login", `{"email":"no-es-correo","password":"x"}`, nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != service.MsgInvalidEmail {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestLoginPage_RedirectsWhenAuthenticated(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	for _, path := range []string{"/login", "/register"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(cookie)
		rec := env.do(req)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/chat" {
			t.Fatalf("%s: expected redirect to /chat, got %d", path, rec.Code)
		}
	}
}

func TestRegister_Success(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(formRequest(http.MethodPost, "/register", url.Values{
		"full_name":        {"Ana Pérez"},
		"email":            {"ana@example.com"},
		"password":         {"abcdefgh"},
		"confirm_password": {"abcdefgh"},
		"terms":            {"on"},
	}, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, service.MsgRegistered) {
		t.Fatalf("expected success message")
	}
	if !strings.Contains(body, `content="2;url=/login"`) {
		t.Fatalf("expected delayed redirect to login, got %s", body)
	}
}

func TestRegister_JSONConflict(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(jsonRequest(http.MethodPost, "/register", `{
		"full_name":"Ana Pérez",
		"email":"existing@smarthealth.com",
		"password":"abcdefgh",
		"confirm_password":"abcdefgh",
		"accept_terms":true
	}`, nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Este correo ya está registrado") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestRegister_MismatchKeepsValues(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(formRequest(http.MethodPost, "/register", url.Values{
		"full_name":        {"Ana Pérez"},
		"email":            {"ana@example.com"},
		"password":         {"abcdefgh"},
		"confirm_password": {"abcdefgx"},
		"terms":            {"on"},
	}, nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, service.MsgPasswordMismatch) || !strings.Contains(body, `value="ana@example.com"`) {
		t.Fatalf("expected mismatch error with values kept, got %s", body)
	}
}

func TestValidateConfirm(t *testing.T) {
	env := newTestEnv(t)
	cases := map[string]bool{
		`{"password":"abcdefgh","confirm_password":""}`:         false,
		`{"password":"abcdefgh","confirm_password":"abcdefgh"}`: false,
		`{"password":"abcdefgh","confirm_password":"abcd"}`:     true,
	}
	for body, want := range cases {
		rec := env.do(jsonRequest(http.MethodPost, "/api/validate/confirm", body, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got map[string]bool
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got["mismatch"] != want {
			t.Fatalf("%s: expected mismatch=%v", body, want)
		}
	}
}

func TestLogout_RevokesSessionAndControllers(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	req.AddCookie(cookie)
	if rec := env.do(req); rec.Code != http.StatusOK {
		t.Fatalf("expected chat page, got %d", rec.Code)
	}
	if env.registry.Len() != 1 {
		t.Fatalf("expected one chat instance, got %d", env.registry.Len())
	}

	rec := env.do(formRequest(http.MethodPost, "/logout", url.Values{}, cookie))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d", rec.Code)
	}
	if cleared := sessionCookieFrom(t, rec); cleared.MaxAge >= 0 {
		t.Fatalf("expected cookie cleared, got MaxAge=%d", cleared.MaxAge)
	}
	if env.registry.Len() != 0 {
		t.Fatalf("expected chat instances discarded")
	}

	// La cookie anterior ya no sirve en ninguna pestaña.
	req = httptest.NewRequest(http.MethodGet, "/chat", nil)
	req.AddCookie(cookie)
	rec = env.do(req)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect after logout, got %d", rec.Code)
	}
}
