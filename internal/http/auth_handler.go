package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"smarthealth-frontend/internal/chat"
	"smarthealth-frontend/internal/gateway"
	"smarthealth-frontend/internal/service"
)

// formPage es el estado de un formulario de autenticación y también su FormView.
type formPage struct {
	Error         string
	Success       string
	Loading       bool
	Disabled      bool
	Autofocus     string
	RedirectTo    string
	RedirectAfter int

	FullName string
	Email    string
	Terms    bool
}

func (p *formPage) ShowError(msg string)        { p.Error = msg }
func (p *formPage) HideError()                  { p.Error = "" }
func (p *formPage) ShowSuccess(msg string)      { p.Success = msg }
func (p *formPage) SetLoading(loading bool)     { p.Loading = loading }
func (p *formPage) SetFormEnabled(enabled bool) { p.Disabled = !enabled }
func (p *formPage) Focus(field string)          { p.Autofocus = field }

func (p *formPage) Navigate(path string, delay time.Duration) {
	p.RedirectTo = path
	p.RedirectAfter = int(delay / time.Second)
}

// AuthHandler atiende las páginas de login, registro y el logout.
type AuthHandler struct {
	logger       *zap.Logger
	auth         *service.AuthController
	registry     *chat.Registry
	cookieSecure bool
	cookieTTL    time.Duration
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, auth *service.AuthController, registry *chat.Registry, cookieSecure bool, cookieTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		logger:       logger,
		auth:         auth,
		registry:     registry,
		cookieSecure: cookieSecure,
		cookieTTL:    cookieTTL,
	}
}

// LoginPage maneja GET /login.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	h.formPage(c, service.PageLogin, "login.html")
}

// RegisterPage maneja GET /register.
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	h.formPage(c, service.PageRegister, "register.html")
}

func (h *AuthHandler) formPage(c *gin.Context, page service.Page, tpl string) {
	view := &formPage{}
	if h.auth.Guard(c.Request.Context(), page, sessionCookie(c), view) {
		c.Redirect(http.StatusSeeOther, view.RedirectTo)
		return
	}
	c.HTML(http.StatusOK, tpl, view)
}

// Login maneja POST /login (formulario o JSON).
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `form:"email" json:"email"`
		Password string `form:"password" json:"password"`
	}
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	view := &formPage{Email: strings.TrimSpace(req.Email)}
	token, err := h.auth.Login(c.Request.Context(), service.LoginInput{Email: req.Email, Password: req.Password}, view)
	if err != nil {
		h.respondForm(c, errorStatus(err), "login.html", view)
		return
	}

	h.setSessionCookie(c, token)
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"redirect": view.RedirectTo})
		return
	}
	c.Redirect(http.StatusSeeOther, view.RedirectTo)
}

// Register maneja POST /register (formulario o JSON).
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		FullName        string `form:"full_name" json:"full_name"`
		Email           string `form:"email" json:"email"`
		Password        string `form:"password" json:"password"`
		ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
		AcceptTerms     bool   `form:"-" json:"accept_terms"`
		TermsCheckbox   string `form:"terms" json:"-"`
	}
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	accepted := req.AcceptTerms || req.TermsCheckbox != ""
	view := &formPage{FullName: strings.TrimSpace(req.FullName), Email: strings.TrimSpace(req.Email), Terms: accepted}
	err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		AcceptTerms:     accepted,
	}, view)
	if err != nil {
		h.respondForm(c, errorStatus(err), "register.html", view)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusCreated, gin.H{
			"message":           view.Success,
			"redirect":          view.RedirectTo,
			"redirect_after_ms": service.RegisterRedirectDelay.Milliseconds(),
		})
		return
	}
	// El formulario queda bloqueado mientras corre la redirección.
	view.Disabled = true
	c.HTML(http.StatusCreated, "register.html", view)
}

// ValidateConfirm maneja POST /api/validate/confirm.
func (h *AuthHandler) ValidateConfirm(c *gin.Context) {
	var req struct {
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mismatch": service.ConfirmMismatch(req.Password, req.ConfirmPassword)})
}

// Logout maneja POST /logout: revoca la sesión en el store, descarta los
// controladores de chat asociados y borra la cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := sessionCookie(c)
	if token != "" {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil {
			h.logger.Warn("logout failed", zap.Error(err))
		}
		if h.registry != nil {
			h.registry.RemovePrefix(tokenPrefix(token))
		}
	}
	h.clearSessionCookie(c)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"redirect": service.PathLogin})
		return
	}
	c.Redirect(http.StatusSeeOther, service.PathLogin)
}

func (h *AuthHandler) respondForm(c *gin.Context, status int, tpl string, view *formPage) {
	if wantsJSON(c) {
		c.JSON(status, gin.H{"error": view.Error})
		return
	}
	c.HTML(status, tpl, view)
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(h.cookieTTL.Seconds()), "/", "", h.cookieSecure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", h.cookieSecure, true)
}

// errorStatus traduce los errores de los formularios a códigos HTTP.
func errorStatus(err error) int {
	var formErr *service.FormError
	switch {
	case errors.As(err, &formErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, gateway.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, gateway.ErrEmailTaken):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func wantsJSON(c *gin.Context) bool {
	if c.ContentType() == binding.MIMEJSON {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), binding.MIMEJSON)
}
