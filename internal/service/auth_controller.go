package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"smarthealth-frontend/internal/domain"
	"smarthealth-frontend/internal/gateway"
)

const (
	MsgLoginFailed     = "Error al iniciar sesión. Verifica tus credenciales."
	MsgRegisterFailed  = "Error al crear la cuenta. Intenta nuevamente."
	MsgRegistered      = "¡Cuenta creada exitosamente! Redirigiendo al login..."
	MsgTooManyAttempts = "Demasiados intentos. Intenta nuevamente más tarde."
	MsgLogoutConfirm   = "¿Estás seguro de que deseas cerrar sesión?"
)

// Rutas de navegación de las páginas.
const (
	PathLogin    = "/login"
	PathRegister = "/register"
	PathChat     = "/chat"
)

// RegisterRedirectDelay es la espera entre el mensaje de éxito y la redirección al login.
const RegisterRedirectDelay = 2 * time.Second

var (
	ErrRateLimited       = errors.New("rate limited")
	ErrAuthNotConfigured = errors.New("auth controller not configured")
)

// Page identifica el formulario que controla el AuthController.
type Page string

const (
	PageLogin    Page = "login"
	PageRegister Page = "register"
)

// firstField es el campo que recibe el foco al mostrar el formulario.
func (p Page) firstField() string {
	if p == PageRegister {
		return "fullName"
	}
	return "email"
}

// FormView es la proyección de un formulario de autenticación.
type FormView interface {
	ShowError(msg string)
	HideError()
	ShowSuccess(msg string)
	SetLoading(loading bool)
	SetFormEnabled(enabled bool)
	Focus(field string)
	Navigate(path string, delay time.Duration)
}

// AuthController coordina los formularios de login y registro.
type AuthController struct {
	logger  *zap.Logger
	auth    gateway.AuthGateway
	tokens  *JWTService
	limiter LoginRateLimiter
}

func NewAuthController(logger *zap.Logger, auth gateway.AuthGateway, tokens *JWTService, limiter LoginRateLimiter) *AuthController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthController{
		logger:  logger,
		auth:    auth,
		tokens:  tokens,
		limiter: limiter,
	}
}

// Session devuelve la sesión autenticada referenciada por el token de la cookie.
func (a *AuthController) Session(ctx context.Context, token string) (domain.AuthSession, error) {
	if a.tokens == nil {
		return domain.AuthSession{}, ErrAuthNotConfigured
	}
	return a.tokens.Resolve(ctx, token)
}

// Guard redirige al chat si ya hay una sesión válida; en ese caso devuelve true
// y el formulario no debe mostrarse. Si no, enfoca el primer campo.
func (a *AuthController) Guard(ctx context.Context, page Page, token string, view FormView) bool {
	if strings.TrimSpace(token) != "" {
		if _, err := a.Session(ctx, token); err == nil {
			view.Navigate(PathChat, 0)
			return true
		}
	}
	view.Focus(page.firstField())
	return false
}

// Login valida, consulta al AuthGateway y devuelve el token de la cookie de sesión.
func (a *AuthController) Login(ctx context.Context, in LoginInput, view FormView) (string, error) {
	if a.auth == nil || a.tokens == nil {
		return "", ErrAuthNotConfigured
	}
	view.HideError()

	in, formErr := ValidateLogin(in)
	if formErr != nil {
		view.ShowError(formErr.Message)
		return "", formErr
	}
	if a.limiter != nil && !a.limiter.Allow(normalizeEmail(in.Email)) {
		a.logger.Warn("login rate limited", zap.String("email", normalizeEmail(in.Email)))
		view.ShowError(MsgTooManyAttempts)
		return "", ErrRateLimited
	}

	view.SetLoading(true)
	view.SetFormEnabled(false)
	defer func() {
		view.SetLoading(false)
		view.SetFormEnabled(true)
	}()

	session, err := a.auth.Login(ctx, in.Email, in.Password)
	if err != nil {
		a.logger.Warn("login failed", zap.Error(err), zap.String("email", normalizeEmail(in.Email)))
		view.ShowError(userMessage(err, MsgLoginFailed))
		return "", err
	}
	token, session, err := a.tokens.Issue(ctx, session)
	if err != nil {
		a.logger.Error("issue session token failed", zap.Error(err))
		view.ShowError(MsgLoginFailed)
		return "", err
	}
	a.logger.Info("login ok", zap.String("user_id", session.User.ID))
	view.Navigate(PathChat, 0)
	return token, nil
}

// Register valida y crea la cuenta. Tras el éxito navega al login con retardo.
func (a *AuthController) Register(ctx context.Context, in RegisterInput, view FormView) error {
	if a.auth == nil {
		return ErrAuthNotConfigured
	}
	view.HideError()

	in, formErr := ValidateRegister(in)
	if formErr != nil {
		view.ShowError(formErr.Message)
		return formErr
	}

	view.SetLoading(true)
	view.SetFormEnabled(false)
	defer func() {
		view.SetLoading(false)
		view.SetFormEnabled(true)
	}()

	if err := a.auth.Register(ctx, in.FullName, in.Email, in.Password); err != nil {
		a.logger.Warn("register failed", zap.Error(err), zap.String("email", normalizeEmail(in.Email)))
		view.ShowError(userMessage(err, MsgRegisterFailed))
		return err
	}
	a.logger.Info("account registered", zap.String("email", normalizeEmail(in.Email)))
	view.ShowSuccess(MsgRegistered)
	view.Navigate(PathLogin, RegisterRedirectDelay)
	return nil
}

// Logout revoca la sesión. Un token ya inválido no es un error.
func (a *AuthController) Logout(ctx context.Context, token string) error {
	if a.tokens == nil || strings.TrimSpace(token) == "" {
		return nil
	}
	err := a.tokens.Revoke(ctx, token)
	if errors.Is(err, ErrJWTInvalid) || errors.Is(err, ErrJWTExpired) {
		return nil
	}
	if err != nil {
		a.logger.Warn("logout revoke failed", zap.Error(err))
	}
	return err
}

func userMessage(err error, fallback string) string {
	if msg, ok := gateway.UserMessage(err); ok {
		return msg
	}
	return fallback
}
