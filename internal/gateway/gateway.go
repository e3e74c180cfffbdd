// Package gateway aísla los intercambios con el backend de SmartHealth.
// Hay dos variantes: Mock (respuestas simuladas con latencia fija) y HTTP.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"smarthealth-frontend/internal/config"
	"smarthealth-frontend/internal/domain"
)

// AuthGateway realiza el intercambio de credenciales y el registro de cuentas.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (domain.AuthSession, error)
	Register(ctx context.Context, fullName, email, password string) error
}

// QueryGateway envía una pregunta sobre un paciente y devuelve la respuesta del backend.
type QueryGateway interface {
	Query(ctx context.Context, req domain.QueryRequest) (domain.QueryResponse, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnknownMode        = errors.New("unknown backend mode")
)

// Error es un fallo de intercambio cuyo Message puede mostrarse tal cual al usuario.
type Error struct {
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage extrae el mensaje visible de un error de gateway.
func UserMessage(err error) (string, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message, true
	}
	return "", false
}

// New construye los gateways según BACKEND_MODE.
func New(cfg *config.Config, logger *zap.Logger) (AuthGateway, QueryGateway, error) {
	switch cfg.BackendMode {
	case config.BackendModeMock, "":
		return NewMockAuthGateway(cfg.MockLoginDelay, cfg.MockRegisterDelay, logger),
			NewMockQueryGateway(cfg.MockQueryDelay),
			nil
	case config.BackendModeHTTP:
		client := NewHTTPClient(cfg.BackendBaseURL, cfg.BackendTimeout, logger)
		return client, client, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.BackendMode)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
