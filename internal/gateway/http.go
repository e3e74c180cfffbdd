package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"smarthealth-frontend/internal/domain"
)

const defaultTimeout = 30 * time.Second

// HTTPClient implementa AuthGateway y QueryGateway contra el backend real.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient construye un cliente HTTP apuntando al backend de SmartHealth.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
		logger:  logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (domain.AuthSession, error) {
	status, body, err := c.post(ctx, "/auth/login", "", loginRequest{Email: email, Password: password})
	if err != nil {
		return domain.AuthSession{}, err
	}
	if status == http.StatusUnauthorized {
		return domain.AuthSession{}, &Error{Message: backendMessage(body, "Credenciales inválidas"), Status: status, Err: ErrInvalidCredentials}
	}
	if status >= 400 {
		return domain.AuthSession{}, c.statusError(status, body, "Error al iniciar sesión. Verifica tus credenciales.")
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return domain.AuthSession{}, fmt.Errorf("unmarshal login response: %w", err)
	}
	if strings.TrimSpace(lr.Token) == "" {
		return domain.AuthSession{}, errors.New("login response without token")
	}
	return domain.AuthSession{
		Token: lr.Token,
		User: domain.User{
			ID:       lr.UserID,
			FullName: lr.FullName,
			Email:    lr.Email,
		},
		IssuedAt: time.Now().UTC(),
	}, nil
}

func (c *HTTPClient) Register(ctx context.Context, fullName, email, password string) error {
	status, body, err := c.post(ctx, "/auth/register", "", registerRequest{FullName: fullName, Email: email, Password: password})
	if err != nil {
		return err
	}
	if status == http.StatusConflict {
		return &Error{Message: backendMessage(body, "Este correo ya está registrado"), Status: status, Err: ErrEmailTaken}
	}
	if status >= 400 {
		return c.statusError(status, body, "Error al crear la cuenta. Intenta nuevamente.")
	}
	return nil
}

func (c *HTTPClient) Query(ctx context.Context, req domain.QueryRequest) (domain.QueryResponse, error) {
	status, body, err := c.post(ctx, "/query", req.Token, req)
	if err != nil {
		return domain.QueryResponse{}, err
	}

	var qr domain.QueryResponse
	decodeErr := json.Unmarshal(body, &qr)
	// Un cuerpo con status explícito se entrega al controlador aunque el código HTTP sea de error.
	if decodeErr == nil && qr.Status != "" {
		return qr, nil
	}
	if status >= 400 {
		return domain.QueryResponse{}, c.statusError(status, body, "")
	}
	if decodeErr != nil {
		return domain.QueryResponse{}, fmt.Errorf("unmarshal query response: %w", decodeErr)
	}
	return domain.QueryResponse{}, errors.New("query response without status")
}

func (c *HTTPClient) post(ctx context.Context, path, bearer string, payload any) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("do request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func (c *HTTPClient) statusError(status int, body []byte, fallback string) error {
	c.logger.Warn("backend error status", zap.Int("status", status), zap.ByteString("body", truncate(body, 512)))
	return &Error{
		Message: backendMessage(body, fallback),
		Status:  status,
		Err:     fmt.Errorf("backend http error: status=%d", status),
	}
}

// backendMessage busca un mensaje legible en los formatos de error habituales:
// {"detail": "..."}, {"message": "..."}, {"error": "..."} o {"error": {"message": "..."}}.
func backendMessage(body []byte, fallback string) string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return fallback
	}
	for _, key := range []string{"detail", "message", "error"} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(v, &s) == nil && strings.TrimSpace(s) != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(v, &nested) == nil && strings.TrimSpace(nested.Message) != "" {
			return nested.Message
		}
	}
	return fallback
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
