package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"smarthealth-frontend/internal/domain"
)

const (
	defaultSessionTTL = 8 * time.Hour
	sessionTokenType  = "session"
)

// JWTService emite y valida el token de la cookie de sesión. El token solo
// referencia (jti) la AuthSession guardada en el store; el token del backend
// nunca sale del servidor.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	store  SessionStore
}

type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid      = errors.New("jwt invalid")
	ErrJWTExpired      = errors.New("jwt expired")
	ErrSessionNotFound = errors.New("session not found")
)

func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "smarthealth-frontend",
		store:  NewMemorySessionStore(),
	}
}

func NewJWTServiceWithStore(secret string, ttl time.Duration, store SessionStore) *JWTService {
	svc := NewJWTService(secret, ttl)
	if store != nil {
		svc.store = store
	}
	return svc
}

// TTL devuelve la vigencia de los tokens emitidos (también usada para la cookie).
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// Issue guarda la sesión y devuelve el token firmado que la referencia.
func (s *JWTService) Issue(ctx context.Context, session domain.AuthSession) (string, domain.AuthSession, error) {
	if len(s.secret) == 0 {
		return "", domain.AuthSession{}, ErrJWTInvalid
	}
	if strings.TrimSpace(session.Token) == "" {
		return "", domain.AuthSession{}, ErrJWTInvalid
	}
	now := time.Now().UTC()
	if session.IssuedAt.IsZero() {
		session.IssuedAt = now
	}
	session.ExpiresAt = now.Add(s.ttl)

	jti := uuid.NewString()
	subject := session.User.ID
	if subject == "" {
		subject = normalizeEmail(session.User.Email)
	}
	claims := Claims{
		UserID:    subject,
		Email:     session.User.Email,
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", domain.AuthSession{}, err
	}
	if err := s.store.Save(ctx, jti, session, s.ttl); err != nil {
		return "", domain.AuthSession{}, err
	}
	return signed, session, nil
}

// Resolve valida el token y devuelve la sesión guardada. Una sesión revocada
// devuelve ErrSessionNotFound.
func (s *JWTService) Resolve(ctx context.Context, tokenString string) (domain.AuthSession, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return domain.AuthSession{}, err
	}
	session, ok, err := s.store.Get(ctx, claims.ID)
	if err != nil {
		return domain.AuthSession{}, err
	}
	if !ok || session.Expired(time.Now().UTC()) {
		return domain.AuthSession{}, ErrSessionNotFound
	}
	return session, nil
}

// Revoke elimina la sesión referenciada por el token. Aplica a todas las
// pestañas que compartan la cookie.
func (s *JWTService) Revoke(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, claims.ID)
}

func (s *JWTService) parse(tokenString string) (Claims, error) {
	if len(s.secret) == 0 {
		return Claims{}, ErrJWTInvalid
	}
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrJWTInvalid
	}
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	if !s.isValidClaims(claims) {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *JWTService) isValidClaims(claims Claims) bool {
	if claims.TokenType != sessionTokenType {
		return false
	}
	if strings.TrimSpace(claims.ID) == "" {
		return false
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.Subject != claims.UserID {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
