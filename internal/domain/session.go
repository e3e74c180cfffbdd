package domain

import "time"

// AuthSession agrupa el token opaco del backend y los datos del usuario.
type AuthSession struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired indica si la sesion vencio respecto a now. Sin vencimiento nunca expira.
func (s AuthSession) Expired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}
