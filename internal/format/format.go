// Package format reúne helpers de presentación compartidos por las vistas.
package format

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	DefaultUserName   = "Usuario"
	DefaultUserEmail  = "usuario@ejemplo.com"
	AssistantInitials = "SA"
)

// Initials devuelve hasta dos iniciales en mayúscula ("Usuario de Prueba" -> "UD").
func Initials(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return "U"
	}
	initials := make([]rune, 0, 2)
	for _, f := range fields {
		r := []rune(f)[0]
		if !unicode.IsLetter(r) {
			continue
		}
		initials = append(initials, unicode.ToUpper(r))
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "U"
	}
	return string(initials)
}

// DisplayName aplica el valor por defecto cuando el backend no envía nombre.
func DisplayName(fullName string) string {
	if strings.TrimSpace(fullName) == "" {
		return DefaultUserName
	}
	return fullName
}

// DisplayEmail aplica el valor por defecto cuando el backend no envía correo.
func DisplayEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return DefaultUserEmail
	}
	return email
}

// Clock formatea la hora de un mensaje (HH:MM, hora local).
func Clock(t time.Time) string {
	return t.Local().Format("15:04")
}

// NewSessionID genera el identificador opaco de una sesión de chat.
func NewSessionID() string {
	return uuid.NewString()
}
