package service

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Mensajes de validación de los formularios de autenticación.
const (
	MsgInvalidEmail     = "Por favor ingresa un correo válido"
	MsgPasswordRequired = "Por favor ingresa tu contraseña"
	MsgFullNameTooShort = "El nombre debe tener al menos 3 caracteres"
	MsgPasswordTooShort = "La contraseña debe tener al menos 8 caracteres"
	MsgPasswordMismatch = "Las contraseñas no coinciden"
	MsgTermsRequired    = "Debes aceptar los términos y condiciones"
)

const (
	minFullNameLength = 3
	minPasswordLength = 8
)

// FormError es un error de validación asociado a un campo del formulario.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string {
	return e.Field + ": " + e.Message
}

var validate = validator.New()

type LoginInput struct {
	Email    string
	Password string
}

type RegisterInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
	AcceptTerms     bool
}

// ValidateLogin recorta el correo y valida en orden: correo, contraseña.
func ValidateLogin(in LoginInput) (LoginInput, *FormError) {
	in.Email = strings.TrimSpace(in.Email)
	if !ValidEmail(in.Email) {
		return in, &FormError{Field: "email", Message: MsgInvalidEmail}
	}
	if strings.TrimSpace(in.Password) == "" {
		return in, &FormError{Field: "password", Message: MsgPasswordRequired}
	}
	return in, nil
}

// ValidateRegister recorta nombre y correo y valida en orden: nombre, correo,
// longitud de contraseña, confirmación y términos.
func ValidateRegister(in RegisterInput) (RegisterInput, *FormError) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	if utf8.RuneCountInString(in.FullName) < minFullNameLength {
		return in, &FormError{Field: "fullName", Message: MsgFullNameTooShort}
	}
	if !ValidEmail(in.Email) {
		return in, &FormError{Field: "email", Message: MsgInvalidEmail}
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return in, &FormError{Field: "password", Message: MsgPasswordTooShort}
	}
	if in.Password != in.ConfirmPassword {
		return in, &FormError{Field: "confirmPassword", Message: MsgPasswordMismatch}
	}
	if !in.AcceptTerms {
		return in, &FormError{Field: "terms", Message: MsgTermsRequired}
	}
	return in, nil
}

func ValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// ConfirmMismatch indica si la confirmación ya escrita difiere de la contraseña.
func ConfirmMismatch(password, confirm string) bool {
	return confirm != "" && confirm != password
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
