package chat

import "smarthealth-frontend/internal/domain"

// View es la proyección visible del controlador. Sus métodos se invocan con el
// controlador bloqueado: no deben llamar de vuelta al controlador.
type View interface {
	// Reset reemplaza el contenido por el mensaje de bienvenida y limpia los campos.
	Reset()
	// Render agrega un mensaje al final de la lista y la desplaza hasta él. Con
	// first=true además retira el mensaje de bienvenida.
	Render(msg domain.Message, first bool)
	ShowTyping()
	HideTyping()
	ClearInput()
	SetSendEnabled(enabled bool)
}

// DiscardView ignora todas las actualizaciones. La usan las páginas HTML, que se
// renderizan a partir del Snapshot de la sesión.
type DiscardView struct{}

func (DiscardView) Reset()                      {}
func (DiscardView) Render(domain.Message, bool) {}
func (DiscardView) ShowTyping()                 {}
func (DiscardView) HideTyping()                 {}
func (DiscardView) ClearInput()                 {}
func (DiscardView) SetSendEnabled(bool)         {}
