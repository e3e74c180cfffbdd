// Package chat contiene el estado de una conversación clínica y el controlador
// que lo proyecta sobre una vista. Las transiciones de Session son puras: no
// hacen I/O ni tocan la vista.
package chat

import (
	"strings"
	"time"

	"smarthealth-frontend/internal/domain"
)

// FailureMessage se muestra cuando el intercambio con el backend falla.
const FailureMessage = "Lo siento, ocurrió un error al procesar tu consulta. Por favor, intenta nuevamente."

// SendInput son los campos del formulario de consulta.
type SendInput struct {
	Question       string              `json:"question"`
	DocumentType   domain.DocumentType `json:"document_type_id"`
	DocumentNumber string              `json:"document_number"`
}

func (in SendInput) normalized() SendInput {
	in.Question = strings.TrimSpace(in.Question)
	in.DocumentNumber = strings.TrimSpace(in.DocumentNumber)
	if in.DocumentType == 0 {
		in.DocumentType = domain.DocumentCC
	}
	return in
}

// CanSend indica si la pregunta y el número de documento están presentes.
func CanSend(in SendInput) bool {
	in = in.normalized()
	return in.Question != "" && in.DocumentNumber != ""
}

// Session es una conversación: identificador, contador de secuencia y mensajes.
type Session struct {
	ID       string           `json:"session_id"`
	Sequence int              `json:"sequence_chat_id"`
	Messages []domain.Message `json:"messages"`
}

// NewSession crea una sesión vacía con el contador en 0.
func NewSession(id string) *Session {
	return &Session{ID: id, Messages: []domain.Message{}}
}

// PrepareSend incrementa la secuencia, agrega el mensaje del usuario y arma la
// petición. Con entrada incompleta no modifica nada y devuelve ok=false.
func (s *Session) PrepareSend(auth domain.AuthSession, in SendInput, now time.Time) (domain.QueryRequest, domain.Message, bool) {
	if !CanSend(in) {
		return domain.QueryRequest{}, domain.Message{}, false
	}
	in = in.normalized()

	s.Sequence++
	msg := domain.Message{
		Role:      domain.RoleUser,
		Content:   in.Question,
		CreatedAt: now,
		Metadata: &domain.MessageMetadata{
			DocumentType:   in.DocumentType.Name(),
			DocumentNumber: in.DocumentNumber,
		},
	}
	s.append(msg)

	req := domain.QueryRequest{
		UserID:         auth.User.ID,
		Token:          auth.Token,
		SessionID:      s.ID,
		DocumentTypeID: in.DocumentType,
		DocumentNumber: in.DocumentNumber,
		Question:       in.Question,
		Sequence:       s.Sequence,
	}
	return req, msg, true
}

// ApplyResponse agrega la respuesta del asistente. Un status distinto de
// success/error no produce mensaje. Si falta el bloque que el status exige
// (answer o error) se agrega el mensaje genérico de fallo.
func (s *Session) ApplyResponse(resp domain.QueryResponse, now time.Time) (domain.Message, bool) {
	if !wellFormed(resp) {
		return s.ApplyFailure(now), true
	}
	var content string
	switch resp.Status {
	case domain.QueryStatusSuccess:
		content = resp.Answer.Text
	case domain.QueryStatusError:
		content = "Error: " + resp.Error.Message
	default:
		return domain.Message{}, false
	}
	msg := domain.Message{Role: domain.RoleAssistant, Content: content, CreatedAt: now}
	s.append(msg)
	return msg, true
}

// wellFormed indica si la respuesta trae el bloque que su status exige.
func wellFormed(resp domain.QueryResponse) bool {
	switch resp.Status {
	case domain.QueryStatusSuccess:
		return resp.Answer != nil
	case domain.QueryStatusError:
		return resp.Error != nil
	default:
		return true
	}
}

// ApplyFailure agrega el mensaje genérico de fallo del intercambio.
func (s *Session) ApplyFailure(now time.Time) domain.Message {
	msg := domain.Message{Role: domain.RoleAssistant, Content: FailureMessage, CreatedAt: now}
	s.append(msg)
	return msg
}

// Snapshot devuelve una copia que el llamador puede leer sin sincronización.
func (s *Session) Snapshot() Session {
	out := Session{ID: s.ID, Sequence: s.Sequence, Messages: make([]domain.Message, len(s.Messages))}
	copy(out.Messages, s.Messages)
	return out
}

func (s *Session) append(msg domain.Message) {
	s.Messages = append(s.Messages, msg)
}
