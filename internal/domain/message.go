package domain

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MessageMetadata identifica al paciente asociado a una pregunta.
type MessageMetadata struct {
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
}

// Label devuelve la forma visible "CC: 123456".
func (m MessageMetadata) Label() string {
	return m.DocumentType + ": " + m.DocumentNumber
}

type Message struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"created_at"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}
