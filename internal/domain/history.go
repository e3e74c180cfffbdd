package domain

import "time"

// HistoryEntry resume un intercambio de consulta completado, para auditoría.
type HistoryEntry struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	SessionID      string        `json:"session_id"`
	Sequence       int           `json:"sequence_chat_id"`
	DocumentType   DocumentType  `json:"document_type_id"`
	DocumentNumber string        `json:"document_number"`
	Question       string        `json:"question"`
	Status         string        `json:"status"`
	Answer         string        `json:"answer,omitempty"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	Latency        time.Duration `json:"latency"`
	CreatedAt      time.Time     `json:"created_at"`
}
