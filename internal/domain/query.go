package domain

const (
	QueryStatusSuccess = "success"
	QueryStatusError   = "error"
)

// QueryRequest es el cuerpo de POST /query. Se construye en cada envío y no se guarda.
type QueryRequest struct {
	UserID         string       `json:"user_id"`
	Token          string       `json:"token"`
	SessionID      string       `json:"session_id"`
	DocumentTypeID DocumentType `json:"document_type_id"`
	DocumentNumber string       `json:"document_number"`
	Question       string       `json:"question"`
	// Sequence es el contador de la sesión tras el incremento; no viaja al backend.
	Sequence       int          `json:"-"`
}

// QueryResponse es la respuesta del backend. Solo Status se considera obligatorio.
type QueryResponse struct {
	Status         string         `json:"status"`
	SessionID      string         `json:"session_id,omitempty"`
	SequenceChatID int            `json:"sequence_chat_id,omitempty"`
	Timestamp      string         `json:"timestamp,omitempty"`
	PatientInfo    *PatientInfo   `json:"patient_info,omitempty"`
	Answer         *Answer        `json:"answer,omitempty"`
	Sources        []Source       `json:"sources,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Error          *QueryError    `json:"error,omitempty"`
}

type Answer struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	ModelUsed  string  `json:"model_used"`
}

type Source struct {
	SourceID       int     `json:"source_id"`
	Type           string  `json:"type"`
	AppointmentID  int     `json:"appointment_id,omitempty"`
	Date           string  `json:"date,omitempty"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
}

type PatientInfo struct {
	PatientID      int    `json:"patient_id"`
	FullName       string `json:"full_name"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
}

type QueryError struct {
	Message string `json:"message"`
}
