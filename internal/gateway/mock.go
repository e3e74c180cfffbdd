package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"smarthealth-frontend/internal/domain"
)

// Credenciales de prueba aceptadas por el modo mock.
const (
	MockEmail         = "test@smarthealth.com"
	MockPassword      = "password123"
	MockExistingEmail = "existing@smarthealth.com"
)

// MockAuthGateway simula /auth/login y /auth/register para desarrollo sin backend.
type MockAuthGateway struct {
	loginDelay    time.Duration
	registerDelay time.Duration
	passwordHash  []byte
	logger        *zap.Logger
	now           func() time.Time
}

func NewMockAuthGateway(loginDelay, registerDelay time.Duration, logger *zap.Logger) *MockAuthGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	// MinCost: el hash solo protege la credencial de prueba en memoria.
	hash, err := bcrypt.GenerateFromPassword([]byte(MockPassword), bcrypt.MinCost)
	if err != nil {
		logger.Warn("mock credential hash failed", zap.Error(err))
	}
	return &MockAuthGateway{
		loginDelay:    loginDelay,
		registerDelay: registerDelay,
		passwordHash:  hash,
		logger:        logger,
		now:           time.Now,
	}
}

func (g *MockAuthGateway) Login(ctx context.Context, email, password string) (domain.AuthSession, error) {
	if err := sleep(ctx, g.loginDelay); err != nil {
		return domain.AuthSession{}, err
	}
	if email != MockEmail || bcrypt.CompareHashAndPassword(g.passwordHash, []byte(password)) != nil {
		return domain.AuthSession{}, &Error{Message: "Credenciales inválidas", Err: ErrInvalidCredentials}
	}
	now := g.now().UTC()
	return domain.AuthSession{
		Token: fmt.Sprintf("mock_jwt_token_%d", now.UnixMilli()),
		User: domain.User{
			ID:       "user_001",
			FullName: "Usuario de Prueba",
			Email:    email,
		},
		IssuedAt: now,
	}, nil
}

func (g *MockAuthGateway) Register(ctx context.Context, fullName, email, _ string) error {
	if err := sleep(ctx, g.registerDelay); err != nil {
		return err
	}
	if email == MockExistingEmail {
		return &Error{Message: "Este correo ya está registrado", Err: ErrEmailTaken}
	}
	g.logger.Info("mock user registered", zap.String("full_name", fullName), zap.String("email", email))
	return nil
}

// MockQueryGateway devuelve siempre una respuesta exitosa simulada de RAG.
type MockQueryGateway struct {
	delay time.Duration
	now   func() time.Time
}

func NewMockQueryGateway(delay time.Duration) *MockQueryGateway {
	return &MockQueryGateway{
		delay: delay,
		now:   time.Now,
	}
}

// Query responde con la secuencia que envía el cliente.
func (g *MockQueryGateway) Query(ctx context.Context, req domain.QueryRequest) (domain.QueryResponse, error) {
	if err := sleep(ctx, g.delay); err != nil {
		return domain.QueryResponse{}, err
	}

	return domain.QueryResponse{
		Status:         domain.QueryStatusSuccess,
		SessionID:      req.SessionID,
		SequenceChatID: req.Sequence,
		Timestamp:      g.now().UTC().Format(time.RFC3339),
		PatientInfo: &domain.PatientInfo{
			PatientID:      123,
			FullName:       "Juan Pérez García",
			DocumentType:   req.DocumentTypeID.Name(),
			DocumentNumber: req.DocumentNumber,
		},
		Answer: &domain.Answer{
			Text:       mockAnswer(req.DocumentNumber),
			Confidence: 0.94,
			ModelUsed:  "claude-sonnet-4.5",
		},
		Sources: []domain.Source{
			{SourceID: 1, Type: "appointment", AppointmentID: 458, Date: "2024-11-15", RelevanceScore: 0.98},
		},
		Metadata: map[string]any{
			"total_records_analyzed": 15,
			"query_time_ms":          342,
			"sources_used":           3,
			"context_tokens":         2456,
		},
	}, nil
}

func mockAnswer(documentNumber string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Basado en la información disponible para el paciente %s, puedo informarte que:\n\n", documentNumber)
	b.WriteString("El paciente ha tenido 2 citas médicas recientes:\n\n")
	b.WriteString("1. **15/11/2024** - Consulta de Cardiología\n")
	b.WriteString("   - Diagnóstico: Hipertensión arterial grado 2 (CIE-10: I10)\n")
	b.WriteString("   - Tratamiento prescrito: Losartán 50mg c/24h\n\n")
	b.WriteString("2. **20/10/2024** - Control General\n")
	b.WriteString("   - Diagnóstico secundario: Dislipidemia (CIE-10: E78.5)\n")
	b.WriteString("   - Indicaciones: Dieta baja en grasas, ejercicio moderado\n\n")
	b.WriteString("*Esta información es provisional hasta que se conecte con la base de datos real.*")
	return b.String()
}
