package chat

import (
	"testing"
	"time"

	"smarthealth-frontend/internal/domain"
)

var testAuth = domain.AuthSession{
	Token: "tok",
	User:  domain.User{ID: "user_001", FullName: "Usuario de Prueba", Email: "test@smarthealth.com"},
}

func TestNewSession_StartsEmpty(t *testing.T) {
	s := NewSession("s1")
	if s.ID != "s1" || s.Sequence != 0 || len(s.Messages) != 0 {
		t.Fatalf("unexpected new session %+v", s)
	}
}

func TestPrepareSend_AppendsUserMessageAndIncrements(t *testing.T) {
	s := NewSession("s1")
	now := time.Now()

	req, msg, ok := s.PrepareSend(testAuth, SendInput{
		Question:       "  ¿Qué diagnóstico tiene?  ",
		DocumentType:   domain.DocumentCC,
		DocumentNumber: " 123456 ",
	}, now)
	if !ok {
		t.Fatalf("expected send to be accepted")
	}
	if s.Sequence != 1 || len(s.Messages) != 1 {
		t.Fatalf("expected sequence 1 and one message, got %d/%d", s.Sequence, len(s.Messages))
	}
	if msg.Role != domain.RoleUser || msg.Content != "¿Qué diagnóstico tiene?" || !msg.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user message %+v", msg)
	}
	if msg.Metadata == nil || msg.Metadata.Label() != "CC: 123456" {
		t.Fatalf("unexpected metadata %+v", msg.Metadata)
	}
	want := domain.QueryRequest{
		UserID:         "user_001",
		Token:          "tok",
		SessionID:      "s1",
		DocumentTypeID: domain.DocumentCC,
		DocumentNumber: "123456",
		Question:       "¿Qué diagnóstico tiene?",
		Sequence:       1,
	}
	if req != want {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestPrepareSend_IncompleteInputIsNoop(t *testing.T) {
	cases := []SendInput{
		{Question: "", DocumentNumber: "123"},
		{Question: "   ", DocumentNumber: "123"},
		{Question: "hola", DocumentNumber: ""},
		{Question: "hola", DocumentNumber: " \t"},
	}
	for i, in := range cases {
		s := NewSession("s1")
		if _, _, ok := s.PrepareSend(testAuth, in, time.Now()); ok {
			t.Fatalf("case %d: expected rejection", i)
		}
		if s.Sequence != 0 || len(s.Messages) != 0 {
			t.Fatalf("case %d: expected no mutation, got %+v", i, s)
		}
	}
}

func TestPrepareSend_DocumentTypeDefaults(t *testing.T) {
	s := NewSession("s1")
	req, msg, _ := s.PrepareSend(testAuth, SendInput{Question: "q", DocumentNumber: "1"}, time.Now())
	if req.DocumentTypeID != domain.DocumentCC || msg.Metadata.DocumentType != "CC" {
		t.Fatalf("expected CC default, got %d/%s", req.DocumentTypeID, msg.Metadata.DocumentType)
	}

	_, msg, _ = s.PrepareSend(testAuth, SendInput{Question: "q", DocumentType: 9, DocumentNumber: "1"}, time.Now())
	if msg.Metadata.DocumentType != "CC" {
		t.Fatalf("expected unknown code shown as CC, got %s", msg.Metadata.DocumentType)
	}

	_, msg, _ = s.PrepareSend(testAuth, SendInput{Question: "q", DocumentType: domain.DocumentPA, DocumentNumber: "1"}, time.Now())
	if msg.Metadata.DocumentType != "PA" {
		t.Fatalf("expected PA, got %s", msg.Metadata.DocumentType)
	}
	if s.Sequence != 3 {
		t.Fatalf("expected sequence 3, got %d", s.Sequence)
	}
}

func TestApplyResponse(t *testing.T) {
	s := NewSession("s1")

	msg, ok := s.ApplyResponse(domain.QueryResponse{
		Status: domain.QueryStatusSuccess,
		Answer: &domain.Answer{Text: "respuesta"},
	}, time.Now())
	if !ok || msg.Role != domain.RoleAssistant || msg.Content != "respuesta" || msg.Metadata != nil {
		t.Fatalf("unexpected success message %+v", msg)
	}

	msg, ok = s.ApplyResponse(domain.QueryResponse{
		Status: domain.QueryStatusError,
		Error:  &domain.QueryError{Message: "Paciente no encontrado"},
	}, time.Now())
	if !ok || msg.Content != "Error: Paciente no encontrado" {
		t.Fatalf("unexpected error message %+v", msg)
	}

	if _, ok := s.ApplyResponse(domain.QueryResponse{Status: "pending"}, time.Now()); ok {
		t.Fatalf("expected unknown status to be ignored")
	}
	if len(s.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(s.Messages))
	}
}

func TestApplyResponse_MissingBlockFallsBackToFailure(t *testing.T) {
	for _, resp := range []domain.QueryResponse{
		{Status: domain.QueryStatusSuccess},
		{Status: domain.QueryStatusError},
	} {
		s := NewSession("s1")
		msg, ok := s.ApplyResponse(resp, time.Now())
		if !ok || msg.Role != domain.RoleAssistant || msg.Content != FailureMessage {
			t.Fatalf("status %q: expected failure message, got %+v", resp.Status, msg)
		}
		if len(s.Messages) != 1 || s.Messages[0].Content != FailureMessage {
			t.Fatalf("status %q: expected failure appended, got %+v", resp.Status, s.Messages)
		}
	}
}

func TestApplyFailure(t *testing.T) {
	s := NewSession("s1")
	msg := s.ApplyFailure(time.Now())
	if msg.Role != domain.RoleAssistant || msg.Content != FailureMessage {
		t.Fatalf("unexpected failure message %+v", msg)
	}
	if len(s.Messages) != 1 {
		t.Fatalf("expected failure appended")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewSession("s1")
	s.ApplyFailure(time.Now())
	snap := s.Snapshot()
	snap.Messages[0].Content = "changed"
	if s.Messages[0].Content != FailureMessage {
		t.Fatalf("snapshot must not alias session messages")
	}
}
