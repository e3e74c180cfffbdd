package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smarthealth-frontend/internal/domain"
)

// HistoryRepository persiste los intercambios del chat.
type HistoryRepository interface {
	Insert(ctx context.Context, entry domain.HistoryEntry) error
}

// HistoryService registra cada intercambio completado: siempre en el log y,
// si hay repositorio configurado, en la base de datos.
type HistoryService struct {
	logger *zap.Logger
	repo   HistoryRepository
}

func NewHistoryService(logger *zap.Logger, repo HistoryRepository) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{logger: logger, repo: repo}
}

func (s *HistoryService) Record(ctx context.Context, entry domain.HistoryEntry) error {
	if s == nil {
		return errors.New("history service not configured")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	s.logger.Info("chat exchange",
		zap.String("history_id", entry.ID),
		zap.String("user_id", entry.UserID),
		zap.String("session_id", entry.SessionID),
		zap.Int("sequence", entry.Sequence),
		zap.String("document_type", entry.DocumentType.Name()),
		zap.String("status", entry.Status),
		zap.Duration("latency", entry.Latency),
	)
	if s.repo == nil {
		return nil
	}
	return s.repo.Insert(ctx, entry)
}
