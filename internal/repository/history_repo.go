package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"

	"smarthealth-frontend/internal/domain"
)

const historySchema = `
	CREATE TABLE IF NOT EXISTS query_history (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		session_id       TEXT NOT NULL,
		sequence_chat_id INTEGER NOT NULL,
		document_type_id SMALLINT NOT NULL,
		document_number  TEXT NOT NULL,
		question         TEXT NOT NULL,
		status           TEXT NOT NULL,
		answer           TEXT,
		error_message    TEXT,
		latency_ms       BIGINT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS query_history_session_idx ON query_history (session_id, sequence_chat_id);
`

type HistoryRepository interface {
	Insert(ctx context.Context, entry domain.HistoryEntry) error
}

// pgExecer es el subconjunto de *pgxpool.Pool que usa el repositorio.
type pgExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type PgHistoryRepository struct {
	pool pgExecer
}

func NewPgHistoryRepository(pool pgExecer) *PgHistoryRepository {
	return &PgHistoryRepository{pool: pool}
}

// EnsureSchema crea la tabla query_history si no existe.
func (r *PgHistoryRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, historySchema)
	return err
}

func (r *PgHistoryRepository) Insert(ctx context.Context, entry domain.HistoryEntry) error {
	const query = `
		INSERT INTO query_history (
			id, user_id, session_id, sequence_chat_id, document_type_id, document_number,
			question, status, answer, error_message, latency_ms, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.SessionID,
		entry.Sequence,
		int(entry.DocumentType),
		entry.DocumentNumber,
		entry.Question,
		entry.Status,
		nullableText(entry.Answer),
		nullableText(entry.ErrorMessage),
		entry.Latency.Milliseconds(),
		entry.CreatedAt,
	)
	return err
}

func nullableText(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
