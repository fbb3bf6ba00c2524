package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmfedotov/legal-doc-assistant/internal/core/domain"
)

type ChatHistoryRepository struct {
	db *sql.DB
}

func NewChatHistoryRepository(db *sql.DB) *ChatHistoryRepository {
	return &ChatHistoryRepository{db: db}
}

func (r *ChatHistoryRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083002)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS chat_history (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	model_used TEXT NOT NULL DEFAULT '',
	temperature DOUBLE PRECISION NOT NULL DEFAULT 0,
	sources JSONB NOT NULL DEFAULT '[]'::jsonb,
	response_time_ms INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_history_document_id ON chat_history(document_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ChatHistoryRepository) Append(ctx context.Context, record *domain.ChatRecord) error {
	sources := record.Sources
	if sources == nil {
		sources = []domain.ChatSource{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO chat_history (
	id, document_id, question, answer, model_used, temperature, sources, response_time_ms, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		record.ID, record.DocumentID, record.Question, record.Answer, record.ModelUsed,
		record.Temperature, sourcesJSON, record.ResponseTimeMS, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert chat record: %w", err)
	}
	return nil
}

func (r *ChatHistoryRepository) ListByDocument(ctx context.Context, documentID string, offset, limit int) ([]domain.ChatRecord, int, error) {
	var total int
	row := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_history WHERE document_id = $1`, documentID)
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count chat records: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, question, answer, model_used, temperature, sources, response_time_ms, created_at
FROM chat_history
WHERE document_id = $1
ORDER BY created_at DESC
OFFSET $2 LIMIT $3
`, documentID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query chat records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.ChatRecord, 0, limit)
	for rows.Next() {
		var rec domain.ChatRecord
		var sourcesRaw []byte
		var createdAt time.Time

		if err := rows.Scan(
			&rec.ID, &rec.DocumentID, &rec.Question, &rec.Answer, &rec.ModelUsed,
			&rec.Temperature, &sourcesRaw, &rec.ResponseTimeMS, &createdAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan chat record: %w", err)
		}
		if err := json.Unmarshal(sourcesRaw, &rec.Sources); err != nil {
			return nil, 0, fmt.Errorf("unmarshal sources: %w", err)
		}
		rec.CreatedAt = createdAt
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate chat records: %w", err)
	}
	return records, total, nil
}
