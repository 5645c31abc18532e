package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/search-gateway/internal/core/domain"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS answer_sessions (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	answer TEXT NOT NULL,
	error_message TEXT,
	document_count INTEGER NOT NULL DEFAULT 0,
	citation_count INTEGER NOT NULL DEFAULT 0,
	malformed_packets INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_answer_sessions_created_at ON answer_sessions(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *domain.AnswerSession) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO answer_sessions (
	id, query, answer, error_message, document_count, citation_count, malformed_packets, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		session.ID, session.Query, session.Answer, session.Error,
		session.DocumentCount, session.CitationCount, session.MalformedPackets, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert answer session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.AnswerSession, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, query, answer, error_message, document_count, citation_count, malformed_packets, created_at
FROM answer_sessions
WHERE id = $1
`, id)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get answer session", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan answer session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) ListRecent(ctx context.Context, limit int) ([]domain.AnswerSession, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, query, answer, error_message, document_count, citation_count, malformed_packets, created_at
FROM answer_sessions
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query answer sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]domain.AnswerSession, 0, limit)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan answer session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answer sessions: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.AnswerSession, error) {
	var session domain.AnswerSession
	var errMessage sql.NullString

	err := row.Scan(
		&session.ID, &session.Query, &session.Answer, &errMessage,
		&session.DocumentCount, &session.CitationCount, &session.MalformedPackets, &session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.Error = errMessage.String
	return &session, nil
}
