package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"contexto/internal/game"
	"contexto/internal/types"
)

const sessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	id           TEXT PRIMARY KEY,
	payload_json BLOB NOT NULL,
	updated_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_updated_at ON sessions (updated_at);`

// SQLiteRepository keeps sessions in a single SQLite table, one JSON row per
// session. Rows not updated within maxAge read as missing.
type SQLiteRepository struct {
	db     *sql.DB
	maxAge time.Duration
}

// OpenSQLiteRepository opens (creating if needed) the database at path.
func OpenSQLiteRepository(path string, maxAge time.Duration) (*SQLiteRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, err
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sessionsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	return &SQLiteRepository{db: db, maxAge: maxAge}, nil
}

// Close releases the underlying connection.
func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRepository) Get(ctx context.Context, sessionID string) (*types.Session, error) {
	var (
		payload   []byte
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT payload_json, updated_at FROM sessions WHERE id = ?`, sessionID,
	).Scan(&payload, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if r.maxAge > 0 && time.Since(time.UnixMilli(updatedAt)) > r.maxAge {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
			logWarn("Failed to delete expired session %s: %v", sessionID, err)
		}
		return nil, game.ErrSessionNotFound
	}

	var s types.Session
	if err := json.Unmarshal(payload, &s); err != nil {
		logWarn("Session row %s is corrupted, removing: %v", sessionID, err)
		_, _ = r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
		return nil, game.ErrSessionNotFound
	}
	if s.Guesses == nil {
		s.Guesses = []types.GuessedWord{}
	}
	return &s, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, s *types.Session) error {
	return upsertSession(ctx, r.db, s)
}

func (r *SQLiteRepository) Replace(ctx context.Context, oldID string, s *types.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if oldID != "" && oldID != s.ID {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, oldID); err != nil {
			return fmt.Errorf("delete superseded session: %w", err)
		}
	}
	if err := upsertSession(ctx, tx, s); err != nil {
		return err
	}
	return tx.Commit()
}

// Sweep deletes rows not updated within maxAge.
func (r *SQLiteRepository) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertSession(ctx context.Context, db execer, s *types.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID, err)
	}
	updatedAt := s.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO sessions (id, payload_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		    payload_json = excluded.payload_json,
		    updated_at = excluded.updated_at`,
		s.ID, payload, updatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store session %s: %w", s.ID, err)
	}
	return nil
}
