// Package sqlite provides the embedded audit store backend. It uses the pure
// Go modernc.org/sqlite driver so deployments need no external database and
// no cgo toolchain.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"supportops/internal/audit"
	id "supportops/pkg/domain"
	"supportops/pkg/platform/sentinel"
)

const schema = `
CREATE TABLE IF NOT EXISTS audits (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	action_type TEXT NOT NULL,
	action_payload TEXT NOT NULL,
	executor_id TEXT NOT NULL,
	status TEXT NOT NULL,
	audit_token TEXT,
	created_at TEXT NOT NULL
)`

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file and ensures the schema exists.
// Use ":memory:" for throwaway stores in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite permits a single writer; a larger pool only manufactures
	// SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("ensure audits table: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, rec *audit.Record) (id.AuditID, error) {
	if rec == nil {
		return id.AuditID{}, sentinel.ErrInvalidState
	}

	auditID := id.NewAuditID()
	createdAt := time.Now().UTC()

	payload, err := marshalPayload(rec.ActionPayload)
	if err != nil {
		return id.AuditID{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audits (id, request_id, user_id, action_type, action_payload, executor_id, status, audit_token, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		auditID.String(),
		rec.RequestID,
		rec.UserID,
		rec.ActionType,
		payload,
		rec.ExecutorID,
		string(rec.Status),
		nullString(rec.AuditToken),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return id.AuditID{}, fmt.Errorf("insert audit record: %w", err)
	}
	return auditID, nil
}

func (s *Store) UpdateStatus(ctx context.Context, auditID id.AuditID, status audit.Status, token string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit update: %w", err)
	}
	defer tx.Rollback()

	var (
		current      string
		currentToken sql.NullString
	)
	err = tx.QueryRowContext(ctx,
		`SELECT status, audit_token FROM audits WHERE id = ?`, auditID.String(),
	).Scan(&current, &currentToken)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load audit record: %w", err)
	}

	if err := audit.ValidateTransition(audit.Status(current), currentToken.String, status, token); err != nil {
		return err
	}

	if token != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE audits SET status = ?, audit_token = ? WHERE id = ?`,
			string(status), token, auditID.String())
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE audits SET status = ? WHERE id = ?`,
			string(status), auditID.String())
	}
	if err != nil {
		return fmt.Errorf("update audit record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit update: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, auditID id.AuditID) (*audit.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, request_id, user_id, action_type, action_payload, executor_id, status, audit_token, created_at
		FROM audits WHERE id = ?`, auditID.String())

	var (
		rec       audit.Record
		rawID     string
		payload   string
		token     sql.NullString
		createdAt string
	)
	err := row.Scan(&rawID, &rec.RequestID, &rec.UserID, &rec.ActionType, &payload, &rec.ExecutorID, &rec.Status, &token, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan audit record: %w", err)
	}

	rec.ID, err = id.ParseAuditID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse stored audit id: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &rec.ActionPayload); err != nil {
		return nil, fmt.Errorf("decode action payload: %w", err)
	}
	rec.AuditToken = token.String
	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse stored timestamp: %w", err)
	}
	return &rec, nil
}

func marshalPayload(payload map[string]any) (string, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode action payload: %w", err)
	}
	return string(b), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
