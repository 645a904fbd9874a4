// Package postgres provides the networked audit store backend. The payload
// is stored as JSONB so new action kinds never require a schema migration.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"supportops/internal/audit"
	id "supportops/pkg/domain"
	"supportops/pkg/platform/sentinel"
)

const schema = `
CREATE TABLE IF NOT EXISTS audits (
	id UUID PRIMARY KEY,
	request_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	action_type TEXT NOT NULL,
	action_payload JSONB NOT NULL,
	executor_id TEXT NOT NULL,
	status TEXT NOT NULL,
	audit_token TEXT,
	created_at TIMESTAMPTZ NOT NULL
)`

type Store struct {
	db *sql.DB
}

// New wraps an existing connection pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects with the given DSN and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &Store{db: db}
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the audits table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
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

	payload := rec.ActionPayload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return id.AuditID{}, fmt.Errorf("encode action payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audits (id, request_id, user_id, action_type, action_payload, executor_id, status, audit_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		auditID.String(),
		rec.RequestID,
		rec.UserID,
		rec.ActionType,
		payloadBytes,
		rec.ExecutorID,
		string(rec.Status),
		nullString(rec.AuditToken),
		createdAt,
	)
	if err != nil {
		return id.AuditID{}, fmt.Errorf("insert audit record: %w", err)
	}
	return auditID, nil
}

// UpdateStatus validates the lifecycle transition under a row lock so a
// concurrent Get never observes a torn status/token pair.
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
		`SELECT status, audit_token FROM audits WHERE id = $1 FOR UPDATE`, auditID.String(),
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
			`UPDATE audits SET status = $1, audit_token = $2 WHERE id = $3`,
			string(status), token, auditID.String())
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE audits SET status = $1 WHERE id = $2`,
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
		FROM audits WHERE id = $1`, auditID.String())

	var (
		rec     audit.Record
		rawID   string
		payload []byte
		token   sql.NullString
	)
	err := row.Scan(&rawID, &rec.RequestID, &rec.UserID, &rec.ActionType, &payload, &rec.ExecutorID, &rec.Status, &token, &rec.CreatedAt)
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
	if err := json.Unmarshal(payload, &rec.ActionPayload); err != nil {
		return nil, fmt.Errorf("decode action payload: %w", err)
	}
	rec.AuditToken = token.String
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
