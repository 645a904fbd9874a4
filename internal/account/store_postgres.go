package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"supportops/pkg/platform/sentinel"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id TEXT PRIMARY KEY,
	subscription TEXT,
	last_payment_attempt TIMESTAMPTZ,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb
)`

// PostgresStore persists profiles in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// OpenPostgres connects, pings, and ensures the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open account pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping account pool: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure accounts table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Profile, error) {
	var (
		p        Profile
		metadata []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, COALESCE(subscription, ''), last_payment_attempt, metadata
		FROM accounts WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.Subscription, &p.LastPaymentAttempt, &metadata)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}

	if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
		return nil, fmt.Errorf("decode account metadata: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, profile *Profile) error {
	if profile == nil || profile.UserID == "" {
		return sentinel.ErrInvalidState
	}

	metadata := profile.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode account metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO accounts (user_id, subscription, last_payment_attempt, metadata)
		VALUES ($1, NULLIF($2, ''), $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			subscription = EXCLUDED.subscription,
			last_payment_attempt = EXCLUDED.last_payment_attempt,
			metadata = EXCLUDED.metadata`,
		profile.UserID, profile.Subscription, profile.LastPaymentAttempt, metadataBytes,
	)
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}
