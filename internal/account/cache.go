package account

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "supportops:account:"

// CachedStore is a read-through Redis cache in front of another Store.
// Cache faults degrade to the inner store; they never fail a lookup.
type CachedStore struct {
	inner  Store
	client *goredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStore(inner Store, client *goredis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (s *CachedStore) Get(ctx context.Context, userID string) (*Profile, error) {
	key := cacheKeyPrefix + userID

	raw, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var p Profile
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		// Corrupt entry: fall through to the source and rewrite below.
	} else if !errors.Is(err, goredis.Nil) && s.logger != nil {
		s.logger.WarnContext(ctx, "account cache read failed", "error", err)
	}

	p, err := s.inner.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(p); err == nil {
		if err := s.client.Set(ctx, key, encoded, s.ttl).Err(); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "account cache write failed", "error", err)
		}
	}
	return p, nil
}

// Upsert writes through and invalidates so the next read refills.
func (s *CachedStore) Upsert(ctx context.Context, profile *Profile) error {
	if err := s.inner.Upsert(ctx, profile); err != nil {
		return err
	}
	if err := s.client.Del(ctx, cacheKeyPrefix+profile.UserID).Err(); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "account cache invalidation failed", "error", err)
	}
	return nil
}
