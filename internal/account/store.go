package account

import "context"

// Store persists account profiles. Implementations return
// sentinel.ErrNotFound for unknown users.
type Store interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Upsert(ctx context.Context, profile *Profile) error
}
