package auth

import (
	"context"
	"errors"
	"time"

	"github.com/airalert/airalert/internal/kvstore"
)

// RevocationList records revoked token IDs until the tokens expire.
type RevocationList struct {
	store kvstore.Store
	now   func() time.Time
}

// NewRevocationList creates a revocation list on store.
func NewRevocationList(store kvstore.Store, now func() time.Time) *RevocationList {
	if now == nil {
		now = time.Now
	}
	return &RevocationList{store: store, now: now}
}

type revocation struct {
	RevokedAt time.Time `json:"revokedAt"`
}

func revokedKey(jti string) string { return "auth:revoked:" + jti }

// Revoke marks jti revoked until expiresAt. Already-expired tokens are
// not recorded.
func (l *RevocationList) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	now := l.now()
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return nil
	}
	return l.store.Set(ctx, revokedKey(jti), revocation{RevokedAt: now}, ttl)
}

// IsRevoked reports whether jti has been revoked.
func (l *RevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var rec revocation
	err := l.store.Get(ctx, revokedKey(jti), &rec)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, kvstore.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
