package domain

import (
	"context"
	"time"
)

// TokenStore holds one admin bearer token per organization with a
// declared expiry. Implementations must be safe for concurrent use.
type TokenStore interface {
	Get(ctx context.Context, org string) (string, bool, error)
	Put(ctx context.Context, org, token string, ttl time.Duration) error
	Delete(ctx context.Context, org string) error
}
