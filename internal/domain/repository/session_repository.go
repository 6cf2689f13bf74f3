package repository

import "context"

// SessionRepository is the client-local key-value store. Get returns
// found=false when the key has never been written or was deleted.
type SessionRepository interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
