package port

import (
	"context"
)

// CartStorage is the key-value capability carts are persisted through.
//
// Get reports ok == false for an absent key.
type CartStorage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
