package repo

import "context"

// StateStore is the key-value port the monitors persist through.
// Values are opaque to the store.
type StateStore interface {
	// Get returns found=false with a nil error when the key has never been written.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}
