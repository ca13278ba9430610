package credentials

import "context"

// Repository is the durable key-value storage behind the credential store.
// Implementations are expected to encrypt values at rest.
type Repository interface {
	// Get returns the value for key, or (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes a single key.
	Set(ctx context.Context, key string, value []byte) error

	// SetMany writes all pairs in one transaction: either every key is
	// persisted or none is.
	SetMany(ctx context.Context, values map[string][]byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
