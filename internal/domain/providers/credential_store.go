package providers

import (
	"context"
)

// AccessTokenKey is the only key the session layer keeps in the store
const AccessTokenKey = "access_token"

// CredentialStore is an opaque persistent key-value store for secrets
type CredentialStore interface {
	// Get returns the stored value; ok is false when the key was never set or was removed
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value atomically
	Set(ctx context.Context, key, value string) error

	// Remove deletes key; removing a missing key is not an error
	Remove(ctx context.Context, key string) error
}
