package credentials

import (
	"context"
	"errors"

	"github.com/zatekoja/patientportal/internal/domain/providers"
	apperrors "github.com/zatekoja/patientportal/pkg/errors"
	"github.com/zatekoja/patientportal/pkg/secrets"
)

// VaultStore keeps each credential as its own secret on a Vault KV engine
type VaultStore struct {
	client *secrets.VaultClient
}

// NewVaultStore creates a Vault-backed credential store
func NewVaultStore(client *secrets.VaultClient) providers.CredentialStore {
	return &VaultStore{client: client}
}

// Get retrieves a value
func (s *VaultStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Read(ctx, key)
	if errors.Is(err, secrets.ErrSecretNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.NewInternalError("read credential", err)
	}
	return value, true, nil
}

// Set stores a value
func (s *VaultStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Write(ctx, key, value); err != nil {
		return apperrors.NewInternalError("write credential", err)
	}
	return nil
}

// Remove deletes a value
func (s *VaultStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Delete(ctx, key); err != nil {
		return apperrors.NewInternalError("remove credential", err)
	}
	return nil
}
