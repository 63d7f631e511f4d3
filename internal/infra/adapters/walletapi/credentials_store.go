// File: internal/infra/adapters/walletapi/credentials_store.go
package walletapi

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"wallet-flows/internal/domain/ports/service"
)

var _ service.CredentialsStore = (*CredentialsStoreService)(nil)

// CredentialsStoreService backs up and erases the cloud-stored wallet
// credentials used for PIN-based login recovery.
type CredentialsStoreService struct {
	c   *Client
	log *zerolog.Logger
}

func NewCredentialsStoreService(client *Client, logger *zerolog.Logger) *CredentialsStoreService {
	return &CredentialsStoreService{c: client, log: logger}
}

func (s *CredentialsStoreService) Backup(ctx context.Context, pinDecryptionKey string) error {
	err := s.c.postJSON(ctx, "/credentials/backup",
		struct {
			PinDecryptionKey string `json:"pin_decryption_key"`
		}{PinDecryptionKey: pinDecryptionKey}, nil)
	if err != nil {
		return fmt.Errorf("failed to back up credentials: %w", err)
	}
	return nil
}

func (s *CredentialsStoreService) Erase(ctx context.Context) error {
	if err := s.c.postJSON(ctx, "/credentials/erase", nil, nil); err != nil {
		return fmt.Errorf("failed to erase credentials: %w", err)
	}
	return nil
}
