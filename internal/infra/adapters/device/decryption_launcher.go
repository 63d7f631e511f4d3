package device

import (
	"github.com/rs/zerolog"

	"wallet-flows/internal/domain/ports/service"
)

var _ service.WalletDecryptionLauncher = (*LogDecryptionLauncher)(nil)

// LogDecryptionLauncher stands in for the wallet-crypto hand-off in
// local/dev runs. It only records that the hand-off happened; the password
// itself is never logged.
type LogDecryptionLauncher struct {
	log *zerolog.Logger
}

func NewLogDecryptionLauncher(logger *zerolog.Logger) *LogDecryptionLauncher {
	return &LogDecryptionLauncher{log: logger}
}

func (l *LogDecryptionLauncher) DecryptWalletWithPassword(password string) {
	l.log.Info().Bool("has_password", password != "").Msg("device: wallet decryption requested")
}
