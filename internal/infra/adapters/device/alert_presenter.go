package device

import (
	"context"

	"github.com/rs/zerolog"

	"wallet-flows/internal/domain/ports/service"
)

var _ service.AlertPresenter = (*LogAlertPresenter)(nil)

// LogAlertPresenter surfaces flow alerts into the log in local/dev runs
// where no UI is attached.
type LogAlertPresenter struct {
	log *zerolog.Logger
}

func NewLogAlertPresenter(logger *zerolog.Logger) *LogAlertPresenter {
	return &LogAlertPresenter{log: logger}
}

func (p *LogAlertPresenter) Error(ctx context.Context) {
	p.log.Error().Msg("device: flow error alert presented")
}
