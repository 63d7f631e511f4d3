package redis

import (
	"context"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"wallet-flows/internal/domain/model"
	"wallet-flows/internal/domain/ports/service"
)

const (
	settingsKeyPin    = "app-settings:pin"
	settingsKeyPinKey = "app-settings:pin-key"
	settingsKeyPaired = "app-settings:paired"
)

var _ service.AppSettings = (*appSettings)(nil)

// appSettings is the Redis-backed stand-in for the device keychain. The
// port is synchronous, so reads and writes run against short internal
// timeouts and failures degrade to "not set".
type appSettings struct {
	cli RedisClient
	log *zerolog.Logger
}

func NewAppSettings(cli RedisClient, logger *zerolog.Logger) *appSettings {
	return &appSettings{cli: cli, log: logger}
}

func (s *appSettings) Pin() (model.Pin, bool) {
	v, ok := s.get(settingsKeyPin)
	return model.NewPin(v), ok && v != ""
}

func (s *appSettings) PinKey() (string, bool) {
	v, ok := s.get(settingsKeyPinKey)
	return v, ok && v != ""
}

func (s *appSettings) SetPin(pin model.Pin) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cli.Set(ctx, settingsKeyPin, pin.String(), 0); err != nil {
		s.log.Error().Err(err).Msg("app settings: failed to store pin")
	}
}

// SetPinKey stores the server-side pin key handle.
func (s *appSettings) SetPinKey(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cli.Set(ctx, settingsKeyPinKey, key, 0); err != nil {
		s.log.Error().Err(err).Msg("app settings: failed to store pin key")
	}
}

func (s *appSettings) IsPairedWithWallet() bool {
	v, ok := s.get(settingsKeyPaired)
	return ok && v == "1"
}

// SetPairedWithWallet flips the pairing flag.
func (s *appSettings) SetPairedWithWallet(paired bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v := "0"
	if paired {
		v = "1"
	}
	if err := s.cli.Set(ctx, settingsKeyPaired, v, 0); err != nil {
		s.log.Error().Err(err).Msg("app settings: failed to store pairing flag")
	}
}

func (s *appSettings) get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := s.cli.Get(ctx, key)
	if err != nil {
		if err != goredis.Nil {
			s.log.Error().Err(err).Str("key", key).Msg("app settings: read failed")
		}
		return "", false
	}
	return v, true
}
