// File: internal/infra/adapters/walletapi/pin_service.go
package walletapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"wallet-flows/internal/domain"
	"wallet-flows/internal/domain/model"
	"wallet-flows/internal/domain/ports/service"
)

var _ service.PinInteractor = (*PinService)(nil)

// PinService implements the remote PIN store. Create and Validate go over
// the wire; Persist keeps the last validated PIN in memory for biometric
// replay within the process.
type PinService struct {
	c   *Client
	log *zerolog.Logger

	mu        sync.Mutex
	persisted model.Pin
}

func NewPinService(client *Client, logger *zerolog.Logger) *PinService {
	return &PinService{c: client, log: logger}
}

type pinRequest struct {
	PinCode string `json:"pin_code"`
	PinKey  string `json:"pin_key"`
}

type pinValidateResponse struct {
	PinDecryptionKey string `json:"pin_decryption_key"`
}

type pinPasswordResponse struct {
	Password string `json:"password"`
}

// pinErrorBody is the error envelope the PIN endpoints answer 4xx with.
type pinErrorBody struct {
	Error            string `json:"error"`
	RemainingSeconds int    `json:"remaining_seconds,omitempty"`
	Message          string `json:"message,omitempty"`
}

func (p *PinService) Create(ctx context.Context, payload model.PinPayload) error {
	req := pinRequest{PinCode: payload.PinCode, PinKey: payload.PinKey}
	if err := p.c.postJSON(ctx, "/pin/create", req, nil); err != nil {
		return mapPinError(err)
	}
	if payload.PersistsLocally {
		p.Persist(model.NewPin(payload.PinCode))
	}
	return nil
}

func (p *PinService) Validate(ctx context.Context, payload model.PinPayload) (string, error) {
	req := pinRequest{PinCode: payload.PinCode, PinKey: payload.PinKey}
	var resp pinValidateResponse
	if err := p.c.postJSON(ctx, "/pin/validate", req, &resp); err != nil {
		return "", mapPinError(err)
	}
	if resp.PinDecryptionKey == "" {
		return "", &domain.PinError{Kind: domain.KindServerError, Message: "empty decryption key in response"}
	}
	return resp.PinDecryptionKey, nil
}

func (p *PinService) Password(ctx context.Context, pinDecryptionKey string) (string, error) {
	var resp pinPasswordResponse
	err := p.c.postJSON(ctx, "/pin/password",
		struct {
			PinDecryptionKey string `json:"pin_decryption_key"`
		}{PinDecryptionKey: pinDecryptionKey}, &resp)
	if err != nil {
		return "", mapPinError(err)
	}
	return resp.Password, nil
}

func (p *PinService) Persist(pin model.Pin) {
	p.mu.Lock()
	p.persisted = pin
	p.mu.Unlock()
}

// PersistedPin returns the PIN kept for biometric replay, if any.
func (p *PinService) PersistedPin() (model.Pin, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.persisted, p.persisted != ""
}

// mapPinError turns wire-level failures into the domain PIN taxonomy.
func mapPinError(err error) error {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return &domain.PinError{Kind: domain.KindServerError, Message: err.Error()}
	}

	var body pinErrorBody
	if jsonErr := json.Unmarshal(apiErr.Body, &body); jsonErr != nil {
		body.Message = string(apiErr.Body)
	}

	switch body.Error {
	case "incorrect_pin":
		return &domain.PinError{
			Kind:                 domain.KindIncorrectPin,
			Message:              body.Message,
			RemainingLockSeconds: body.RemainingSeconds,
		}
	case "backoff":
		return &domain.PinError{
			Kind:                 domain.KindBackoff,
			Message:              body.Message,
			RemainingLockSeconds: body.RemainingSeconds,
		}
	case "too_many_attempts":
		return &domain.PinError{Kind: domain.KindTooManyAttempts, Message: body.Message}
	case "maintenance":
		return &domain.PinError{Kind: domain.KindServerMaintenance, Message: body.Message}
	}
	return &domain.PinError{
		Kind:    domain.KindServerError,
		Message: fmt.Sprintf("status %d: %s", apiErr.Status, body.Message),
	}
}
