// File: internal/infra/adapters/walletapi/buysell_service.go
package walletapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"wallet-flows/internal/domain/model"
	"wallet-flows/internal/domain/ports/service"
)

var (
	_ service.SupportedPairsService      = (*BuySellService)(nil)
	_ service.PendingOrderDetailsService = (*BuySellService)(nil)
	_ service.KYCTiersService            = (*BuySellService)(nil)
)

// BuySellService implements the simple-buy collaborator ports: pairs,
// pending orders, and KYC tiers.
type BuySellService struct {
	c   *Client
	log *zerolog.Logger
}

func NewBuySellService(client *Client, logger *zerolog.Logger) *BuySellService {
	return &BuySellService{c: client, log: logger}
}

type pairsResponse struct {
	Pairs []string `json:"pairs"`
}

func (b *BuySellService) FetchPairs(ctx context.Context) (model.SupportedPairs, error) {
	var resp pairsResponse
	if err := b.c.getJSON(ctx, "/simple-buy/pairs", &resp); err != nil {
		return model.SupportedPairs{}, fmt.Errorf("failed to fetch supported pairs: %w", err)
	}
	return model.SupportedPairs{Pairs: resp.Pairs}, nil
}

type orderResponse struct {
	ID              string `json:"id"`
	State           string `json:"state"`
	PaymentMethod   string `json:"payment_method"`
	PaymentMethodID string `json:"payment_method_id"`
	Is3DSConfirmed  bool   `json:"is_3ds_confirmed"`
	FiatCurrency    string `json:"fiat_currency"`
}

// PendingOrderDetails returns the user's in-flight order, or (nil, nil)
// when none exists.
func (b *BuySellService) PendingOrderDetails(ctx context.Context) (*model.OrderDetails, error) {
	var resp orderResponse
	if err := b.c.getJSON(ctx, "/simple-buy/orders/pending", &resp); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch pending order: %w", err)
	}
	order := &model.OrderDetails{
		ID:              resp.ID,
		State:           model.OrderState(resp.State),
		PaymentMethod:   model.PaymentMethod(resp.PaymentMethod),
		PaymentMethodID: resp.PaymentMethodID,
		Is3DSConfirmed:  resp.Is3DSConfirmed,
		FiatCurrency:    resp.FiatCurrency,
	}
	if order.ID == "" {
		// Some backends omit the id until confirmation; the flow still needs
		// a stable handle for the order it is resuming.
		order.ID = ulid.Make().String()
		b.log.Warn().Str("state", resp.State).Msg("walletapi: pending order without id, assigned local handle")
	}
	return order, nil
}

type tiersResponse struct {
	Tiers []struct {
		Index int    `json:"index"`
		State string `json:"state"`
	} `json:"tiers"`
}

func (b *BuySellService) FetchTiers(ctx context.Context) (model.KYCTiers, error) {
	var resp tiersResponse
	if err := b.c.getJSON(ctx, "/kyc/tiers", &resp); err != nil {
		return model.KYCTiers{}, fmt.Errorf("failed to fetch kyc tiers: %w", err)
	}
	tiers := model.KYCTiers{}
	for _, t := range resp.Tiers {
		if t.Index == 2 && t.State == "verified" {
			tiers.IsTier2Approved = true
		}
	}
	return tiers, nil
}
