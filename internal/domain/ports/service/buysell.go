package service

import (
	"context"

	"wallet-flows/internal/domain/model"
)

// SupportedPairsService fetches the tradable pairs for the user's fiat
// currency.
type SupportedPairsService interface {
	FetchPairs(ctx context.Context) (model.SupportedPairs, error)
}

// PendingOrderDetailsService looks up the user's in-flight buy order, if
// any. A (nil, nil) return means no pending order exists.
type PendingOrderDetailsService interface {
	PendingOrderDetails(ctx context.Context) (*model.OrderDetails, error)
}

// KYCTiersService fetches the user's verification tiers.
type KYCTiersService interface {
	FetchTiers(ctx context.Context) (model.KYCTiers, error)
}

// AlertPresenter surfaces a blocking error alert to whatever UI hosts the
// flow. The flow machine only ever needs the generic form.
type AlertPresenter interface {
	Error(ctx context.Context)
}
