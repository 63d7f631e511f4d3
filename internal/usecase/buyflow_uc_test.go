//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"wallet-flows/internal/domain/model"
	"wallet-flows/internal/domain/ports/repository"
	"wallet-flows/internal/usecase"
)

// buyFlowTestDeps holds the mock collaborators of the flow machine.
type buyFlowTestDeps struct {
	pairs  *MockPairsService
	orders *MockPendingOrdersService
	tiers  *MockKYCTiersService
	cache  *memEventCache
	alert  *MockAlertPresenter
}

func newBuyFlowDeps() *buyFlowTestDeps {
	return &buyFlowTestDeps{
		pairs:  &MockPairsService{},
		orders: &MockPendingOrdersService{},
		tiers:  &MockKYCTiersService{},
		cache:  newMemEventCache(),
		alert:  &MockAlertPresenter{},
	}
}

func (d *buyFlowTestDeps) build() *usecase.BuyFlowService {
	return usecase.NewBuyFlowService(d.pairs, d.orders, d.tiers, d.cache, d.alert, newTestLogger())
}

func drainActions(ch <-chan model.FlowAction) []model.FlowAction {
	var out []model.FlowAction
	for {
		select {
		case a := <-ch:
			out = append(out, a)
		default:
			return out
		}
	}
}

func mustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic, got none")
		}
	}()
	fn()
}

func TestBuyFlowService_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("cold start with intro never shown lands on intro", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()

		flow.Start(ctx)

		if got := flow.History().Current.Kind; got != model.FlowIntro {
			t.Fatalf("expected intro, got %q", got)
		}
		// Landing on intro marks the milestone for the next cold start.
		if shown, _ := deps.cache.Get(ctx, repository.HasShownIntroScreen); !shown {
			t.Fatal("expected intro milestone to be cached")
		}
	})

	t.Run("start is idempotent while a flow is running", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()

		flow.Start(ctx)
		first := flow.History()
		flow.Start(ctx)
		second := flow.History()

		if first.Current != second.Current || len(first.Previous) != len(second.Previous) {
			t.Fatalf("second start changed the history: %+v vs %+v", first, second)
		}
	})

	t.Run("intro already shown and fiat supported lands on buy", func(t *testing.T) {
		deps := newBuyFlowDeps()
		deps.cache.Set(ctx, repository.HasShownIntroScreen, true)
		flow := deps.build()

		flow.Start(ctx)

		if got := flow.History().Current.Kind; got != model.FlowBuy {
			t.Fatalf("expected enter-amount, got %q", got)
		}
		if shown, _ := deps.cache.Get(ctx, repository.HasShownBuyScreen); !shown {
			t.Fatal("expected buy-screen milestone to be cached")
		}
	})

	t.Run("intro already shown and fiat unsupported lands on fiat selection", func(t *testing.T) {
		deps := newBuyFlowDeps()
		deps.cache.Set(ctx, repository.HasShownIntroScreen, true)
		deps.pairs.FetchPairsFunc = func(ctx context.Context) (model.SupportedPairs, error) {
			return model.SupportedPairs{}, nil
		}
		flow := deps.build()

		flow.Start(ctx)

		if got := flow.History().Current.Kind; got != model.FlowSelectFiat {
			t.Fatalf("expected select-fiat, got %q", got)
		}
	})

	t.Run("fetch failure alerts and keeps the flow inactive", func(t *testing.T) {
		deps := newBuyFlowDeps()
		deps.pairs.FetchPairsFunc = func(ctx context.Context) (model.SupportedPairs, error) {
			return model.SupportedPairs{}, errors.New("boom")
		}
		flow := deps.build()

		flow.Start(ctx)

		if got := flow.History().Current.Kind; got != model.FlowInactive {
			t.Fatalf("expected inactive, got %q", got)
		}
		if deps.alert.ErrorCount() != 1 {
			t.Fatalf("expected one error alert, got %d", deps.alert.ErrorCount())
		}
	})

	t.Run("pending 3ds-confirmed card order resumes into completed", func(t *testing.T) {
		deps := newBuyFlowDeps()
		deps.orders.PendingOrderDetailsFunc = func(ctx context.Context) (*model.OrderDetails, error) {
			return &model.OrderDetails{
				ID:             "order-1",
				State:          model.OrderPendingDeposit,
				PaymentMethod:  model.PaymentMethodCard,
				Is3DSConfirmed: true,
			}, nil
		}
		flow := deps.build()

		flow.Start(ctx)

		current := flow.History().Current
		if current.Kind != model.FlowPendingOrderCompleted {
			t.Fatalf("expected pending-order-completed, got %q", current.Kind)
		}
		if current.Order == nil || current.Order.ID != "order-1" {
			t.Fatalf("expected the resumed order to be carried, got %+v", current.Order)
		}
		// Resuming an order skips the intro forever after.
		if shown, _ := deps.cache.Get(ctx, repository.HasShownIntroScreen); !shown {
			t.Fatal("expected intro milestone to be cached on resume")
		}
	})

	t.Run("pending confirmation without tier 2 re-enters the amount screen", func(t *testing.T) {
		deps := newBuyFlowDeps()
		deps.orders.PendingOrderDetailsFunc = func(ctx context.Context) (*model.OrderDetails, error) {
			return &model.OrderDetails{
				ID:              "order-2",
				State:           model.OrderPendingConfirmation,
				PaymentMethod:   model.PaymentMethodCard,
				PaymentMethodID: "pm-1",
			}, nil
		}
		deps.tiers.FetchTiersFunc = func(ctx context.Context) (model.KYCTiers, error) {
			return model.KYCTiers{IsTier2Approved: false}, nil
		}
		flow := deps.build()

		flow.Start(ctx)

		if got := flow.History().Current.Kind; got != model.FlowBuy {
			t.Fatalf("expected enter-amount, got %q", got)
		}
	})

	t.Run("pending confirmation fully resolved resumes into checkout", func(t *testing.T) {
		deps := newBuyFlowDeps()
		deps.orders.PendingOrderDetailsFunc = func(ctx context.Context) (*model.OrderDetails, error) {
			return &model.OrderDetails{
				ID:              "order-3",
				State:           model.OrderPendingConfirmation,
				PaymentMethod:   model.PaymentMethodBankTransfer,
				PaymentMethodID: "bank-1",
			}, nil
		}
		flow := deps.build()

		flow.Start(ctx)

		if got := flow.History().Current.Kind; got != model.FlowCheckout {
			t.Fatalf("expected checkout, got %q", got)
		}
	})

	t.Run("pending funds order resumes into pending order details", func(t *testing.T) {
		deps := newBuyFlowDeps()
		deps.orders.PendingOrderDetailsFunc = func(ctx context.Context) (*model.OrderDetails, error) {
			return &model.OrderDetails{
				ID:            "order-4",
				State:         model.OrderPendingDeposit,
				PaymentMethod: model.PaymentMethodFunds,
			}, nil
		}
		flow := deps.build()

		flow.Start(ctx)

		if got := flow.History().Current.Kind; got != model.FlowPendingOrderDetails {
			t.Fatalf("expected pending-order-details, got %q", got)
		}
	})
}

func TestBuyFlowService_Next(t *testing.T) {
	ctx := context.Background()

	t.Run("next from inactive starts the flow", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()

		flow.Next(ctx)

		if got := flow.History().Current.Kind; got != model.FlowIntro {
			t.Fatalf("expected intro, got %q", got)
		}
	})

	t.Run("next from intro enters fiat selection", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)

		actions, unsub := flow.Actions()
		defer unsub()
		flow.Next(ctx)

		if got := flow.History().Current.Kind; got != model.FlowSelectFiat {
			t.Fatalf("expected select-fiat, got %q", got)
		}
		got := drainActions(actions)
		if len(got) != 1 || got[0].Kind != model.ActionNext || got[0].To.Kind != model.FlowSelectFiat {
			t.Fatalf("expected one next action to select-fiat, got %+v", got)
		}
	})

	t.Run("next from kyc gate parks behind approval", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)
		data := model.NewCheckoutData(model.OrderDetails{PaymentMethod: model.PaymentMethodCard})
		flow.KYC(ctx, data)

		flow.Next(ctx)

		current := flow.History().Current
		if current.Kind != model.FlowPendingKycApproval {
			t.Fatalf("expected pending-kyc-approval, got %q", current.Kind)
		}
		if current.Checkout == nil {
			t.Fatal("expected the checkout payload to be carried through the gate")
		}
	})

	t.Run("next after kyc approval branches on payment method", func(t *testing.T) {
		tests := []struct {
			name     string
			method   model.PaymentMethod
			methodID string
			want     model.FlowStateKind
		}{
			{"bank account resumes checkout", model.PaymentMethodBankAccount, "", model.FlowCheckout},
			{"unresolved card detours through add-card", model.PaymentMethodCard, "", model.FlowAddCard},
			{"card on file resumes checkout", model.PaymentMethodCard, "pm-123", model.FlowCheckout},
			{"funds shows transfer details", model.PaymentMethodFunds, "", model.FlowFundsTransferDetails},
			{"unlinked bank transfer links a bank", model.PaymentMethodBankTransfer, "", model.FlowLinkBank},
			{"linked bank transfer resumes checkout", model.PaymentMethodBankTransfer, "bank-9", model.FlowCheckout},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				deps := newBuyFlowDeps()
				flow := deps.build()
				flow.Start(ctx)
				data := model.NewCheckoutData(model.OrderDetails{
					PaymentMethod:   tc.method,
					PaymentMethodID: tc.methodID,
					FiatCurrency:    "EUR",
				})
				flow.IneligibleWithData(ctx, data)

				flow.Next(ctx)

				current := flow.History().Current
				if current.Kind != tc.want {
					t.Fatalf("expected %q, got %q", tc.want, current.Kind)
				}
				if tc.method == model.PaymentMethodFunds && current.Currency != "EUR" {
					t.Fatalf("expected the order currency to be carried, got %q", current.Currency)
				}
			})
		}
	})

	t.Run("next after kyc approval panics on unknown payment method", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)
		flow.IneligibleWithData(ctx, model.NewCheckoutData(model.OrderDetails{PaymentMethod: "cheque"}))

		mustPanic(t, func() { flow.Next(ctx) })
	})

	t.Run("next from exit screens dismisses the journey", func(t *testing.T) {
		data := model.NewCheckoutData(model.OrderDetails{PaymentMethod: model.PaymentMethodBankAccount})
		tests := []struct {
			name  string
			enter func(flow *usecase.BuyFlowService)
		}{
			{"bank transfer details", func(f *usecase.BuyFlowService) { f.BankTransferDetails(ctx, data) }},
			{"funds transfer details", func(f *usecase.BuyFlowService) { f.ShowFundsTransferDetails(ctx, "GBP", false) }},
			{"transfer cancellation", func(f *usecase.BuyFlowService) { f.CancelTransfer(ctx, data) }},
			{"unsupported fiat", func(f *usecase.BuyFlowService) { f.IneligibleFiat(ctx, "KRW") }},
			{"change fiat", func(f *usecase.BuyFlowService) { f.ChangeCurrency(ctx) }},
			{"link card", func(f *usecase.BuyFlowService) { f.LinkCard(ctx) }},
			{"link bank", func(f *usecase.BuyFlowService) { f.NextFromBankLinkSelection(ctx) }},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				deps := newBuyFlowDeps()
				flow := deps.build()
				flow.Start(ctx)
				tc.enter(flow)

				actions, unsub := flow.Actions()
				defer unsub()
				flow.Next(ctx)

				if got := flow.History().Current.Kind; got != model.FlowInactive {
					t.Fatalf("expected inactive, got %q", got)
				}
				got := drainActions(actions)
				if len(got) != 1 || got[0].Kind != model.ActionDismiss {
					t.Fatalf("expected one dismiss action, got %+v", got)
				}
			})
		}
	})

	t.Run("next from standalone kyc steps back silently", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)
		flow.KYCGeneric(ctx)

		actions, unsub := flow.Actions()
		defer unsub()
		flow.Next(ctx)

		if got := flow.History().Current.Kind; got != model.FlowIntro {
			t.Fatalf("expected to fall back to intro, got %q", got)
		}
		if got := drainActions(actions); len(got) != 0 {
			t.Fatalf("expected no action for the silent kyc pop, got %+v", got)
		}
	})

	t.Run("next on a non-step state panics", func(t *testing.T) {
		deps := newBuyFlowDeps()
		deps.cache.Set(ctx, repository.HasShownIntroScreen, true)
		flow := deps.build()
		flow.Start(ctx)
		if got := flow.History().Current.Kind; got != model.FlowBuy {
			t.Fatalf("precondition failed, got %q", got)
		}

		mustPanic(t, func() { flow.Next(ctx) })
	})
}

func TestBuyFlowService_Previous(t *testing.T) {
	ctx := context.Background()

	t.Run("previous undoes an append", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)
		before := flow.History()

		flow.PaymentMethods(ctx)
		flow.Previous(ctx)

		after := flow.History()
		if before.Current != after.Current || len(before.Previous) != len(after.Previous) {
			t.Fatalf("previous did not undo the append: %+v vs %+v", before, after)
		}
	})

	t.Run("previous to inactive dismisses", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)

		actions, unsub := flow.Actions()
		defer unsub()
		flow.Previous(ctx)

		got := drainActions(actions)
		if len(got) != 1 || got[0].Kind != model.ActionDismiss {
			t.Fatalf("expected a dismiss, got %+v", got)
		}
	})

	t.Run("previous out of the kyc approval gate dismisses", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)
		flow.PaymentMethods(ctx)
		flow.IneligibleWithData(ctx, model.NewCheckoutData(model.OrderDetails{PaymentMethod: model.PaymentMethodCard}))

		actions, unsub := flow.Actions()
		defer unsub()
		flow.Previous(ctx)

		got := drainActions(actions)
		if len(got) != 1 || got[0].Kind != model.ActionDismiss {
			t.Fatalf("expected a dismiss out of the gate, got %+v", got)
		}
	})

	t.Run("previous cannot leave a completed order", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)
		data := model.NewCheckoutData(model.OrderDetails{PaymentMethod: model.PaymentMethodBankTransfer})
		flow.ConfirmCheckout(ctx, data, true)
		before := flow.History()

		actions, unsub := flow.Actions()
		defer unsub()
		flow.Previous(ctx)

		after := flow.History()
		if after.Current.Kind != model.FlowPendingOrderCompleted || len(after.Previous) != len(before.Previous) {
			t.Fatalf("expected the completed order to stay put, got %+v", after)
		}
		if got := drainActions(actions); len(got) != 0 {
			t.Fatalf("expected no navigation action, got %+v", got)
		}
	})

	t.Run("previous from an ordinary state emits previous", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)
		flow.PaymentMethods(ctx)
		flow.ChangeCurrency(ctx)

		actions, unsub := flow.Actions()
		defer unsub()
		flow.Previous(ctx)

		got := drainActions(actions)
		if len(got) != 1 || got[0].Kind != model.ActionPrevious || got[0].From.Kind != model.FlowChangeFiat {
			t.Fatalf("expected a previous action from change-fiat, got %+v", got)
		}
	})
}

func TestBuyFlowService_ConfirmCheckout(t *testing.T) {
	ctx := context.Background()
	order := model.OrderDetails{ID: "order-9"}

	tests := []struct {
		name       string
		method     model.PaymentMethod
		isOrderNew bool
		want       model.FlowStateKind
	}{
		{"new funds order completes", model.PaymentMethodFunds, true, model.FlowPendingOrderCompleted},
		{"new bank account order shows wire details", model.PaymentMethodBankAccount, true, model.FlowBankTransferDetails},
		{"new bank transfer order completes", model.PaymentMethodBankTransfer, true, model.FlowPendingOrderCompleted},
		{"existing funds order ends the flow", model.PaymentMethodFunds, false, model.FlowInactive},
		{"existing bank account order ends the flow", model.PaymentMethodBankAccount, false, model.FlowInactive},
		{"existing bank transfer order ends the flow", model.PaymentMethodBankTransfer, false, model.FlowInactive},
		{"new card order authorizes", model.PaymentMethodCard, true, model.FlowAuthorizeCard},
		{"existing card order authorizes", model.PaymentMethodCard, false, model.FlowAuthorizeCard},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			deps := newBuyFlowDeps()
			flow := deps.build()
			flow.Start(ctx)
			o := order
			o.PaymentMethod = tc.method

			flow.ConfirmCheckout(ctx, model.NewCheckoutData(o), tc.isOrderNew)

			if got := flow.History().Current.Kind; got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}

	t.Run("unknown payment method panics", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)

		mustPanic(t, func() {
			flow.ConfirmCheckout(ctx, model.NewCheckoutData(model.OrderDetails{PaymentMethod: "cheque"}), true)
		})
	})
}

func TestBuyFlowService_CardAuthorized(t *testing.T) {
	ctx := context.Background()

	t.Run("completes the order while authorizing", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)
		order := model.OrderDetails{ID: "order-5", PaymentMethod: model.PaymentMethodCard}
		flow.ConfirmCheckout(ctx, model.NewCheckoutData(order), true)

		flow.CardAuthorized(ctx, "pm-77")

		current := flow.History().Current
		if current.Kind != model.FlowPendingOrderCompleted {
			t.Fatalf("expected pending-order-completed, got %q", current.Kind)
		}
		if current.Order.PaymentMethodID != "pm-77" {
			t.Fatalf("expected the resolved payment method id, got %q", current.Order.PaymentMethodID)
		}
	})

	t.Run("is a no-op outside the authorize state", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)

		flow.CardAuthorized(ctx, "pm-77")

		if got := flow.History().Current.Kind; got != model.FlowIntro {
			t.Fatalf("expected the state to stay on intro, got %q", got)
		}
	})
}

func TestBuyFlowService_PaymentMethodsOrigin(t *testing.T) {
	ctx := context.Background()

	t.Run("funds transfer details replaces the payment methods screen", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)
		flow.PaymentMethods(ctx)

		flow.ShowFundsTransferDetails(ctx, "EUR", false)

		history := flow.History()
		if history.Current.Kind != model.FlowFundsTransferDetails {
			t.Fatalf("expected funds-transfer-details, got %q", history.Current.Kind)
		}
		if !history.Current.IsOriginPaymentMethods {
			t.Fatal("expected the payment-methods origin flag")
		}
		for _, prev := range history.Previous {
			if prev.Kind == model.FlowPaymentMethods {
				t.Fatal("expected the payment-methods screen to be dropped from history")
			}
		}
	})

	t.Run("standalone kyc replaces the payment methods screen", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)
		flow.PaymentMethods(ctx)

		flow.KYCGeneric(ctx)

		history := flow.History()
		if history.Current.Kind != model.FlowKyc {
			t.Fatalf("expected kyc, got %q", history.Current.Kind)
		}
		for _, prev := range history.Previous {
			if prev.Kind == model.FlowPaymentMethods {
				t.Fatal("expected the payment-methods screen to be dropped from history")
			}
		}
	})

	t.Run("reselect currency swaps the current screen for fiat selection", func(t *testing.T) {
		deps := newBuyFlowDeps()
		flow := deps.build()
		flow.Start(ctx)
		flow.IneligibleFiat(ctx, "KRW")

		flow.ReselectCurrency(ctx)

		history := flow.History()
		if history.Current.Kind != model.FlowSelectFiat {
			t.Fatalf("expected select-fiat, got %q", history.Current.Kind)
		}
		for _, prev := range history.Previous {
			if prev.Kind == model.FlowUnsupportedFiat {
				t.Fatal("expected the unsupported-fiat screen to be gone")
			}
		}
	})
}
