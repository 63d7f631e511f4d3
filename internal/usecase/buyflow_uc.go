// File: internal/usecase/buyflow_uc.go
package usecase

import (
	"context"
	"fmt"
	"sync"

	"wallet-flows/internal/domain/model"
	"wallet-flows/internal/domain/ports/repository"
	"wallet-flows/internal/domain/ports/service"
	"wallet-flows/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const actionBufferSize = 16

// BuyFlowService drives the multi-step buy-crypto journey as a state machine
// over one FlowHistory. Every transition happens under a single mutex, the
// logical serial queue of the flow; subscribers observe one-shot navigation
// actions over non-replaying channels.
type BuyFlowService struct {
	mu     sync.Mutex
	states model.FlowHistory

	subs    map[int]chan model.FlowAction
	nextSub int

	pairs         service.SupportedPairsService
	pendingOrders service.PendingOrderDetailsService
	kycTiers      service.KYCTiersService
	cache         repository.EventCache
	alert         service.AlertPresenter
	log           *zerolog.Logger
}

func NewBuyFlowService(
	pairs service.SupportedPairsService,
	pendingOrders service.PendingOrderDetailsService,
	kycTiers service.KYCTiersService,
	cache repository.EventCache,
	alert service.AlertPresenter,
	logger *zerolog.Logger,
) *BuyFlowService {
	return &BuyFlowService{
		states:        model.InactiveHistory(),
		subs:          make(map[int]chan model.FlowAction),
		pairs:         pairs,
		pendingOrders: pendingOrders,
		kycTiers:      kycTiers,
		cache:         cache,
		alert:         alert,
		log:           logger,
	}
}

// History returns a snapshot of the current flow history.
func (f *BuyFlowService) History() model.FlowHistory {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states
}

// Actions subscribes to the one-shot navigation action stream. Actions are
// never replayed to late subscribers. The returned function unsubscribes and
// closes the channel.
func (f *BuyFlowService) Actions() (<-chan model.FlowAction, func()) {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	ch := make(chan model.FlowAction, actionBufferSize)
	f.subs[id] = ch
	f.mu.Unlock()

	return ch, func() {
		f.mu.Lock()
		if c, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
		f.mu.Unlock()
	}
}

// Start is the idempotent entry point: it kicks the flow off only when the
// history is still inactive.
func (f *BuyFlowService) Start(ctx context.Context) {
	f.mu.Lock()
	current := f.states.Current
	f.mu.Unlock()
	if !current.IsInactive() {
		f.log.Debug().Str("state", string(current.Kind)).Msg("buy flow: start ignored, flow already running")
		return
	}

	f.startFlow(ctx)
}

// Next advances the flow from the current state.
func (f *BuyFlowService) Next(ctx context.Context) {
	f.mu.Lock()
	current := f.states.Current
	if current.IsInactive() {
		f.mu.Unlock()
		f.startFlow(ctx)
		return
	}
	defer f.mu.Unlock()

	switch current.Kind {
	case model.FlowIntro:
		f.applyLocked(ctx, nextAction(model.FlowState{Kind: model.FlowSelectFiat}))
	case model.FlowKycBeforeCheckout:
		state := model.FlowState{Kind: model.FlowPendingKycApproval, Checkout: current.Checkout}
		f.applyLocked(ctx, nextAction(state))
	case model.FlowPendingKycApproval:
		// KYC is a gate that each payment method resumes differently after.
		var state model.FlowState
		data := current.Checkout
		switch data.Order.PaymentMethod {
		case model.PaymentMethodFunds:
			state = model.FlowState{Kind: model.FlowFundsTransferDetails, Currency: data.Order.FiatCurrency}
		case model.PaymentMethodCard:
			// A card already on file resumes checkout directly.
			if data.IsPaymentMethodFinalized() {
				state = model.FlowState{Kind: model.FlowCheckout, Checkout: data}
			} else {
				state = model.FlowState{Kind: model.FlowAddCard, Checkout: data}
			}
		case model.PaymentMethodBankTransfer:
			if data.IsPaymentMethodFinalized() {
				state = model.FlowState{Kind: model.FlowCheckout, Checkout: data}
			} else {
				state = model.FlowState{Kind: model.FlowLinkBank}
			}
		case model.PaymentMethodBankAccount:
			state = model.FlowState{Kind: model.FlowCheckout, Checkout: data}
		default:
			panic(fmt.Sprintf("buy flow: next from pending-kyc-approval with unhandled payment method %q", data.Order.PaymentMethod))
		}
		f.applyLocked(ctx, nextAction(state))
	case model.FlowBankTransferDetails,
		model.FlowFundsTransferDetails,
		model.FlowPendingOrderDetails,
		model.FlowTransferCancellation,
		model.FlowUnsupportedFiat,
		model.FlowChangeFiat,
		model.FlowLinkCard,
		model.FlowLinkBank:
		// Exit screens, not flow steps.
		f.states = f.states.Appending(model.InactiveState())
		f.publishLocked(model.FlowAction{Kind: model.ActionDismiss})
	case model.FlowKyc:
		// Standalone KYC steps back silently, without a navigation action.
		f.states = f.states.RemovingLast()
	default:
		panic(fmt.Sprintf("buy flow: next called with unhandled state %q", current.Kind))
	}
}

// Previous pops the history. Popping out of a one-way gate, or landing back
// on the inactive state, dismisses the journey instead of stepping back.
func (f *BuyFlowService) Previous(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previousLocked(ctx)
}

func (f *BuyFlowService) previousLocked(ctx context.Context) {
	last := f.states.Current
	if last.Kind == model.FlowPendingOrderCompleted {
		// A completed order cannot be stepped out of; going back would
		// re-expose a finished checkout.
		return
	}
	f.states = f.states.RemovingLast()

	var action model.FlowAction
	switch {
	case f.states.Current.IsInactive(),
		last.Kind == model.FlowPendingKycApproval,
		last.Kind == model.FlowIneligible:
		action = model.FlowAction{Kind: model.ActionDismiss}
	default:
		action = model.FlowAction{Kind: model.ActionPrevious, From: last}
	}
	f.publishLocked(action)
	f.cacheStateLocked(ctx)
}

// startFlow resolves the initial state from the pending-order lookup and the
// fiat-support lookup, joined. The fetches run off the flow mutex; the
// result is applied only if the flow is still inactive by then.
func (f *BuyFlowService) startFlow(ctx context.Context) {
	var (
		wg       sync.WaitGroup
		order    *model.OrderDetails
		orderErr error
		pairs    model.SupportedPairs
		pairsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		order, orderErr = f.pendingOrders.PendingOrderDetails(ctx)
	}()
	go func() {
		defer wg.Done()
		pairs, pairsErr = f.pairs.FetchPairs(ctx)
	}()
	wg.Wait()

	if orderErr != nil || pairsErr != nil {
		f.log.Error().AnErr("order_err", orderErr).AnErr("pairs_err", pairsErr).Msg("buy flow: start fetch failed")
		f.alert.Error(ctx)
		return
	}

	state, err := f.initialState(ctx, order, pairs.IsFiatSupported())
	if err != nil {
		f.log.Error().Err(err).Msg("buy flow: resolve initial state")
		f.alert.Error(ctx)
		return
	}

	// Resuming straight into an in-flight order means the intro is moot.
	switch state.Kind {
	case model.FlowCheckout, model.FlowPendingOrderDetails, model.FlowPendingOrderCompleted, model.FlowBankTransferDetails:
		f.setCacheFlag(ctx, repository.HasShownIntroScreen)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.states.Current.IsInactive() {
		// A concurrent start won; discard this result.
		return
	}
	f.applyLocked(ctx, nextAction(state))
}

func (f *BuyFlowService) initialState(ctx context.Context, order *model.OrderDetails, fiatSupported bool) (model.FlowState, error) {
	if order == nil {
		shown, err := f.cache.Get(ctx, repository.HasShownIntroScreen)
		if err != nil {
			f.log.Warn().Err(err).Msg("buy flow: read intro cache flag")
			shown = false
		}
		if !shown {
			return model.FlowState{Kind: model.FlowIntro}, nil
		}
		if fiatSupported {
			return model.FlowState{Kind: model.FlowBuy}, nil
		}
		return model.FlowState{Kind: model.FlowSelectFiat}, nil
	}

	data := model.NewCheckoutData(*order)
	if order.State == model.OrderPendingConfirmation {
		// Checkout needs tier-2 approval; anything short of a fully
		// resolved, approved order re-enters the amount screen.
		tiers, err := f.kycTiers.FetchTiers(ctx)
		if err != nil {
			return model.FlowState{}, fmt.Errorf("fetch kyc tiers: %w", err)
		}
		if !tiers.IsTier2Approved {
			return model.FlowState{Kind: model.FlowBuy}, nil
		}
		if data.IsUnknownCardType() || data.IsUnknownBankTransfer() {
			return model.FlowState{Kind: model.FlowBuy}, nil
		}
		return model.FlowState{Kind: model.FlowCheckout, Checkout: &data}, nil
	}

	switch order.PaymentMethod {
	case model.PaymentMethodCard:
		if order.Is3DSConfirmedCardOrder() {
			return model.FlowState{Kind: model.FlowPendingOrderCompleted, Order: order}, nil
		}
		return model.FlowState{Kind: model.FlowCheckout, Checkout: &data}, nil
	case model.PaymentMethodBankTransfer:
		return model.FlowState{Kind: model.FlowCheckout, Checkout: &data}, nil
	case model.PaymentMethodBankAccount, model.PaymentMethodFunds:
		return model.FlowState{Kind: model.FlowPendingOrderDetails, Checkout: &data}, nil
	}
	return model.FlowState{}, fmt.Errorf("pending order with unknown payment method %q", order.PaymentMethod)
}

// NextFromBuyCrypto continues from the amount screen with the order the user
// built; unresolved card/bank methods detour through their linking flows.
func (f *BuyFlowService) NextFromBuyCrypto(ctx context.Context, data model.CheckoutData) {
	var state model.FlowState
	switch {
	case data.Order.PaymentMethod == model.PaymentMethodCard && !data.IsPaymentMethodFinalized():
		state = model.FlowState{Kind: model.FlowAddCard, Checkout: &data}
	case data.Order.PaymentMethod == model.PaymentMethodBankTransfer && !data.IsPaymentMethodFinalized():
		state = model.FlowState{Kind: model.FlowLinkBank}
	default:
		state = model.FlowState{Kind: model.FlowCheckout, Checkout: &data}
	}
	f.append(ctx, state)
}

// NextFromBankLinkSelection enters the link-a-bank flow directly.
func (f *BuyFlowService) NextFromBankLinkSelection(ctx context.Context) {
	f.append(ctx, model.FlowState{Kind: model.FlowLinkBank})
}

// KYC gates the given checkout behind verification.
func (f *BuyFlowService) KYC(ctx context.Context, data model.CheckoutData) {
	f.append(ctx, model.FlowState{Kind: model.FlowKycBeforeCheckout, Checkout: &data})
}

// KYCGeneric enters standalone KYC. Entering from the payment-methods screen
// first drops that screen from history so back-navigation skips it.
func (f *BuyFlowService) KYCGeneric(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.states.Current.IsPaymentMethods() {
		f.states = f.states.RemovingLast()
	}
	f.applyLocked(ctx, nextAction(model.FlowState{Kind: model.FlowKyc}))
}

// IneligibleWithData parks the checkout behind pending KYC approval.
func (f *BuyFlowService) IneligibleWithData(ctx context.Context, data model.CheckoutData) {
	f.append(ctx, model.FlowState{Kind: model.FlowPendingKycApproval, Checkout: &data})
}

// Ineligible marks the user as not eligible to buy at all.
func (f *BuyFlowService) Ineligible(ctx context.Context) {
	f.append(ctx, model.FlowState{Kind: model.FlowIneligible})
}

// IneligibleFiat shows the unsupported-fiat screen for the given currency.
func (f *BuyFlowService) IneligibleFiat(ctx context.Context, currency string) {
	f.append(ctx, model.FlowState{Kind: model.FlowUnsupportedFiat, Currency: currency})
}

// PaymentMethods shows the payment method types.
func (f *BuyFlowService) PaymentMethods(ctx context.Context) {
	f.append(ctx, model.FlowState{Kind: model.FlowPaymentMethods})
}

// ChangeCurrency shows the change-fiat screen.
func (f *BuyFlowService) ChangeCurrency(ctx context.Context) {
	f.append(ctx, model.FlowState{Kind: model.FlowChangeFiat})
}

// CurrencySelected lands on the amount screen after a fiat was picked.
func (f *BuyFlowService) CurrencySelected(ctx context.Context) {
	f.append(ctx, model.FlowState{Kind: model.FlowBuy})
}

// ReselectCurrency steps back and re-enters fiat selection.
func (f *BuyFlowService) ReselectCurrency(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previousLocked(ctx)
	f.applyLocked(ctx, nextAction(model.FlowState{Kind: model.FlowSelectFiat}))
}

// BankTransferDetails shows the wire details of an authorized bank order.
func (f *BuyFlowService) BankTransferDetails(ctx context.Context, data model.CheckoutData) {
	f.append(ctx, model.FlowState{Kind: model.FlowBankTransferDetails, Checkout: &data})
}

// ShowFundsTransferDetails shows deposit details for the given fiat. Entering
// from the payment-methods screen replaces that screen in history.
func (f *BuyFlowService) ShowFundsTransferDetails(ctx context.Context, currency string, isOriginDeposit bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fromPaymentMethods := f.states.Current.IsPaymentMethods()
	if fromPaymentMethods {
		f.states = f.states.RemovingLast()
	}
	state := model.FlowState{
		Kind:                   model.FlowFundsTransferDetails,
		Currency:               currency,
		IsOriginPaymentMethods: fromPaymentMethods,
		IsOriginDeposit:        isOriginDeposit,
	}
	f.applyLocked(ctx, nextAction(state))
}

// LinkCard enters the link-a-card flow.
func (f *BuyFlowService) LinkCard(ctx context.Context) {
	f.append(ctx, model.FlowState{Kind: model.FlowLinkCard})
}

// ConfirmCheckout resolves where a confirmed checkout goes, by payment
// method and order freshness. Unknown payment methods are a wiring bug.
func (f *BuyFlowService) ConfirmCheckout(ctx context.Context, data model.CheckoutData, isOrderNew bool) {
	var state model.FlowState
	switch method := data.Order.PaymentMethod; {
	case method == model.PaymentMethodFunds && isOrderNew:
		state = model.FlowState{Kind: model.FlowPendingOrderCompleted, Order: &data.Order}
	case method == model.PaymentMethodBankAccount && isOrderNew:
		state = model.FlowState{Kind: model.FlowBankTransferDetails, Checkout: &data}
	case method == model.PaymentMethodBankTransfer && isOrderNew:
		state = model.FlowState{Kind: model.FlowPendingOrderCompleted, Order: &data.Order}
	case method == model.PaymentMethodBankAccount, method == model.PaymentMethodBankTransfer, method == model.PaymentMethodFunds:
		state = model.InactiveState()
	case method == model.PaymentMethodCard:
		state = model.FlowState{Kind: model.FlowAuthorizeCard, Order: &data.Order}
	default:
		panic(fmt.Sprintf("buy flow: confirm checkout with unhandled payment method %q (new=%t)", method, isOrderNew))
	}
	f.append(ctx, state)
}

// CancelTransfer shows the transfer-cancellation screen.
func (f *BuyFlowService) CancelTransfer(ctx context.Context, data model.CheckoutData) {
	f.append(ctx, model.FlowState{Kind: model.FlowTransferCancellation, Checkout: &data})
}

// CardAuthorized completes the 3DS leg. A no-op unless the flow is actually
// waiting on card authorization.
func (f *BuyFlowService) CardAuthorized(ctx context.Context, paymentMethodID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	current := f.states.Current
	if current.Kind != model.FlowAuthorizeCard {
		f.log.Warn().Str("state", string(current.Kind)).Msg("buy flow: card authorized outside authorize-card state")
		return
	}
	order := *current.Order
	order.PaymentMethodID = paymentMethodID
	f.applyLocked(ctx, nextAction(model.FlowState{Kind: model.FlowPendingOrderCompleted, Order: &order}))
}

// OrderCompleted ends the journey after the completed-order screen.
func (f *BuyFlowService) OrderCompleted(ctx context.Context) {
	f.append(ctx, model.InactiveState())
}

// OrderPending resumes straight into checkout for an order created elsewhere.
func (f *BuyFlowService) OrderPending(ctx context.Context, order model.OrderDetails) {
	data := model.NewCheckoutData(order)
	f.append(ctx, model.FlowState{Kind: model.FlowCheckout, Checkout: &data})
}

func (f *BuyFlowService) append(ctx context.Context, state model.FlowState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyLocked(ctx, nextAction(state))
}

// applyLocked appends the action's target state, publishes the action, and
// records cache milestones. Callers hold f.mu.
func (f *BuyFlowService) applyLocked(ctx context.Context, action model.FlowAction) {
	f.states = f.states.Appending(action.To)
	f.publishLocked(action)
	f.cacheStateLocked(ctx)
}

func (f *BuyFlowService) publishLocked(action model.FlowAction) {
	metrics.IncFlowTransition(string(action.Kind), string(f.states.Current.Kind))
	f.log.Debug().
		Str("action", string(action.Kind)).
		Str("state", string(f.states.Current.Kind)).
		Int("depth", len(f.states.Previous)).
		Msg("buy flow: transition")
	for _, ch := range f.subs {
		select {
		case ch <- action:
		default:
			f.log.Warn().Msg("buy flow: dropping action for slow subscriber")
		}
	}
}

func (f *BuyFlowService) cacheStateLocked(ctx context.Context) {
	switch f.states.Current.Kind {
	case model.FlowBuy:
		f.setCacheFlag(ctx, repository.HasShownBuyScreen)
	case model.FlowIntro:
		f.setCacheFlag(ctx, repository.HasShownIntroScreen)
	}
}

func (f *BuyFlowService) setCacheFlag(ctx context.Context, key repository.EventCacheKey) {
	if err := f.cache.Set(ctx, key, true); err != nil {
		f.log.Warn().Err(err).Str("key", string(key)).Msg("buy flow: persist cache flag")
	}
}

func nextAction(to model.FlowState) model.FlowAction {
	return model.FlowAction{Kind: model.ActionNext, To: to}
}
