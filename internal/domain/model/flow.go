package model

// FlowStateKind marks a past or present step in a flow state machine.
type FlowStateKind string

const (
	// FlowInactive - no flow is performed at the moment. It is both the
	// initial state and the only terminal state.
	FlowInactive FlowStateKind = "inactive"

	// FlowIntro - first time the user performs the buy flow.
	FlowIntro FlowStateKind = "intro"

	// FlowSelectFiat - fiat currency selection.
	FlowSelectFiat FlowStateKind = "select-fiat"

	// FlowUnsupportedFiat - the selected fiat is not supported for buying.
	FlowUnsupportedFiat FlowStateKind = "unsupported-fiat"

	// FlowBuy - the enter-amount buy screen.
	FlowBuy FlowStateKind = "enter-amount-to-buy"

	// FlowChangeFiat - change fiat from the buy screen.
	FlowChangeFiat FlowStateKind = "change-fiat"

	// FlowPaymentMethods - the user views their payment method types.
	FlowPaymentMethods FlowStateKind = "payment-methods"

	// FlowAddCard - add-card flow before checking out.
	FlowAddCard FlowStateKind = "add-card"

	// FlowKycBeforeCheckout - KYC gating a concrete checkout.
	FlowKycBeforeCheckout FlowStateKind = "kyc-before-checkout"

	// FlowKyc - standalone KYC.
	FlowKyc FlowStateKind = "kyc"

	// FlowPendingKycApproval - awaiting KYC approval.
	FlowPendingKycApproval FlowStateKind = "pending-kyc-approval"

	// FlowIneligible - the user is not eligible to buy.
	FlowIneligible FlowStateKind = "ineligible-for-buy"

	// FlowCheckout - the user is checking out.
	FlowCheckout FlowStateKind = "checkout"

	// FlowBankTransferDetails - the user authorized a bank wire.
	FlowBankTransferDetails FlowStateKind = "bank-transfer-details"

	// FlowFundsTransferDetails - funds transfer details screen.
	FlowFundsTransferDetails FlowStateKind = "funds-transfer-details"

	// FlowAuthorizeCard - card payment authorized, referring to partner (3DS).
	FlowAuthorizeCard FlowStateKind = "authorize-card"

	// FlowTransferCancellation - the user may cancel their transfer.
	FlowTransferCancellation FlowStateKind = "order-cancellation"

	// FlowPendingOrderDetails - the user has a pending order.
	FlowPendingOrderDetails FlowStateKind = "pending-order-details"

	// FlowPendingOrderCompleted - purchase completed.
	FlowPendingOrderCompleted FlowStateKind = "pending-order-completed"

	// FlowLinkBank - the link-a-bank flow.
	FlowLinkBank FlowStateKind = "link-bank"

	// FlowLinkCard - the link-a-card flow.
	FlowLinkCard FlowStateKind = "link-card"
)

// FlowState is one step of a flow, a tagged union of a kind plus the
// payload that kind carries. Payload fields not used by a kind are nil/zero.
type FlowState struct {
	Kind FlowStateKind

	// Checkout carries the pending order context for checkout-adjacent
	// states (Checkout, AddCard, KycBeforeCheckout, PendingKycApproval,
	// BankTransferDetails, TransferCancellation, PendingOrderDetails).
	Checkout *CheckoutData

	// Order carries the bare order for AuthorizeCard and
	// PendingOrderCompleted.
	Order *OrderDetails

	// Currency carries the fiat code for UnsupportedFiat and
	// FundsTransferDetails.
	Currency string

	// FundsTransferDetails origin flags.
	IsOriginPaymentMethods bool
	IsOriginDeposit        bool
}

// InactiveState is the canonical terminal/initial state.
func InactiveState() FlowState { return FlowState{Kind: FlowInactive} }

func (s FlowState) IsInactive() bool       { return s.Kind == FlowInactive }
func (s FlowState) IsPaymentMethods() bool { return s.Kind == FlowPaymentMethods }

// FlowHistory comprises all the states so far in the current flow session:
// the actual current state plus the previous states sorted chronologically,
// oldest first. It is a value; Appending and RemovingLast are pure and never
// mutate the receiver.
type FlowHistory struct {
	Current  FlowState
	Previous []FlowState
}

// InactiveHistory is the canonical empty/reset history.
func InactiveHistory() FlowHistory {
	return FlowHistory{Current: InactiveState()}
}

// Appending returns a new history where state is current and the old current
// is pushed onto previous.
func (h FlowHistory) Appending(state FlowState) FlowHistory {
	prev := make([]FlowState, 0, len(h.Previous)+1)
	prev = append(prev, h.Previous...)
	prev = append(prev, h.Current)
	return FlowHistory{Current: state, Previous: prev}
}

// RemovingLast returns a new history where the last previous state becomes
// current. When previous is empty the result is the inactive history.
func (h FlowHistory) RemovingLast() FlowHistory {
	if len(h.Previous) == 0 {
		return InactiveHistory()
	}
	prev := make([]FlowState, len(h.Previous)-1)
	copy(prev, h.Previous[:len(h.Previous)-1])
	return FlowHistory{Current: h.Previous[len(h.Previous)-1], Previous: prev}
}

// FlowActionKind classifies the navigation event a transition produced.
type FlowActionKind string

const (
	// ActionNext - the flow advanced to a new state.
	ActionNext FlowActionKind = "next"
	// ActionPrevious - the flow stepped back from a state.
	ActionPrevious FlowActionKind = "previous"
	// ActionDismiss - the flow ended and the journey should be dismissed.
	ActionDismiss FlowActionKind = "dismiss"
)

// FlowAction is the one-shot navigation event emitted alongside every
// history change. To is set for next, From for previous.
type FlowAction struct {
	Kind FlowActionKind
	To   FlowState
	From FlowState
}
