package model

// PaymentMethod tags how a buy order is funded.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank-transfer"
	PaymentMethodBankAccount  PaymentMethod = "bank-account"
	PaymentMethodFunds        PaymentMethod = "funds"
)

// OrderState is the server-side lifecycle state of a buy order. Only
// PendingConfirmation gets special treatment when resuming a flow; every
// other state branches on the payment method alone.
type OrderState string

const (
	OrderPendingConfirmation OrderState = "pending-confirmation"
	OrderPendingDeposit      OrderState = "pending-deposit"
	OrderDepositMatched      OrderState = "deposit-matched"
	OrderFinished            OrderState = "finished"
	OrderCancelled           OrderState = "cancelled"
)

// OrderDetails identifies a pending buy order. It is opaque domain data as
// far as the flow machine is concerned; only the fields needed for branching
// decisions are modeled.
type OrderDetails struct {
	ID              string
	State           OrderState
	PaymentMethod   PaymentMethod
	PaymentMethodID string // empty until the method is resolved
	Is3DSConfirmed  bool
	FiatCurrency    string
}

// Is3DSConfirmedCardOrder reports whether this is a card order whose 3DS
// challenge already completed.
func (o OrderDetails) Is3DSConfirmedCardOrder() bool {
	return o.PaymentMethod == PaymentMethodCard && o.Is3DSConfirmed
}

// CheckoutData is the payload threaded through checkout-adjacent flow
// states.
type CheckoutData struct {
	Order OrderDetails
}

// NewCheckoutData wraps order details for the flow payloads.
func NewCheckoutData(order OrderDetails) CheckoutData {
	return CheckoutData{Order: order}
}

// IsUnknownCardType reports a card order whose payment method id is still
// missing; such orders must re-enter the amount screen.
func (c CheckoutData) IsUnknownCardType() bool {
	return c.Order.PaymentMethod == PaymentMethodCard && c.Order.PaymentMethodID == ""
}

// IsUnknownBankTransfer reports a bank-transfer order whose linked bank is
// not resolved yet.
func (c CheckoutData) IsUnknownBankTransfer() bool {
	return c.Order.PaymentMethod == PaymentMethodBankTransfer && c.Order.PaymentMethodID == ""
}

// IsPaymentMethodFinalized reports whether the order already knows how it
// will be paid.
func (c CheckoutData) IsPaymentMethodFinalized() bool {
	return c.Order.PaymentMethodID != ""
}
