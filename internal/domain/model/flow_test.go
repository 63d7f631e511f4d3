//go:build !integration

package model_test

import (
	"testing"

	"wallet-flows/internal/domain/model"
)

func TestFlowHistory_AppendingRemovingInverse(t *testing.T) {
	steps := []model.FlowState{
		{Kind: model.FlowIntro},
		{Kind: model.FlowSelectFiat},
		{Kind: model.FlowBuy},
		{Kind: model.FlowPaymentMethods},
	}

	history := model.InactiveHistory()
	snapshots := []model.FlowHistory{history}
	for _, step := range steps {
		history = history.Appending(step)
		snapshots = append(snapshots, history)
	}

	// Removing unwinds exactly through the snapshots, newest first.
	for i := len(snapshots) - 2; i >= 0; i-- {
		history = history.RemovingLast()
		want := snapshots[i]
		if history.Current != want.Current {
			t.Fatalf("step %d: expected current %q, got %q", i, want.Current.Kind, history.Current.Kind)
		}
		if len(history.Previous) != len(want.Previous) {
			t.Fatalf("step %d: expected depth %d, got %d", i, len(want.Previous), len(history.Previous))
		}
	}
}

func TestFlowHistory_RemovingLastOnEmpty(t *testing.T) {
	history := model.InactiveHistory().RemovingLast()
	if !history.Current.IsInactive() || len(history.Previous) != 0 {
		t.Fatalf("expected the inactive history, got %+v", history)
	}
}

func TestFlowHistory_AppendingIsPure(t *testing.T) {
	base := model.InactiveHistory().Appending(model.FlowState{Kind: model.FlowIntro})
	before := len(base.Previous)

	_ = base.Appending(model.FlowState{Kind: model.FlowSelectFiat})
	_ = base.RemovingLast()

	if len(base.Previous) != before || base.Current.Kind != model.FlowIntro {
		t.Fatalf("receiver mutated: %+v", base)
	}
}

func TestPin_IsValid(t *testing.T) {
	tests := []struct {
		pin  string
		want bool
	}{
		{"1234", true},
		{"1111", false},
		{"0000", false},
		{"123", false},
		{"12345", false},
		{"12a4", false},
		{"", false},
		{"1212", true},
	}
	for _, tc := range tests {
		if got := model.NewPin(tc.pin).IsValid(); got != tc.want {
			t.Errorf("Pin(%q).IsValid() = %t, want %t", tc.pin, got, tc.want)
		}
	}
}

func TestOrderDetails_Branching(t *testing.T) {
	card := model.OrderDetails{PaymentMethod: model.PaymentMethodCard}
	if card.Is3DSConfirmedCardOrder() {
		t.Fatal("unconfirmed card order reported as confirmed")
	}
	card.Is3DSConfirmed = true
	if !card.Is3DSConfirmedCardOrder() {
		t.Fatal("confirmed card order not reported")
	}

	data := model.NewCheckoutData(card)
	if !data.IsUnknownCardType() {
		t.Fatal("card without a payment method id must be unknown")
	}
	data.Order.PaymentMethodID = "pm-1"
	if data.IsUnknownCardType() || !data.IsPaymentMethodFinalized() {
		t.Fatal("resolved card treated as unknown")
	}
}
