package status

import "testing"

func TestCanonical_Aliases(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"pending", Pending},
		{"Pending", Pending},
		{"  PENDING ", Pending},
		{"canceled", Cancelled},
		{"cancelled", Cancelled},
		{"awaiting_payment", PaymentPending},
		{"تم الاستلام من المزود", ProviderReceived},
		{"قيد الانتظار", Pending},
		{"تم التوصيل", Delivered},
		{"ملغي", Cancelled},
		{"bogus_state", Unknown},
		{"", Unknown},
	}
	for _, c := range cases {
		if got := Canonical(c.raw); got != c.want {
			t.Errorf("Canonical(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestCanTransition_ProcessingByDeliveryMethod(t *testing.T) {
	if !CanTransition(Processing, ReadyForPickup, DeliveryPickup) {
		t.Error("processing -> ready_for_pickup should be allowed for pickup")
	}
	if CanTransition(Processing, ProviderReceived, DeliveryPickup) {
		t.Error("processing -> provider_received should be rejected for pickup")
	}
	if !CanTransition(Processing, ProviderReceived, DeliveryShipping) {
		t.Error("processing -> provider_received should be allowed for shipping")
	}
	if CanTransition(Processing, ReadyForPickup, DeliveryShipping) {
		t.Error("processing -> ready_for_pickup should be rejected for shipping")
	}
}

func TestCanTransition_Chain(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{Pending, Quoted, true},
		{Quoted, PaymentPending, true},
		{PaymentPending, Processing, true},
		{ProviderReceived, Shipped, true},
		{Shipped, OutForDelivery, true},
		{Shipped, Delivered, true},
		{OutForDelivery, Delivered, true},
		{Pending, Shipped, false},
		{Quoted, Delivered, false},
		{OutForDelivery, Shipped, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to, DeliveryShipping); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestCanTransition_TerminalStatesAreClosed(t *testing.T) {
	for _, terminal := range []Status{Delivered, Completed, Cancelled} {
		for _, to := range []Status{Pending, Processing, Shipped, Delivered, Cancelled} {
			if CanTransition(terminal, to, DeliveryShipping) {
				t.Errorf("transition out of terminal %s to %s should be rejected", terminal, to)
			}
		}
	}
}

func TestNextFulfillment(t *testing.T) {
	if got := NextFulfillment(DeliveryPickup); got != ReadyForPickup {
		t.Errorf("pickup next = %q, want %q", got, ReadyForPickup)
	}
	if got := NextFulfillment(DeliveryShipping); got != ProviderReceived {
		t.Errorf("shipping next = %q, want %q", got, ProviderReceived)
	}
}

func TestLabelAndColor_UnknownGetsDefault(t *testing.T) {
	s := Canonical("some_future_status")
	if Label(s) != "Unknown" {
		t.Errorf("Label(unknown) = %q", Label(s))
	}
	if Color(s) != "bg-gray-100 text-gray-800" {
		t.Errorf("Color(unknown) = %q", Color(s))
	}
}
