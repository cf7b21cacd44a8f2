package notify

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

type fakeSub struct {
	mu       sync.Mutex
	handlers map[string]func([]byte)
	cancelled []string
}

func newFakeSub() *fakeSub {
	return &fakeSub{handlers: make(map[string]func([]byte))}
}

func (f *fakeSub) Subscribe(channel string, handler func([]byte)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[channel] = handler
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, channel)
		f.cancelled = append(f.cancelled, channel)
	}, nil
}

func (f *fakeSub) publish(channel string, payload []byte) bool {
	f.mu.Lock()
	h := f.handlers[channel]
	f.mu.Unlock()
	if h == nil {
		return false
	}
	h(payload)
	return true
}

type recordSink struct {
	mu       sync.Mutex
	refetches []string
	toasts    []string
}

func (s *recordSink) Refetch(class string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refetches = append(s.refetches, class)
}

func (s *recordSink) Toast(typ string, _ json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, typ)
}

func event(typ string) []byte {
	b, _ := json.Marshal(map[string]any{"type": typ, "data": map[string]any{"orderNumber": "ORD-1"}})
	return b
}

func testListener(t *testing.T) (*Listener, *fakeSub, *recordSink, *fakeTimers) {
	t.Helper()
	sub := newFakeSub()
	sink := &recordSink{}
	l := NewListener(sub, sink, "", time.Second)
	ft := &fakeTimers{}
	l.debounce.after = ft.afterFunc
	return l, sub, sink, ft
}

func TestListener_SubscribesBothChannels(t *testing.T) {
	l, sub, _, _ := testListener(t)
	if err := l.Start("prov-1", "user-1"); err != nil {
		t.Fatal(err)
	}
	if !sub.publish("provider.prov-1", event("NEW_ORDER")) {
		t.Error("no handler on provider channel")
	}
	if !sub.publish("user.user-1", event("WALLET_CREDITED")) {
		t.Error("no handler on user channel")
	}
}

func TestListener_BurstCoalescedToOneRefetch(t *testing.T) {
	l, sub, sink, ft := testListener(t)
	if err := l.Start("prov-1", "user-1"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		sub.publish("provider.prov-1", event("ORDER_UPDATED"))
	}
	ft.fireAll()
	if len(sink.refetches) != 1 || sink.refetches[0] != ClassOpenOrders {
		t.Fatalf("refetches = %v, want exactly one %q", sink.refetches, ClassOpenOrders)
	}
}

func TestListener_UnknownTypeIgnored(t *testing.T) {
	l, sub, sink, ft := testListener(t)
	if err := l.Start("prov-1", "user-1"); err != nil {
		t.Fatal(err)
	}
	sub.publish("provider.prov-1", event("SOMETHING_NEW"))
	sub.publish("provider.prov-1", []byte("{not json"))
	ft.fireAll()
	if len(sink.refetches) != 0 || len(sink.toasts) != 0 {
		t.Fatalf("unexpected activity: refetches=%v toasts=%v", sink.refetches, sink.toasts)
	}
}

func TestListener_AnnouncementToastOnly(t *testing.T) {
	l, sub, sink, ft := testListener(t)
	if err := l.Start("prov-1", "user-1"); err != nil {
		t.Fatal(err)
	}
	sub.publish("user.user-1", event("ANNOUNCEMENT"))
	ft.fireAll()
	if len(sink.refetches) != 0 {
		t.Fatalf("announcement caused refetch %v", sink.refetches)
	}
	if len(sink.toasts) != 1 || sink.toasts[0] != "ANNOUNCEMENT" {
		t.Fatalf("toasts = %v", sink.toasts)
	}
}

func TestListener_ClassRouting(t *testing.T) {
	cases := []struct {
		typ   string
		class string
	}{
		{"NEW_ORDER", ClassOpenOrders},
		{"OFFER_ACCEPTED_PROVIDER_WIN", ClassMyBids},
		{"OFFER_REJECTED", ClassMyBids},
		{"ORDER_STATUS_CHANGED", ClassAcceptedOrders},
		{"WITHDRAWAL_PROCESSED", ClassWallet},
	}
	for _, tc := range cases {
		l, sub, sink, ft := testListener(t)
		if err := l.Start("prov-1", "user-1"); err != nil {
			t.Fatal(err)
		}
		sub.publish("provider.prov-1", event(tc.typ))
		ft.fireAll()
		if len(sink.refetches) != 1 || sink.refetches[0] != tc.class {
			t.Errorf("%s: refetches = %v, want [%s]", tc.typ, sink.refetches, tc.class)
		}
	}
}

func TestListener_IdentityChangeResubscribes(t *testing.T) {
	l, sub, _, _ := testListener(t)
	if err := l.Start("prov-1", "user-1"); err != nil {
		t.Fatal(err)
	}
	if err := l.Start("prov-2", "user-2"); err != nil {
		t.Fatal(err)
	}
	if sub.publish("provider.prov-1", event("NEW_ORDER")) {
		t.Error("old provider channel still subscribed")
	}
	if !sub.publish("provider.prov-2", event("NEW_ORDER")) {
		t.Error("new provider channel not subscribed")
	}
	if len(sub.cancelled) != 2 {
		t.Errorf("cancelled %v, want both old channels", sub.cancelled)
	}
}

func TestListener_StopUnsubscribes(t *testing.T) {
	l, sub, sink, ft := testListener(t)
	if err := l.Start("prov-1", "user-1"); err != nil {
		t.Fatal(err)
	}
	sub.publish("provider.prov-1", event("NEW_ORDER"))
	l.Stop()
	ft.fireAll()
	if len(sink.refetches) != 0 {
		t.Fatalf("refetch fired after Stop: %v", sink.refetches)
	}
	if sub.publish("provider.prov-1", event("NEW_ORDER")) {
		t.Error("handler still registered after Stop")
	}
}

func TestListener_ChannelPrefix(t *testing.T) {
	sub := newFakeSub()
	sink := &recordSink{}
	l := NewListener(sub, sink, "partsdesk.", time.Second)
	if err := l.Start("prov-1", "user-1"); err != nil {
		t.Fatal(err)
	}
	if !sub.publish("partsdesk.provider.prov-1", event("NEW_ORDER")) {
		t.Error("prefixed channel not subscribed")
	}
}
