package notify

import (
	"testing"
	"time"
)

func TestDLQName(t *testing.T) {
	if got := DLQName(EventQueue); got != "dlq.settlement.events" {
		t.Fatalf("DLQName = %s, want dlq.settlement.events", got)
	}
}

func TestEventValidate(t *testing.T) {
	event := Event{
		ID:          "evt-1",
		Kind:        KindPaymentCompleted,
		UserID:      "user-1",
		OrderID:     "order-1",
		AttemptID:   "attempt-1",
		Provider:    "infinity_pay",
		AmountCents: 15990,
		OccurredAt:  time.Now().UTC(),
	}
	if err := event.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	event.ID = ""
	if err := event.Validate(); err == nil {
		t.Fatal("expected error for empty event id")
	}

	event.ID = "evt-1"
	event.Kind = EventKind("invalid")
	if err := event.Validate(); err == nil {
		t.Fatal("expected error for invalid kind")
	}

	event.Kind = KindPaymentFailed
	event.OrderID = ""
	if err := event.Validate(); err == nil {
		t.Fatal("expected error for empty order id")
	}

	event.OrderID = "order-1"
	event.AttemptID = ""
	if err := event.Validate(); err == nil {
		t.Fatal("expected error for empty attempt id")
	}
}

func TestEventKindIsValid(t *testing.T) {
	tests := []struct {
		name string
		kind EventKind
		want bool
	}{
		{name: "completed", kind: KindPaymentCompleted, want: true},
		{name: "failed", kind: KindPaymentFailed, want: true},
		{name: "unknown", kind: EventKind("payment.pending"), want: false},
		{name: "empty", kind: EventKind(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.IsValid(); got != tt.want {
				t.Fatalf("IsValid(%q) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}
