package models

import "testing"

func TestCanTransitionMainFlow(t *testing.T) {
	steps := []struct {
		from string
		to   string
	}{
		{OrderStatusAwaitingPayment, OrderStatusPaymentReceived},
		{OrderStatusPaymentReceived, OrderStatusProcessing},
		{OrderStatusProcessing, OrderStatusShipped},
		{OrderStatusShipped, OrderStatusDelivered},
	}
	for _, step := range steps {
		if !CanTransition(step.from, step.to) {
			t.Fatalf("expected %s -> %s to be allowed", step.from, step.to)
		}
	}
}

func TestCanTransitionRejectsSkips(t *testing.T) {
	illegal := []struct {
		from string
		to   string
	}{
		{OrderStatusAwaitingPayment, OrderStatusShipped},
		{OrderStatusAwaitingPayment, OrderStatusDelivered},
		{OrderStatusPaymentReceived, OrderStatusDelivered},
		{OrderStatusShipped, OrderStatusProcessing},
		{OrderStatusDelivered, OrderStatusProcessing},
	}
	for _, step := range illegal {
		if CanTransition(step.from, step.to) {
			t.Fatalf("expected %s -> %s to be rejected", step.from, step.to)
		}
	}
}

func TestCanTransitionRefundBranch(t *testing.T) {
	if !CanTransition(OrderStatusProcessing, OrderStatusRefundRequested) {
		t.Fatal("expected processing -> refund-requested to be allowed")
	}
	if !CanTransition(OrderStatusRefundRequested, OrderStatusRefunded) {
		t.Fatal("expected refund-requested -> refunded to be allowed")
	}
	if CanTransition(OrderStatusAwaitingPayment, OrderStatusRefundRequested) {
		t.Fatal("expected awaiting-payment -> refund-requested to be rejected")
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []string{OrderStatusCancelled, OrderStatusRefunded} {
		for status := range orderStatusTransitions {
			if status == terminal {
				continue
			}
			if CanTransition(terminal, status) {
				t.Fatalf("expected terminal state %s to have no exit to %s", terminal, status)
			}
		}
	}
}

func TestCanTransitionSameStatusIsNoOp(t *testing.T) {
	if !CanTransition(OrderStatusProcessing, OrderStatusProcessing) {
		t.Fatal("expected writing the current status again to be allowed")
	}
}

func TestValidOrderStatus(t *testing.T) {
	if !ValidOrderStatus(OrderStatusShipped) {
		t.Fatal("expected shipped to be a known status")
	}
	if ValidOrderStatus("completed") {
		t.Fatal("expected unknown status to be rejected")
	}
	if CanTransition("completed", OrderStatusShipped) {
		t.Fatal("expected transition from unknown status to be rejected")
	}
}
