package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ordersys/order-management/internal/types/order"
)

func TestForwardStepsAreValid(t *testing.T) {
	steps := []struct {
		current, next order.Status
	}{
		{order.StatusPending, order.StatusWaitingPayment},
		{order.StatusWaitingPayment, order.StatusPaid},
		{order.StatusPaid, order.StatusProcessing},
		{order.StatusProcessing, order.StatusShipped},
		{order.StatusShipped, order.StatusDelivered},
	}
	for _, s := range steps {
		assert.True(t, IsValidTransition(s.current, s.next), "%s -> %s", s.current, s.next)
	}
}

func TestSameStatusIsInvalid(t *testing.T) {
	for _, s := range order.AllStatuses() {
		assert.False(t, IsValidTransition(s, s), "%s -> %s", s, s)
	}
}

func TestCancellation(t *testing.T) {
	cancelable := []order.Status{
		order.StatusPending,
		order.StatusWaitingPayment,
		order.StatusPaid,
		order.StatusProcessing,
		order.StatusShipped,
	}
	for _, s := range cancelable {
		assert.True(t, IsValidTransition(s, order.StatusCanceled), "%s -> canceled", s)
	}

	assert.False(t, IsValidTransition(order.StatusDelivered, order.StatusCanceled))
	assert.False(t, IsValidTransition(order.StatusCanceled, order.StatusCanceled))
}

func TestSkippingStepsIsInvalid(t *testing.T) {
	skips := []struct {
		current, next order.Status
	}{
		{order.StatusPending, order.StatusPaid},
		{order.StatusPending, order.StatusShipped},
		{order.StatusPending, order.StatusDelivered},
		{order.StatusWaitingPayment, order.StatusShipped},
		{order.StatusPaid, order.StatusDelivered},
	}
	for _, s := range skips {
		assert.False(t, IsValidTransition(s.current, s.next), "%s -> %s", s.current, s.next)
	}
}

func TestBackwardTransitionsAreInvalid(t *testing.T) {
	backward := []struct {
		current, next order.Status
	}{
		{order.StatusWaitingPayment, order.StatusPending},
		{order.StatusShipped, order.StatusProcessing},
		{order.StatusDelivered, order.StatusShipped},
		{order.StatusDelivered, order.StatusPending},
	}
	for _, s := range backward {
		assert.False(t, IsValidTransition(s.current, s.next), "%s -> %s", s.current, s.next)
	}
}

func TestDeliveredIsTerminal(t *testing.T) {
	for _, s := range order.AllStatuses() {
		assert.False(t, IsValidTransition(order.StatusDelivered, s), "delivered -> %s", s)
	}
}

func TestUnknownStatusesNeverValidate(t *testing.T) {
	cases := []struct {
		current, next order.Status
	}{
		{"", order.StatusPending},
		{order.StatusPending, ""},
		{"bogus", order.StatusPaid},
		{order.StatusPaid, "bogus"},
		{"bogus", order.StatusCanceled},
		{"", order.StatusCanceled},
	}
	for _, c := range cases {
		assert.False(t, IsValidTransition(c.current, c.next), "%q -> %q", c.current, c.next)
	}
}

func TestStatusComparisonIsCaseSensitive(t *testing.T) {
	assert.False(t, IsValidTransition("PENDING", order.StatusWaitingPayment))
	assert.False(t, IsValidTransition(order.StatusPending, "WAITING_PAYMENT"))
	assert.False(t, IsValidTransition("Shipped", "Delivered"))
}
