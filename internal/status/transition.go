package status

import (
	"github.com/ordersys/order-management/internal/types/order"
)

// IsValidTransition reports whether an order may move from current to next.
//
// Same-status requests are rejected. Cancellation is allowed from any status
// on the forward sequence except delivered. Every other change must advance
// the forward sequence by exactly one step; unknown values never validate.
func IsValidTransition(current, next order.Status) bool {
	if current == next {
		return false
	}

	if next == order.StatusCanceled {
		return current.Ordinal() != -1 && current != order.StatusDelivered
	}

	currentIndex := current.Ordinal()
	nextIndex := next.Ordinal()
	if currentIndex == -1 || nextIndex == -1 {
		return false
	}

	return nextIndex == currentIndex+1
}
