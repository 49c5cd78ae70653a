package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/ordersys/order-management/internal/types/order"
)

// Log is an append-only record of a delivered status-change notification.
type Log struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	OrderID   uuid.UUID    `db:"order_id" json:"order_id"`
	OldStatus order.Status `db:"old_status" json:"old_status"`
	NewStatus order.Status `db:"new_status" json:"new_status"`
	Message   string       `db:"message" json:"message"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
