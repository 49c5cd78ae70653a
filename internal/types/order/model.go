package order

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an order. Orders advance one step at a
// time along the forward sequence; Canceled is an absorbing side state
// reachable from any non-terminal status. Comparison is case-sensitive.
type Status string

const (
	StatusPending        Status = "pending"
	StatusWaitingPayment Status = "waiting_payment"
	StatusPaid           Status = "paid"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
	StatusCanceled       Status = "canceled"
)

// forwardSequence is the only legal forward path. Canceled is not part of it.
var forwardSequence = []Status{
	StatusPending,
	StatusWaitingPayment,
	StatusPaid,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
}

// AllStatuses lists every defined status, forward sequence first.
func AllStatuses() []Status {
	return append(append([]Status{}, forwardSequence...), StatusCanceled)
}

// Ordinal returns the position of s on the forward sequence, or -1 when s
// is not part of it (canceled and unknown values).
func (s Status) Ordinal() int {
	for i, fs := range forwardSequence {
		if s == fs {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the seven defined statuses.
func (s Status) Valid() bool {
	return s == StatusCanceled || s.Ordinal() != -1
}

type Order struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CustomerID uuid.UUID `db:"customer_id" json:"customer_id"`
	Number     string    `db:"order_number" json:"order_number"`
	TotalValue int64     `db:"total_value" json:"total_value"`
	Status     Status    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

type Customer struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Document  string    `db:"document" json:"document"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Item struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OrderID     uuid.UUID `db:"order_id" json:"order_id"`
	ProductName string    `db:"product_name" json:"product_name"`
	Quantity    int       `db:"quantity" json:"quantity"`
	UnitValue   int64     `db:"unit_value" json:"unit_value"`
}

// OrderWithCustomer is a joined read used by listings and the notification
// pipeline.
type OrderWithCustomer struct {
	Order    Order    `json:"order"`
	Customer Customer `json:"customer"`
}

// ListFilter narrows and paginates order listings. Nil/empty fields are not
// applied. Email and order number match as substrings, case-insensitive.
type ListFilter struct {
	Status        *Status
	CustomerEmail string
	OrderNumber   string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Page          int
	Limit         int
}

// Summary is the aggregate order statistics payload.
type Summary struct {
	TotalOrders       int64            `json:"total_orders"`
	TotalValue        int64            `json:"total_value"`
	AverageOrderValue int64            `json:"average_order_value"`
	UniqueCustomers   int64            `json:"unique_customers"`
	OrdersLast30Days  int64            `json:"orders_last_30_days"`
	ByStatus          map[Status]int64 `json:"by_status"`
}
