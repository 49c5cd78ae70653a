package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	notiftype "github.com/ordersys/order-management/internal/types/notification"
	"github.com/ordersys/order-management/internal/types/order"
)

// OrderRepository covers the order CRUD surface and the status write path,
// owned by the HTTP service.
type OrderRepository interface {
	CreateCustomer(ctx context.Context, c *order.Customer) error
	FindCustomerByEmail(ctx context.Context, email string) (*order.Customer, error)
	FindCustomerByID(ctx context.Context, id uuid.UUID) (*order.Customer, error)
	CreateOrder(ctx context.Context, o *order.Order, items []order.Item) error
	FindOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	FindOrderItems(ctx context.Context, orderID uuid.UUID) ([]order.Item, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status order.Status, updatedAt time.Time) error
	ListOrders(ctx context.Context, f order.ListFilter) ([]order.OrderWithCustomer, int, error)
	GetOrderSummary(ctx context.Context) (*order.Summary, error)
}

// NotificationRepository is the consumer's view of storage. Notification
// log rows are written only here.
type NotificationRepository interface {
	FindOrderWithCustomer(ctx context.Context, orderID uuid.UUID) (*order.OrderWithCustomer, error)
	InsertNotificationLog(ctx context.Context, l *notiftype.Log) error
}

// Storage объединяет все репозитории.
type Storage interface {
	OrderRepository
	NotificationRepository

	// Для управления соединением
	Ping(ctx context.Context) error
	Close() error
}
