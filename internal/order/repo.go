package order

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ordersys/order-management/internal/types/order"
)

type Repository interface {
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
