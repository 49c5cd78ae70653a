package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ordersys/order-management/internal/notification"
	"github.com/ordersys/order-management/internal/queue"
	"github.com/ordersys/order-management/internal/status"
	"github.com/ordersys/order-management/internal/types/order"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrStatusUnchanged   = errors.New("status unchanged")
	ErrOrderDelivered    = errors.New("order already delivered")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEventPublish      = errors.New("status change event publish failed")
)

// systemUser attributes status changes made through the API; there is no
// authenticated principal on this surface.
const systemUser = "system"

// EventPublisher sends an event body to a named durable queue.
type EventPublisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

type Service struct {
	repo      Repository
	publisher EventPublisher
}

func NewService(repo Repository, publisher EventPublisher) *Service {
	return &Service{repo: repo, publisher: publisher}
}

type CreateOrderInput struct {
	Customer CustomerInput
	Items    []ItemInput
	Total    int64
}

type CustomerInput struct {
	Name     string
	Document string
	Email    string
	Phone    string
}

type ItemInput struct {
	ProductName string
	Quantity    int
	UnitValue   int64
}

// CreateOrder reuses the customer matching the given email or creates a new
// one, then inserts the order with its items in one transaction.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (uuid.UUID, error) {
	customer, err := s.repo.FindCustomerByEmail(ctx, in.Customer.Email)
	if errors.Is(err, sql.ErrNoRows) {
		customer = &order.Customer{
			ID:        uuid.New(),
			Name:      in.Customer.Name,
			Document:  in.Customer.Document,
			Email:     in.Customer.Email,
			Phone:     in.Customer.Phone,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.repo.CreateCustomer(ctx, customer); err != nil {
			return uuid.Nil, fmt.Errorf("create customer: %w", err)
		}
	} else if err != nil {
		return uuid.Nil, fmt.Errorf("find customer: %w", err)
	}

	now := time.Now().UTC()
	o := &order.Order{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		Number:     fmt.Sprintf("ORD-%d", now.UnixMilli()),
		TotalValue: in.Total,
		Status:     order.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	items := make([]order.Item, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, order.Item{
			ID:          uuid.New(),
			OrderID:     o.ID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitValue:   it.UnitValue,
		})
	}
	if err := s.repo.CreateOrder(ctx, o, items); err != nil {
		return uuid.Nil, fmt.Errorf("create order: %w", err)
	}
	return o.ID, nil
}

// GetOrder returns the order with its customer and items.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, *order.Customer, []order.Item, error) {
	o, err := s.repo.FindOrderByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, nil, err
	}

	customer, err := s.repo.FindCustomerByID(ctx, o.CustomerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, nil, nil, err
	}

	items, err := s.repo.FindOrderItems(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	return o, customer, items, nil
}

func (s *Service) ListOrders(ctx context.Context, f order.ListFilter) ([]order.OrderWithCustomer, int, error) {
	return s.repo.ListOrders(ctx, f)
}

func (s *Service) Summary(ctx context.Context) (*order.Summary, error) {
	return s.repo.GetOrderSummary(ctx)
}

// UpdateStatus moves an order to requested if the transition is legal,
// commits the new status and publishes a StatusChangeEvent. The database
// write and the publish are independent: a failed publish does not roll the
// committed status back, it only surfaces ErrEventPublish to the caller.
//
// ErrStatusUnchanged is returned together with the current order snapshot.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, requested order.Status) (*order.Order, error) {
	o, err := s.repo.FindOrderByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}

	if o.Status == requested {
		return o, ErrStatusUnchanged
	}
	if o.Status == order.StatusDelivered {
		return nil, ErrOrderDelivered
	}
	if !status.IsValidTransition(o.Status, requested) {
		return nil, ErrInvalidTransition
	}

	oldStatus := o.Status
	now := time.Now().UTC()
	if err := s.repo.UpdateOrderStatus(ctx, id, requested, now); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	o.Status = requested
	o.UpdatedAt = now

	body, err := json.Marshal(notification.StatusChangeEvent{
		OrderID:   id.String(),
		OldStatus: string(oldStatus),
		NewStatus: string(requested),
		Timestamp: now.Format(time.RFC3339),
		UserID:    systemUser,
	})
	if err != nil {
		return o, fmt.Errorf("%w: %v", ErrEventPublish, err)
	}
	if err := s.publisher.Publish(ctx, queue.OrderStatusUpdates, body); err != nil {
		// The status is committed; only the notification is at risk.
		return o, fmt.Errorf("%w: %v", ErrEventPublish, err)
	}

	return o, nil
}
