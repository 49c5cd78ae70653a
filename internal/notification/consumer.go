package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/ordersys/order-management/internal/logger"
	notiftype "github.com/ordersys/order-management/internal/types/notification"
	ordertype "github.com/ordersys/order-management/internal/types/order"
)

type Repository interface {
	FindOrderWithCustomer(ctx context.Context, orderID uuid.UUID) (*ordertype.OrderWithCustomer, error)
	InsertNotificationLog(ctx context.Context, l *notiftype.Log) error
}

// Consumer turns delivered status-change events into notification log rows.
// One instance handles deliveries sequentially; scale out by running more
// instances against the same queue.
type Consumer struct {
	repo Repository
}

func NewConsumer(repo Repository) *Consumer {
	return &Consumer{repo: repo}
}

// Run drains deliveries until ctx is canceled or the channel closes.
// Structurally invalid messages are rejected without requeue (dead-letter);
// any other failure requeues the message for redelivery. Successful
// processing acks the delivery, removing it from the queue.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}

			if err := c.Handle(ctx, d.Body); err != nil {
				var ve *ValidationError
				if errors.As(err, &ve) {
					logger.Log.Error("invalid status change message, dead-lettering",
						zap.String("field", ve.Field),
						zap.Error(err),
					)
					if err := d.Nack(false, false); err != nil {
						return fmt.Errorf("nack message: %w", err)
					}
					continue
				}

				logger.Log.Error("processing failed, requeueing message", zap.Error(err))
				if err := d.Nack(false, true); err != nil {
					return fmt.Errorf("nack message: %w", err)
				}
				continue
			}

			if err := d.Ack(false); err != nil {
				return fmt.Errorf("ack message: %w", err)
			}
		}
	}
}

// Handle processes one message body. A *ValidationError return means the
// message can never succeed; any other error is transient.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	payload, err := DecodeStatusChangeEvent(body)
	if err != nil {
		return err
	}

	// Already validated as a UUID by the codec.
	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		return &ValidationError{Field: "order_id", Reason: "invalid UUID format"}
	}

	oc, err := c.repo.FindOrderWithCustomer(ctx, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("order %s not found", payload.OrderID)
	}
	if err != nil {
		return fmt.Errorf("find order with customer: %w", err)
	}

	now := time.Now().UTC()
	msg := fmt.Sprintf("%s INFO: Order %s status changed from %s to %s",
		LogTimestamp(now),
		oc.Order.Number,
		strings.ToUpper(payload.OldStatus),
		strings.ToUpper(payload.NewStatus),
	)

	l := &notiftype.Log{
		ID:        uuid.New(),
		OrderID:   orderID,
		OldStatus: ordertype.Status(payload.OldStatus),
		NewStatus: ordertype.Status(payload.NewStatus),
		Message:   msg,
		CreatedAt: now,
	}
	if err := c.repo.InsertNotificationLog(ctx, l); err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}

	logger.Log.Info("notification recorded",
		zap.String("order_number", oc.Order.Number),
		zap.String("customer_email", oc.Customer.Email),
		zap.String("old_status", payload.OldStatus),
		zap.String("new_status", payload.NewStatus),
	)
	return nil
}
