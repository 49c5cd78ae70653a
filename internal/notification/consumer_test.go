package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"

	notiftype "github.com/ordersys/order-management/internal/types/notification"
	ordertype "github.com/ordersys/order-management/internal/types/order"
)

type mockNotifRepo struct {
	findOrderWithCustomerFn func(ctx context.Context, orderID uuid.UUID) (*ordertype.OrderWithCustomer, error)
	insertNotificationLogFn func(ctx context.Context, l *notiftype.Log) error
}

func (m *mockNotifRepo) FindOrderWithCustomer(ctx context.Context, orderID uuid.UUID) (*ordertype.OrderWithCustomer, error) {
	return m.findOrderWithCustomerFn(ctx, orderID)
}
func (m *mockNotifRepo) InsertNotificationLog(ctx context.Context, l *notiftype.Log) error {
	return m.insertNotificationLogFn(ctx, l)
}

func knownOrder(id uuid.UUID) *ordertype.OrderWithCustomer {
	return &ordertype.OrderWithCustomer{
		Order: ordertype.Order{
			ID:     id,
			Number: "ORD-1700000000000",
			Status: ordertype.StatusWaitingPayment,
		},
		Customer: ordertype.Customer{
			ID:    uuid.New(),
			Name:  "Joao Silva",
			Email: "joao@example.com",
		},
	}
}

func eventBody(orderID uuid.UUID, oldStatus, newStatus string) []byte {
	return []byte(fmt.Sprintf(`{
		"order_id": %q,
		"old_status": %q,
		"new_status": %q,
		"timestamp": %q,
		"user_id": "system"
	}`, orderID, oldStatus, newStatus, time.Now().UTC().Format(time.RFC3339)))
}

func TestHandleRecordsNotification(t *testing.T) {
	id := uuid.New()
	var inserted *notiftype.Log
	repo := &mockNotifRepo{
		findOrderWithCustomerFn: func(ctx context.Context, orderID uuid.UUID) (*ordertype.OrderWithCustomer, error) {
			assert.Equal(t, id, orderID)
			return knownOrder(id), nil
		},
		insertNotificationLogFn: func(ctx context.Context, l *notiftype.Log) error {
			inserted = l
			return nil
		},
	}
	c := NewConsumer(repo)

	err := c.Handle(context.Background(), eventBody(id, "pending", "waiting_payment"))
	assert.NoError(t, err)

	if assert.NotNil(t, inserted) {
		assert.Equal(t, id, inserted.OrderID)
		assert.Equal(t, ordertype.StatusPending, inserted.OldStatus)
		assert.Equal(t, ordertype.StatusWaitingPayment, inserted.NewStatus)
		assert.Contains(t, inserted.Message, "Order ORD-1700000000000 status changed from PENDING to WAITING_PAYMENT")
		assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] INFO:`, inserted.Message)
	}
}

func TestHandleUnknownOrderIsProcessingFailure(t *testing.T) {
	repo := &mockNotifRepo{
		findOrderWithCustomerFn: func(ctx context.Context, orderID uuid.UUID) (*ordertype.OrderWithCustomer, error) {
			return nil, sql.ErrNoRows
		},
	}
	c := NewConsumer(repo)

	err := c.Handle(context.Background(), eventBody(uuid.New(), "pending", "waiting_payment"))
	assert.Error(t, err)

	// Not a validation error: this failure class is requeued.
	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}

func TestHandleStorageFaultIsProcessingFailure(t *testing.T) {
	id := uuid.New()
	repo := &mockNotifRepo{
		findOrderWithCustomerFn: func(ctx context.Context, orderID uuid.UUID) (*ordertype.OrderWithCustomer, error) {
			return knownOrder(id), nil
		},
		insertNotificationLogFn: func(ctx context.Context, l *notiftype.Log) error {
			return errors.New("connection refused")
		},
	}
	c := NewConsumer(repo)

	err := c.Handle(context.Background(), eventBody(id, "paid", "processing"))
	assert.Error(t, err)
	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}

func TestHandleInvalidPayloadIsValidationFailure(t *testing.T) {
	c := NewConsumer(&mockNotifRepo{})

	err := c.Handle(context.Background(), eventBody(uuid.New(), "pending", "bogus"))
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, "new_status", ve.Field)
}

// fakeAcknowledger records the broker-side disposition of each delivery.
type fakeAcknowledger struct {
	acked   []uint64
	nacked  []uint64
	requeue map[uint64]bool
}

func newFakeAcknowledger() *fakeAcknowledger {
	return &fakeAcknowledger{requeue: make(map[uint64]bool)}
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	f.nacked = append(f.nacked, tag)
	f.requeue[tag] = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

func runConsumer(t *testing.T, c *Consumer, deliveries ...amqp.Delivery) {
	t.Helper()
	ch := make(chan amqp.Delivery, len(deliveries))
	for _, d := range deliveries {
		ch <- d
	}
	close(ch)
	assert.NoError(t, c.Run(context.Background(), ch))
}

func TestRunAcksProcessedMessage(t *testing.T) {
	id := uuid.New()
	repo := &mockNotifRepo{
		findOrderWithCustomerFn: func(ctx context.Context, orderID uuid.UUID) (*ordertype.OrderWithCustomer, error) {
			return knownOrder(id), nil
		},
		insertNotificationLogFn: func(ctx context.Context, l *notiftype.Log) error { return nil },
	}
	ack := newFakeAcknowledger()

	runConsumer(t, NewConsumer(repo), amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		Body:         eventBody(id, "pending", "waiting_payment"),
	})

	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Empty(t, ack.nacked)
}

func TestRunRequeuesUnknownOrder(t *testing.T) {
	repo := &mockNotifRepo{
		findOrderWithCustomerFn: func(ctx context.Context, orderID uuid.UUID) (*ordertype.OrderWithCustomer, error) {
			return nil, sql.ErrNoRows
		},
	}
	ack := newFakeAcknowledger()

	runConsumer(t, NewConsumer(repo), amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  7,
		Body:         eventBody(uuid.New(), "pending", "waiting_payment"),
	})

	assert.Empty(t, ack.acked)
	assert.Equal(t, []uint64{7}, ack.nacked)
	assert.True(t, ack.requeue[7], "transient failures must be requeued")
}

func TestRunDeadLettersInvalidMessage(t *testing.T) {
	repo := &mockNotifRepo{
		findOrderWithCustomerFn: func(ctx context.Context, orderID uuid.UUID) (*ordertype.OrderWithCustomer, error) {
			t.Fatal("invalid messages must not reach storage")
			return nil, nil
		},
	}
	ack := newFakeAcknowledger()

	runConsumer(t, NewConsumer(repo), amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  3,
		Body:         eventBody(uuid.New(), "pending", "bogus"),
	})

	assert.Empty(t, ack.acked)
	assert.Equal(t, []uint64{3}, ack.nacked)
	assert.False(t, ack.requeue[3], "poison messages must not be requeued")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := make(chan amqp.Delivery)
	err := NewConsumer(&mockNotifRepo{}).Run(ctx, ch)
	assert.ErrorIs(t, err, context.Canceled)
}
