package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	ordertype "github.com/ordersys/order-management/internal/types/order"
)

// StatusChangeEvent is the wire payload published to the
// order_status_updates queue. Published exactly once per committed
// transition; delivered at least once.
type StatusChangeEvent struct {
	OrderID   string `json:"order_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Timestamp string `json:"timestamp"`
	UserID    string `json:"user_id"`
}

// ValidationError marks a structurally invalid payload. Redelivery cannot
// fix such a message, so the consumer dead-letters it instead of requeueing.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DecodeStatusChangeEvent parses and validates a raw message body. Unknown
// extra JSON fields are ignored. Any violation is reported as a
// *ValidationError naming the offending field.
func DecodeStatusChangeEvent(body []byte) (*StatusChangeEvent, error) {
	var p StatusChangeEvent
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &ValidationError{Field: "payload", Reason: "malformed JSON"}
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *StatusChangeEvent) validate() error {
	if _, err := uuid.Parse(p.OrderID); err != nil {
		return &ValidationError{Field: "order_id", Reason: "invalid UUID format"}
	}
	if !ordertype.Status(p.OldStatus).Valid() {
		return &ValidationError{Field: "old_status", Reason: "unknown status"}
	}
	if !ordertype.Status(p.NewStatus).Valid() {
		return &ValidationError{Field: "new_status", Reason: "unknown status"}
	}
	if _, err := time.Parse(time.RFC3339, p.Timestamp); err != nil {
		return &ValidationError{Field: "timestamp", Reason: "invalid ISO date format"}
	}
	if p.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "user ID cannot be empty"}
	}
	return nil
}
