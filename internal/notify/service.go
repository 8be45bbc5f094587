package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/rentiva/rentiva-backend/pkg/logger"
)

const defaultPublishTimeout = 15 * time.Second

// Event types published to the notification topic.
const (
	EventPaymentLinkCreated     = "payment.link_created"
	EventPaymentLinkExpired     = "payment.link_expired"
	EventPaymentConfirmed       = "payment.confirmed"
	EventPaymentFailed          = "payment.failed"
	EventManualPaymentRecorded  = "payment.manual_recorded"
	EventManualPaymentConfirmed = "payment.manual_confirmed"
	EventDepositAuthorized      = "deposit.authorized"
	EventDepositReleased        = "deposit.released"
	EventDepositFailed          = "deposit.failed"
)

// Event is the envelope published for downstream notification consumers
// (email, back-office feeds). Delivery is best effort.
type Event struct {
	EventID    string          `json:"event_id"`
	Type       string          `json:"type"`
	BookingID  uuid.UUID       `json:"booking_id"`
	EntityID   uuid.UUID       `json:"entity_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// Service publishes lifecycle notifications. Publishing never blocks the
// caller's transaction and never surfaces an error to it.
type Service interface {
	Emit(ctx context.Context, eventType string, bookingID, entityID uuid.UUID, payload any)
}

// ServiceParams configures the notification service.
type ServiceParams struct {
	Publisher *gcppubsub.Publisher
	Logger    *logger.Logger

	// publisherOverride is test-only.
	publisherOverride publisher
	timeout           time.Duration
}

type service struct {
	pub     publisher
	logg    *logger.Logger
	timeout time.Duration
}

// NewService wires a notification service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("notify logger required")
	}
	pub := params.publisherOverride
	if pub == nil {
		if params.Publisher == nil {
			return nil, fmt.Errorf("notify publisher required")
		}
		pub = &gcpPublisher{Publisher: params.Publisher}
	}
	timeout := params.timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &service{pub: pub, logg: params.Logger, timeout: timeout}, nil
}

func (s *service) Emit(ctx context.Context, eventType string, bookingID, entityID uuid.UUID, payload any) {
	event := Event{
		EventID:    uuid.NewString(),
		Type:       eventType,
		BookingID:  bookingID,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			s.logg.Error(ctx, "notification payload marshal failed", err)
			return
		}
		event.Payload = raw
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logg.Error(ctx, "notification envelope marshal failed", err)
		return
	}

	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_id":    event.EventID,
			"event_type":  event.Type,
			"booking_id":  event.BookingID.String(),
			"occurred_at": event.OccurredAt.Format(time.RFC3339Nano),
		},
	}

	// Detach from the caller's deadline so a short request timeout does not
	// abort an in-flight publish.
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)

	result := s.pub.Publish(publishCtx, msg)
	if result == nil {
		cancel()
		s.logg.Error(ctx, "notification publisher unavailable", nil)
		return
	}

	// The publish result resolves on broker ack. A slow or unreachable broker
	// must never stall payment processing, so the wait happens off the caller's
	// goroutine.
	logCtx := s.logg.WithFields(context.WithoutCancel(ctx), map[string]any{
		"event_type": event.Type,
		"booking_id": event.BookingID.String(),
	})
	go func() {
		defer cancel()
		if _, err := result.Get(publishCtx); err != nil {
			s.logg.Error(logCtx, "notification publish failed", err)
		}
	}()
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}
