package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rentiva/rentiva-backend/internal/audit"
	"github.com/rentiva/rentiva-backend/internal/deposits"
	"github.com/rentiva/rentiva-backend/internal/gateway"
	"github.com/rentiva/rentiva-backend/internal/notify"
	"github.com/rentiva/rentiva-backend/internal/payments"
	"github.com/rentiva/rentiva-backend/pkg/db/models"
	"github.com/rentiva/rentiva-backend/pkg/enums"
	"github.com/rentiva/rentiva-backend/pkg/logger"
	"github.com/rentiva/rentiva-backend/pkg/metrics"
	"github.com/rentiva/rentiva-backend/pkg/redis"
)

const (
	defaultDedupTTL       = 30 * 24 * time.Hour
	defaultGatewayTimeout = 10 * time.Second
)

// EventStatus is the normalized terminal state carried by a provider event.
type EventStatus string

const (
	EventStatusPaid       EventStatus = "paid"
	EventStatusFailed     EventStatus = "failed"
	EventStatusAuthorized EventStatus = "authorized"
	EventStatusCanceled   EventStatus = "canceled"
	EventStatusExpired    EventStatus = "expired"
)

// Notification is a provider event normalized by the webhook controllers.
type Notification struct {
	Provider      string
	EventID       string
	TransactionID string
	Status        EventStatus
}

// Outcome labels for acknowledgments and metrics.
const (
	OutcomeProcessed = metrics.WebhookOutcomeProcessed
	OutcomeDuplicate = metrics.WebhookOutcomeDuplicate
	OutcomeUnknown   = metrics.WebhookOutcomeUnknown
)

// Ack is always returned for a well-formed delivery; providers retry
// anything that is not acknowledged, so unknown and duplicate events must
// not surface as errors.
type Ack struct {
	Outcome string `json:"outcome"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service processes asynchronous gateway notifications exactly once. The
// conditional status update is the sole arbiter; the redis guard only skips
// work for repeats it happens to remember.
type Service interface {
	HandleNotification(ctx context.Context, notification Notification) (*Ack, error)
}

// ServiceParams wires the webhook processor dependencies.
type ServiceParams struct {
	Payments       payments.Repository
	Deposits       deposits.Repository
	Audit          audit.Service
	Notify         notify.Service
	CardLinks      gateway.CardLinkCreator
	TxRunner       txRunner
	Logger         *logger.Logger
	Metrics        *metrics.PaymentMetrics
	Dedup          redis.IdempotencyStore
	DedupTTL       time.Duration
	GatewayTimeout time.Duration
}

type service struct {
	payments       payments.Repository
	deposits       deposits.Repository
	audit          audit.Service
	notify         notify.Service
	cardLinks      gateway.CardLinkCreator
	tx             txRunner
	logg           *logger.Logger
	metrics        *metrics.PaymentMetrics
	guard          *dedupGuard
	gatewayTimeout time.Duration
}

// NewService validates the wiring and returns the webhook processor.
func NewService(params ServiceParams) (Service, error) {
	if params.Payments == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Deposits == nil {
		return nil, fmt.Errorf("deposits repository required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if params.Notify == nil {
		return nil, fmt.Errorf("notify service required")
	}
	if params.CardLinks == nil {
		return nil, fmt.Errorf("card link gateway required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := params.DedupTTL
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	gatewayTimeout := params.GatewayTimeout
	if gatewayTimeout <= 0 {
		gatewayTimeout = defaultGatewayTimeout
	}
	return &service{
		payments:       params.Payments,
		deposits:       params.Deposits,
		audit:          params.Audit,
		notify:         params.Notify,
		cardLinks:      params.CardLinks,
		tx:             params.TxRunner,
		logg:           params.Logger,
		metrics:        params.Metrics,
		guard:          newDedupGuard(params.Dedup, ttl, params.Logger),
		gatewayTimeout: gatewayTimeout,
	}, nil
}

func (s *service) HandleNotification(ctx context.Context, notification Notification) (*Ack, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"provider":       notification.Provider,
		"event_id":       notification.EventID,
		"transaction_id": notification.TransactionID,
		"event_status":   notification.Status,
	})

	if strings.TrimSpace(notification.TransactionID) == "" {
		s.logg.Warn(ctx, "webhook without transaction id acknowledged as no-op")
		return s.ack(notification.Provider, OutcomeUnknown), nil
	}

	if !s.guard.acquire(ctx, notification.Provider, notification.EventID) {
		s.logg.Info(ctx, "webhook delivery already seen, acknowledged")
		return s.ack(notification.Provider, OutcomeDuplicate), nil
	}

	ack, err := s.dispatch(ctx, notification)
	if err != nil {
		// Free the marker so the provider's retry can try again.
		s.guard.release(ctx, notification.Provider, notification.EventID)
		s.metrics.IncWebhookOutcome(notification.Provider, metrics.WebhookOutcomeFailed)
		return nil, err
	}
	return ack, nil
}

func (s *service) dispatch(ctx context.Context, notification Notification) (*Ack, error) {
	payment, err := s.payments.GetPaymentByExternalTxID(ctx, notification.TransactionID)
	if err != nil {
		return nil, err
	}
	if payment != nil {
		return s.transitionPayment(ctx, payment, notification)
	}

	authorization, err := s.deposits.GetByExternalAuthID(ctx, notification.TransactionID)
	if err != nil {
		return nil, err
	}
	if authorization != nil {
		return s.transitionDeposit(ctx, authorization, notification)
	}

	// Never create records from a webhook alone.
	s.logg.Warn(ctx, "webhook matched no payment or deposit, acknowledged as no-op")
	return s.ack(notification.Provider, OutcomeUnknown), nil
}

func (s *service) transitionPayment(ctx context.Context, payment *models.Payment, notification Notification) (*Ack, error) {
	ctx = s.logg.WithPaymentID(ctx, payment.ID.String())

	target, ok := paymentTargetStatus(notification.Status)
	if !ok {
		s.logg.Warn(ctx, "webhook status has no payment transition, acknowledged")
		return s.ack(notification.Provider, OutcomeUnknown), nil
	}

	if payment.LinkStatus.IsTerminal() {
		// Duplicate of a delivery that already won, or a conflicting late
		// event; either way the record does not move again.
		s.logg.Info(ctx, "payment already terminal, duplicate acknowledged")
		return s.ack(notification.Provider, OutcomeDuplicate), nil
	}

	if target == enums.LinkStatusFailed {
		won, err := s.payments.MarkFailed(ctx, payment.ID)
		if err != nil {
			return nil, err
		}
		if !won {
			return s.ack(notification.Provider, OutcomeDuplicate), nil
		}
		s.recordAudit(ctx, payment, audit.ActionPaymentFailed, notification)
		s.notify.Emit(ctx, notify.EventPaymentFailed, payment.BookingID, payment.ID, map[string]any{
			"amount": payment.Amount,
		})
		return s.ack(notification.Provider, OutcomeProcessed), nil
	}

	if target == enums.LinkStatusExpired {
		won, err := s.payments.MarkExpired(ctx, payment.ID)
		if err != nil {
			return nil, err
		}
		if !won {
			return s.ack(notification.Provider, OutcomeDuplicate), nil
		}
		s.recordAudit(ctx, payment, audit.ActionLinkExpired, notification)
		s.notify.Emit(ctx, notify.EventPaymentLinkExpired, payment.BookingID, payment.ID, map[string]any{
			"amount": payment.Amount,
		})
		return s.ack(notification.Provider, OutcomeProcessed), nil
	}

	now := time.Now().UTC()
	won := false
	var superseded []models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.payments.WithTx(tx)

		var err error
		won, err = repo.MarkPaid(ctx, payment.ID, &notification.TransactionID, now)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}

		if err := repo.IncrementBookingPaid(ctx, payment.BookingID, payment.Amount); err != nil {
			return err
		}

		// Sibling open links chase the same balance; once one wins they must
		// never be payable again.
		superseded, err = payments.SupersedeOpenBalanceLinks(ctx, repo, s.audit.WithTx(tx), payment)
		if err != nil {
			return err
		}

		_, err = s.audit.WithTx(tx).Record(ctx, audit.RecordEntryInput{
			BookingID:  payment.BookingID,
			EntityType: audit.EntityPayment,
			EntityID:   payment.ID,
			Action:     audit.ActionPaymentConfirmed,
			Payload: auditPayload(map[string]any{
				"amount":         payment.Amount,
				"transaction_id": notification.TransactionID,
				"paid_at":        now,
			}),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if !won {
		s.logg.Info(ctx, "payment transition lost to concurrent delivery, duplicate acknowledged")
		return s.ack(notification.Provider, OutcomeDuplicate), nil
	}

	s.deactivateSupersededLinks(ctx, superseded)

	s.notify.Emit(ctx, notify.EventPaymentConfirmed, payment.BookingID, payment.ID, map[string]any{
		"amount": payment.Amount,
	})
	return s.ack(notification.Provider, OutcomeProcessed), nil
}

// deactivateSupersededLinks voids the hosted checkout pages of links expired
// by a winning payment. The rows are already terminal; a gateway failure here
// only leaves a dead page reachable, so errors are logged and swallowed.
func (s *service) deactivateSupersededLinks(ctx context.Context, superseded []models.Payment) {
	for i := range superseded {
		link := &superseded[i]
		if link.ExternalLinkID == nil || link.LinkURL == nil {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
		err := s.cardLinks.DeactivateLink(callCtx, *link.ExternalLinkID)
		cancel()
		if err != nil {
			s.logg.Error(s.logg.WithPaymentID(ctx, link.ID.String()), "deactivating superseded link", err)
		}
	}
}

func (s *service) transitionDeposit(ctx context.Context, authorization *models.SecurityDepositAuthorization, notification Notification) (*Ack, error) {
	ctx = s.logg.WithField(ctx, "authorization_id", authorization.ID.String())

	switch notification.Status {
	case EventStatusAuthorized:
		now := time.Now().UTC()
		won, err := s.deposits.MarkAuthorized(ctx, authorization.ID, &notification.TransactionID, now)
		if err != nil {
			return nil, err
		}
		if !won {
			s.logg.Info(ctx, "deposit hold already moved, duplicate acknowledged")
			return s.ack(notification.Provider, OutcomeDuplicate), nil
		}
		s.recordDepositAudit(ctx, authorization, audit.ActionDepositAuthorized, notification)
		s.notify.Emit(ctx, notify.EventDepositAuthorized, authorization.BookingID, authorization.ID, map[string]any{
			"amount": authorization.Amount,
		})
		return s.ack(notification.Provider, OutcomeProcessed), nil

	case EventStatusFailed:
		// Only a pending hold can fail; an authorized hold stays authorized.
		won, err := s.deposits.MarkFailed(ctx, authorization.ID)
		if err != nil {
			return nil, err
		}
		if !won {
			return s.ack(notification.Provider, OutcomeDuplicate), nil
		}
		s.recordDepositAudit(ctx, authorization, audit.ActionDepositFailed, notification)
		s.notify.Emit(ctx, notify.EventDepositFailed, authorization.BookingID, authorization.ID, nil)
		return s.ack(notification.Provider, OutcomeProcessed), nil

	case EventStatusCanceled:
		// Gateway-side void of the hold, e.g. confirming our own release.
		now := time.Now().UTC()
		won, err := s.deposits.MarkReleased(ctx, authorization.ID, now)
		if err != nil {
			return nil, err
		}
		if !won {
			return s.ack(notification.Provider, OutcomeDuplicate), nil
		}
		s.recordDepositAudit(ctx, authorization, audit.ActionDepositReleased, notification)
		s.notify.Emit(ctx, notify.EventDepositReleased, authorization.BookingID, authorization.ID, map[string]any{
			"amount": authorization.Amount,
		})
		return s.ack(notification.Provider, OutcomeProcessed), nil

	default:
		s.logg.Warn(ctx, "webhook status has no deposit transition, acknowledged")
		return s.ack(notification.Provider, OutcomeUnknown), nil
	}
}

func (s *service) ack(provider, outcome string) *Ack {
	s.metrics.IncWebhookOutcome(provider, outcome)
	return &Ack{Outcome: outcome}
}

func (s *service) recordAudit(ctx context.Context, payment *models.Payment, action string, notification Notification) {
	if _, err := s.audit.Record(ctx, audit.RecordEntryInput{
		BookingID:  payment.BookingID,
		EntityType: audit.EntityPayment,
		EntityID:   payment.ID,
		Action:     action,
		Payload: auditPayload(map[string]any{
			"transaction_id": notification.TransactionID,
			"provider":       notification.Provider,
		}),
	}); err != nil {
		s.logg.Error(ctx, "writing audit entry", err)
	}
}

func (s *service) recordDepositAudit(ctx context.Context, authorization *models.SecurityDepositAuthorization, action string, notification Notification) {
	if _, err := s.audit.Record(ctx, audit.RecordEntryInput{
		BookingID:  authorization.BookingID,
		EntityType: audit.EntityDeposit,
		EntityID:   authorization.ID,
		Action:     action,
		Payload: auditPayload(map[string]any{
			"transaction_id": notification.TransactionID,
			"provider":       notification.Provider,
		}),
	}); err != nil {
		s.logg.Error(ctx, "writing audit entry", err)
	}
}

func auditPayload(fields map[string]any) json.RawMessage {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return raw
}

func paymentTargetStatus(status EventStatus) (enums.LinkStatus, bool) {
	switch status {
	case EventStatusPaid:
		return enums.LinkStatusPaid, true
	case EventStatusFailed, EventStatusCanceled:
		return enums.LinkStatusFailed, true
	case EventStatusExpired:
		return enums.LinkStatusExpired, true
	default:
		return "", false
	}
}
