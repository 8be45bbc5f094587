package deposits

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/rentiva/rentiva-backend/internal/audit"
	"github.com/rentiva/rentiva-backend/internal/gateway"
	"github.com/rentiva/rentiva-backend/internal/notify"
	"github.com/rentiva/rentiva-backend/internal/payments"
	"github.com/rentiva/rentiva-backend/pkg/db/models"
	"github.com/rentiva/rentiva-backend/pkg/enums"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
	"github.com/rentiva/rentiva-backend/pkg/logger"
	"github.com/rentiva/rentiva-backend/pkg/metrics"
)

const defaultGatewayTimeout = 10 * time.Second

// holdCapable are the method types a pre-authorization hold can be placed on.
var holdCapable = map[enums.PaymentMethodType]bool{
	enums.PaymentMethodTypeVisaMastercard: true,
	enums.PaymentMethodTypeAmex:           true,
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the security deposit state machine: pending holds are
// created by link generation, authorized by the gateway, and released by an
// explicit staff action.
type Service interface {
	EnsureAuthorizations(ctx context.Context, booking *models.Booking, methodTypes []enums.PaymentMethodType) ([]payments.CreatedAuthorization, []payments.MethodFailure, error)
	Release(ctx context.Context, authorizationID uuid.UUID) (*models.SecurityDepositAuthorization, error)
}

// ServiceParams wires the deposits service dependencies.
type ServiceParams struct {
	Repo           Repository
	Audit          audit.Service
	Notify         notify.Service
	Authorizer     gateway.DepositAuthorizer
	TxRunner       txRunner
	Logger         *logger.Logger
	Metrics        *metrics.PaymentMetrics
	GatewayTimeout time.Duration
}

type service struct {
	repo           Repository
	audit          audit.Service
	notify         notify.Service
	authorizer     gateway.DepositAuthorizer
	tx             txRunner
	logg           *logger.Logger
	metrics        *metrics.PaymentMetrics
	gatewayTimeout time.Duration
}

// NewService validates the wiring and returns the deposits service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("deposits repository required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if params.Notify == nil {
		return nil, fmt.Errorf("notify service required")
	}
	if params.Authorizer == nil {
		return nil, fmt.Errorf("deposit authorizer required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.GatewayTimeout <= 0 {
		params.GatewayTimeout = defaultGatewayTimeout
	}
	return &service{
		repo:           params.Repo,
		audit:          params.Audit,
		notify:         params.Notify,
		authorizer:     params.Authorizer,
		tx:             params.TxRunner,
		logg:           params.Logger,
		metrics:        params.Metrics,
		gatewayTimeout: params.GatewayTimeout,
	}, nil
}

// EnsureAuthorizations creates one pending hold per hold-capable enabled
// method type that has no open authorization yet. Failures are isolated per
// method type, mirroring the balance-link policy.
func (s *service) EnsureAuthorizations(ctx context.Context, booking *models.Booking, methodTypes []enums.PaymentMethodType) ([]payments.CreatedAuthorization, []payments.MethodFailure, error) {
	if booking == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "booking is required")
	}
	if !booking.SecurityDeposit.IsPositive() {
		return nil, nil, nil
	}

	open, err := s.repo.ListOpenByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, nil, err
	}
	covered := make(map[enums.PaymentMethodType]bool, len(open))
	for _, authorization := range open {
		covered[authorization.MethodType] = true
	}

	var (
		created  []payments.CreatedAuthorization
		failures []payments.MethodFailure
		errs     error
	)
	for _, methodType := range methodTypes {
		if !holdCapable[methodType] || covered[methodType] {
			continue
		}
		authorization, err := s.createHold(ctx, booking, methodType)
		if err != nil {
			errs = multierr.Append(errs, err)
			failures = append(failures, payments.MethodFailure{
				MethodType: methodType,
				Intent:     enums.PaymentIntentSecurityDeposit,
				Reason:     err.Error(),
			})
			continue
		}
		if authorization != nil {
			created = append(created, *authorization)
		}
	}
	if errs != nil {
		s.logg.Error(ctx, "deposit authorization finished with partial failures", errs)
	}
	return created, failures, nil
}

func (s *service) createHold(ctx context.Context, booking *models.Booking, methodType enums.PaymentMethodType) (*payments.CreatedAuthorization, error) {
	authorization := &models.SecurityDepositAuthorization{
		ID:         uuid.New(),
		BookingID:  booking.ID,
		Amount:     booking.SecurityDeposit,
		Currency:   booking.Currency,
		MethodType: methodType,
		Status:     enums.DepositStatusPending,
	}

	reserved, err := s.repo.CreateIfAbsent(ctx, authorization)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	hold, err := s.authorizer.Authorize(callCtx, gateway.HoldRequest{
		Reference: fmt.Sprintf("RV-%s-SD-%s", booking.BookingNumber, methodType),
		Amount:    booking.SecurityDeposit,
		Currency:  booking.Currency,
		Note:      fmt.Sprintf("Security deposit for booking %s", booking.BookingNumber),
	})
	if err != nil {
		// Free the slot so the next generation run retries this method type.
		if _, markErr := s.repo.MarkFailed(ctx, authorization.ID); markErr != nil {
			s.logg.Error(ctx, "freeing failed deposit slot", markErr)
		}
		return nil, err
	}

	if hold.Authorized {
		now := time.Now().UTC()
		won, err := s.repo.MarkAuthorized(ctx, authorization.ID, &hold.ExternalAuthID, now)
		if err != nil {
			return nil, err
		}
		if won {
			s.recordAudit(ctx, booking.ID, authorization.ID, audit.ActionDepositAuthorized, map[string]any{
				"method_type":      methodType,
				"amount":           booking.SecurityDeposit,
				"external_auth_id": hold.ExternalAuthID,
			})
			s.notify.Emit(ctx, notify.EventDepositAuthorized, booking.ID, authorization.ID, map[string]any{
				"amount": booking.SecurityDeposit,
			})
		}
	} else {
		// Hold accepted but not yet approved; the gateway webhook completes
		// the pending to authorized transition.
		if _, err := s.repo.AttachExternalAuth(ctx, authorization.ID, hold.ExternalAuthID); err != nil {
			s.logg.Error(ctx, "storing deposit external id", err)
		}
	}

	s.metrics.IncLinkCreated("deposit_hold", methodType.String())
	return &payments.CreatedAuthorization{
		AuthorizationID: authorization.ID,
		MethodType:      methodType,
		Amount:          booking.SecurityDeposit,
	}, nil
}

// Release voids an authorized hold. Gateway release runs first; only a
// confirmed gateway release moves the record, so a failure leaves the hold
// authorized and retryable. released is terminal.
func (s *service) Release(ctx context.Context, authorizationID uuid.UUID) (*models.SecurityDepositAuthorization, error) {
	if authorizationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization id is required")
	}

	authorization, err := s.repo.Get(ctx, authorizationID)
	if err != nil {
		return nil, err
	}
	switch authorization.Status {
	case enums.DepositStatusAuthorized:
	case enums.DepositStatusReleased:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "deposit hold is already released")
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("deposit hold is %s, only authorized holds can be released", authorization.Status))
	}
	if authorization.ExternalAuthID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "deposit hold has no gateway authorization to release")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	if err := s.authorizer.Release(callCtx, *authorization.ExternalAuthID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		won, err := s.repo.WithTx(tx).MarkReleased(ctx, authorization.ID, now)
		if err != nil {
			return err
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "deposit hold was released concurrently")
		}
		_, err = s.audit.WithTx(tx).Record(ctx, audit.RecordEntryInput{
			BookingID:  authorization.BookingID,
			EntityType: audit.EntityDeposit,
			EntityID:   authorization.ID,
			Action:     audit.ActionDepositReleased,
			Payload:    auditPayload(map[string]any{"released_at": now, "amount": authorization.Amount}),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	authorization.Status = enums.DepositStatusReleased
	authorization.ReleasedAt = &now

	s.notify.Emit(ctx, notify.EventDepositReleased, authorization.BookingID, authorization.ID, map[string]any{
		"amount": authorization.Amount,
	})
	return authorization, nil
}

func (s *service) recordAudit(ctx context.Context, bookingID, entityID uuid.UUID, action string, payload map[string]any) {
	if _, err := s.audit.Record(ctx, audit.RecordEntryInput{
		BookingID:  bookingID,
		EntityType: audit.EntityDeposit,
		EntityID:   entityID,
		Action:     action,
		Payload:    auditPayload(payload),
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
