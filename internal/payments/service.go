package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/rentiva/rentiva-backend/internal/audit"
	"github.com/rentiva/rentiva-backend/internal/gateway"
	"github.com/rentiva/rentiva-backend/internal/notify"
	"github.com/rentiva/rentiva-backend/pkg/db/models"
	"github.com/rentiva/rentiva-backend/pkg/enums"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
	"github.com/rentiva/rentiva-backend/pkg/logger"
	"github.com/rentiva/rentiva-backend/pkg/metrics"
)

const (
	defaultGatewayTimeout = 10 * time.Second
	defaultLinkTTL        = 72 * time.Hour
)

// balanceIntents are the intents that count as covering the open balance.
var balanceIntents = []enums.PaymentIntent{
	enums.PaymentIntentDownPayment,
	enums.PaymentIntentBalancePayment,
	enums.PaymentIntentFullPayment,
}

// BalanceIntents returns the intents that credit the booking balance. A paid
// transition on any of them supersedes the booking's other open balance links.
func BalanceIntents() []enums.PaymentIntent {
	out := make([]enums.PaymentIntent, len(balanceIntents))
	copy(out, balanceIntents)
	return out
}

// CreatedLink is one link or instruction produced by a generation run.
type CreatedLink struct {
	PaymentID  uuid.UUID               `json:"payment_id"`
	MethodType enums.PaymentMethodType `json:"method_type"`
	Intent     enums.PaymentIntent     `json:"intent"`
	Amount     decimal.Decimal         `json:"amount"`
	LinkURL    *string                 `json:"link_url,omitempty"`
	Reference  string                  `json:"reference"`
}

// CreatedAuthorization is one deposit hold produced by a generation run.
type CreatedAuthorization struct {
	AuthorizationID uuid.UUID               `json:"authorization_id"`
	MethodType      enums.PaymentMethodType `json:"method_type"`
	Amount          decimal.Decimal         `json:"amount"`
}

// MethodFailure reports one isolated gateway failure so an operator can act.
type MethodFailure struct {
	MethodType enums.PaymentMethodType `json:"method_type"`
	Intent     enums.PaymentIntent     `json:"intent"`
	Reason     string                  `json:"reason"`
}

// GenerateLinksResult is the outcome of one generation run.
type GenerateLinksResult struct {
	CreatedLinks          []CreatedLink          `json:"created_links"`
	CreatedAuthorizations []CreatedAuthorization `json:"created_authorizations"`
	BalanceAmount         decimal.Decimal        `json:"balance_amount"`
	DepositAmount         decimal.Decimal        `json:"deposit_amount"`
	Failures              []MethodFailure        `json:"failures,omitempty"`
}

// RecordManualPaymentInput captures a staff-entered payment.
type RecordManualPaymentInput struct {
	BookingID  uuid.UUID
	MethodType enums.PaymentMethodType
	Intent     enums.PaymentIntent
	Amount     decimal.Decimal
	Currency   enums.Currency
	Note       string
	FineID     *uuid.UUID
}

// DepositOrchestrator covers the deposit half of a generation run.
type DepositOrchestrator interface {
	EnsureAuthorizations(ctx context.Context, booking *models.Booking, methodTypes []enums.PaymentMethodType) ([]CreatedAuthorization, []MethodFailure, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service orchestrates link generation and manual payment recording.
type Service interface {
	GenerateLinks(ctx context.Context, bookingID uuid.UUID, choice enums.PaymentChoice) (*GenerateLinksResult, error)
	RecordManualPayment(ctx context.Context, input RecordManualPaymentInput) (*models.Payment, error)
	ConfirmManualPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	ExpireStaleLinks(ctx context.Context) (int64, error)
}

// ServiceParams wires the payments service dependencies.
type ServiceParams struct {
	Repo           Repository
	Audit          audit.Service
	Notify         notify.Service
	CardLinks      gateway.CardLinkCreator
	BankTransfers  gateway.BankTransferInstructor
	Deposits       DepositOrchestrator
	TxRunner       txRunner
	Logger         *logger.Logger
	Metrics        *metrics.PaymentMetrics
	GatewayTimeout time.Duration
	LinkTTL        time.Duration
}

type service struct {
	repo           Repository
	audit          audit.Service
	notify         notify.Service
	cardLinks      gateway.CardLinkCreator
	bankTransfers  gateway.BankTransferInstructor
	deposits       DepositOrchestrator
	tx             txRunner
	logg           *logger.Logger
	metrics        *metrics.PaymentMetrics
	gatewayTimeout time.Duration
	linkTTL        time.Duration
}

// NewService validates the wiring and returns the payments service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit service required")
	}
	if params.Notify == nil {
		return nil, fmt.Errorf("notify service required")
	}
	if params.CardLinks == nil {
		return nil, fmt.Errorf("card link creator required")
	}
	if params.BankTransfers == nil {
		return nil, fmt.Errorf("bank transfer instructor required")
	}
	if params.Deposits == nil {
		return nil, fmt.Errorf("deposit orchestrator required")
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
	if params.LinkTTL <= 0 {
		params.LinkTTL = defaultLinkTTL
	}
	return &service{
		repo:           params.Repo,
		audit:          params.Audit,
		notify:         params.Notify,
		cardLinks:      params.CardLinks,
		bankTransfers:  params.BankTransfers,
		deposits:       params.Deposits,
		tx:             params.TxRunner,
		logg:           params.Logger,
		metrics:        params.Metrics,
		gatewayTimeout: params.GatewayTimeout,
		linkTTL:        params.LinkTTL,
	}, nil
}

// GenerateLinks computes the outstanding balance and deposit for a booking
// and creates one link per enabled method type that has no open record yet.
// Safe under concurrent re-entry; the open-slot unique index closes the
// check-then-insert race and a conflicting insert is treated as "already
// covered".
func (s *service) GenerateLinks(ctx context.Context, bookingID uuid.UUID, choice enums.PaymentChoice) (*GenerateLinksResult, error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveLinkGeneration("api", time.Since(started))
	}()

	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	if choice != "" && !choice.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment choice %q", choice))
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithBookingID(ctx, booking.ID.String())

	balance := booking.AmountTotal.Sub(booking.AmountPaid)
	result := &GenerateLinksResult{
		BalanceAmount: balance,
		DepositAmount: booking.SecurityDeposit,
	}

	enabled, err := s.repo.ListEnabledMethodTypes(ctx)
	if err != nil {
		return nil, err
	}
	if len(enabled) == 0 {
		s.logg.Warn(ctx, "no payment method types enabled, nothing to generate")
		return result, nil
	}

	if balance.IsPositive() {
		amount, intent := upfrontAmount(booking, balance, choice)
		links, failures := s.generateBalanceLinks(ctx, booking, amount, intent, enabled)
		result.CreatedLinks = links
		result.Failures = append(result.Failures, failures...)
	}

	if booking.SecurityDeposit.IsPositive() {
		authorizations, failures, err := s.deposits.EnsureAuthorizations(ctx, booking, enabled)
		if err != nil {
			return nil, err
		}
		result.CreatedAuthorizations = authorizations
		result.Failures = append(result.Failures, failures...)
	}

	return result, nil
}

// upfrontAmount decides how much the next link collects. A fresh booking
// follows its payment policy (and the client's choice when the policy allows
// one); once anything has been paid the remaining balance is collected in
// full.
func upfrontAmount(booking *models.Booking, balance decimal.Decimal, choice enums.PaymentChoice) (decimal.Decimal, enums.PaymentIntent) {
	if booking.AmountPaid.IsPositive() {
		return balance, enums.PaymentIntentBalancePayment
	}
	required := RequiredAmount(booking, choice)
	if required.IsPositive() && required.LessThan(balance) {
		return required, enums.PaymentIntentDownPayment
	}
	return balance, enums.PaymentIntentFullPayment
}

func (s *service) generateBalanceLinks(ctx context.Context, booking *models.Booking, amount decimal.Decimal, intent enums.PaymentIntent, enabled []enums.PaymentMethodType) ([]CreatedLink, []MethodFailure) {
	covered, err := s.coveredMethodTypes(ctx, booking.ID)
	if err != nil {
		return nil, []MethodFailure{{
			Intent: intent,
			Reason: fmt.Sprintf("loading open payments: %v", err),
		}}
	}

	var (
		links    []CreatedLink
		failures []MethodFailure
		errs     error
	)
	for _, methodType := range enabled {
		if covered[methodType] {
			continue
		}
		link, err := s.createBalanceLink(ctx, booking, amount, intent, methodType)
		if err != nil {
			errs = multierr.Append(errs, err)
			failures = append(failures, MethodFailure{
				MethodType: methodType,
				Intent:     intent,
				Reason:     err.Error(),
			})
			continue
		}
		if link != nil {
			links = append(links, *link)
		}
	}
	if errs != nil {
		s.logg.Error(ctx, "link generation finished with partial failures", errs)
	}
	return links, failures
}

func (s *service) coveredMethodTypes(ctx context.Context, bookingID uuid.UUID) (map[enums.PaymentMethodType]bool, error) {
	open, err := s.repo.ListOpenPayments(ctx, bookingID, balanceIntents)
	if err != nil {
		return nil, err
	}
	covered := make(map[enums.PaymentMethodType]bool, len(open))
	for _, payment := range open {
		covered[payment.MethodType] = true
	}
	return covered, nil
}

// createBalanceLink reserves the open slot first, then talks to the gateway.
// A reservation conflict means a concurrent run already covers the slot. A
// gateway failure frees the slot (failed is terminal) so the next run can
// retry the method type.
func (s *service) createBalanceLink(ctx context.Context, booking *models.Booking, amount decimal.Decimal, intent enums.PaymentIntent, methodType enums.PaymentMethodType) (*CreatedLink, error) {
	if methodType == enums.PaymentMethodTypeCash || methodType == enums.PaymentMethodTypeCrypto {
		// No hosted flow; staff record these manually.
		return nil, nil
	}

	legacyMethod, err := ToLegacyMethod(methodType)
	if err != nil {
		return nil, err
	}
	legacyKind, err := ToLegacyKind(intent)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ID:           uuid.New(),
		BookingID:    booking.ID,
		Kind:         legacyKind,
		LegacyMethod: legacyMethod,
		MethodType:   methodType,
		Intent:       intent,
		Amount:       amount,
		Currency:     booking.Currency,
		LinkStatus:   enums.LinkStatusPending,
	}

	created, err := s.repo.CreatePaymentIfAbsent(ctx, payment)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}

	reference := linkReference(booking.BookingNumber, payment.ID)
	externalLinkID, linkURL, err := s.resolveLinkHandles(ctx, booking, amount, intent, methodType, reference)
	if err != nil {
		if _, markErr := s.repo.MarkFailed(ctx, payment.ID); markErr != nil {
			s.logg.Error(ctx, "freeing failed link slot", markErr)
		}
		return nil, err
	}

	won, err := s.repo.ActivateLink(ctx, payment.ID, externalLinkID, linkURL)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment left pending state during link creation")
	}

	s.metrics.IncLinkCreated("payment_link", methodType.String())
	s.recordLinkAudit(ctx, booking.ID, payment.ID, methodType, amount, linkURL)
	s.notify.Emit(ctx, notify.EventPaymentLinkCreated, booking.ID, payment.ID, map[string]any{
		"method_type": methodType,
		"amount":      amount,
		"link_url":    linkURL,
	})

	return &CreatedLink{
		PaymentID:  payment.ID,
		MethodType: methodType,
		Intent:     intent,
		Amount:     amount,
		LinkURL:    linkURL,
		Reference:  reference,
	}, nil
}

func (s *service) resolveLinkHandles(ctx context.Context, booking *models.Booking, amount decimal.Decimal, intent enums.PaymentIntent, methodType enums.PaymentMethodType, reference string) (*string, *string, error) {
	switch methodType {
	case enums.PaymentMethodTypeVisaMastercard, enums.PaymentMethodTypeAmex:
		callCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
		defer cancel()
		link, err := s.cardLinks.CreateLink(callCtx, gateway.LinkRequest{
			BookingNumber: booking.BookingNumber,
			Reference:     reference,
			Description:   linkDescription(intent),
			Amount:        amount,
			Currency:      booking.Currency,
			Metadata: map[string]string{
				"booking_id":  booking.ID.String(),
				"reference":   reference,
				"intent":      intent.String(),
				"method_type": methodType.String(),
			},
		})
		if err != nil {
			return nil, nil, err
		}
		return &link.ExternalID, &link.URL, nil

	case enums.PaymentMethodTypeBankTransfer:
		instructions, err := s.bankTransfers.Instructions(gateway.LinkRequest{
			BookingNumber: booking.BookingNumber,
			Reference:     reference,
			Amount:        amount,
			Currency:      booking.Currency,
		})
		if err != nil {
			return nil, nil, err
		}
		externalID := instructions.Reference
		return &externalID, nil, nil

	default:
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("no link adapter for method type %q", methodType))
	}
}

// RecordManualPayment inserts a staff-entered payment awaiting confirmation.
// Nothing else moves: booking totals and fine balances change only when the
// payment is confirmed.
func (s *service) RecordManualPayment(ctx context.Context, input RecordManualPaymentInput) (*models.Payment, error) {
	if input.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.MethodType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid method type %q", input.MethodType))
	}
	if !input.Intent.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid intent %q", input.Intent))
	}

	legacyMethod, err := ToLegacyMethod(input.MethodType)
	if err != nil {
		return nil, err
	}
	legacyKind, err := ToLegacyKind(input.Intent)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.GetBooking(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if input.Currency != "" && input.Currency != booking.Currency {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("currency %q does not match booking currency %q", input.Currency, booking.Currency))
	}

	if input.FineID != nil {
		if input.Intent != enums.PaymentIntentFines {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fine reference requires intent fines")
		}
		fine, err := s.repo.GetFine(ctx, *input.FineID)
		if err != nil {
			return nil, err
		}
		if fine.BookingID != booking.ID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fine belongs to a different booking")
		}
		if fine.UnpaidAmount.LessThan(input.Amount) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount exceeds fine unpaid balance")
		}
	}

	payment := &models.Payment{
		ID:           uuid.New(),
		BookingID:    booking.ID,
		Kind:         legacyKind,
		LegacyMethod: legacyMethod,
		MethodType:   input.MethodType,
		Intent:       input.Intent,
		Amount:       input.Amount.Round(2),
		Currency:     booking.Currency,
		LinkStatus:   enums.LinkStatusPending,
		FineID:       input.FineID,
		Manual:       true,
	}
	if note := strings.TrimSpace(input.Note); note != "" {
		payment.Note = &note
	}

	created, err := s.repo.CreatePaymentIfAbsent(ctx, payment)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			"an open payment already exists for this booking, intent and method type")
	}

	s.recordAudit(ctx, booking.ID, audit.EntityPayment, payment.ID, audit.ActionManualRecorded, map[string]any{
		"method_type": payment.MethodType,
		"intent":      payment.Intent,
		"amount":      payment.Amount,
	})
	s.notify.Emit(ctx, notify.EventManualPaymentRecorded, booking.ID, payment.ID, map[string]any{
		"amount": payment.Amount,
	})
	return payment, nil
}

// ConfirmManualPayment runs the same winner cascade as a confirmed webhook:
// a conditional transition to paid, an atomic booking increment, the fine
// reduction when one is referenced, an audit entry and a notification.
func (s *service) ConfirmManualPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	if paymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.Manual {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only manual payments are confirmed by staff")
	}
	if payment.LinkStatus.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment is already %s", payment.LinkStatus))
	}

	now := time.Now().UTC()
	var superseded []models.Payment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		won, err := repo.MarkPaid(ctx, payment.ID, nil, now)
		if err != nil {
			return err
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment was confirmed concurrently")
		}

		if err := repo.IncrementBookingPaid(ctx, payment.BookingID, payment.Amount); err != nil {
			return err
		}

		if payment.FineID != nil {
			if err := repo.ReduceFineUnpaid(ctx, *payment.FineID, payment.Amount); err != nil {
				return err
			}
		}

		superseded, err = SupersedeOpenBalanceLinks(ctx, repo, s.audit.WithTx(tx), payment)
		if err != nil {
			return err
		}

		_, err = s.audit.WithTx(tx).Record(ctx, audit.RecordEntryInput{
			BookingID:  payment.BookingID,
			EntityType: audit.EntityPayment,
			EntityID:   payment.ID,
			Action:     audit.ActionManualConfirmed,
			Payload:    auditPayload(map[string]any{"amount": payment.Amount, "paid_at": now}),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.deactivateHostedLinks(ctx, superseded)

	payment.LinkStatus = enums.LinkStatusPaid
	payment.PaidAt = &now

	s.notify.Emit(ctx, notify.EventManualPaymentConfirmed, payment.BookingID, payment.ID, map[string]any{
		"amount": payment.Amount,
	})
	return payment, nil
}

// ExpireStaleLinks flips open, non-manual links older than the configured TTL
// to expired through the same conditional update the webhook path uses, so an
// expiry sweep can never clobber a concurrent paid transition. Hosted links
// that lose their slot are deactivated at the gateway so they stop being
// payable.
func (s *service) ExpireStaleLinks(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.linkTTL)
	stale, err := s.repo.ListStaleOpenLinks(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	var expired int64
	for i := range stale {
		payment := &stale[i]
		won, err := s.repo.MarkExpired(ctx, payment.ID)
		if err != nil {
			return expired, err
		}
		if !won {
			continue
		}
		expired++
		s.recordAudit(ctx, payment.BookingID, audit.EntityPayment, payment.ID, audit.ActionLinkExpired, map[string]any{
			"method_type": payment.MethodType,
			"cutoff":      cutoff,
		})
		s.deactivateHostedLinks(ctx, []models.Payment{*payment})
	}
	if expired > 0 {
		s.logg.Info(s.logg.WithField(ctx, "expired", expired), "stale payment links expired")
	}
	return expired, nil
}

// SupersedeOpenBalanceLinks expires the booking's other open balance-intent
// links after one of them was paid. Stale siblings still carry the pre-payment
// amount; leaving them open would let a second completion over-credit the
// booking. Runs inside the winner's transaction; callers deactivate the
// returned hosted links after commit.
func SupersedeOpenBalanceLinks(ctx context.Context, repo Repository, auditSvc audit.Service, winner *models.Payment) ([]models.Payment, error) {
	if !isBalanceIntent(winner.Intent) {
		return nil, nil
	}

	open, err := repo.ListOpenPayments(ctx, winner.BookingID, balanceIntents)
	if err != nil {
		return nil, err
	}

	var superseded []models.Payment
	for _, sibling := range open {
		if sibling.ID == winner.ID {
			continue
		}
		won, err := repo.MarkExpired(ctx, sibling.ID)
		if err != nil {
			return nil, err
		}
		if !won {
			continue
		}
		superseded = append(superseded, sibling)
		if _, err := auditSvc.Record(ctx, audit.RecordEntryInput{
			BookingID:  sibling.BookingID,
			EntityType: audit.EntityPayment,
			EntityID:   sibling.ID,
			Action:     audit.ActionLinkExpired,
			Payload:    auditPayload(map[string]any{"superseded_by": winner.ID}),
		}); err != nil {
			return nil, err
		}
	}
	return superseded, nil
}

func isBalanceIntent(intent enums.PaymentIntent) bool {
	for _, candidate := range balanceIntents {
		if candidate == intent {
			return true
		}
	}
	return false
}

// deactivateHostedLinks closes gateway-side checkout pages for links that
// were expired locally. Best effort; the local record is already terminal.
func (s *service) deactivateHostedLinks(ctx context.Context, payments []models.Payment) {
	for i := range payments {
		payment := &payments[i]
		if payment.ExternalLinkID == nil || payment.LinkURL == nil {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
		if err := s.cardLinks.DeactivateLink(callCtx, *payment.ExternalLinkID); err != nil {
			s.logg.Error(s.logg.WithPaymentID(ctx, payment.ID.String()), "deactivating hosted payment link", err)
		}
		cancel()
	}
}

func (s *service) recordLinkAudit(ctx context.Context, bookingID, paymentID uuid.UUID, methodType enums.PaymentMethodType, amount decimal.Decimal, linkURL *string) {
	s.recordAudit(ctx, bookingID, audit.EntityPayment, paymentID, audit.ActionLinkGenerated, map[string]any{
		"method_type": methodType,
		"amount":      amount,
		"link_url":    linkURL,
	})
}

func (s *service) recordAudit(ctx context.Context, bookingID uuid.UUID, entityType string, entityID uuid.UUID, action string, payload map[string]any) {
	if _, err := s.audit.Record(ctx, audit.RecordEntryInput{
		BookingID:  bookingID,
		EntityType: entityType,
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

func linkReference(bookingNumber string, paymentID uuid.UUID) string {
	short := strings.SplitN(paymentID.String(), "-", 2)[0]
	return fmt.Sprintf("RV-%s-%s", bookingNumber, strings.ToUpper(short))
}

func linkDescription(intent enums.PaymentIntent) string {
	if intent == enums.PaymentIntentDownPayment {
		return "Down payment"
	}
	return "Outstanding balance"
}
