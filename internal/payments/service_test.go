package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rentiva/rentiva-backend/internal/audit"
	"github.com/rentiva/rentiva-backend/internal/gateway"
	"github.com/rentiva/rentiva-backend/internal/notify"
	"github.com/rentiva/rentiva-backend/pkg/db/models"
	"github.com/rentiva/rentiva-backend/pkg/enums"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
	"github.com/rentiva/rentiva-backend/pkg/logger"
)

type fakeRepo struct {
	booking        *models.Booking
	openPayments   []models.Payment
	staleLinks     []models.Payment
	enabledMethods []enums.PaymentMethodType
	fine           *models.Fine

	created     []*models.Payment
	activated   []uuid.UUID
	markedPaid  []uuid.UUID
	failed      []uuid.UUID
	expired     []uuid.UUID
	increments  []decimal.Decimal
	reducedFine []decimal.Decimal

	createIfAbsentFn func(payment *models.Payment) (bool, error)
	markPaidFn       func(id uuid.UUID) (bool, error)
	markExpiredFn    func(id uuid.UUID) (bool, error)
	getPaymentFn     func(id uuid.UUID) (*models.Payment, error)
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	if f.booking == nil || f.booking.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return f.booking, nil
}

func (f *fakeRepo) IncrementBookingPaid(ctx context.Context, bookingID uuid.UUID, amount decimal.Decimal) error {
	f.increments = append(f.increments, amount)
	return nil
}

func (f *fakeRepo) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if f.getPaymentFn != nil {
		return f.getPaymentFn(id)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
}

func (f *fakeRepo) GetPaymentByExternalTxID(ctx context.Context, externalTxID string) (*models.Payment, error) {
	return nil, nil
}

func (f *fakeRepo) ListOpenPayments(ctx context.Context, bookingID uuid.UUID, intents []enums.PaymentIntent) ([]models.Payment, error) {
	return f.openPayments, nil
}

func (f *fakeRepo) CreatePaymentIfAbsent(ctx context.Context, payment *models.Payment) (bool, error) {
	if f.createIfAbsentFn != nil {
		return f.createIfAbsentFn(payment)
	}
	f.created = append(f.created, payment)
	return true, nil
}

func (f *fakeRepo) ActivateLink(ctx context.Context, id uuid.UUID, externalLinkID, linkURL *string) (bool, error) {
	f.activated = append(f.activated, id)
	return true, nil
}

func (f *fakeRepo) MarkPaid(ctx context.Context, id uuid.UUID, externalTxID *string, paidAt time.Time) (bool, error) {
	if f.markPaidFn != nil {
		return f.markPaidFn(id)
	}
	f.markedPaid = append(f.markedPaid, id)
	return true, nil
}

func (f *fakeRepo) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	f.failed = append(f.failed, id)
	return true, nil
}

func (f *fakeRepo) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	if f.markExpiredFn != nil {
		return f.markExpiredFn(id)
	}
	f.expired = append(f.expired, id)
	return true, nil
}

func (f *fakeRepo) ListStaleOpenLinks(ctx context.Context, olderThan time.Time) ([]models.Payment, error) {
	return f.staleLinks, nil
}

func (f *fakeRepo) ListEnabledMethodTypes(ctx context.Context) ([]enums.PaymentMethodType, error) {
	return f.enabledMethods, nil
}

func (f *fakeRepo) GetFine(ctx context.Context, id uuid.UUID) (*models.Fine, error) {
	if f.fine == nil || f.fine.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fine not found")
	}
	return f.fine, nil
}

func (f *fakeRepo) ReduceFineUnpaid(ctx context.Context, fineID uuid.UUID, amount decimal.Decimal) error {
	f.reducedFine = append(f.reducedFine, amount)
	return nil
}

type fakeAudit struct {
	entries []audit.RecordEntryInput
}

func (f *fakeAudit) WithTx(tx *gorm.DB) audit.Service { return f }

func (f *fakeAudit) Record(ctx context.Context, input audit.RecordEntryInput) (*models.AuditLogEntry, error) {
	f.entries = append(f.entries, input)
	return &models.AuditLogEntry{}, nil
}

func (f *fakeAudit) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.AuditLogEntry, error) {
	return nil, nil
}

type fakeNotify struct {
	events []string
}

func (f *fakeNotify) Emit(ctx context.Context, eventType string, bookingID, entityID uuid.UUID, payload any) {
	f.events = append(f.events, eventType)
}

type fakeCardLinks struct {
	calls       []gateway.LinkRequest
	deactivated []string
	err         error
}

func (f *fakeCardLinks) CreateLink(ctx context.Context, req gateway.LinkRequest) (*gateway.Link, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.Link{ExternalID: "plink_" + req.Reference, URL: "https://pay.example/" + req.Reference}, nil
}

func (f *fakeCardLinks) DeactivateLink(ctx context.Context, externalID string) error {
	f.deactivated = append(f.deactivated, externalID)
	return nil
}

type fakeBankTransfers struct {
	calls []gateway.LinkRequest
	err   error
}

func (f *fakeBankTransfers) Instructions(req gateway.LinkRequest) (*gateway.TransferInstructions, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.TransferInstructions{Reference: req.Reference, IBAN: "DE89370400440532013000"}, nil
}

type fakeDeposits struct {
	created  []CreatedAuthorization
	failures []MethodFailure
	calls    int
}

func (f *fakeDeposits) EnsureAuthorizations(ctx context.Context, booking *models.Booking, methodTypes []enums.PaymentMethodType) ([]CreatedAuthorization, []MethodFailure, error) {
	f.calls++
	return f.created, f.failures, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type serviceFixture struct {
	repo     *fakeRepo
	audit    *fakeAudit
	notify   *fakeNotify
	cards    *fakeCardLinks
	wires    *fakeBankTransfers
	deposits *fakeDeposits
	svc      Service
}

func newServiceFixture(t *testing.T, repo *fakeRepo) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		repo:     repo,
		audit:    &fakeAudit{},
		notify:   &fakeNotify{},
		cards:    &fakeCardLinks{},
		wires:    &fakeBankTransfers{},
		deposits: &fakeDeposits{},
	}
	svc, err := NewService(ServiceParams{
		Repo:          repo,
		Audit:         f.audit,
		Notify:        f.notify,
		CardLinks:     f.cards,
		BankTransfers: f.wires,
		Deposits:      f.deposits,
		TxRunner:      fakeTx{},
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func testBooking() *models.Booking {
	return &models.Booking{
		ID:                 uuid.New(),
		BookingNumber:      "2041",
		Currency:           enums.CurrencyEUR,
		AmountTotal:        decimal.RequireFromString("1000.00"),
		AmountPaid:         decimal.RequireFromString("700.00"),
		SecurityDeposit:    decimal.RequireFromString("500.00"),
		PaymentPolicy:      enums.PaymentPolicyClientChoice,
		DownPaymentPercent: decimal.RequireFromString("30"),
	}
}

func TestGenerateLinksCreatesOnePerMissingMethod(t *testing.T) {
	booking := testBooking()
	repo := &fakeRepo{
		booking: booking,
		enabledMethods: []enums.PaymentMethodType{
			enums.PaymentMethodTypeVisaMastercard,
			enums.PaymentMethodTypeBankTransfer,
		},
	}
	f := newServiceFixture(t, repo)

	result, err := f.svc.GenerateLinks(context.Background(), booking.ID, "")
	require.NoError(t, err)

	require.Len(t, result.CreatedLinks, 2)
	for _, link := range result.CreatedLinks {
		assert.Equal(t, enums.PaymentIntentBalancePayment, link.Intent)
		assert.True(t, link.Amount.Equal(decimal.RequireFromString("300.00")), "got %s", link.Amount)
	}
	assert.True(t, result.BalanceAmount.Equal(decimal.RequireFromString("300.00")))
	assert.Len(t, f.cards.calls, 1)
	assert.Len(t, f.wires.calls, 1)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 1, f.deposits.calls)
	assert.Len(t, f.audit.entries, 2)
	assert.Len(t, f.notify.events, 2)
}

func TestGenerateLinksSkipsCoveredMethods(t *testing.T) {
	booking := testBooking()
	repo := &fakeRepo{
		booking: booking,
		openPayments: []models.Payment{
			{MethodType: enums.PaymentMethodTypeVisaMastercard, Intent: enums.PaymentIntentBalancePayment},
		},
		enabledMethods: []enums.PaymentMethodType{
			enums.PaymentMethodTypeVisaMastercard,
			enums.PaymentMethodTypeBankTransfer,
		},
	}
	f := newServiceFixture(t, repo)

	result, err := f.svc.GenerateLinks(context.Background(), booking.ID, "")
	require.NoError(t, err)

	require.Len(t, result.CreatedLinks, 1)
	assert.Equal(t, enums.PaymentMethodTypeBankTransfer, result.CreatedLinks[0].MethodType)
	assert.Empty(t, f.cards.calls, "covered method must not reach the gateway")
}

func TestGenerateLinksTreatsInsertConflictAsCovered(t *testing.T) {
	booking := testBooking()
	repo := &fakeRepo{
		booking:        booking,
		enabledMethods: []enums.PaymentMethodType{enums.PaymentMethodTypeVisaMastercard},
	}
	repo.createIfAbsentFn = func(payment *models.Payment) (bool, error) {
		return false, nil
	}
	f := newServiceFixture(t, repo)

	result, err := f.svc.GenerateLinks(context.Background(), booking.ID, "")
	require.NoError(t, err)
	assert.Empty(t, result.CreatedLinks)
	assert.Empty(t, result.Failures)
	assert.Empty(t, f.cards.calls, "conflicting slot must not reach the gateway")
}

func TestGenerateLinksIsolatesGatewayFailures(t *testing.T) {
	booking := testBooking()
	repo := &fakeRepo{
		booking: booking,
		enabledMethods: []enums.PaymentMethodType{
			enums.PaymentMethodTypeVisaMastercard,
			enums.PaymentMethodTypeBankTransfer,
		},
	}
	f := newServiceFixture(t, repo)
	f.cards.err = errors.New("gateway timeout")

	result, err := f.svc.GenerateLinks(context.Background(), booking.ID, "")
	require.NoError(t, err, "a single adapter failure must not abort the run")

	require.Len(t, result.CreatedLinks, 1)
	assert.Equal(t, enums.PaymentMethodTypeBankTransfer, result.CreatedLinks[0].MethodType)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, enums.PaymentMethodTypeVisaMastercard, result.Failures[0].MethodType)
	// The reserved slot is freed so the next run can retry.
	assert.Len(t, repo.failed, 1)
}

func TestGenerateLinksSkipsManualOnlyMethods(t *testing.T) {
	booking := testBooking()
	repo := &fakeRepo{
		booking: booking,
		enabledMethods: []enums.PaymentMethodType{
			enums.PaymentMethodTypeCash,
			enums.PaymentMethodTypeCrypto,
		},
	}
	f := newServiceFixture(t, repo)

	result, err := f.svc.GenerateLinks(context.Background(), booking.ID, "")
	require.NoError(t, err)
	assert.Empty(t, result.CreatedLinks)
	assert.Empty(t, result.Failures)
	assert.Empty(t, repo.created)
}

func TestGenerateLinksNoBalanceNoLinks(t *testing.T) {
	booking := testBooking()
	booking.AmountPaid = booking.AmountTotal
	repo := &fakeRepo{
		booking:        booking,
		enabledMethods: []enums.PaymentMethodType{enums.PaymentMethodTypeVisaMastercard},
	}
	f := newServiceFixture(t, repo)

	result, err := f.svc.GenerateLinks(context.Background(), booking.ID, "")
	require.NoError(t, err)
	assert.Empty(t, result.CreatedLinks)
	assert.True(t, result.BalanceAmount.IsZero())
	// Deposit half still runs.
	assert.Equal(t, 1, f.deposits.calls)
}

func TestRecordManualPaymentValidation(t *testing.T) {
	booking := testBooking()
	fine := &models.Fine{
		ID:           uuid.New(),
		BookingID:    booking.ID,
		UnpaidAmount: decimal.RequireFromString("100.00"),
	}
	repo := &fakeRepo{booking: booking, fine: fine}
	f := newServiceFixture(t, repo)
	ctx := context.Background()

	tests := []struct {
		name  string
		input RecordManualPaymentInput
		code  pkgerrors.Code
	}{
		{
			name: "zero amount",
			input: RecordManualPaymentInput{
				BookingID:  booking.ID,
				MethodType: enums.PaymentMethodTypeCash,
				Intent:     enums.PaymentIntentOther,
				Amount:     decimal.Zero,
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "currency mismatch",
			input: RecordManualPaymentInput{
				BookingID:  booking.ID,
				MethodType: enums.PaymentMethodTypeCash,
				Intent:     enums.PaymentIntentOther,
				Amount:     decimal.RequireFromString("50.00"),
				Currency:   enums.CurrencyUSD,
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "unmapped intent",
			input: RecordManualPaymentInput{
				BookingID:  booking.ID,
				MethodType: enums.PaymentMethodTypeCash,
				Intent:     enums.PaymentIntentSecurityDeposit,
				Amount:     decimal.RequireFromString("50.00"),
			},
			code: pkgerrors.CodeUnmappedEnum,
		},
		{
			name: "fine requires fines intent",
			input: RecordManualPaymentInput{
				BookingID:  booking.ID,
				MethodType: enums.PaymentMethodTypeCash,
				Intent:     enums.PaymentIntentOther,
				Amount:     decimal.RequireFromString("50.00"),
				FineID:     &fine.ID,
			},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "amount exceeds fine balance",
			input: RecordManualPaymentInput{
				BookingID:  booking.ID,
				MethodType: enums.PaymentMethodTypeCash,
				Intent:     enums.PaymentIntentFines,
				Amount:     decimal.RequireFromString("150.00"),
				FineID:     &fine.ID,
			},
			code: pkgerrors.CodeValidation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.RecordManualPayment(ctx, tc.input)
			require.Error(t, err)
			assert.Equal(t, tc.code, pkgerrors.As(err).Code())
		})
	}
	assert.Empty(t, repo.created, "validation failures must persist nothing")
}

func TestRecordManualPaymentInsertsPending(t *testing.T) {
	booking := testBooking()
	repo := &fakeRepo{booking: booking}
	f := newServiceFixture(t, repo)

	payment, err := f.svc.RecordManualPayment(context.Background(), RecordManualPaymentInput{
		BookingID:  booking.ID,
		MethodType: enums.PaymentMethodTypeCash,
		Intent:     enums.PaymentIntentOther,
		Amount:     decimal.RequireFromString("50.00"),
		Note:       "paid at counter",
	})
	require.NoError(t, err)

	assert.Equal(t, enums.LinkStatusPending, payment.LinkStatus)
	assert.True(t, payment.Manual)
	assert.Equal(t, enums.LegacyPaymentMethodPOS, payment.LegacyMethod)
	assert.Equal(t, enums.LegacyPaymentKindFull, payment.Kind)
	require.NotNil(t, payment.Note)
	assert.Equal(t, "paid at counter", *payment.Note)
	assert.Empty(t, repo.increments, "recording must not move booking totals")
	assert.Empty(t, repo.reducedFine, "recording must not reduce fines")
}

func TestRecordManualPaymentConflictOnOpenSlot(t *testing.T) {
	booking := testBooking()
	repo := &fakeRepo{booking: booking}
	repo.createIfAbsentFn = func(payment *models.Payment) (bool, error) { return false, nil }
	f := newServiceFixture(t, repo)

	_, err := f.svc.RecordManualPayment(context.Background(), RecordManualPaymentInput{
		BookingID:  booking.ID,
		MethodType: enums.PaymentMethodTypeCash,
		Intent:     enums.PaymentIntentOther,
		Amount:     decimal.RequireFromString("50.00"),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestConfirmManualPaymentCascades(t *testing.T) {
	booking := testBooking()
	fineID := uuid.New()
	amount := decimal.RequireFromString("80.00")
	manual := &models.Payment{
		ID:         uuid.New(),
		BookingID:  booking.ID,
		Amount:     amount,
		Intent:     enums.PaymentIntentFines,
		LinkStatus: enums.LinkStatusPending,
		FineID:     &fineID,
		Manual:     true,
	}
	repo := &fakeRepo{booking: booking}
	repo.getPaymentFn = func(id uuid.UUID) (*models.Payment, error) { return manual, nil }
	f := newServiceFixture(t, repo)

	confirmed, err := f.svc.ConfirmManualPayment(context.Background(), manual.ID)
	require.NoError(t, err)

	assert.Equal(t, enums.LinkStatusPaid, confirmed.LinkStatus)
	require.Len(t, repo.increments, 1)
	assert.True(t, repo.increments[0].Equal(amount))
	require.Len(t, repo.reducedFine, 1)
	assert.True(t, repo.reducedFine[0].Equal(amount))
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, audit.ActionManualConfirmed, f.audit.entries[0].Action)
	assert.Contains(t, f.notify.events, notify.EventManualPaymentConfirmed)
}

func TestConfirmManualPaymentLosesRace(t *testing.T) {
	booking := testBooking()
	manual := &models.Payment{
		ID:         uuid.New(),
		BookingID:  booking.ID,
		Amount:     decimal.RequireFromString("80.00"),
		LinkStatus: enums.LinkStatusPending,
		Manual:     true,
	}
	repo := &fakeRepo{booking: booking}
	repo.getPaymentFn = func(id uuid.UUID) (*models.Payment, error) { return manual, nil }
	repo.markPaidFn = func(id uuid.UUID) (bool, error) { return false, nil }
	f := newServiceFixture(t, repo)

	_, err := f.svc.ConfirmManualPayment(context.Background(), manual.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Empty(t, repo.increments, "losing the transition must not move totals")
}

func TestConfirmManualPaymentRejectsNonManual(t *testing.T) {
	booking := testBooking()
	linked := &models.Payment{
		ID:         uuid.New(),
		BookingID:  booking.ID,
		LinkStatus: enums.LinkStatusActive,
	}
	repo := &fakeRepo{booking: booking}
	repo.getPaymentFn = func(id uuid.UUID) (*models.Payment, error) { return linked, nil }
	f := newServiceFixture(t, repo)

	_, err := f.svc.ConfirmManualPayment(context.Background(), linked.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestConfirmManualPaymentRejectsTerminal(t *testing.T) {
	booking := testBooking()
	paid := &models.Payment{
		ID:         uuid.New(),
		BookingID:  booking.ID,
		LinkStatus: enums.LinkStatusPaid,
		Manual:     true,
	}
	repo := &fakeRepo{booking: booking}
	repo.getPaymentFn = func(id uuid.UUID) (*models.Payment, error) { return paid, nil }
	f := newServiceFixture(t, repo)

	_, err := f.svc.ConfirmManualPayment(context.Background(), paid.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestGenerateLinksDownPaymentOnlyPolicy(t *testing.T) {
	booking := testBooking()
	booking.AmountPaid = decimal.Zero
	booking.PaymentPolicy = enums.PaymentPolicyDownPaymentOnly
	repo := &fakeRepo{
		booking:        booking,
		enabledMethods: []enums.PaymentMethodType{enums.PaymentMethodTypeVisaMastercard},
	}
	f := newServiceFixture(t, repo)

	result, err := f.svc.GenerateLinks(context.Background(), booking.ID, "")
	require.NoError(t, err)

	require.Len(t, result.CreatedLinks, 1)
	link := result.CreatedLinks[0]
	assert.Equal(t, enums.PaymentIntentDownPayment, link.Intent)
	assert.True(t, link.Amount.Equal(decimal.RequireFromString("300.00")), "got %s", link.Amount)
	require.Len(t, f.cards.calls, 1)
	assert.Equal(t, "Down payment", f.cards.calls[0].Description)
	assert.True(t, f.cards.calls[0].Amount.Equal(decimal.RequireFromString("300.00")))
}

func TestGenerateLinksHonorsClientDownPaymentChoice(t *testing.T) {
	booking := testBooking()
	booking.AmountPaid = decimal.Zero
	repo := &fakeRepo{
		booking:        booking,
		enabledMethods: []enums.PaymentMethodType{enums.PaymentMethodTypeVisaMastercard},
	}
	f := newServiceFixture(t, repo)

	result, err := f.svc.GenerateLinks(context.Background(), booking.ID, enums.PaymentChoiceDownPayment)
	require.NoError(t, err)

	require.Len(t, result.CreatedLinks, 1)
	assert.Equal(t, enums.PaymentIntentDownPayment, result.CreatedLinks[0].Intent)
	assert.True(t, result.CreatedLinks[0].Amount.Equal(decimal.RequireFromString("300.00")),
		"got %s", result.CreatedLinks[0].Amount)
}

func TestGenerateLinksFreshBookingDefaultsToFullAmount(t *testing.T) {
	booking := testBooking()
	booking.AmountPaid = decimal.Zero
	repo := &fakeRepo{
		booking:        booking,
		enabledMethods: []enums.PaymentMethodType{enums.PaymentMethodTypeVisaMastercard},
	}
	f := newServiceFixture(t, repo)

	result, err := f.svc.GenerateLinks(context.Background(), booking.ID, "")
	require.NoError(t, err)

	require.Len(t, result.CreatedLinks, 1)
	assert.Equal(t, enums.PaymentIntentFullPayment, result.CreatedLinks[0].Intent)
	assert.True(t, result.CreatedLinks[0].Amount.Equal(decimal.RequireFromString("1000.00")),
		"got %s", result.CreatedLinks[0].Amount)
}

func TestGenerateLinksRejectsInvalidChoice(t *testing.T) {
	booking := testBooking()
	repo := &fakeRepo{booking: booking}
	f := newServiceFixture(t, repo)

	_, err := f.svc.GenerateLinks(context.Background(), booking.ID, enums.PaymentChoice("half"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestConfirmManualPaymentSupersedesOpenBalanceLinks(t *testing.T) {
	booking := testBooking()
	amount := decimal.RequireFromString("300.00")
	manual := &models.Payment{
		ID:         uuid.New(),
		BookingID:  booking.ID,
		Amount:     amount,
		Intent:     enums.PaymentIntentBalancePayment,
		LinkStatus: enums.LinkStatusPending,
		Manual:     true,
	}
	linkID := "plink_sibling"
	linkURL := "https://pay.example/sibling"
	sibling := models.Payment{
		ID:             uuid.New(),
		BookingID:      booking.ID,
		Amount:         amount,
		Intent:         enums.PaymentIntentBalancePayment,
		MethodType:     enums.PaymentMethodTypeVisaMastercard,
		LinkStatus:     enums.LinkStatusActive,
		ExternalLinkID: &linkID,
		LinkURL:        &linkURL,
	}
	repo := &fakeRepo{booking: booking, openPayments: []models.Payment{sibling}}
	repo.getPaymentFn = func(id uuid.UUID) (*models.Payment, error) { return manual, nil }
	f := newServiceFixture(t, repo)

	confirmed, err := f.svc.ConfirmManualPayment(context.Background(), manual.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.LinkStatusPaid, confirmed.LinkStatus)

	require.Len(t, repo.expired, 1, "the open sibling link must be expired")
	assert.Equal(t, sibling.ID, repo.expired[0])
	assert.Equal(t, []string{linkID}, f.cards.deactivated)

	var actions []string
	for _, entry := range f.audit.entries {
		actions = append(actions, entry.Action)
	}
	assert.Contains(t, actions, audit.ActionLinkExpired)
	assert.Contains(t, actions, audit.ActionManualConfirmed)
}

func TestExpireStaleLinksSweep(t *testing.T) {
	booking := testBooking()
	linkID := "plink_stale"
	linkURL := "https://pay.example/stale"
	hosted := models.Payment{
		ID:             uuid.New(),
		BookingID:      booking.ID,
		MethodType:     enums.PaymentMethodTypeVisaMastercard,
		Intent:         enums.PaymentIntentBalancePayment,
		LinkStatus:     enums.LinkStatusActive,
		ExternalLinkID: &linkID,
		LinkURL:        &linkURL,
	}
	racing := models.Payment{
		ID:         uuid.New(),
		BookingID:  booking.ID,
		MethodType: enums.PaymentMethodTypeBankTransfer,
		Intent:     enums.PaymentIntentBalancePayment,
		LinkStatus: enums.LinkStatusActive,
	}
	repo := &fakeRepo{booking: booking, staleLinks: []models.Payment{hosted, racing}}
	repo.markExpiredFn = func(id uuid.UUID) (bool, error) {
		// The second candidate was paid concurrently and loses the update.
		return id == hosted.ID, nil
	}
	f := newServiceFixture(t, repo)

	expired, err := f.svc.ExpireStaleLinks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	assert.Equal(t, []string{linkID}, f.cards.deactivated)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, audit.ActionLinkExpired, f.audit.entries[0].Action)
	assert.Equal(t, hosted.ID, f.audit.entries[0].EntityID)
}
