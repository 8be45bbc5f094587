package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rentiva/rentiva-backend/pkg/db/models"
	"github.com/rentiva/rentiva-backend/pkg/enums"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	bookings := `
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  booking_number TEXT NOT NULL UNIQUE,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  currency TEXT NOT NULL,
  amount_total NUMERIC NOT NULL,
  amount_paid NUMERIC NOT NULL DEFAULT 0,
  security_deposit NUMERIC NOT NULL DEFAULT 0,
  payment_policy TEXT NOT NULL DEFAULT 'client_choice',
  down_payment_percent NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	payments := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  legacy_method TEXT NOT NULL,
  method_type TEXT NOT NULL,
  intent TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL,
  link_status TEXT NOT NULL DEFAULT 'pending',
  external_link_id TEXT,
  external_tx_id TEXT,
  link_url TEXT,
  note TEXT,
  fine_id TEXT,
  manual INTEGER NOT NULL DEFAULT 0,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	openSlot := `
CREATE UNIQUE INDEX IF NOT EXISTS uq_payments_open_slot
  ON payments (booking_id, intent, method_type)
  WHERE link_status IN ('pending', 'active');`
	fines := `
CREATE TABLE IF NOT EXISTS fines (
  id TEXT PRIMARY KEY,
  booking_id TEXT NOT NULL,
  description TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  unpaid_amount NUMERIC NOT NULL,
  currency TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	methodConfigs := `
CREATE TABLE IF NOT EXISTS payment_method_configs (
  method_type TEXT PRIMARY KEY,
  enabled INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(bookings).Error)
	require.NoError(t, db.Exec(payments).Error)
	require.NoError(t, db.Exec(openSlot).Error)
	require.NoError(t, db.Exec(fines).Error)
	require.NoError(t, db.Exec(methodConfigs).Error)
	return db
}

func newBooking(t *testing.T, db *gorm.DB, total, paid string) *models.Booking {
	t.Helper()

	booking := &models.Booking{
		ID:                 uuid.New(),
		BookingNumber:      "BK-" + uuid.NewString()[:8],
		CustomerName:       "Dana Weiss",
		CustomerEmail:      "dana@example.com",
		Currency:           enums.CurrencyEUR,
		AmountTotal:        decimal.RequireFromString(total),
		AmountPaid:         decimal.RequireFromString(paid),
		SecurityDeposit:    decimal.RequireFromString("500.00"),
		PaymentPolicy:      enums.PaymentPolicyClientChoice,
		DownPaymentPercent: decimal.RequireFromString("30"),
	}
	require.NoError(t, db.Create(booking).Error)
	return booking
}

func newOpenPayment(t *testing.T, repo Repository, bookingID uuid.UUID, methodType enums.PaymentMethodType) *models.Payment {
	t.Helper()

	payment := &models.Payment{
		ID:           uuid.New(),
		BookingID:    bookingID,
		Kind:         enums.LegacyPaymentKindBalance,
		LegacyMethod: enums.LegacyPaymentMethodCard,
		MethodType:   methodType,
		Intent:       enums.PaymentIntentBalancePayment,
		Amount:       decimal.RequireFromString("300.00"),
		Currency:     enums.CurrencyEUR,
		LinkStatus:   enums.LinkStatusPending,
	}
	created, err := repo.CreatePaymentIfAbsent(context.Background(), payment)
	require.NoError(t, err)
	require.True(t, created)
	return payment
}

func TestCreatePaymentIfAbsentDeduplicates(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	booking := newBooking(t, db, "1000.00", "0")

	first := newOpenPayment(t, repo, booking.ID, enums.PaymentMethodTypeVisaMastercard)

	duplicate := &models.Payment{
		ID:           uuid.New(),
		BookingID:    booking.ID,
		Kind:         enums.LegacyPaymentKindBalance,
		LegacyMethod: enums.LegacyPaymentMethodCard,
		MethodType:   enums.PaymentMethodTypeVisaMastercard,
		Intent:       enums.PaymentIntentBalancePayment,
		Amount:       decimal.RequireFromString("300.00"),
		Currency:     enums.CurrencyEUR,
		LinkStatus:   enums.LinkStatusPending,
	}
	created, err := repo.CreatePaymentIfAbsent(ctx, duplicate)
	require.NoError(t, err)
	assert.False(t, created, "open slot must reject a second open record")

	// A different method type is a different slot.
	other := newOpenPayment(t, repo, booking.ID, enums.PaymentMethodTypeBankTransfer)
	assert.NotEqual(t, first.ID, other.ID)

	// Once the first record is terminal the slot frees up.
	won, err := repo.MarkPaid(ctx, first.ID, nil, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, won)

	created, err = repo.CreatePaymentIfAbsent(ctx, duplicate)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestMarkPaidWinsExactlyOnce(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	booking := newBooking(t, db, "1000.00", "0")
	payment := newOpenPayment(t, repo, booking.ID, enums.PaymentMethodTypeVisaMastercard)

	txID := "tx_123"
	now := time.Now().UTC()

	won, err := repo.MarkPaid(ctx, payment.ID, &txID, now)
	require.NoError(t, err)
	assert.True(t, won)

	// Duplicate delivery loses the conditional update.
	won, err = repo.MarkPaid(ctx, payment.ID, &txID, now)
	require.NoError(t, err)
	assert.False(t, won)

	stored, err := repo.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.LinkStatusPaid, stored.LinkStatus)
	require.NotNil(t, stored.ExternalTxID)
	assert.Equal(t, txID, *stored.ExternalTxID)
	assert.NotNil(t, stored.PaidAt)
}

func TestMarkPaidKeepsExistingExternalTxID(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	booking := newBooking(t, db, "1000.00", "0")
	payment := newOpenPayment(t, repo, booking.ID, enums.PaymentMethodTypeVisaMastercard)

	original := "tx_original"
	require.NoError(t, db.Model(&models.Payment{}).
		Where("id = ?", payment.ID).
		UpdateColumn("external_tx_id", original).Error)

	late := "tx_late"
	won, err := repo.MarkPaid(ctx, payment.ID, &late, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, won)

	stored, err := repo.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExternalTxID)
	assert.Equal(t, original, *stored.ExternalTxID)
}

func TestIncrementBookingPaid(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	booking := newBooking(t, db, "1000.00", "100.00")

	require.NoError(t, repo.IncrementBookingPaid(ctx, booking.ID, decimal.RequireFromString("300.00")))

	stored, err := repo.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.True(t, stored.AmountPaid.Equal(decimal.RequireFromString("400.00")), "got %s", stored.AmountPaid)

	err = repo.IncrementBookingPaid(ctx, uuid.New(), decimal.RequireFromString("1.00"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	err = repo.IncrementBookingPaid(ctx, booking.ID, decimal.Zero)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestGetPaymentByExternalTxID(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	booking := newBooking(t, db, "1000.00", "0")
	payment := newOpenPayment(t, repo, booking.ID, enums.PaymentMethodTypeVisaMastercard)

	linkID := "plink_abc"
	won, err := repo.ActivateLink(ctx, payment.ID, &linkID, nil)
	require.NoError(t, err)
	require.True(t, won)

	// Matches the stored link id before any transaction id exists.
	found, err := repo.GetPaymentByExternalTxID(ctx, "plink_abc")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, payment.ID, found.ID)

	missing, err := repo.GetPaymentByExternalTxID(ctx, "tx_unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListStaleOpenLinks(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	booking := newBooking(t, db, "1000.00", "0")

	stale := newOpenPayment(t, repo, booking.ID, enums.PaymentMethodTypeVisaMastercard)
	newOpenPayment(t, repo, booking.ID, enums.PaymentMethodTypeBankTransfer)
	manual := newOpenPayment(t, repo, booking.ID, enums.PaymentMethodTypeCash)

	oldTime := time.Now().UTC().Add(-100 * time.Hour)
	require.NoError(t, db.Model(&models.Payment{}).
		Where("id IN ?", []uuid.UUID{stale.ID, manual.ID}).
		UpdateColumn("created_at", oldTime).Error)
	require.NoError(t, db.Model(&models.Payment{}).
		Where("id = ?", manual.ID).
		UpdateColumn("manual", true).Error)

	candidates, err := repo.ListStaleOpenLinks(ctx, time.Now().UTC().Add(-72*time.Hour))
	require.NoError(t, err)
	require.Len(t, candidates, 1, "fresh and manual records stay out of the sweep")
	assert.Equal(t, stale.ID, candidates[0].ID)
}

func TestMarkExpiredWinsExactlyOnce(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	booking := newBooking(t, db, "1000.00", "0")
	payment := newOpenPayment(t, repo, booking.ID, enums.PaymentMethodTypeVisaMastercard)

	won, err := repo.MarkExpired(ctx, payment.ID)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.MarkExpired(ctx, payment.ID)
	require.NoError(t, err)
	assert.False(t, won)

	stored, err := repo.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.LinkStatusExpired, stored.LinkStatus)

	// A paid record never moves to expired.
	paid := newOpenPayment(t, repo, booking.ID, enums.PaymentMethodTypeBankTransfer)
	won, err = repo.MarkPaid(ctx, paid.ID, nil, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, won)

	won, err = repo.MarkExpired(ctx, paid.ID)
	require.NoError(t, err)
	assert.False(t, won)

	storedPaid, err := repo.GetPayment(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.LinkStatusPaid, storedPaid.LinkStatus)
}

func TestReduceFineUnpaid(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	booking := newBooking(t, db, "1000.00", "0")

	fine := &models.Fine{
		ID:           uuid.New(),
		BookingID:    booking.ID,
		Description:  "Speeding ticket",
		Amount:       decimal.RequireFromString("120.00"),
		UnpaidAmount: decimal.RequireFromString("120.00"),
		Currency:     enums.CurrencyEUR,
	}
	require.NoError(t, db.Create(fine).Error)

	require.NoError(t, repo.ReduceFineUnpaid(ctx, fine.ID, decimal.RequireFromString("50.00")))

	stored, err := repo.GetFine(ctx, fine.ID)
	require.NoError(t, err)
	assert.True(t, stored.UnpaidAmount.Equal(decimal.RequireFromString("70.00")), "got %s", stored.UnpaidAmount)

	err = repo.ReduceFineUnpaid(ctx, fine.ID, decimal.RequireFromString("100.00"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestListEnabledMethodTypes(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for methodType, enabled := range map[enums.PaymentMethodType]bool{
		enums.PaymentMethodTypeVisaMastercard: true,
		enums.PaymentMethodTypeBankTransfer:   true,
		enums.PaymentMethodTypeCash:           false,
	} {
		require.NoError(t, db.Create(&models.PaymentMethodConfig{
			MethodType: methodType,
			Enabled:    enabled,
		}).Error)
	}

	enabled, err := repo.ListEnabledMethodTypes(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []enums.PaymentMethodType{
		enums.PaymentMethodTypeVisaMastercard,
		enums.PaymentMethodTypeBankTransfer,
	}, enabled)
}
