package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rentiva/rentiva-backend/pkg/db"
	"github.com/rentiva/rentiva-backend/pkg/db/models"
	"github.com/rentiva/rentiva-backend/pkg/enums"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
)

const openSlotConstraint = "uq_payments_open_slot"

// Repository exposes persistence helpers for payments, bookings, fines and
// the method-type configuration.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	// IncrementBookingPaid moves amount_paid atomically. Never read-modify-write.
	IncrementBookingPaid(ctx context.Context, bookingID uuid.UUID, amount decimal.Decimal) error

	GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetPaymentByExternalTxID(ctx context.Context, externalTxID string) (*models.Payment, error)
	ListOpenPayments(ctx context.Context, bookingID uuid.UUID, intents []enums.PaymentIntent) ([]models.Payment, error)
	// CreatePaymentIfAbsent inserts the payment. A conflict on the open-slot
	// unique index reports created=false without an error; concurrent
	// creators both see "already exists".
	CreatePaymentIfAbsent(ctx context.Context, payment *models.Payment) (created bool, err error)
	// ActivateLink stores the gateway handles on a freshly reserved pending
	// slot and flips it to active.
	ActivateLink(ctx context.Context, id uuid.UUID, externalLinkID, linkURL *string) (won bool, err error)
	// MarkPaid flips an open payment to paid. Reports won=false when another
	// delivery already moved the record to a terminal status.
	MarkPaid(ctx context.Context, id uuid.UUID, externalTxID *string, paidAt time.Time) (won bool, err error)
	MarkFailed(ctx context.Context, id uuid.UUID) (won bool, err error)
	MarkExpired(ctx context.Context, id uuid.UUID) (won bool, err error)
	// ListStaleOpenLinks returns open, non-manual payments created before the
	// cutoff; candidates for the expiry sweep.
	ListStaleOpenLinks(ctx context.Context, olderThan time.Time) ([]models.Payment, error)

	ListEnabledMethodTypes(ctx context.Context) ([]enums.PaymentMethodType, error)

	GetFine(ctx context.Context, id uuid.UUID) (*models.Fine, error)
	ReduceFineUnpaid(ctx context.Context, fineID uuid.UUID, amount decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) IncrementBookingPaid(ctx context.Context, bookingID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "increment amount must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		UpdateColumn("amount_paid", gorm.Expr("amount_paid + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return nil
}

func (r *repository) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) GetPaymentByExternalTxID(ctx context.Context, externalTxID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("external_tx_id = ? OR external_link_id = ?", externalTxID, externalTxID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListOpenPayments(ctx context.Context, bookingID uuid.UUID, intents []enums.PaymentIntent) ([]models.Payment, error) {
	query := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Where("link_status IN ?", enums.OpenLinkStatuses)
	if len(intents) > 0 {
		query = query.Where("intent IN ?", intents)
	}

	var payments []models.Payment
	if err := query.Order("created_at ASC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repository) CreatePaymentIfAbsent(ctx context.Context, payment *models.Payment) (bool, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		if db.IsUniqueViolation(err, openSlotConstraint) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) ActivateLink(ctx context.Context, id uuid.UUID, externalLinkID, linkURL *string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND link_status = ?", id, enums.LinkStatusPending).
		UpdateColumns(map[string]any{
			"link_status":      enums.LinkStatusActive,
			"external_link_id": externalLinkID,
			"link_url":         linkURL,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, externalTxID *string, paidAt time.Time) (bool, error) {
	updates := map[string]any{
		"link_status": enums.LinkStatusPaid,
		"paid_at":     paidAt,
	}
	if externalTxID != nil {
		updates["external_tx_id"] = gorm.Expr("COALESCE(external_tx_id, ?)", *externalTxID)
	}
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND link_status IN ?", id, enums.OpenLinkStatuses).
		UpdateColumns(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND link_status IN ?", id, enums.OpenLinkStatuses).
		UpdateColumn("link_status", enums.LinkStatusFailed)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND link_status IN ?", id, enums.OpenLinkStatuses).
		UpdateColumn("link_status", enums.LinkStatusExpired)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListStaleOpenLinks(ctx context.Context, olderThan time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("link_status IN ? AND manual = ? AND created_at < ?", enums.OpenLinkStatuses, false, olderThan).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repository) ListEnabledMethodTypes(ctx context.Context) ([]enums.PaymentMethodType, error) {
	var configs []models.PaymentMethodConfig
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("method_type ASC").
		Find(&configs).Error; err != nil {
		return nil, err
	}

	methodTypes := make([]enums.PaymentMethodType, 0, len(configs))
	for _, cfg := range configs {
		methodTypes = append(methodTypes, cfg.MethodType)
	}
	return methodTypes, nil
}

func (r *repository) GetFine(ctx context.Context, id uuid.UUID) (*models.Fine, error) {
	var fine models.Fine
	if err := r.db.WithContext(ctx).First(&fine, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fine not found")
		}
		return nil, err
	}
	return &fine, nil
}

func (r *repository) ReduceFineUnpaid(ctx context.Context, fineID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "reduction amount must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.Fine{}).
		Where("id = ? AND unpaid_amount >= ?", fineID, amount).
		UpdateColumn("unpaid_amount", gorm.Expr("unpaid_amount - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "fine unpaid balance is lower than the payment amount")
	}
	return nil
}
