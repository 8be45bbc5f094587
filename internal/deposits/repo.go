package deposits

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentiva/rentiva-backend/pkg/db"
	"github.com/rentiva/rentiva-backend/pkg/db/models"
	"github.com/rentiva/rentiva-backend/pkg/enums"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
)

const openSlotConstraint = "uq_deposit_open_slot"

// Repository exposes persistence helpers for security deposit holds. All
// transitions are conditional updates; the WHERE clause is the state machine.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Get(ctx context.Context, id uuid.UUID) (*models.SecurityDepositAuthorization, error)
	GetByExternalAuthID(ctx context.Context, externalAuthID string) (*models.SecurityDepositAuthorization, error)
	ListOpenByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.SecurityDepositAuthorization, error)
	// CreateIfAbsent reserves the open slot. A conflict on the open-slot
	// unique index reports created=false without an error.
	CreateIfAbsent(ctx context.Context, authorization *models.SecurityDepositAuthorization) (created bool, err error)
	// AttachExternalAuth stores the gateway handle on a still-pending hold
	// without moving its status.
	AttachExternalAuth(ctx context.Context, id uuid.UUID, externalAuthID string) (won bool, err error)
	// MarkAuthorized flips pending to authorized, once.
	MarkAuthorized(ctx context.Context, id uuid.UUID, externalAuthID *string, authorizedAt time.Time) (won bool, err error)
	// MarkFailed flips pending to failed. authorized holds cannot fail; they
	// stay authorized until released.
	MarkFailed(ctx context.Context, id uuid.UUID) (won bool, err error)
	// MarkReleased flips authorized to released and stamps released_at, once.
	MarkReleased(ctx context.Context, id uuid.UUID, releasedAt time.Time) (won bool, err error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a deposits repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*models.SecurityDepositAuthorization, error) {
	var authorization models.SecurityDepositAuthorization
	if err := r.db.WithContext(ctx).First(&authorization, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deposit authorization not found")
		}
		return nil, err
	}
	return &authorization, nil
}

func (r *repository) GetByExternalAuthID(ctx context.Context, externalAuthID string) (*models.SecurityDepositAuthorization, error) {
	var authorization models.SecurityDepositAuthorization
	err := r.db.WithContext(ctx).
		Where("external_auth_id = ?", externalAuthID).
		First(&authorization).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &authorization, nil
}

func (r *repository) ListOpenByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.SecurityDepositAuthorization, error) {
	var authorizations []models.SecurityDepositAuthorization
	if err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status IN ?", bookingID, enums.OpenDepositStatuses).
		Order("created_at ASC").
		Find(&authorizations).Error; err != nil {
		return nil, err
	}
	return authorizations, nil
}

func (r *repository) CreateIfAbsent(ctx context.Context, authorization *models.SecurityDepositAuthorization) (bool, error) {
	if err := r.db.WithContext(ctx).Create(authorization).Error; err != nil {
		if db.IsUniqueViolation(err, openSlotConstraint) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) AttachExternalAuth(ctx context.Context, id uuid.UUID, externalAuthID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SecurityDepositAuthorization{}).
		Where("id = ? AND status = ?", id, enums.DepositStatusPending).
		UpdateColumn("external_auth_id", gorm.Expr("COALESCE(external_auth_id, ?)", externalAuthID))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkAuthorized(ctx context.Context, id uuid.UUID, externalAuthID *string, authorizedAt time.Time) (bool, error) {
	updates := map[string]any{
		"status":        enums.DepositStatusAuthorized,
		"authorized_at": authorizedAt,
	}
	if externalAuthID != nil {
		updates["external_auth_id"] = gorm.Expr("COALESCE(external_auth_id, ?)", *externalAuthID)
	}
	result := r.db.WithContext(ctx).
		Model(&models.SecurityDepositAuthorization{}).
		Where("id = ? AND status = ?", id, enums.DepositStatusPending).
		UpdateColumns(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SecurityDepositAuthorization{}).
		Where("id = ? AND status = ?", id, enums.DepositStatusPending).
		UpdateColumn("status", enums.DepositStatusFailed)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkReleased(ctx context.Context, id uuid.UUID, releasedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SecurityDepositAuthorization{}).
		Where("id = ? AND status = ? AND released_at IS NULL", id, enums.DepositStatusAuthorized).
		UpdateColumns(map[string]any{
			"status":      enums.DepositStatusReleased,
			"released_at": releasedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
