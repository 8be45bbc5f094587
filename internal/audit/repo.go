package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentiva/rentiva-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages persistence for audit log entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditLogEntry) error
	ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.AuditLogEntry, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.AuditLogEntry, error) {
	var entries []models.AuditLogEntry
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
