package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	ticketDomain "github.com/gerakkita/service-transit/internal/domain/ticket"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionModel is the GORM model for the transactions table.
type TransactionModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionCode   string    `gorm:"uniqueIndex;not null;size:20"`
	UserID            uuid.UUID `gorm:"type:uuid;index;not null"`
	RouteID           uuid.UUID `gorm:"type:uuid;index;not null"`
	OriginStopID      uuid.UUID `gorm:"type:uuid;not null"`
	DestinationStopID uuid.UUID `gorm:"type:uuid;not null"`
	Amount            int64     `gorm:"not null"`
	Quantity          int       `gorm:"not null;default:1"`
	Currency          string    `gorm:"not null;size:3;default:'IDR'"`
	PaymentMethod     string    `gorm:"not null;size:30"`
	PaymentStatus     string    `gorm:"not null;size:20;index"`
	GatewayOrderID    string    `gorm:"uniqueIndex;not null;size:40"`
	GatewayRefID      string    `gorm:"size:64"`
	PurchaseDate      time.Time `gorm:"not null"`
	Version           int64     `gorm:"not null;default:1"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (TransactionModel) TableName() string {
	return "transactions"
}

// GormTransactionRepository is the GORM-based implementation of TransactionRepository.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository.
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID retrieves a transaction by its unique identifier.
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*ticketDomain.Transaction, error) {
	var model TransactionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Transaction", id.String())
		}
		return nil, fmt.Errorf("failed to find transaction by ID: %w", err)
	}
	return toDomainTransaction(&model)
}

// FindByOrderID retrieves a transaction by its payment gateway order ID.
func (r *GormTransactionRepository) FindByOrderID(ctx context.Context, orderID string) (*ticketDomain.Transaction, error) {
	var model TransactionModel
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", orderID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Transaction", orderID)
		}
		return nil, fmt.Errorf("failed to find transaction by order ID: %w", err)
	}
	return toDomainTransaction(&model)
}

// FindByUserID retrieves a user's transactions with pagination.
func (r *GormTransactionRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*ticketDomain.Transaction, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&TransactionModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count user transactions: %w", err)
	}

	var models []TransactionModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find user transactions: %w", err)
	}

	txs := make([]*ticketDomain.Transaction, len(models))
	for i, m := range models {
		t, err := toDomainTransaction(&m)
		if err != nil {
			return nil, 0, err
		}
		txs[i] = t
	}
	return txs, total, nil
}

// Save persists a new transaction.
func (r *GormTransactionRepository) Save(ctx context.Context, t *ticketDomain.Transaction) error {
	model := toTransactionModel(t)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

// Update persists changes to an existing transaction with optimistic locking.
func (r *GormTransactionRepository) Update(ctx context.Context, t *ticketDomain.Transaction) error {
	model := toTransactionModel(t)

	// Optimistic locking: only update if the version matches (current version - 1 since IncrementVersion was called)
	expectedVersion := t.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&TransactionModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentStatus,
			"gateway_ref_id": model.GatewayRefID,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewConflictError("transaction was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toTransactionModel(t *ticketDomain.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:                t.ID(),
		TransactionCode:   t.TransactionCode(),
		UserID:            t.UserID(),
		RouteID:           t.RouteID(),
		OriginStopID:      t.OriginStopID(),
		DestinationStopID: t.DestinationStopID(),
		Amount:            t.Amount(),
		Quantity:          t.Quantity(),
		Currency:          t.Currency(),
		PaymentMethod:     t.PaymentMethod(),
		PaymentStatus:     string(t.PaymentStatus()),
		GatewayOrderID:    t.GatewayOrderID(),
		GatewayRefID:      t.GatewayRefID(),
		PurchaseDate:      t.PurchaseDate(),
		Version:           t.Version(),
		CreatedAt:         t.CreatedAt(),
		UpdatedAt:         t.UpdatedAt(),
	}
}

func toDomainTransaction(m *TransactionModel) (*ticketDomain.Transaction, error) {
	status, err := ticketDomain.ParsePaymentStatus(m.PaymentStatus)
	if err != nil {
		return nil, err
	}

	return ticketDomain.ReconstructTransaction(
		m.ID,
		m.TransactionCode,
		m.UserID,
		m.RouteID,
		m.OriginStopID,
		m.DestinationStopID,
		m.Amount,
		m.Quantity,
		m.Currency,
		m.PaymentMethod,
		status,
		m.GatewayOrderID,
		m.GatewayRefID,
		m.PurchaseDate,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
