package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	walletDomain "github.com/gerakkita/service-transit/internal/domain/wallet"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WalletModel is the GORM model for the wallets table.
type WalletModel struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Balance     int64     `gorm:"not null;default:0"`
	Currency    string    `gorm:"not null;size:3;default:'IDR'"`
	LastUpdated time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (WalletModel) TableName() string {
	return "wallets"
}

// WalletEntryModel is the GORM model for the wallet_transactions table.
type WalletEntryModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	WalletUserID     uuid.UUID `gorm:"type:uuid;index;not null"`
	Amount           int64     `gorm:"not null"`
	Type             string    `gorm:"not null;size:20"`
	Status           string    `gorm:"not null;size:20;index"`
	Description      string    `gorm:"size:255"`
	PaymentReference string    `gorm:"index;size:40"`
	CreatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (WalletEntryModel) TableName() string {
	return "wallet_transactions"
}

// GormWalletRepository is the GORM-based implementation of WalletRepository.
type GormWalletRepository struct {
	db *gorm.DB
}

// NewGormWalletRepository creates a new GormWalletRepository.
func NewGormWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// FindByUserID retrieves a wallet, or a not-found error if none exists.
func (r *GormWalletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*walletDomain.Wallet, error) {
	var model WalletModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Wallet", userID.String())
		}
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}
	return walletDomain.ReconstructWallet(model.UserID, model.Balance, model.Currency, model.LastUpdated), nil
}

// Save persists a new wallet.
func (r *GormWalletRepository) Save(ctx context.Context, w *walletDomain.Wallet) error {
	model := &WalletModel{
		UserID:      w.UserID(),
		Balance:     w.Balance(),
		Currency:    w.Currency(),
		LastUpdated: w.LastUpdated(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	return nil
}

// UpdateBalance persists a balance change.
func (r *GormWalletRepository) UpdateBalance(ctx context.Context, w *walletDomain.Wallet) error {
	result := r.db.WithContext(ctx).
		Model(&WalletModel{}).
		Where("user_id = ?", w.UserID()).
		Updates(map[string]interface{}{
			"balance":      w.Balance(),
			"last_updated": w.LastUpdated(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Wallet", w.UserID().String())
	}
	return nil
}

// SaveEntry appends a ledger entry.
func (r *GormWalletRepository) SaveEntry(ctx context.Context, e *walletDomain.Entry) error {
	model := toWalletEntryModel(e)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save wallet entry: %w", err)
	}
	return nil
}

// FindEntryByReference retrieves a ledger entry by payment reference and status.
func (r *GormWalletRepository) FindEntryByReference(ctx context.Context, reference string, status walletDomain.EntryStatus) (*walletDomain.Entry, error) {
	var model WalletEntryModel
	if err := r.db.WithContext(ctx).
		Where("payment_reference = ? AND status = ?", reference, string(status)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("WalletEntry", reference)
		}
		return nil, fmt.Errorf("failed to find wallet entry by reference: %w", err)
	}
	entry := toDomainWalletEntry(&model)
	return &entry, nil
}

// UpdateEntryStatus transitions a ledger entry's status.
func (r *GormWalletRepository) UpdateEntryStatus(ctx context.Context, entryID uuid.UUID, status walletDomain.EntryStatus) error {
	result := r.db.WithContext(ctx).
		Model(&WalletEntryModel{}).
		Where("id = ?", entryID).
		Update("status", string(status))
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet entry status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("WalletEntry", entryID.String())
	}
	return nil
}

// History retrieves a user's ledger entries, newest first.
func (r *GormWalletRepository) History(ctx context.Context, userID uuid.UUID, page, limit int) ([]walletDomain.Entry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&WalletEntryModel{}).
		Where("wallet_user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count wallet entries: %w", err)
	}

	var models []WalletEntryModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("wallet_user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find wallet entries: %w", err)
	}

	entries := make([]walletDomain.Entry, len(models))
	for i, m := range models {
		entries[i] = toDomainWalletEntry(&m)
	}
	return entries, total, nil
}

// SettleTopUp atomically marks the pending entry successful and credits the
// wallet in one database transaction.
func (r *GormWalletRepository) SettleTopUp(ctx context.Context, userID uuid.UUID, entryID uuid.UUID, amount int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&WalletEntryModel{}).
			Where("id = ? AND status = ?", entryID, string(walletDomain.EntryPending)).
			Update("status", string(walletDomain.EntrySuccess))
		if result.Error != nil {
			return fmt.Errorf("failed to settle top-up entry: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Already settled or unknown; nothing to credit.
			return shared.NewConflictError("top-up entry is not pending")
		}

		result = tx.Model(&WalletModel{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"balance":      gorm.Expr("balance + ?", amount),
				"last_updated": time.Now().UTC(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to credit wallet: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("Wallet", userID.String())
		}
		return nil
	})
}

// Pay atomically appends a payment entry and debits the wallet in one
// database transaction, refusing overdrafts.
func (r *GormWalletRepository) Pay(ctx context.Context, userID uuid.UUID, amount int64, reference string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&WalletModel{}).
			Where("user_id = ? AND balance >= ?", userID, amount).
			Updates(map[string]interface{}{
				"balance":      gorm.Expr("balance - ?", amount),
				"last_updated": time.Now().UTC(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to debit wallet: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.NewConflictError("insufficient wallet balance")
		}

		entry, err := walletDomain.NewPaymentEntry(userID, amount, reference)
		if err != nil {
			return err
		}
		if err := tx.Create(toWalletEntryModel(entry)).Error; err != nil {
			return fmt.Errorf("failed to save payment entry: %w", err)
		}
		return nil
	})
}

// --- Conversion Helpers ---

func toWalletEntryModel(e *walletDomain.Entry) *WalletEntryModel {
	return &WalletEntryModel{
		ID:               e.ID,
		WalletUserID:     e.WalletUserID,
		Amount:           e.Amount,
		Type:             string(e.Type),
		Status:           string(e.Status),
		Description:      e.Description,
		PaymentReference: e.PaymentReference,
		CreatedAt:        e.CreatedAt,
	}
}

func toDomainWalletEntry(m *WalletEntryModel) walletDomain.Entry {
	return walletDomain.Entry{
		ID:               m.ID,
		WalletUserID:     m.WalletUserID,
		Amount:           m.Amount,
		Type:             walletDomain.EntryType(m.Type),
		Status:           walletDomain.EntryStatus(m.Status),
		Description:      m.Description,
		PaymentReference: m.PaymentReference,
		CreatedAt:        m.CreatedAt,
	}
}
