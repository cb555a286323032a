package wallet

import (
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/google/uuid"
)

// EntryType classifies a wallet ledger entry.
type EntryType string

const (
	EntryTopUp   EntryType = "topup"
	EntryPayment EntryType = "payment"
)

// EntryStatus is the settlement state of a ledger entry.
type EntryStatus string

const (
	EntryPending EntryStatus = "pending"
	EntrySuccess EntryStatus = "success"
	EntryFailed  EntryStatus = "failed"
)

// Wallet is the stored-value balance for one user (1:1).
type Wallet struct {
	userID      uuid.UUID
	balance     int64
	currency    string
	lastUpdated time.Time
}

// NewWallet creates an empty wallet for a user.
func NewWallet(userID uuid.UUID) (*Wallet, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("user ID is required")
	}
	return &Wallet{
		userID:      userID,
		balance:     0,
		currency:    shared.CurrencyIDR,
		lastUpdated: time.Now().UTC(),
	}, nil
}

// ReconstructWallet rebuilds a Wallet from persistence data.
func ReconstructWallet(userID uuid.UUID, balance int64, currency string, lastUpdated time.Time) *Wallet {
	return &Wallet{userID: userID, balance: balance, currency: currency, lastUpdated: lastUpdated}
}

// UserID returns the owning user's ID.
func (w *Wallet) UserID() uuid.UUID { return w.userID }

// Balance returns the current balance in the smallest currency unit.
func (w *Wallet) Balance() int64 { return w.balance }

// Currency returns the currency code.
func (w *Wallet) Currency() string { return w.currency }

// LastUpdated returns the time of the last balance change.
func (w *Wallet) LastUpdated() time.Time { return w.lastUpdated }

// Credit adds funds after a settled top-up.
func (w *Wallet) Credit(amount int64) error {
	if amount <= 0 {
		return shared.NewValidationError("credit amount must be positive")
	}
	w.balance += amount
	w.lastUpdated = time.Now().UTC()
	return nil
}

// Debit removes funds for a payment, refusing overdrafts.
func (w *Wallet) Debit(amount int64) error {
	if amount <= 0 {
		return shared.NewValidationError("debit amount must be positive")
	}
	if w.balance < amount {
		return shared.NewConflictError("insufficient wallet balance")
	}
	w.balance -= amount
	w.lastUpdated = time.Now().UTC()
	return nil
}

// Entry is one row of the wallet ledger.
type Entry struct {
	ID               uuid.UUID   `json:"id"`
	WalletUserID     uuid.UUID   `json:"wallet_user_id"`
	Amount           int64       `json:"amount"`
	Type             EntryType   `json:"type"`
	Status           EntryStatus `json:"status"`
	Description      string      `json:"description,omitempty"`
	PaymentReference string      `json:"payment_reference,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

// NewTopUpEntry creates a pending top-up ledger entry tied to a gateway order.
func NewTopUpEntry(userID uuid.UUID, amount int64, orderID string) (*Entry, error) {
	if amount <= 0 {
		return nil, shared.NewValidationError("top-up amount must be positive")
	}
	if orderID == "" {
		return nil, shared.NewValidationError("payment reference is required")
	}
	return &Entry{
		ID:               uuid.New(),
		WalletUserID:     userID,
		Amount:           amount,
		Type:             EntryTopUp,
		Status:           EntryPending,
		Description:      "wallet top-up",
		PaymentReference: orderID,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

// NewPaymentEntry creates a settled payment ledger entry.
func NewPaymentEntry(userID uuid.UUID, amount int64, reference string) (*Entry, error) {
	if amount <= 0 {
		return nil, shared.NewValidationError("payment amount must be positive")
	}
	return &Entry{
		ID:               uuid.New(),
		WalletUserID:     userID,
		Amount:           amount,
		Type:             EntryPayment,
		Status:           EntrySuccess,
		Description:      "ticket payment",
		PaymentReference: reference,
		CreatedAt:        time.Now().UTC(),
	}, nil
}
