package wallet

import (
	"context"

	"github.com/google/uuid"
)

// WalletRepository defines the persistence contract for wallets and their ledger.
type WalletRepository interface {
	// FindByUserID retrieves a wallet, or a not-found error if none exists.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)

	// Save persists a new wallet.
	Save(ctx context.Context, w *Wallet) error

	// UpdateBalance persists a balance change.
	UpdateBalance(ctx context.Context, w *Wallet) error

	// SaveEntry appends a ledger entry.
	SaveEntry(ctx context.Context, e *Entry) error

	// FindEntryByReference retrieves a ledger entry by payment reference and status.
	FindEntryByReference(ctx context.Context, reference string, status EntryStatus) (*Entry, error)

	// UpdateEntryStatus transitions a ledger entry's status.
	UpdateEntryStatus(ctx context.Context, entryID uuid.UUID, status EntryStatus) error

	// History retrieves a user's ledger entries, newest first.
	History(ctx context.Context, userID uuid.UUID, page, limit int) ([]Entry, int64, error)

	// SettleTopUp atomically marks the pending entry successful and credits
	// the wallet in one database transaction.
	SettleTopUp(ctx context.Context, userID uuid.UUID, entryID uuid.UUID, amount int64) error

	// Pay atomically appends a payment entry and debits the wallet in one
	// database transaction, refusing overdrafts.
	Pay(ctx context.Context, userID uuid.UUID, amount int64, reference string) error
}
