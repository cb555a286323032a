package ticket

import (
	"context"

	"github.com/google/uuid"
)

// TransactionRepository defines the persistence contract for purchase transactions.
type TransactionRepository interface {
	// FindByID retrieves a transaction by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByOrderID retrieves a transaction by its payment gateway order ID.
	FindByOrderID(ctx context.Context, orderID string) (*Transaction, error)

	// FindByUserID retrieves a user's transactions with pagination.
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Transaction, int64, error)

	// Save persists a new transaction.
	Save(ctx context.Context, t *Transaction) error

	// Update persists changes to an existing transaction with optimistic locking.
	Update(ctx context.Context, t *Transaction) error
}

// TicketRepository defines the persistence contract for issued tickets.
type TicketRepository interface {
	// FindByID retrieves a ticket by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Ticket, error)

	// FindByTransactionID retrieves all tickets for a transaction.
	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*Ticket, error)

	// FindByUserID retrieves all tickets belonging to a user's transactions.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Ticket, error)

	// Save persists a new ticket.
	Save(ctx context.Context, tk *Ticket) error

	// Update persists changes to an existing ticket.
	Update(ctx context.Context, tk *Ticket) error
}
