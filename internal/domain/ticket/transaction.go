package ticket

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/google/uuid"
)

const transactionCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Transaction is the aggregate root for a ticket purchase.
type Transaction struct {
	id                uuid.UUID
	transactionCode   string
	userID            uuid.UUID
	routeID           uuid.UUID
	originStopID      uuid.UUID
	destinationStopID uuid.UUID
	amount            int64
	quantity          int
	currency          string
	paymentMethod     string
	paymentStatus     PaymentStatus
	gatewayOrderID    string
	gatewayRefID      string
	purchaseDate      time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateTransactionCode creates a code in the format "TXN-XXXXXXXX".
func generateTransactionCode() (string, error) {
	result := make([]byte, 8)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(transactionCodeChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate transaction code: %w", err)
		}
		result[i] = transactionCodeChars[n.Int64()]
	}
	return "TXN-" + string(result), nil
}

// NewTransaction creates a new pending Transaction. The transaction code also
// serves as the payment gateway order ID.
func NewTransaction(
	userID, routeID, originStopID, destinationStopID uuid.UUID,
	amount int64,
	quantity int,
	paymentMethod string,
) (*Transaction, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("user ID is required")
	}
	if routeID == uuid.Nil {
		return nil, shared.NewValidationError("route ID is required")
	}
	if originStopID == uuid.Nil || destinationStopID == uuid.Nil {
		return nil, shared.NewValidationError("origin and destination stops are required")
	}
	if originStopID == destinationStopID {
		return nil, shared.NewValidationError("origin and destination must differ")
	}
	if amount <= 0 {
		return nil, shared.NewValidationError("amount must be positive")
	}
	if quantity <= 0 {
		quantity = 1
	}
	if paymentMethod == "" {
		return nil, shared.NewValidationError("payment method is required")
	}

	code, err := generateTransactionCode()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Transaction{
		id:                uuid.New(),
		transactionCode:   code,
		userID:            userID,
		routeID:           routeID,
		originStopID:      originStopID,
		destinationStopID: destinationStopID,
		amount:            amount,
		quantity:          quantity,
		currency:          shared.CurrencyIDR,
		paymentMethod:     paymentMethod,
		paymentStatus:     PaymentPending,
		gatewayOrderID:    code,
		purchaseDate:      now,
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructTransaction rebuilds a Transaction from persistence data (no validation).
func ReconstructTransaction(
	id uuid.UUID,
	transactionCode string,
	userID, routeID, originStopID, destinationStopID uuid.UUID,
	amount int64,
	quantity int,
	currency string,
	paymentMethod string,
	paymentStatus PaymentStatus,
	gatewayOrderID, gatewayRefID string,
	purchaseDate time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Transaction {
	return &Transaction{
		id:                id,
		transactionCode:   transactionCode,
		userID:            userID,
		routeID:           routeID,
		originStopID:      originStopID,
		destinationStopID: destinationStopID,
		amount:            amount,
		quantity:          quantity,
		currency:          currency,
		paymentMethod:     paymentMethod,
		paymentStatus:     paymentStatus,
		gatewayOrderID:    gatewayOrderID,
		gatewayRefID:      gatewayRefID,
		purchaseDate:      purchaseDate,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// --- Getters ---

// ID returns the transaction's unique identifier.
func (t *Transaction) ID() uuid.UUID { return t.id }

// TransactionCode returns the human-readable transaction code.
func (t *Transaction) TransactionCode() string { return t.transactionCode }

// UserID returns the purchasing customer's ID.
func (t *Transaction) UserID() uuid.UUID { return t.userID }

// RouteID returns the route the tickets are valid for.
func (t *Transaction) RouteID() uuid.UUID { return t.routeID }

// OriginStopID returns the boarding stop.
func (t *Transaction) OriginStopID() uuid.UUID { return t.originStopID }

// DestinationStopID returns the alighting stop.
func (t *Transaction) DestinationStopID() uuid.UUID { return t.destinationStopID }

// Amount returns the gross amount in the smallest currency unit.
func (t *Transaction) Amount() int64 { return t.amount }

// Quantity returns the number of tickets purchased.
func (t *Transaction) Quantity() int { return t.quantity }

// Currency returns the currency code.
func (t *Transaction) Currency() string { return t.currency }

// PaymentMethod returns the customer-selected payment channel.
func (t *Transaction) PaymentMethod() string { return t.paymentMethod }

// PaymentStatus returns the current payment status.
func (t *Transaction) PaymentStatus() PaymentStatus { return t.paymentStatus }

// GatewayOrderID returns the order ID sent to the payment gateway.
func (t *Transaction) GatewayOrderID() string { return t.gatewayOrderID }

// GatewayRefID returns the gateway's own transaction reference, if known.
func (t *Transaction) GatewayRefID() string { return t.gatewayRefID }

// PurchaseDate returns the time of purchase.
func (t *Transaction) PurchaseDate() time.Time { return t.purchaseDate }

// Version returns the entity version for optimistic locking.
func (t *Transaction) Version() int64 { return t.version }

// CreatedAt returns the creation timestamp.
func (t *Transaction) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (t *Transaction) UpdatedAt() time.Time { return t.updatedAt }

// --- Behavior ---

// Complete marks the payment as settled, recording the gateway reference.
func (t *Transaction) Complete(gatewayRefID string) error {
	if !t.paymentStatus.CanTransitionTo(PaymentCompleted) {
		return shared.NewInvalidStateError(string(t.paymentStatus), string(PaymentCompleted))
	}
	t.paymentStatus = PaymentCompleted
	t.gatewayRefID = gatewayRefID
	t.updatedAt = time.Now().UTC()
	return nil
}

// Fail marks the payment as denied by the gateway.
func (t *Transaction) Fail() error {
	if !t.paymentStatus.CanTransitionTo(PaymentFailed) {
		return shared.NewInvalidStateError(string(t.paymentStatus), string(PaymentFailed))
	}
	t.paymentStatus = PaymentFailed
	t.updatedAt = time.Now().UTC()
	return nil
}

// Expire marks the payment window as elapsed without settlement.
func (t *Transaction) Expire() error {
	if !t.paymentStatus.CanTransitionTo(PaymentExpired) {
		return shared.NewInvalidStateError(string(t.paymentStatus), string(PaymentExpired))
	}
	t.paymentStatus = PaymentExpired
	t.updatedAt = time.Now().UTC()
	return nil
}

// Refund marks a completed payment as refunded.
func (t *Transaction) Refund() error {
	if !t.paymentStatus.CanTransitionTo(PaymentRefunded) {
		return shared.NewInvalidStateError(string(t.paymentStatus), string(PaymentRefunded))
	}
	t.paymentStatus = PaymentRefunded
	t.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (t *Transaction) IncrementVersion() {
	t.version++
	t.updatedAt = time.Now().UTC()
}
