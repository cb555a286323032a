package events

import (
	"time"

	"github.com/google/uuid"
)

// Topic names shared by producers and consumers of this service.
const (
	TopicTicketEvents  = "ticket.events"
	TopicPaymentEvents = "payment.events"
)

// Event type identifiers, used as the CloudEvent type attribute.
const (
	TicketPurchaseRequested = "ticket.purchase.requested"
	TicketIssued            = "ticket.issued"
	TicketUsed              = "ticket.used"
	PaymentSettled          = "payment.settled"
	PaymentFailed           = "payment.failed"
	PaymentExpired          = "payment.expired"
	PaymentRefunded         = "payment.refunded"
	WalletTopUpSettled      = "wallet.topup.settled"
)

// TicketPurchaseRequestedEvent is published when a customer starts a
// purchase and a payment token has been issued.
type TicketPurchaseRequestedEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	OrderID       string    `json:"order_id"`
	UserID        uuid.UUID `json:"user_id"`
	RouteID       uuid.UUID `json:"route_id"`
	Amount        int64     `json:"amount"`
	Quantity      int       `json:"quantity"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// TicketIssuedEvent is published once payment settles and tickets activate.
type TicketIssuedEvent struct {
	TicketID      uuid.UUID `json:"ticket_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	RouteID       uuid.UUID `json:"route_id"`
	ValidUntil    time.Time `json:"valid_until"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// TicketUsedEvent is published when a ticket is scanned on board.
type TicketUsedEvent struct {
	TicketID   uuid.UUID `json:"ticket_id"`
	UserID     uuid.UUID `json:"user_id"`
	BusID      uuid.UUID `json:"bus_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentStatusEvent is published for every verified gateway notification.
type PaymentStatusEvent struct {
	OrderCode    string    `json:"order_id"`
	GatewayRefID string    `json:"gateway_ref_id"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// WalletTopUpSettledEvent is published when a wallet top-up completes.
type WalletTopUpSettledEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	OrderID    string    `json:"order_id"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}
