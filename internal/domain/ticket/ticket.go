package ticket

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/google/uuid"
)

// ValidityWindow is how long a ticket stays usable after purchase.
const ValidityWindow = 24 * time.Hour

// Ticket is an issued travel document tied to a transaction.
type Ticket struct {
	id            uuid.UUID
	transactionID uuid.UUID
	ticketCode    string
	qrData        string
	status        TicketStatus
	validUntil    time.Time
	usedAt        *time.Time
	createdAt     time.Time
}

// NewTicket issues a ticket for a transaction. Tickets start pending: they
// become active only when the payment settles.
func NewTicket(transactionID uuid.UUID, orderID string) (*Ticket, error) {
	if transactionID == uuid.Nil {
		return nil, shared.NewValidationError("transaction ID is required")
	}

	suffix, err := randomDigits(4)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Ticket{
		id:            uuid.New(),
		transactionID: transactionID,
		ticketCode:    fmt.Sprintf("TKT-%s", suffix),
		qrData:        fmt.Sprintf("QR-%s-%s", orderID, suffix),
		status:        TicketPending,
		validUntil:    now.Add(ValidityWindow),
		createdAt:     now,
	}, nil
}

// ReconstructTicket rebuilds a Ticket from persistence data (no validation).
func ReconstructTicket(
	id, transactionID uuid.UUID,
	ticketCode, qrData string,
	status TicketStatus,
	validUntil time.Time,
	usedAt *time.Time,
	createdAt time.Time,
) *Ticket {
	return &Ticket{
		id:            id,
		transactionID: transactionID,
		ticketCode:    ticketCode,
		qrData:        qrData,
		status:        status,
		validUntil:    validUntil,
		usedAt:        usedAt,
		createdAt:     createdAt,
	}
}

// ID returns the ticket's unique identifier.
func (tk *Ticket) ID() uuid.UUID { return tk.id }

// TransactionID returns the owning transaction.
func (tk *Ticket) TransactionID() uuid.UUID { return tk.transactionID }

// TicketCode returns the human-readable ticket code.
func (tk *Ticket) TicketCode() string { return tk.ticketCode }

// QRData returns the payload encoded in the boarding QR code.
func (tk *Ticket) QRData() string { return tk.qrData }

// Status returns the current ticket status.
func (tk *Ticket) Status() TicketStatus { return tk.status }

// ValidUntil returns the expiry time.
func (tk *Ticket) ValidUntil() time.Time { return tk.validUntil }

// UsedAt returns the time the ticket was scanned, or nil.
func (tk *Ticket) UsedAt() *time.Time { return tk.usedAt }

// CreatedAt returns the issuance timestamp.
func (tk *Ticket) CreatedAt() time.Time { return tk.createdAt }

// Activate makes the ticket usable after payment settlement. Only a pending
// ticket activates; in particular a cancelled ticket stays cancelled.
func (tk *Ticket) Activate() {
	if tk.status != TicketPending {
		return
	}
	tk.status = TicketActive
}

// MarkUsed records a boarding scan.
func (tk *Ticket) MarkUsed(at time.Time) error {
	if tk.status != TicketActive {
		return shared.NewInvalidStateError(string(tk.status), string(TicketUsed))
	}
	if at.After(tk.validUntil) {
		tk.status = TicketExpired
		return shared.NewInvalidStateError(string(TicketActive), string(TicketUsed))
	}
	tk.status = TicketUsed
	tk.usedAt = &at
	return nil
}

// Cancel voids the ticket.
func (tk *Ticket) Cancel() {
	tk.status = TicketCancelled
}

func randomDigits(n int) (string, error) {
	out := make([]byte, n)
	for i := range out {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate ticket code: %w", err)
		}
		out[i] = byte('0' + d.Int64())
	}
	return string(out), nil
}
