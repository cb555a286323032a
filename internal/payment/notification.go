package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"github.com/gerakkita/service-transit/internal/domain/shared"
)

// Notification is the server-to-server webhook payload Midtrans posts when a
// transaction changes state. Amounts arrive as strings, e.g. "15000.00".
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
}

// Outcome is the settlement decision derived from a notification.
type Outcome string

const (
	OutcomeSettled  Outcome = "settled"
	OutcomePending  Outcome = "pending"
	OutcomeFailed   Outcome = "failed"
	OutcomeExpired  Outcome = "expired"
	OutcomeRefunded Outcome = "refunded"
	OutcomeUnknown  Outcome = "unknown"
)

// VerifySignature checks the notification against the merchant server key.
// Midtrans signs SHA-512(order_id + status_code + gross_amount + server_key).
func (n Notification) VerifySignature(serverKey string) error {
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	expected := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) != 1 {
		return shared.NewForbiddenError("notification signature mismatch")
	}
	return nil
}

// Outcome maps the gateway's transaction_status to a settlement decision.
// A capture is only settled when fraud screening accepted it.
func (n Notification) Outcome() Outcome {
	switch n.TransactionStatus {
	case "settlement":
		return OutcomeSettled
	case "capture":
		if n.FraudStatus == "challenge" {
			return OutcomePending
		}
		return OutcomeSettled
	case "pending":
		return OutcomePending
	case "deny", "cancel", "failure":
		return OutcomeFailed
	case "expire":
		return OutcomeExpired
	case "refund", "partial_refund", "chargeback":
		return OutcomeRefunded
	default:
		return OutcomeUnknown
	}
}
