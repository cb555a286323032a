package payment

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServerKey = "SB-Mid-server-testkey"

func signedNotification(status string) Notification {
	n := Notification{
		OrderID:           "TXN-ABCD2345",
		StatusCode:        "200",
		GrossAmount:       "15000.00",
		TransactionID:     "mt-ref-001",
		TransactionStatus: status,
	}
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + testServerKey))
	n.SignatureKey = hex.EncodeToString(sum[:])
	return n
}

func TestVerifySignature_AcceptsValidSignature(t *testing.T) {
	n := signedNotification("settlement")
	require.NoError(t, n.VerifySignature(testServerKey))
}

func TestVerifySignature_RejectsTamperedAmount(t *testing.T) {
	n := signedNotification("settlement")
	n.GrossAmount = "150000.00"

	err := n.VerifySignature(testServerKey)
	assert.Equal(t, shared.KindForbidden, shared.KindOf(err))
}

func TestVerifySignature_RejectsWrongServerKey(t *testing.T) {
	n := signedNotification("settlement")

	err := n.VerifySignature("some-other-key")
	assert.Equal(t, shared.KindForbidden, shared.KindOf(err))
}

func TestVerifySignature_RejectsMissingSignature(t *testing.T) {
	n := signedNotification("settlement")
	n.SignatureKey = ""

	err := n.VerifySignature(testServerKey)
	assert.Equal(t, shared.KindForbidden, shared.KindOf(err))
}

func TestOutcome_Mapping(t *testing.T) {
	tests := []struct {
		status string
		fraud  string
		want   Outcome
	}{
		{status: "settlement", want: OutcomeSettled},
		{status: "capture", fraud: "accept", want: OutcomeSettled},
		{status: "capture", fraud: "challenge", want: OutcomePending},
		{status: "pending", want: OutcomePending},
		{status: "deny", want: OutcomeFailed},
		{status: "cancel", want: OutcomeFailed},
		{status: "failure", want: OutcomeFailed},
		{status: "expire", want: OutcomeExpired},
		{status: "refund", want: OutcomeRefunded},
		{status: "partial_refund", want: OutcomeRefunded},
		{status: "chargeback", want: OutcomeRefunded},
		{status: "authorize", want: OutcomeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.status+"/"+tt.fraud, func(t *testing.T) {
			n := Notification{TransactionStatus: tt.status, FraudStatus: tt.fraud}
			assert.Equal(t, tt.want, n.Outcome())
		})
	}
}
