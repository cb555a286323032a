package ticket

import (
	"regexp"
	"testing"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(t *testing.T) *Transaction {
	t.Helper()
	txn, err := NewTransaction(uuid.New(), uuid.New(), uuid.New(), uuid.New(), 5500, 2, "midtrans")
	require.NoError(t, err)
	return txn
}

func TestNewTransaction_CodeFormat(t *testing.T) {
	txn := newTestTransaction(t)

	assert.Regexp(t, regexp.MustCompile(`^TXN-[A-HJ-NP-Z2-9]{8}$`), txn.TransactionCode())
	assert.Equal(t, txn.TransactionCode(), txn.GatewayOrderID(), "the code doubles as the gateway order ID")
}

func TestNewTransaction_Defaults(t *testing.T) {
	txn := newTestTransaction(t)

	assert.Equal(t, PaymentPending, txn.PaymentStatus())
	assert.Equal(t, shared.CurrencyIDR, txn.Currency())
	assert.Equal(t, 2, txn.Quantity())
	assert.Equal(t, int64(1), txn.Version())
	assert.Empty(t, txn.GatewayRefID())
}

func TestNewTransaction_Validation(t *testing.T) {
	origin := uuid.New()

	_, err := NewTransaction(uuid.Nil, uuid.New(), uuid.New(), uuid.New(), 5500, 1, "midtrans")
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	_, err = NewTransaction(uuid.New(), uuid.New(), origin, origin, 5500, 1, "midtrans")
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	_, err = NewTransaction(uuid.New(), uuid.New(), uuid.New(), uuid.New(), 0, 1, "midtrans")
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	_, err = NewTransaction(uuid.New(), uuid.New(), uuid.New(), uuid.New(), 5500, 1, "")
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestTransaction_CompleteRecordsGatewayRef(t *testing.T) {
	txn := newTestTransaction(t)

	require.NoError(t, txn.Complete("mt-ref-001"))

	assert.Equal(t, PaymentCompleted, txn.PaymentStatus())
	assert.Equal(t, "mt-ref-001", txn.GatewayRefID())
}

func TestTransaction_StatusStateMachine(t *testing.T) {
	txn := newTestTransaction(t)
	require.NoError(t, txn.Fail())

	// Failed is terminal.
	assert.Equal(t, shared.KindInvalidState, shared.KindOf(txn.Complete("late-ref")))
	assert.Equal(t, shared.KindInvalidState, shared.KindOf(txn.Expire()))
	assert.True(t, txn.PaymentStatus().IsTerminal())

	// Refund is only reachable from completed.
	txn2 := newTestTransaction(t)
	assert.Equal(t, shared.KindInvalidState, shared.KindOf(txn2.Refund()))
	require.NoError(t, txn2.Complete("mt-ref-002"))
	require.NoError(t, txn2.Refund())
	assert.Equal(t, PaymentRefunded, txn2.PaymentStatus())
}

func TestStandardFareStrategy_Calculate(t *testing.T) {
	strategy := NewStandardFareStrategy()

	tests := []struct {
		name   string
		params FareParams
		want   int64
	}{
		{
			name:   "base fare only",
			params: FareParams{DistanceKm: 0, StopCount: 1, Quantity: 1},
			want:   3000,
		},
		{
			name:   "distance component",
			params: FareParams{DistanceKm: 4, StopCount: 5, Quantity: 1},
			want:   3000 + 4*500,
		},
		{
			name:   "long route surcharge",
			params: FareParams{DistanceKm: 12, StopCount: 11, Quantity: 1},
			want:   3000 + 12*500 + 1000,
		},
		{
			name:   "exactly ten stops has no surcharge",
			params: FareParams{DistanceKm: 8, StopCount: 10, Quantity: 1},
			want:   3000 + 8*500,
		},
		{
			name:   "quantity multiplies the per-ticket fare",
			params: FareParams{DistanceKm: 4, StopCount: 5, Quantity: 3},
			want:   (3000 + 4*500) * 3,
		},
		{
			name:   "zero quantity falls back to one",
			params: FareParams{DistanceKm: 2, StopCount: 3, Quantity: 0},
			want:   3000 + 2*500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := strategy.Calculate(tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStandardFareStrategy_RejectsNegativeDistance(t *testing.T) {
	strategy := NewStandardFareStrategy()
	_, err := strategy.Calculate(FareParams{DistanceKm: -1})
	assert.Error(t, err)
}

func TestNewTicket_StartsPendingActivation(t *testing.T) {
	tk, err := NewTicket(uuid.New(), "TXN-ABCD2345")
	require.NoError(t, err)

	assert.Equal(t, TicketPending, tk.Status())
	assert.Regexp(t, regexp.MustCompile(`^TKT-\d{4}$`), tk.TicketCode())
	assert.Contains(t, tk.QRData(), "TXN-ABCD2345")
	assert.WithinDuration(t, time.Now().UTC().Add(ValidityWindow), tk.ValidUntil(), time.Minute)
}

func TestTicket_ActivateIsIdempotent(t *testing.T) {
	tk, err := NewTicket(uuid.New(), "TXN-ABCD2345")
	require.NoError(t, err)

	tk.Activate()
	tk.Activate()

	assert.Equal(t, TicketActive, tk.Status())
}

func TestTicket_ActivateDoesNotResurrectCancelled(t *testing.T) {
	tk, err := NewTicket(uuid.New(), "TXN-ABCD2345")
	require.NoError(t, err)

	tk.Cancel()
	tk.Activate()

	assert.Equal(t, TicketCancelled, tk.Status(), "a cancelled ticket must stay cancelled")
}

func TestTicket_MarkUsed(t *testing.T) {
	tk, err := NewTicket(uuid.New(), "TXN-ABCD2345")
	require.NoError(t, err)
	tk.Activate()

	at := time.Now().UTC()
	require.NoError(t, tk.MarkUsed(at))

	assert.Equal(t, TicketUsed, tk.Status())
	require.NotNil(t, tk.UsedAt())
	assert.Equal(t, at, *tk.UsedAt())

	// A second scan is rejected.
	err = tk.MarkUsed(at.Add(time.Minute))
	assert.Equal(t, shared.KindInvalidState, shared.KindOf(err))
}

func TestTicket_MarkUsedAfterExpiry(t *testing.T) {
	tk, err := NewTicket(uuid.New(), "TXN-ABCD2345")
	require.NoError(t, err)
	tk.Activate()

	err = tk.MarkUsed(tk.ValidUntil().Add(time.Second))

	assert.Equal(t, shared.KindInvalidState, shared.KindOf(err))
	assert.Equal(t, TicketExpired, tk.Status(), "a late scan persists the expiry")
	assert.Nil(t, tk.UsedAt())
}

func TestTicket_MarkUsedRequiresActivation(t *testing.T) {
	tk, err := NewTicket(uuid.New(), "TXN-ABCD2345")
	require.NoError(t, err)

	err = tk.MarkUsed(time.Now().UTC())
	assert.Equal(t, shared.KindInvalidState, shared.KindOf(err))
}
