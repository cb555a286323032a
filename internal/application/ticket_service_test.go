package application

import (
	"context"
	"testing"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	ticketDomain "github.com/gerakkita/service-transit/internal/domain/ticket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memTransactionRepo keeps transactions in memory, keyed by order ID.
type memTransactionRepo struct {
	byOrder map[string]*ticketDomain.Transaction
	updates int
}

func newMemTransactionRepo(txs ...*ticketDomain.Transaction) *memTransactionRepo {
	r := &memTransactionRepo{byOrder: make(map[string]*ticketDomain.Transaction)}
	for _, tx := range txs {
		r.byOrder[tx.GatewayOrderID()] = tx
	}
	return r
}

func (r *memTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*ticketDomain.Transaction, error) {
	for _, tx := range r.byOrder {
		if tx.ID() == id {
			return tx, nil
		}
	}
	return nil, shared.NewNotFoundError("transaction", id.String())
}

func (r *memTransactionRepo) FindByOrderID(ctx context.Context, orderID string) (*ticketDomain.Transaction, error) {
	tx, ok := r.byOrder[orderID]
	if !ok {
		return nil, shared.NewNotFoundError("transaction", orderID)
	}
	return tx, nil
}

func (r *memTransactionRepo) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*ticketDomain.Transaction, int64, error) {
	return nil, 0, nil
}

func (r *memTransactionRepo) Save(ctx context.Context, t *ticketDomain.Transaction) error {
	r.byOrder[t.GatewayOrderID()] = t
	return nil
}

func (r *memTransactionRepo) Update(ctx context.Context, t *ticketDomain.Transaction) error {
	r.updates++
	r.byOrder[t.GatewayOrderID()] = t
	return nil
}

// memTicketRepo keeps tickets in memory, keyed by transaction.
type memTicketRepo struct {
	byTx    map[uuid.UUID][]*ticketDomain.Ticket
	updates int
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{byTx: make(map[uuid.UUID][]*ticketDomain.Ticket)}
}

func (r *memTicketRepo) FindByID(ctx context.Context, id uuid.UUID) (*ticketDomain.Ticket, error) {
	for _, tks := range r.byTx {
		for _, tk := range tks {
			if tk.ID() == id {
				return tk, nil
			}
		}
	}
	return nil, shared.NewNotFoundError("ticket", id.String())
}

func (r *memTicketRepo) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*ticketDomain.Ticket, error) {
	return r.byTx[transactionID], nil
}

func (r *memTicketRepo) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*ticketDomain.Ticket, error) {
	return nil, nil
}

func (r *memTicketRepo) Save(ctx context.Context, tk *ticketDomain.Ticket) error {
	r.byTx[tk.TransactionID()] = append(r.byTx[tk.TransactionID()], tk)
	return nil
}

func (r *memTicketRepo) Update(ctx context.Context, tk *ticketDomain.Ticket) error {
	r.updates++
	return nil
}

func completedTransaction(t *testing.T, tickets *memTicketRepo, quantity int) *ticketDomain.Transaction {
	t.Helper()

	tx, err := ticketDomain.NewTransaction(uuid.New(), uuid.New(), uuid.New(), uuid.New(), 10000, quantity, PaymentMethodGateway)
	require.NoError(t, err)

	for i := 0; i < quantity; i++ {
		tk, err := ticketDomain.NewTicket(tx.ID(), tx.GatewayOrderID())
		require.NoError(t, err)
		tk.Activate()
		require.NoError(t, tickets.Save(context.Background(), tk))
	}

	require.NoError(t, tx.Complete("mid-ref-001"))
	return tx
}

func newSettlementService(transactions *memTransactionRepo, tickets *memTicketRepo) *TicketService {
	return &TicketService{
		transactions: transactions,
		tickets:      tickets,
		logger:       zap.NewNop(),
	}
}

func TestApplyPaymentStatus_RefundVoidsTickets(t *testing.T) {
	tickets := newMemTicketRepo()
	transactions := newMemTransactionRepo()
	tx := completedTransaction(t, tickets, 2)
	require.NoError(t, transactions.Save(context.Background(), tx))

	svc := newSettlementService(transactions, tickets)

	err := svc.ApplyPaymentStatus(context.Background(), tx.GatewayOrderID(), "mid-ref-001", "refunded")
	require.NoError(t, err)

	assert.Equal(t, ticketDomain.PaymentRefunded, tx.PaymentStatus())
	for _, tk := range tickets.byTx[tx.ID()] {
		assert.Equal(t, ticketDomain.TicketCancelled, tk.Status())
	}
}

func TestApplyPaymentStatus_RefundReplayIsNoop(t *testing.T) {
	tickets := newMemTicketRepo()
	transactions := newMemTransactionRepo()
	tx := completedTransaction(t, tickets, 1)
	require.NoError(t, transactions.Save(context.Background(), tx))

	svc := newSettlementService(transactions, tickets)

	require.NoError(t, svc.ApplyPaymentStatus(context.Background(), tx.GatewayOrderID(), "mid-ref-001", "refunded"))
	updatesAfterFirst := transactions.updates

	require.NoError(t, svc.ApplyPaymentStatus(context.Background(), tx.GatewayOrderID(), "mid-ref-001", "refunded"))
	assert.Equal(t, updatesAfterFirst, transactions.updates, "a replay must not write again")
}

func TestApplyPaymentStatus_RefundRequiresCompletedPayment(t *testing.T) {
	tickets := newMemTicketRepo()
	tx, err := ticketDomain.NewTransaction(uuid.New(), uuid.New(), uuid.New(), uuid.New(), 10000, 1, PaymentMethodGateway)
	require.NoError(t, err)
	transactions := newMemTransactionRepo(tx)

	svc := newSettlementService(transactions, tickets)

	err = svc.ApplyPaymentStatus(context.Background(), tx.GatewayOrderID(), "mid-ref-001", "refunded")
	assert.Equal(t, shared.KindInvalidState, shared.KindOf(err))
}

func TestApplyPaymentStatus_ExpiryCancelsPendingTickets(t *testing.T) {
	tickets := newMemTicketRepo()
	tx, err := ticketDomain.NewTransaction(uuid.New(), uuid.New(), uuid.New(), uuid.New(), 10000, 2, PaymentMethodGateway)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		tk, terr := ticketDomain.NewTicket(tx.ID(), tx.GatewayOrderID())
		require.NoError(t, terr)
		require.NoError(t, tickets.Save(context.Background(), tk))
	}
	transactions := newMemTransactionRepo(tx)

	svc := newSettlementService(transactions, tickets)

	require.NoError(t, svc.ApplyPaymentStatus(context.Background(), tx.GatewayOrderID(), "", "expired"))

	assert.Equal(t, ticketDomain.PaymentExpired, tx.PaymentStatus())
	for _, tk := range tickets.byTx[tx.ID()] {
		assert.Equal(t, ticketDomain.TicketCancelled, tk.Status())
	}
}
