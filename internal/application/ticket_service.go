package application

import (
	"context"
	"time"

	routeDomain "github.com/gerakkita/service-transit/internal/domain/route"
	"github.com/gerakkita/service-transit/internal/domain/shared"
	ticketDomain "github.com/gerakkita/service-transit/internal/domain/ticket"
	userDomain "github.com/gerakkita/service-transit/internal/domain/user"
	walletDomain "github.com/gerakkita/service-transit/internal/domain/wallet"
	"github.com/gerakkita/service-transit/internal/events"
	"github.com/gerakkita/service-transit/internal/geo"
	"github.com/gerakkita/service-transit/internal/payment"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Payment methods accepted at purchase time.
const (
	PaymentMethodGateway = "midtrans"
	PaymentMethodWallet  = "wallet"
)

// PurchaseTicketRequest holds the data needed to buy tickets on a route.
type PurchaseTicketRequest struct {
	RouteID           uuid.UUID `json:"route_id" binding:"required"`
	OriginStopID      uuid.UUID `json:"origin_stop_id" binding:"required"`
	DestinationStopID uuid.UUID `json:"destination_stop_id" binding:"required"`
	Quantity          int       `json:"quantity"`
	PaymentMethod     string    `json:"payment_method"`
}

// TransactionDTO is the response representation of a purchase transaction.
type TransactionDTO struct {
	ID                uuid.UUID `json:"id"`
	TransactionCode   string    `json:"transaction_code"`
	UserID            uuid.UUID `json:"user_id"`
	RouteID           uuid.UUID `json:"route_id"`
	OriginStopID      uuid.UUID `json:"origin_stop_id"`
	DestinationStopID uuid.UUID `json:"destination_stop_id"`
	Amount            int64     `json:"amount"`
	Quantity          int       `json:"quantity"`
	Currency          string    `json:"currency"`
	PaymentMethod     string    `json:"payment_method"`
	PaymentStatus     string    `json:"payment_status"`
	PurchaseDate      time.Time `json:"purchase_date"`
}

// TicketDTO is the response representation of an issued ticket.
type TicketDTO struct {
	ID            uuid.UUID  `json:"id"`
	TransactionID uuid.UUID  `json:"transaction_id"`
	TicketCode    string     `json:"ticket_code"`
	QRData        string     `json:"qr_data"`
	Status        string     `json:"status"`
	ValidUntil    time.Time  `json:"valid_until"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
}

// PurchaseResultDTO is returned from a purchase. For gateway payments the
// Snap token opens the payment page; wallet payments settle inline and carry
// no token.
type PurchaseResultDTO struct {
	Transaction TransactionDTO `json:"transaction"`
	Tickets     []TicketDTO    `json:"tickets"`
	SnapToken   string         `json:"snap_token,omitempty"`
	RedirectURL string         `json:"redirect_url,omitempty"`
}

// TicketService orchestrates purchases, payment settlement and boarding.
type TicketService struct {
	transactions ticketDomain.TransactionRepository
	tickets      ticketDomain.TicketRepository
	routes       routeDomain.RouteRepository
	users        userDomain.UserRepository
	wallets      walletDomain.WalletRepository
	fare         ticketDomain.FareStrategy
	snap         *payment.SnapClient
	producer     *events.Producer
	logger       *zap.Logger
}

// NewTicketService creates a new TicketService.
func NewTicketService(
	transactions ticketDomain.TransactionRepository,
	tickets ticketDomain.TicketRepository,
	routes routeDomain.RouteRepository,
	users userDomain.UserRepository,
	wallets walletDomain.WalletRepository,
	fare ticketDomain.FareStrategy,
	snap *payment.SnapClient,
	producer *events.Producer,
	logger *zap.Logger,
) *TicketService {
	return &TicketService{
		transactions: transactions,
		tickets:      tickets,
		routes:       routes,
		users:        users,
		wallets:      wallets,
		fare:         fare,
		snap:         snap,
		producer:     producer,
		logger:       logger,
	}
}

// PurchaseTicket creates a transaction for the requested journey. Gateway
// purchases return a Snap token and settle later through the webhook; wallet
// purchases debit the balance and activate the tickets immediately.
func (s *TicketService) PurchaseTicket(ctx context.Context, userID uuid.UUID, req PurchaseTicketRequest) (*PurchaseResultDTO, error) {
	rt, err := s.routes.FindByID(ctx, req.RouteID)
	if err != nil {
		return nil, err
	}
	if !rt.IsActive() {
		return nil, shared.NewConflictError("route is not in service")
	}

	distanceKm, stopCount, err := s.journeyMetrics(ctx, req)
	if err != nil {
		return nil, err
	}

	amount, err := s.fare.Calculate(ticketDomain.FareParams{
		DistanceKm: distanceKm,
		StopCount:  stopCount,
		Quantity:   req.Quantity,
	})
	if err != nil {
		return nil, shared.NewValidationError("fare calculation failed: " + err.Error())
	}

	method := req.PaymentMethod
	if method == "" {
		method = PaymentMethodGateway
	}

	tx, err := ticketDomain.NewTransaction(
		userID,
		req.RouteID,
		req.OriginStopID,
		req.DestinationStopID,
		amount,
		req.Quantity,
		method,
	)
	if err != nil {
		return nil, err
	}

	if err := s.transactions.Save(ctx, tx); err != nil {
		return nil, err
	}

	issued, err := s.issueTickets(ctx, tx)
	if err != nil {
		return nil, err
	}

	switch method {
	case PaymentMethodWallet:
		return s.settleWithWallet(ctx, tx, issued)
	default:
		return s.requestGatewayToken(ctx, tx, issued)
	}
}

// ApplyPaymentStatus applies a verified gateway outcome to a ticket
// transaction. Replays of an already-applied outcome are no-ops.
func (s *TicketService) ApplyPaymentStatus(ctx context.Context, orderID, gatewayRefID, status string) error {
	tx, err := s.transactions.FindByOrderID(ctx, orderID)
	if err != nil {
		return err
	}

	switch payment.Outcome(status) {
	case payment.OutcomeSettled:
		if tx.PaymentStatus() == ticketDomain.PaymentCompleted {
			return nil
		}
		if err := tx.Complete(gatewayRefID); err != nil {
			return err
		}
		tx.IncrementVersion()
		if err := s.transactions.Update(ctx, tx); err != nil {
			return err
		}
		return s.activateTickets(ctx, tx)

	case payment.OutcomeFailed:
		if tx.PaymentStatus() == ticketDomain.PaymentFailed {
			return nil
		}
		if err := tx.Fail(); err != nil {
			return err
		}
		tx.IncrementVersion()
		if err := s.transactions.Update(ctx, tx); err != nil {
			return err
		}
		return s.voidTickets(ctx, tx)

	case payment.OutcomeExpired:
		if tx.PaymentStatus() == ticketDomain.PaymentExpired {
			return nil
		}
		if err := tx.Expire(); err != nil {
			return err
		}
		tx.IncrementVersion()
		if err := s.transactions.Update(ctx, tx); err != nil {
			return err
		}
		return s.voidTickets(ctx, tx)

	case payment.OutcomeRefunded:
		if tx.PaymentStatus() == ticketDomain.PaymentRefunded {
			return nil
		}
		if err := tx.Refund(); err != nil {
			return err
		}
		tx.IncrementVersion()
		if err := s.transactions.Update(ctx, tx); err != nil {
			return err
		}
		return s.voidTickets(ctx, tx)

	case payment.OutcomePending:
		return nil

	default:
		s.logger.Warn("ignoring unhandled payment outcome",
			zap.String("order_id", orderID),
			zap.String("status", status),
		)
		return nil
	}
}

// GetTransaction returns one of the user's transactions.
func (s *TicketService) GetTransaction(ctx context.Context, userID, transactionID uuid.UUID) (*TransactionDTO, error) {
	tx, err := s.transactions.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.UserID() != userID {
		return nil, shared.NewForbiddenError("transaction belongs to another user")
	}
	dto := toTransactionDTO(tx)
	return &dto, nil
}

// ListTransactions returns the user's purchase history, newest first.
func (s *TicketService) ListTransactions(ctx context.Context, userID uuid.UUID, page, limit int) (*shared.PaginatedResult[TransactionDTO], error) {
	txs, total, err := s.transactions.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	result := shared.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// ListTickets returns all tickets belonging to the user.
func (s *TicketService) ListTickets(ctx context.Context, userID uuid.UUID) ([]TicketDTO, error) {
	tickets, err := s.tickets.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	dtos := make([]TicketDTO, len(tickets))
	for i, tk := range tickets {
		dtos[i] = toTicketDTO(tk)
	}
	return dtos, nil
}

// UseTicket records a boarding scan for an active ticket.
func (s *TicketService) UseTicket(ctx context.Context, ticketID, busID uuid.UUID) (*TicketDTO, error) {
	tk, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if err := tk.MarkUsed(time.Now().UTC()); err != nil {
		// Expiry discovered at scan time still needs persisting.
		if tk.Status() == ticketDomain.TicketExpired {
			if uerr := s.tickets.Update(ctx, tk); uerr != nil {
				s.logger.Error("failed to persist ticket expiry", zap.Error(uerr))
			}
		}
		return nil, err
	}

	if err := s.tickets.Update(ctx, tk); err != nil {
		return nil, err
	}

	tx, err := s.transactions.FindByID(ctx, tk.TransactionID())
	if err == nil {
		s.publishEvent(ctx, events.TopicTicketEvents, events.TicketUsed, tk.ID().String(), events.TicketUsedEvent{
			TicketID:   tk.ID(),
			UserID:     tx.UserID(),
			BusID:      busID,
			OccurredAt: time.Now().UTC(),
		})
	}

	dto := toTicketDTO(tk)
	return &dto, nil
}

// journeyMetrics resolves the origin and destination against the route's stop
// sequence, returning the straight-line distance and the number of stops
// traversed.
func (s *TicketService) journeyMetrics(ctx context.Context, req PurchaseTicketRequest) (float64, int, error) {
	stops, err := s.routes.StopsForRoute(ctx, req.RouteID)
	if err != nil {
		return 0, 0, err
	}

	originIdx, destIdx := -1, -1
	var origin, dest routeDomain.Stop
	for i, rs := range stops {
		if rs.Stop.ID == req.OriginStopID {
			originIdx, origin = i, rs.Stop
		}
		if rs.Stop.ID == req.DestinationStopID {
			destIdx, dest = i, rs.Stop
		}
	}
	if originIdx < 0 || destIdx < 0 {
		return 0, 0, shared.NewValidationError("origin or destination stop is not on this route")
	}

	stopCount := destIdx - originIdx
	if stopCount < 0 {
		stopCount = -stopCount
	}
	return geo.DistanceKm(origin.Location, dest.Location), stopCount, nil
}

func (s *TicketService) issueTickets(ctx context.Context, tx *ticketDomain.Transaction) ([]*ticketDomain.Ticket, error) {
	issued := make([]*ticketDomain.Ticket, 0, tx.Quantity())
	for i := 0; i < tx.Quantity(); i++ {
		tk, err := ticketDomain.NewTicket(tx.ID(), tx.GatewayOrderID())
		if err != nil {
			return nil, err
		}
		if err := s.tickets.Save(ctx, tk); err != nil {
			return nil, err
		}
		issued = append(issued, tk)
	}
	return issued, nil
}

func (s *TicketService) settleWithWallet(ctx context.Context, tx *ticketDomain.Transaction, issued []*ticketDomain.Ticket) (*PurchaseResultDTO, error) {
	if err := s.wallets.Pay(ctx, tx.UserID(), tx.Amount(), tx.GatewayOrderID()); err != nil {
		if ferr := tx.Fail(); ferr == nil {
			tx.IncrementVersion()
			if uerr := s.transactions.Update(ctx, tx); uerr != nil {
				s.logger.Error("failed to mark wallet purchase as failed", zap.Error(uerr))
			}
		}
		return nil, err
	}

	if err := tx.Complete("wallet"); err != nil {
		return nil, err
	}
	tx.IncrementVersion()
	if err := s.transactions.Update(ctx, tx); err != nil {
		return nil, err
	}
	if err := s.activateTickets(ctx, tx); err != nil {
		return nil, err
	}

	// Re-read so the response shows the activated state.
	refreshed, err := s.tickets.FindByTransactionID(ctx, tx.ID())
	if err == nil {
		issued = refreshed
	}

	return &PurchaseResultDTO{
		Transaction: toTransactionDTO(tx),
		Tickets:     toTicketDTOs(issued),
	}, nil
}

func (s *TicketService) requestGatewayToken(ctx context.Context, tx *ticketDomain.Transaction, issued []*ticketDomain.Ticket) (*PurchaseResultDTO, error) {
	customer := payment.CustomerDetails{FirstName: "Customer"}
	if u, err := s.users.FindByID(ctx, tx.UserID()); err == nil {
		customer = payment.CustomerDetails{
			FirstName: u.FullName(),
			Email:     u.Email(),
			Phone:     u.PhoneNumber(),
		}
	}

	token, err := s.snap.CreateTransaction(ctx, payment.SnapRequest{
		TransactionDetails: payment.TransactionDetails{
			OrderID:     tx.GatewayOrderID(),
			GrossAmount: tx.Amount(),
		},
		CustomerDetails: customer,
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicTicketEvents, events.TicketPurchaseRequested, tx.ID().String(), events.TicketPurchaseRequestedEvent{
		TransactionID: tx.ID(),
		OrderID:       tx.GatewayOrderID(),
		UserID:        tx.UserID(),
		RouteID:       tx.RouteID(),
		Amount:        tx.Amount(),
		Quantity:      tx.Quantity(),
		OccurredAt:    time.Now().UTC(),
	})

	return &PurchaseResultDTO{
		Transaction: toTransactionDTO(tx),
		Tickets:     toTicketDTOs(issued),
		SnapToken:   token.Token,
		RedirectURL: token.RedirectURL,
	}, nil
}

func (s *TicketService) activateTickets(ctx context.Context, tx *ticketDomain.Transaction) error {
	tickets, err := s.tickets.FindByTransactionID(ctx, tx.ID())
	if err != nil {
		return err
	}

	for _, tk := range tickets {
		tk.Activate()
		if err := s.tickets.Update(ctx, tk); err != nil {
			return err
		}
		s.publishEvent(ctx, events.TopicTicketEvents, events.TicketIssued, tk.ID().String(), events.TicketIssuedEvent{
			TicketID:      tk.ID(),
			TransactionID: tx.ID(),
			UserID:        tx.UserID(),
			RouteID:       tx.RouteID(),
			ValidUntil:    tk.ValidUntil(),
			OccurredAt:    time.Now().UTC(),
		})
	}
	return nil
}

// voidTickets cancels the transaction's tickets after a terminal payment
// outcome. Used tickets are left alone: the ride already happened.
func (s *TicketService) voidTickets(ctx context.Context, tx *ticketDomain.Transaction) error {
	tickets, err := s.tickets.FindByTransactionID(ctx, tx.ID())
	if err != nil {
		return err
	}

	for _, tk := range tickets {
		switch tk.Status() {
		case ticketDomain.TicketPending, ticketDomain.TicketActive:
			tk.Cancel()
			if err := s.tickets.Update(ctx, tk); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	cloudEvent, err := events.NewCloudEvent("service-transit", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

// --- Conversion Helpers ---

func toTransactionDTO(tx *ticketDomain.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:                tx.ID(),
		TransactionCode:   tx.TransactionCode(),
		UserID:            tx.UserID(),
		RouteID:           tx.RouteID(),
		OriginStopID:      tx.OriginStopID(),
		DestinationStopID: tx.DestinationStopID(),
		Amount:            tx.Amount(),
		Quantity:          tx.Quantity(),
		Currency:          tx.Currency(),
		PaymentMethod:     tx.PaymentMethod(),
		PaymentStatus:     string(tx.PaymentStatus()),
		PurchaseDate:      tx.PurchaseDate(),
	}
}

func toTicketDTO(tk *ticketDomain.Ticket) TicketDTO {
	return TicketDTO{
		ID:            tk.ID(),
		TransactionID: tk.TransactionID(),
		TicketCode:    tk.TicketCode(),
		QRData:        tk.QRData(),
		Status:        string(tk.Status()),
		ValidUntil:    tk.ValidUntil(),
		UsedAt:        tk.UsedAt(),
	}
}

func toTicketDTOs(tickets []*ticketDomain.Ticket) []TicketDTO {
	dtos := make([]TicketDTO, len(tickets))
	for i, tk := range tickets {
		dtos[i] = toTicketDTO(tk)
	}
	return dtos
}
