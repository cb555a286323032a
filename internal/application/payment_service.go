package application

import (
	"context"
	"strings"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/gerakkita/service-transit/internal/events"
	"github.com/gerakkita/service-transit/internal/payment"
	"go.uber.org/zap"
)

// PaymentService ingests gateway webhooks and fans verified outcomes out to
// the owning service. The webhook handler only verifies and enqueues; the
// Kafka consumer applies the state change, so the public endpoint stays fast
// and the gateway's retries stay harmless.
type PaymentService struct {
	tickets   *TicketService
	wallets   *WalletService
	serverKey string
	producer  *events.Producer
	logger    *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	tickets *TicketService,
	wallets *WalletService,
	serverKey string,
	producer *events.Producer,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		tickets:   tickets,
		wallets:   wallets,
		serverKey: serverKey,
		producer:  producer,
		logger:    logger,
	}
}

// HandleNotification verifies a gateway webhook and publishes the outcome.
// A bad signature is rejected; unhandled outcomes are acknowledged and
// dropped so the gateway stops retrying them.
func (s *PaymentService) HandleNotification(ctx context.Context, n payment.Notification) error {
	if err := n.VerifySignature(s.serverKey); err != nil {
		s.logger.Warn("rejected webhook with bad signature",
			zap.String("order_id", n.OrderID),
		)
		return err
	}

	var eventType string
	switch n.Outcome() {
	case payment.OutcomeSettled:
		eventType = events.PaymentSettled
	case payment.OutcomeFailed:
		eventType = events.PaymentFailed
	case payment.OutcomeExpired:
		eventType = events.PaymentExpired
	case payment.OutcomeRefunded:
		eventType = events.PaymentRefunded
	default:
		s.logger.Info("acknowledged non-final gateway notification",
			zap.String("order_id", n.OrderID),
			zap.String("transaction_status", n.TransactionStatus),
		)
		return nil
	}

	evt := events.PaymentStatusEvent{
		OrderCode:    n.OrderID,
		GatewayRefID: n.TransactionID,
		Status:       string(n.Outcome()),
		OccurredAt:   time.Now().UTC(),
	}

	cloudEvent, err := events.NewCloudEvent("service-transit", eventType, evt)
	if err != nil {
		return err
	}
	if err := s.producer.PublishEvent(ctx, events.TopicPaymentEvents, n.OrderID, cloudEvent); err != nil {
		return shared.NewUnavailableError("failed to enqueue payment notification")
	}

	s.logger.Info("payment notification enqueued",
		zap.String("order_id", n.OrderID),
		zap.String("outcome", string(n.Outcome())),
	)
	return nil
}

// ApplyPaymentStatus routes a verified outcome to the service that owns the
// order: TXN- orders are ticket purchases, TOPUP- orders are wallet top-ups.
func (s *PaymentService) ApplyPaymentStatus(ctx context.Context, orderID, gatewayRefID, status string) error {
	switch {
	case strings.HasPrefix(orderID, "TXN-"):
		return s.tickets.ApplyPaymentStatus(ctx, orderID, gatewayRefID, status)
	case strings.HasPrefix(orderID, "TOPUP-"):
		return s.wallets.ApplyPaymentStatus(ctx, orderID, gatewayRefID, status)
	default:
		s.logger.Warn("dropping payment event for unrecognized order",
			zap.String("order_id", orderID),
		)
		return nil
	}
}

var _ events.PaymentSettler = (*PaymentService)(nil)
