package events

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentSettler applies a verified gateway outcome to the order it belongs
// to. Implemented by the ticketing and wallet services.
type PaymentSettler interface {
	ApplyPaymentStatus(ctx context.Context, orderID, gatewayRefID, status string) error
}

// PaymentEventConsumer listens to payment events and settles the matching
// orders. Webhook ingestion only verifies and enqueues; this consumer does
// the state changes, so a burst of notifications cannot stall the webhook
// endpoint.
type PaymentEventConsumer struct {
	consumer *Consumer
	settler  PaymentSettler
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a consumer in the given group.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	settler PaymentSettler,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := NewConsumer(brokers, groupID, TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		settler:  settler,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case PaymentSettled, PaymentFailed, PaymentExpired, PaymentRefunded:
		return c.handleStatusChange(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handleStatusChange(ctx context.Context, cloudEvent CloudEvent) error {
	var evt PaymentStatusEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse payment status event data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing payment status event",
		zap.String("order_id", evt.OrderCode),
		zap.String("status", evt.Status),
	)

	if err := c.settler.ApplyPaymentStatus(ctx, evt.OrderCode, evt.GatewayRefID, evt.Status); err != nil {
		c.logger.Error("failed to apply payment status",
			zap.String("order_id", evt.OrderCode),
			zap.String("status", evt.Status),
			zap.Error(err),
		)
		return err
	}

	return nil
}
