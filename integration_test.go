//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/gerakkita/service-transit/internal/events"
	"github.com/gerakkita/service-transit/internal/geo"
	"github.com/gerakkita/service-transit/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPaymentSettled_ActivatesTickets verifies that a payment.settled event on
// payment.events completes the transaction, activates its tickets and emits a
// ticket.issued event per ticket.
func TestPaymentSettled_ActivatesTickets(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupTransitStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	txID := uuid.New()
	userID := uuid.New()
	orderID := seedPendingPurchase(t, infra.DB, txID, userID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	evt := events.PaymentStatusEvent{
		OrderCode:    orderID,
		GatewayRefID: "mt-ref-int-001",
		Status:       "settled",
		OccurredAt:   time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicPaymentEvents, orderID,
		"service-transit", events.PaymentSettled, evt)

	model := waitForTransactionStatus(t, infra.DB, txID, "completed", 15*time.Second)
	assert.Equal(t, "mt-ref-int-001", model.GatewayRefID)
	assert.Equal(t, int64(2), model.Version, "settlement bumps the version once")

	require.Eventually(t, func() bool {
		return countTicketsWithStatus(t, infra.DB, txID, "active") == 2
	}, 15*time.Second, 200*time.Millisecond, "tickets were not activated")

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicTicketEvents,
		events.TicketIssued, 15*time.Second)

	var issued events.TicketIssuedEvent
	require.NoError(t, ce.ParseData(&issued))
	assert.Equal(t, txID, issued.TransactionID)
	assert.Equal(t, userID, issued.UserID)
}

// TestPaymentSettled_IsIdempotent verifies that replaying the same settlement
// event leaves the transaction untouched.
func TestPaymentSettled_IsIdempotent(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupTransitStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	txID := uuid.New()
	userID := uuid.New()
	orderID := seedPendingPurchase(t, infra.DB, txID, userID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second)

	evt := events.PaymentStatusEvent{
		OrderCode:    orderID,
		GatewayRefID: "mt-ref-int-002",
		Status:       "settled",
		OccurredAt:   time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicPaymentEvents, orderID,
		"service-transit", events.PaymentSettled, evt)
	publishTestEvent(t, infra.KafkaBrokers, events.TopicPaymentEvents, orderID,
		"service-transit", events.PaymentSettled, evt)

	model := waitForTransactionStatus(t, infra.DB, txID, "completed", 15*time.Second)
	assert.Equal(t, int64(2), model.Version, "a replayed settlement must not bump the version again")

	// Give the consumer time to process the duplicate, then re-check.
	time.Sleep(3 * time.Second)
	model = waitForTransactionStatus(t, infra.DB, txID, "completed", 5*time.Second)
	assert.Equal(t, int64(2), model.Version)
}

// TestPaymentExpired_ExpiresTransaction verifies the failure path: an expired
// payment moves the transaction to "expired" and voids its tickets.
func TestPaymentExpired_ExpiresTransaction(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupTransitStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	txID := uuid.New()
	userID := uuid.New()
	orderID := seedPendingPurchase(t, infra.DB, txID, userID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second)

	evt := events.PaymentStatusEvent{
		OrderCode:  orderID,
		Status:     "expired",
		OccurredAt: time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicPaymentEvents, orderID,
		"service-transit", events.PaymentExpired, evt)

	waitForTransactionStatus(t, infra.DB, txID, "expired", 15*time.Second)
	assert.Equal(t, int64(0), countTicketsWithStatus(t, infra.DB, txID, "active"))
	assert.Equal(t, int64(2), countTicketsWithStatus(t, infra.DB, txID, "cancelled"))
}

// TestTopUpSettled_CreditsWallet verifies that a settled TOPUP- order credits
// the wallet, finalizes the ledger entry and emits wallet.topup.settled.
func TestTopUpSettled_CreditsWallet(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupTransitStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	userID := uuid.New()
	orderID := seedPendingTopUp(t, infra.DB, userID, 50000)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second)

	evt := events.PaymentStatusEvent{
		OrderCode:    orderID,
		GatewayRefID: "mt-ref-int-003",
		Status:       "settled",
		OccurredAt:   time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicPaymentEvents, orderID,
		"service-transit", events.PaymentSettled, evt)

	waitForWalletBalance(t, infra.DB, userID, 50000, 15*time.Second)

	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicPaymentEvents,
		events.WalletTopUpSettled, 15*time.Second)

	var settled events.WalletTopUpSettledEvent
	require.NoError(t, ce.ParseData(&settled))
	assert.Equal(t, userID, settled.UserID)
	assert.Equal(t, orderID, settled.OrderID)
	assert.Equal(t, int64(50000), settled.Amount)
}

// TestBusLocation_PublishAndClear drives the bus location columns through a
// trip against real PostgreSQL: two published fixes, then the stop-time
// clear. After every write the row must be internally consistent: both
// coordinates and the timestamp from the same fix, never a mix of two.
func TestBusLocation_PublishAndClear(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	repo := repository.NewGormBusRepository(infra.DB)
	busID := seedInServiceBus(t, infra.DB)
	ctx := context.Background()

	readRow := func() repository.BusModel {
		var m repository.BusModel
		require.NoError(t, infra.DB.First(&m, "id = ?", busID).Error)
		return m
	}

	firstAt := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.UpdateLocation(ctx, busID, geo.Point{Latitude: -6.1754, Longitude: 106.8272}, firstAt))

	row := readRow()
	require.NotNil(t, row.CurrentLatitude)
	require.NotNil(t, row.CurrentLongitude)
	require.NotNil(t, row.LastLocationUpdate)
	assert.InDelta(t, -6.1754, *row.CurrentLatitude, 1e-9)
	assert.InDelta(t, 106.8272, *row.CurrentLongitude, 1e-9)
	assert.WithinDuration(t, firstAt, *row.LastLocationUpdate, time.Millisecond)

	secondAt := firstAt.Add(10 * time.Second)
	require.NoError(t, repo.UpdateLocation(ctx, busID, geo.Point{Latitude: -6.1900, Longitude: 106.8400}, secondAt))

	row = readRow()
	require.NotNil(t, row.CurrentLatitude)
	require.NotNil(t, row.CurrentLongitude)
	require.NotNil(t, row.LastLocationUpdate)
	assert.InDelta(t, -6.1900, *row.CurrentLatitude, 1e-9, "latitude must come from the newest fix")
	assert.InDelta(t, 106.8400, *row.CurrentLongitude, 1e-9, "longitude must come from the newest fix")
	assert.WithinDuration(t, secondAt, *row.LastLocationUpdate, time.Millisecond, "timestamp must come from the newest fix")

	require.NoError(t, repo.ClearLocation(ctx, busID))

	row = readRow()
	assert.Nil(t, row.CurrentLatitude)
	assert.Nil(t, row.CurrentLongitude)
	assert.Nil(t, row.LastLocationUpdate)
	assert.Equal(t, "available", row.Status, "clearing must also return the bus to the available pool")
}

// TestBusLocation_UpdateUnknownBusIsNotFound verifies the repository reports
// a missing row instead of silently updating nothing.
func TestBusLocation_UpdateUnknownBusIsNotFound(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	repo := repository.NewGormBusRepository(infra.DB)

	err := repo.UpdateLocation(context.Background(), uuid.New(), geo.Point{Latitude: -6.2, Longitude: 106.8}, time.Now().UTC())
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}
