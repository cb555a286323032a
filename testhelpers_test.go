//go:build integration

package main_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/gerakkita/service-transit/internal/application"
	ticketDomain "github.com/gerakkita/service-transit/internal/domain/ticket"
	"github.com/gerakkita/service-transit/internal/events"
	"github.com/gerakkita/service-transit/internal/repository"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// transitStack holds wired-up service components for settlement tests.
type transitStack struct {
	Tickets         *application.TicketService
	Wallets         *application.WalletService
	Payments        *application.PaymentService
	Consumer        *events.PaymentEventConsumer
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	// Start PostgreSQL (PostGIS) container with log-based wait strategy.
	pgReq := testcontainers.ContainerRequest{
		Image:        "postgis/postgis:16-3.4-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_transit",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_transit sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	// Enable uuid-ossp and auto-migrate.
	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error)
	require.NoError(t, db.AutoMigrate(
		&repository.UserModel{},
		&repository.DriverModel{},
		&repository.RouteModel{},
		&repository.BusStopModel{},
		&repository.RouteStopModel{},
		&repository.BusModel{},
		&repository.TransactionModel{},
		&repository.TicketModel{},
		&repository.WalletModel{},
		&repository.WalletEntryModel{},
		&repository.ReviewModel{},
	))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, events.TopicTicketEvents, events.TopicPaymentEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupTransitStack wires up the settlement path: ticket, wallet and payment
// services plus the payment event consumer. The Snap client is nil because
// settlement never calls the gateway.
func setupTransitStack(t *testing.T, db *gorm.DB, brokers []string) *transitStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	txRepo := repository.NewGormTransactionRepository(db)
	ticketRepo := repository.NewGormTicketRepository(db)
	routeRepo := repository.NewGormRouteRepository(db)
	userRepo := repository.NewGormUserRepository(db)
	walletRepo := repository.NewGormWalletRepository(db)
	fare := ticketDomain.NewStandardFareStrategy()
	producer := events.NewProducer(brokers, logger)

	ticketSvc := application.NewTicketService(txRepo, ticketRepo, routeRepo, userRepo, walletRepo, fare, nil, producer, logger)
	walletSvc := application.NewWalletService(walletRepo, userRepo, nil, producer, logger)
	paymentSvc := application.NewPaymentService(ticketSvc, walletSvc, "SB-Mid-server-testkey", producer, logger)

	groupID := fmt.Sprintf("test-transit-%s", uuid.New().String()[:8])
	consumer := events.NewPaymentEventConsumer(brokers, groupID, paymentSvc, logger)

	return &transitStack{
		Tickets:         ticketSvc,
		Wallets:         walletSvc,
		Payments:        paymentSvc,
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedPendingPurchase inserts a pending transaction with two tickets awaiting
// activation and returns the gateway order ID.
func seedPendingPurchase(t *testing.T, db *gorm.DB, txID, userID uuid.UUID) string {
	t.Helper()
	now := time.Now().UTC()
	orderID := fmt.Sprintf("TXN-INT%s", uuid.New().String()[:5])

	model := repository.TransactionModel{
		ID:                txID,
		TransactionCode:   orderID,
		UserID:            userID,
		RouteID:           uuid.New(),
		OriginStopID:      uuid.New(),
		DestinationStopID: uuid.New(),
		Amount:            11000,
		Quantity:          2,
		Currency:          "IDR",
		PaymentMethod:     "midtrans",
		PaymentStatus:     "pending",
		GatewayOrderID:    orderID,
		PurchaseDate:      now,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed transaction")

	for i := 0; i < 2; i++ {
		tk := repository.TicketModel{
			ID:            uuid.New(),
			TransactionID: txID,
			TicketCode:    fmt.Sprintf("TKT-%04d", i),
			QRData:        fmt.Sprintf("QR-%s-%04d", orderID, i),
			Status:        "pending",
			ValidUntil:    now.Add(24 * time.Hour),
			CreatedAt:     now,
		}
		require.NoError(t, db.Create(&tk).Error, "failed to seed ticket")
	}

	return orderID
}

// seedInServiceBus inserts a bus on shift with no published position and
// returns its ID.
func seedInServiceBus(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()

	bus := repository.BusModel{
		ID:             uuid.New(),
		BusNumber:      fmt.Sprintf("B-INT%s", uuid.New().String()[:5]),
		TotalSeats:     40,
		AvailableSeats: 40,
		Status:         "in_service",
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, db.Create(&bus).Error, "failed to seed bus")

	return bus.ID
}

// seedPendingTopUp inserts an empty wallet plus a pending top-up entry and
// returns the top-up order ID.
func seedPendingTopUp(t *testing.T, db *gorm.DB, userID uuid.UUID, amount int64) string {
	t.Helper()
	now := time.Now().UTC()
	orderID := fmt.Sprintf("TOPUP-INT%s", uuid.New().String()[:5])

	wallet := repository.WalletModel{
		UserID:      userID,
		Balance:     0,
		Currency:    "IDR",
		LastUpdated: now,
	}
	require.NoError(t, db.Create(&wallet).Error, "failed to seed wallet")

	entry := repository.WalletEntryModel{
		ID:               uuid.New(),
		WalletUserID:     userID,
		Amount:           amount,
		Type:             "topup",
		Status:           "pending",
		Description:      "integration test top-up",
		PaymentReference: orderID,
		CreatedAt:        now,
	}
	require.NoError(t, db.Create(&entry).Error, "failed to seed top-up entry")

	return orderID
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, key, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := events.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := events.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, key, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForTransactionStatus polls the transactions table until the payment status matches.
func waitForTransactionStatus(t *testing.T, db *gorm.DB, txID uuid.UUID, expectedStatus string, timeout time.Duration) repository.TransactionModel {
	t.Helper()
	var result repository.TransactionModel
	require.Eventually(t, func() bool {
		var model repository.TransactionModel
		if err := db.Where("id = ?", txID).First(&model).Error; err != nil {
			return false
		}
		if model.PaymentStatus == expectedStatus {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "transaction did not reach status %s", expectedStatus)
	return result
}

// waitForWalletBalance polls the wallets table until the balance matches.
func waitForWalletBalance(t *testing.T, db *gorm.DB, userID uuid.UUID, expected int64, timeout time.Duration) {
	t.Helper()
	require.Eventually(t, func() bool {
		var model repository.WalletModel
		if err := db.Where("user_id = ?", userID).First(&model).Error; err != nil {
			return false
		}
		return model.Balance == expected
	}, timeout, 200*time.Millisecond, "wallet balance did not reach %d", expected)
}

// countTicketsWithStatus counts a transaction's tickets in the given status.
func countTicketsWithStatus(t *testing.T, db *gorm.DB, txID uuid.UUID, status string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&repository.TicketModel{}).
		Where("transaction_id = ? AND status = ?", txID, status).
		Count(&count).Error)
	return count
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) events.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		var ce events.CloudEvent
		if err := json.Unmarshal(msg.Value, &ce); err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
