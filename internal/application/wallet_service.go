package application

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	userDomain "github.com/gerakkita/service-transit/internal/domain/user"
	walletDomain "github.com/gerakkita/service-transit/internal/domain/wallet"
	"github.com/gerakkita/service-transit/internal/events"
	"github.com/gerakkita/service-transit/internal/payment"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const topUpOrderChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// TopUpRequest holds the data needed to start a wallet top-up.
type TopUpRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// WalletDTO is the response representation of a wallet.
type WalletDTO struct {
	UserID      uuid.UUID `json:"user_id"`
	Balance     int64     `json:"balance"`
	Currency    string    `json:"currency"`
	LastUpdated time.Time `json:"last_updated"`
}

// TopUpResultDTO carries the Snap token for the top-up payment page.
type TopUpResultDTO struct {
	OrderID     string `json:"order_id"`
	Amount      int64  `json:"amount"`
	SnapToken   string `json:"snap_token"`
	RedirectURL string `json:"redirect_url"`
}

// WalletService orchestrates stored-value balances and top-ups.
type WalletService struct {
	wallets  walletDomain.WalletRepository
	users    userDomain.UserRepository
	snap     *payment.SnapClient
	producer *events.Producer
	logger   *zap.Logger
}

// NewWalletService creates a new WalletService.
func NewWalletService(
	wallets walletDomain.WalletRepository,
	users userDomain.UserRepository,
	snap *payment.SnapClient,
	producer *events.Producer,
	logger *zap.Logger,
) *WalletService {
	return &WalletService{
		wallets:  wallets,
		users:    users,
		snap:     snap,
		producer: producer,
		logger:   logger,
	}
}

// GetWallet returns the user's wallet, creating an empty one on first use.
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*WalletDTO, error) {
	w, err := s.ensureWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := toWalletDTO(w)
	return &dto, nil
}

// TopUp starts a gateway payment that will credit the wallet once settled.
func (s *WalletService) TopUp(ctx context.Context, userID uuid.UUID, req TopUpRequest) (*TopUpResultDTO, error) {
	if req.Amount <= 0 {
		return nil, shared.NewValidationError("top-up amount must be positive")
	}

	if _, err := s.ensureWallet(ctx, userID); err != nil {
		return nil, err
	}

	orderID, err := generateTopUpOrderID()
	if err != nil {
		return nil, err
	}

	entry, err := walletDomain.NewTopUpEntry(userID, req.Amount, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.wallets.SaveEntry(ctx, entry); err != nil {
		return nil, err
	}

	customer := payment.CustomerDetails{FirstName: "Customer"}
	if u, err := s.users.FindByID(ctx, userID); err == nil {
		customer = payment.CustomerDetails{
			FirstName: u.FullName(),
			Email:     u.Email(),
			Phone:     u.PhoneNumber(),
		}
	}

	token, err := s.snap.CreateTransaction(ctx, payment.SnapRequest{
		TransactionDetails: payment.TransactionDetails{
			OrderID:     orderID,
			GrossAmount: req.Amount,
		},
		CustomerDetails: customer,
	})
	if err != nil {
		if uerr := s.wallets.UpdateEntryStatus(ctx, entry.ID, walletDomain.EntryFailed); uerr != nil {
			s.logger.Error("failed to mark top-up entry failed", zap.Error(uerr))
		}
		return nil, err
	}

	return &TopUpResultDTO{
		OrderID:     orderID,
		Amount:      req.Amount,
		SnapToken:   token.Token,
		RedirectURL: token.RedirectURL,
	}, nil
}

// ApplyPaymentStatus applies a verified gateway outcome to a top-up order.
// A replayed settlement finds no pending entry and is a no-op.
func (s *WalletService) ApplyPaymentStatus(ctx context.Context, orderID, gatewayRefID, status string) error {
	entry, err := s.wallets.FindEntryByReference(ctx, orderID, walletDomain.EntryPending)
	if err != nil {
		if shared.KindOf(err) == shared.KindNotFound {
			// Already finalized, or an order this service never issued.
			return nil
		}
		return err
	}

	switch payment.Outcome(status) {
	case payment.OutcomeSettled:
		if err := s.wallets.SettleTopUp(ctx, entry.WalletUserID, entry.ID, entry.Amount); err != nil {
			return err
		}
		s.publishEvent(ctx, events.WalletTopUpSettled, orderID, events.WalletTopUpSettledEvent{
			UserID:     entry.WalletUserID,
			OrderID:    orderID,
			Amount:     entry.Amount,
			OccurredAt: time.Now().UTC(),
		})
		return nil

	case payment.OutcomeFailed, payment.OutcomeExpired:
		return s.wallets.UpdateEntryStatus(ctx, entry.ID, walletDomain.EntryFailed)

	case payment.OutcomePending:
		return nil

	default:
		s.logger.Warn("ignoring unhandled top-up outcome",
			zap.String("order_id", orderID),
			zap.String("status", status),
		)
		return nil
	}
}

// History returns the user's ledger entries, newest first.
func (s *WalletService) History(ctx context.Context, userID uuid.UUID, page, limit int) (*shared.PaginatedResult[walletDomain.Entry], error) {
	entries, total, err := s.wallets.History(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginatedResult(entries, total, page, limit)
	return &result, nil
}

func (s *WalletService) ensureWallet(ctx context.Context, userID uuid.UUID) (*walletDomain.Wallet, error) {
	w, err := s.wallets.FindByUserID(ctx, userID)
	if err == nil {
		return w, nil
	}
	if shared.KindOf(err) != shared.KindNotFound {
		return nil, err
	}

	w, err = walletDomain.NewWallet(userID)
	if err != nil {
		return nil, err
	}
	if err := s.wallets.Save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WalletService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	cloudEvent, err := events.NewCloudEvent("service-transit", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicPaymentEvents, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

// generateTopUpOrderID creates an order ID in the format "TOPUP-XXXXXXXX".
func generateTopUpOrderID() (string, error) {
	result := make([]byte, 8)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(topUpOrderChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate top-up order ID: %w", err)
		}
		result[i] = topUpOrderChars[n.Int64()]
	}
	return "TOPUP-" + string(result), nil
}

// --- Conversion Helpers ---

func toWalletDTO(w *walletDomain.Wallet) WalletDTO {
	return WalletDTO{
		UserID:      w.UserID(),
		Balance:     w.Balance(),
		Currency:    w.Currency(),
		LastUpdated: w.LastUpdated(),
	}
}
