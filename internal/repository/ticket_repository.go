package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	ticketDomain "github.com/gerakkita/service-transit/internal/domain/ticket"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketModel is the GORM model for the tickets table.
type TicketModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID  `gorm:"type:uuid;index;not null"`
	TicketCode    string     `gorm:"not null;size:20"`
	QRData        string     `gorm:"not null;size:64;column:qr_data"`
	Status        string     `gorm:"not null;size:20;index"`
	ValidUntil    time.Time  `gorm:"not null"`
	UsedAt        *time.Time `gorm:""`
	CreatedAt     time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (TicketModel) TableName() string {
	return "tickets"
}

// GormTicketRepository is the GORM-based implementation of TicketRepository.
type GormTicketRepository struct {
	db *gorm.DB
}

// NewGormTicketRepository creates a new GormTicketRepository.
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{db: db}
}

// FindByID retrieves a ticket by its unique identifier.
func (r *GormTicketRepository) FindByID(ctx context.Context, id uuid.UUID) (*ticketDomain.Ticket, error) {
	var model TicketModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("Ticket", id.String())
		}
		return nil, fmt.Errorf("failed to find ticket by ID: %w", err)
	}
	return toDomainTicket(&model)
}

// FindByTransactionID retrieves all tickets for a transaction.
func (r *GormTicketRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*ticketDomain.Ticket, error) {
	var models []TicketModel
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find tickets by transaction: %w", err)
	}
	return toDomainTickets(models)
}

// FindByUserID retrieves all tickets belonging to a user's transactions.
func (r *GormTicketRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*ticketDomain.Ticket, error) {
	var models []TicketModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN transactions ON transactions.id = tickets.transaction_id").
		Where("transactions.user_id = ?", userID).
		Order("tickets.created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find tickets by user: %w", err)
	}
	return toDomainTickets(models)
}

// Save persists a new ticket.
func (r *GormTicketRepository) Save(ctx context.Context, tk *ticketDomain.Ticket) error {
	model := toTicketModel(tk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save ticket: %w", err)
	}
	return nil
}

// Update persists changes to an existing ticket.
func (r *GormTicketRepository) Update(ctx context.Context, tk *ticketDomain.Ticket) error {
	model := toTicketModel(tk)
	result := r.db.WithContext(ctx).
		Model(&TicketModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":  model.Status,
			"used_at": model.UsedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update ticket: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Ticket", tk.ID().String())
	}
	return nil
}

// --- Conversion Helpers ---

func toTicketModel(tk *ticketDomain.Ticket) *TicketModel {
	return &TicketModel{
		ID:            tk.ID(),
		TransactionID: tk.TransactionID(),
		TicketCode:    tk.TicketCode(),
		QRData:        tk.QRData(),
		Status:        string(tk.Status()),
		ValidUntil:    tk.ValidUntil(),
		UsedAt:        tk.UsedAt(),
		CreatedAt:     tk.CreatedAt(),
	}
}

func toDomainTicket(m *TicketModel) (*ticketDomain.Ticket, error) {
	status := ticketDomain.TicketStatus(m.Status)
	if !status.IsValid() {
		return nil, shared.NewValidationError("unknown ticket status: " + m.Status)
	}
	return ticketDomain.ReconstructTicket(
		m.ID,
		m.TransactionID,
		m.TicketCode,
		m.QRData,
		status,
		m.ValidUntil,
		m.UsedAt,
		m.CreatedAt,
	), nil
}

func toDomainTickets(models []TicketModel) ([]*ticketDomain.Ticket, error) {
	tickets := make([]*ticketDomain.Ticket, len(models))
	for i, m := range models {
		tk, err := toDomainTicket(&m)
		if err != nil {
			return nil, err
		}
		tickets[i] = tk
	}
	return tickets, nil
}
