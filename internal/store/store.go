// Package store declares the persistence collaborators each service receives
// at construction time, plus their GORM implementations. Finder methods
// return (nil, nil) when no row matches; only real storage faults error.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gigmarket_backend/internal/models"
)

// OrderFilter narrows List. Nil fields are ignored.
type OrderFilter struct {
	BuyerID       *uuid.UUID
	SellerID      *uuid.UUID
	ParticipantID *uuid.UUID // buyer or seller
	Status        *models.OrderStatus
	ExcludeStatus *models.OrderStatus
	Withdrawal    *bool // withdrawal_requested flag
	// HistoryOnly selects orders that reached completion by any signal:
	// status Completed, completed_at set, or client confirmation set.
	HistoryOnly bool
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// List returns newest-first, matching the read surfaces.
	List(ctx context.Context, f OrderFilter) ([]models.Order, error)
	// UpdateWhere writes fields to the order only while every cond column
	// still holds. The check-and-set is what serializes transitions per
	// order id; zero rows affected means another transition won.
	UpdateWhere(ctx context.Context, id uuid.UUID, conds map[string]any, fields map[string]any) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FirstAdmin(ctx context.Context) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	Save(ctx context.Context, u *models.User) error
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}

type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	// ListByOrder returns the full thread in created_at ascending order.
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Message, error)
	// MarkRead flips read/read_at on every unread message in the thread not
	// authored by excludeSender. Returns the number of rows swept.
	MarkRead(ctx context.Context, orderID, excludeSender uuid.UUID, at time.Time) (int64, error)
}

type PaymentDetailStore interface {
	Upsert(ctx context.Context, d *models.PaymentDetail) error
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.PaymentDetail, error)
	List(ctx context.Context) ([]models.PaymentDetail, error)
}

type GigStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Gig, error)
	Count(ctx context.Context) (int64, error)
}
