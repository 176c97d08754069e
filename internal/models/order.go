package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

// Status strings are stored verbatim; transition legality lives in the
// order service, not here.
const (
	StatusPendingPayment OrderStatus = "Pending payment"
	StatusPendingVerify  OrderStatus = "Payment pending verify"
	StatusConfirmed      OrderStatus = "Payment confirmed"
	StatusCompleted      OrderStatus = "Completed"
)

type WithdrawalStatus string

const (
	WithdrawalNone     WithdrawalStatus = ""
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

// Order is the root aggregate for payment, fulfillment and withdrawal state.
// Orders are never deleted.
type Order struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	GigID    uuid.UUID `gorm:"type:uuid;index" json:"gig_id"`
	GigTitle string    `gorm:"type:varchar(200)" json:"gig_title"`

	BuyerID   uuid.UUID `gorm:"type:uuid;index" json:"buyer_id"`
	BuyerName string    `gorm:"type:varchar(120)" json:"buyer_name"`

	SellerID   uuid.UUID `gorm:"type:uuid;index" json:"seller_id"`
	SellerName string    `gorm:"type:varchar(120)" json:"seller_name"`

	Package      string  `gorm:"type:varchar(30);default:'standard'" json:"package"`
	Amount       float64 `gorm:"not null" json:"amount"`
	Requirements string  `gorm:"type:text" json:"requirements"`
	DeliveryTime int     `json:"delivery_time"` // days

	Status OrderStatus `gorm:"type:varchar(40);not null;index" json:"status"`

	// Manual bank-transfer proof, uploaded by the buyer and verified by an admin.
	PaymentScreenshot string     `gorm:"type:text" json:"payment_screenshot,omitempty"`
	PaymentUploadedAt *time.Time `json:"payment_uploaded_at,omitempty"`
	PaymentVerifiedAt *time.Time `json:"payment_verified_at,omitempty"`

	CompletedAt                 *time.Time `json:"completed_at,omitempty"`
	ClientConfirmedCompletionAt *time.Time `json:"client_confirmed_completion_at,omitempty"`

	// Withdrawal sub-state, attached once the order reaches Completed.
	WithdrawalRequested   bool             `gorm:"default:false" json:"withdrawal_requested"`
	WithdrawalStatus      WithdrawalStatus `gorm:"type:varchar(20);default:''" json:"withdrawal_status,omitempty"`
	WithdrawalRequestedAt *time.Time       `json:"withdrawal_requested_at,omitempty"`
	WithdrawalProcessedAt *time.Time       `json:"withdrawal_processed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SenderType string

const (
	SenderBuyer  SenderType = "buyer"
	SenderSeller SenderType = "seller"
)

// ParticipantType derives the chat sender type for a user on this order.
// The same check gates every order and chat operation for both transports.
func (o *Order) ParticipantType(userID uuid.UUID) (SenderType, bool) {
	switch userID {
	case o.BuyerID:
		return SenderBuyer, true
	case o.SellerID:
		return SenderSeller, true
	default:
		return "", false
	}
}
