package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentDetail holds a user's payout bank details. One row per user,
// upsert semantics.
type PaymentDetail struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	PaymentMethod     string `gorm:"type:varchar(40);not null" json:"payment_method"` // bank_transfer, jazzcash, ...
	AccountNumber     string `gorm:"type:varchar(60);not null" json:"account_number"`
	AccountHolderName string `gorm:"type:varchar(120);not null" json:"account_holder_name"`
	BankAccountName   string `gorm:"type:varchar(120)" json:"bank_account_name"`
	BankName          string `gorm:"type:varchar(120)" json:"bank_name"`
	BranchCode        string `gorm:"type:varchar(30)" json:"branch_code"`
	IBANNumber        string `gorm:"type:varchar(40)" json:"iban_number"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
