package models

import (
	"time"

	"github.com/google/uuid"
)

// Gig is the catalogue item an order is placed against. Orders copy the
// title and seller at creation time, so the gig itself stays a thin record;
// it also feeds the admin dashboard gig count.
type Gig struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SellerID uuid.UUID `gorm:"type:uuid;index;not null" json:"seller_id"`

	Title    string  `gorm:"type:varchar(200);not null" json:"title"`
	Category string  `gorm:"type:varchar(80)" json:"category"`
	Price    float64 `json:"price"`
	Status   string  `gorm:"type:varchar(20);default:'active'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
