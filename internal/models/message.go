package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Message belongs to an order thread. The order reference is logical only
// (no FK constraint), matching the storage model this system replaces; the
// chat service always resolves the order before writing.
type Message struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID uuid.UUID `gorm:"type:uuid;index:idx_messages_order_created" json:"order_id"`

	SenderID     uuid.UUID  `gorm:"type:uuid;index" json:"sender_id"`
	SenderName   string     `gorm:"type:varchar(120)" json:"sender_name"`
	SenderType   SenderType `gorm:"type:varchar(10);not null" json:"sender_type"` // buyer | seller
	SenderAvatar string     `gorm:"type:text" json:"sender_avatar,omitempty"`

	Text        string         `gorm:"type:text;not null" json:"text"`
	Attachments datatypes.JSON `json:"attachments,omitempty"` // [{name, url, type}]

	// Only the read flag is ever mutated after creation.
	Read   bool       `gorm:"default:false" json:"read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_messages_order_created" json:"created_at"`
}

// Attachment is the element shape of Message.Attachments.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}
