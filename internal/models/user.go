package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

// User is the single identity record for clients, freelancers and admins.
// Seller profile fields are only populated for freelancers.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name     string    `gorm:"not null" json:"name"`
	Email    *string   `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone    *string   `gorm:"type:varchar(30);uniqueIndex" json:"phone,omitempty"`
	Username *string   `gorm:"type:varchar(60);uniqueIndex" json:"username,omitempty"`
	Avatar   string    `gorm:"type:text" json:"avatar,omitempty"`

	Password string `gorm:"not null" json:"-"`

	// Role is fixed at registration; no operation mutates it afterwards.
	Role     Role `gorm:"type:varchar(20);not null;index" json:"role"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	// Seller profile (freelancer only)
	Title           string         `gorm:"type:varchar(150)" json:"title,omitempty"`
	Skills          datatypes.JSON `json:"skills,omitempty"`    // ["logo design", ...]
	Bio             string         `gorm:"type:text" json:"bio,omitempty"`
	Portfolio       datatypes.JSON `json:"portfolio,omitempty"` // { images: [...], links: [...] }
	Languages       datatypes.JSON `json:"languages,omitempty"`
	ExperienceLevel string         `gorm:"type:varchar(30)" json:"experience_level,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) IsSeller() bool { return u.Role == RoleFreelancer }
