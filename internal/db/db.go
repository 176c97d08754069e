package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"gigmarket_backend/internal/models"
)

func Connect(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}

// Migrate runs AutoMigrate for every persisted model.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.Gig{},
		&models.Order{},
		&models.Message{},
		&models.PaymentDetail{},
	)
}
