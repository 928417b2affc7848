package database

import (
	"fmt"
	"log"
	"time"

	"github.com/Eursukkul/event-checkout/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	if err := Migrate(db); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Backstop for the conditional increment: sold may never pass capacity.
	if err := db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'tickets_sold_within_capacity') THEN
				ALTER TABLE tickets ADD CONSTRAINT tickets_sold_within_capacity
				CHECK (sold >= 0 AND (capacity IS NULL OR sold <= capacity));
			END IF;
		END $$;
	`).Error; err != nil {
		log.Fatalf("failed to add tickets capacity constraint: %v", err)
	}

	return db
}

// Migrate creates or updates all tables. The unique index on
// payments.provider_payment_id comes from the model tags.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Event{},
		&models.Ticket{},
		&models.Reservation{},
		&models.ReservationTicket{},
		&models.Payment{},
		&models.WebhookEvent{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
