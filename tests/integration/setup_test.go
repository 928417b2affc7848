//go:build integration

package integration

import (
	"fmt"
	"os"
	"testing"

	"github.com/Eursukkul/event-checkout/pkg/database"
	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5434"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "checkout_test_db"),
	)

	// Migrates and installs the capacity CHECK constraint.
	testDB = database.NewPostgresDB(dsn)

	code := m.Run()

	cleanTables()
	os.Exit(code)
}

func cleanTables() {
	testDB.Exec("TRUNCATE reservation_tickets, reservations, payments, webhook_events, tickets, events RESTART IDENTITY CASCADE")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
