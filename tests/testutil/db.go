package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates a connection to the test PostgreSQL database
// It uses environment variables or falls back to docker-compose defaults
func SetupTestDB(t *testing.T) *gorm.DB {
	host := getEnvOrDefault("DATABASE_HOST", "localhost")
	port := getEnvOrDefault("DATABASE_PORT", "5432")
	user := getEnvOrDefault("DATABASE_USER", "devis_user")
	password := getEnvOrDefault("DATABASE_PASSWORD", "devis_password")
	dbname := getEnvOrDefault("DATABASE_NAME", "devis_test")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		host, port, user, password, dbname)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database. Ensure PostgreSQL is running.")

	err = db.AutoMigrate(
		&domain.Client{},
		&domain.Product{},
		&domain.Quote{},
		&domain.QuoteLine{},
		&domain.QuoteStatusHistory{},
		&domain.NumberSequence{},
		&domain.User{},
		&domain.AuditLog{},
		&domain.ExportSnapshot{},
	)
	require.NoError(t, err, "Failed to migrate test database schema")

	return db
}

// CleanupTestData cleans up test data from all tables
// This should be called after tests to ensure a clean state
func CleanupTestData(t *testing.T, db *gorm.DB) {
	// Delete in order to respect foreign key constraints
	tables := []string{
		"export_snapshots",
		"quote_status_history",
		"quote_lines",
		"quotes",
		"audit_logs",
		"number_sequences",
		"clients",
		"products",
		"users",
	}

	for _, table := range tables {
		err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id IS NOT NULL", table)).Error
		if err != nil {
			// Table might not exist, that's ok
			t.Logf("Note: Could not clean table %s: %v", table, err)
		}
	}
}

// CreateTestClient creates a client with a unique SIRET and returns it
// Uses Omit to skip association handling on the Quotes relation
func CreateTestClient(t *testing.T, db *gorm.DB, name string) *domain.Client {
	// SIRET numbers are 14 digits
	siret := fmt.Sprintf("%014d", randomInt()%100000000000000)
	client := &domain.Client{
		Name:        name,
		SiretNumber: siret,
		Email:       "test@example.com",
		Phone:       "0612345678",
		Country:     "France",
		ClientType:  domain.ClientTypePharmacy,
		Status:      domain.ClientStatusActive,
	}
	err := db.Omit(clause.Associations).Create(client).Error
	require.NoError(t, err)
	return client
}

// CreateTestProduct creates an active catalog product with a unique code.
// cost may be nil to represent an unknown purchase cost.
func CreateTestProduct(t *testing.T, db *gorm.DB, designation, price string, cost *string) *domain.Product {
	product := &domain.Product{
		Code:           fmt.Sprintf("TST-%d", randomInt()%100000000),
		Designation:    designation,
		Category:       "test",
		UnitSalePrice:  decimal.RequireFromString(price),
		TaxRatePercent: decimal.RequireFromString("20"),
		IsActive:       true,
	}
	if cost != nil {
		c := decimal.RequireFromString(*cost)
		product.PurchaseCost = &c
	}
	err := db.Create(product).Error
	require.NoError(t, err)
	return product
}

// CreateTestUser creates an active back-office user with the given roles
func CreateTestUser(t *testing.T, db *gorm.DB, displayName string, roles ...string) *domain.User {
	if len(roles) == 0 {
		roles = []string{string(domain.RoleSeller)}
	}
	id := fmt.Sprintf("user-%d", randomInt()%100000000)
	user := &domain.User{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: displayName,
		Roles:       pq.StringArray(roles),
		IsActive:    true,
	}
	err := db.Create(user).Error
	require.NoError(t, err)
	return user
}

// randomInt returns a unique integer for test data
func randomInt() int64 {
	return time.Now().UnixNano()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
