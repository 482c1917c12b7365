package database

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/craftsite-simple/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TenantConnection is a short-lived connection to one tenant's private
// database. Callers open one per request, perform one operation, and close
// it; nothing is pooled across requests.
type TenantConnection struct {
	DB *gorm.DB
}

// OpenTenantConnection connects to a tenant database via its connection ref.
func OpenTenantConnection(connectionRef string) (*TenantConnection, error) {
	if connectionRef == "" {
		return nil, errors.New("tenant connection ref cannot be empty")
	}

	db, err := gorm.Open(postgres.Open(connectionRef), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to tenant database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB for tenant database: %v", err)
	}
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetConnMaxLifetime(time.Minute)

	return &TenantConnection{DB: db}, nil
}

// Migrate creates the tenant schema. Called once right after provisioning.
func (c *TenantConnection) Migrate() error {
	if err := c.DB.AutoMigrate(models.TenantModels()...); err != nil {
		return fmt.Errorf("failed to migrate tenant database: %v", err)
	}
	return nil
}

// Close releases the underlying connection.
func (c *TenantConnection) Close() {
	sqlDB, err := c.DB.DB()
	if err != nil {
		log.Printf("Warning: could not access tenant SQL DB for close: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Warning: failed to close tenant connection: %v", err)
	}
}
