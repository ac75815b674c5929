// Package database provides schema migration and seeding
package database

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/aethra/fleetdesk/internal/auth"
	"github.com/aethra/fleetdesk/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationRecord tracks which SQL migrations have been applied
type MigrationRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for migrations
func (MigrationRecord) TableName() string {
	return "_fleetdesk_migrations"
}

// Migrate brings the schema up to date: extensions first, then the model
// tables, then the tracked SQL migrations that depend on those tables.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to enable uuid-ossp: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Organization{},
		&models.Role{},
		&models.User{},
		&models.VehicleType{},
		&models.SubscriptionPlan{},
		&models.Vehicle{},
		&models.Device{},
		&models.ActivityLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return runSQLMigrations(db)
}

// runSQLMigrations executes all pending SQL migrations in filename order.
func runSQLMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		var count int64
		db.Model(&MigrationRecord{}).Where("name = ?", file).Count(&count)
		if count > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, "migrations/"+file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		log.Printf("applying migration %s", file)
		if err := db.Exec(string(content)).Error; err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}

		if err := db.Create(&MigrationRecord{Name: file}).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}
	}

	return nil
}

// Seed inserts the baseline records a fresh installation needs. Every insert
// is keyed on a unique column, so running it again is a no-op.
func Seed(db *gorm.DB, adminEmail, adminPassword string) error {
	org := models.Organization{
		Name:     "Default Organization",
		Slug:     "default",
		Timezone: "UTC",
		IsActive: true,
	}
	if err := db.Where("slug = ?", org.Slug).FirstOrCreate(&org).Error; err != nil {
		return fmt.Errorf("failed to seed organization: %w", err)
	}

	roles := []models.Role{
		{
			Code:        "admin",
			Name:        "Administrator",
			Description: "Full access to every entity",
			IsSystem:    true,
			Permissions: models.JSONB{},
		},
		{
			Code:        "manager",
			Name:        "Fleet Manager",
			Description: "Manages vehicles and devices",
			Permissions: models.JSONB{
				"vehicles.*":      true,
				"devices.*":       true,
				"vehicle-types.*": true,
				"users.view":      true,
				"roles.view":      true,
			},
		},
		{
			Code:        "viewer",
			Name:        "Viewer",
			Description: "Read-only access",
			Permissions: models.JSONB{
				"vehicles.view":           true,
				"vehicles.export":         true,
				"devices.view":            true,
				"devices.export":          true,
				"vehicle-types.view":      true,
				"subscription-plans.view": true,
			},
		},
	}
	var adminRole models.Role
	for i := range roles {
		if err := db.Where("code = ?", roles[i].Code).FirstOrCreate(&roles[i]).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", roles[i].Code, err)
		}
		if roles[i].Code == "admin" {
			adminRole = roles[i]
		}
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := models.User{
		OrganizationID: org.ID,
		RoleID:         &adminRole.ID,
		Email:          strings.ToLower(adminEmail),
		PasswordHash:   hash,
		FirstName:      "Fleet",
		LastName:       "Admin",
		IsActive:       true,
	}
	if err := db.Where("email = ?", admin.Email).FirstOrCreate(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	vehicleTypes := []models.VehicleType{
		{Code: "van", Name: "Van", Icon: "van"},
		{Code: "truck", Name: "Truck", Icon: "truck"},
		{Code: "trailer", Name: "Trailer", Icon: "trailer"},
	}
	for i := range vehicleTypes {
		if err := db.Where("code = ?", vehicleTypes[i].Code).FirstOrCreate(&vehicleTypes[i]).Error; err != nil {
			return fmt.Errorf("failed to seed vehicle type %s: %w", vehicleTypes[i].Code, err)
		}
	}

	plans := []models.SubscriptionPlan{
		{
			Code: "starter", Name: "Starter", PriceCents: 4900, Currency: "EUR",
			MaxVehicles: 10, MaxDevices: 10, DisplayOrder: 1,
			Features: models.JSONB{"export": true},
		},
		{
			Code: "fleet", Name: "Fleet", PriceCents: 19900, Currency: "EUR",
			MaxVehicles: 100, MaxDevices: 150, DisplayOrder: 2,
			Features: models.JSONB{"export": true, "api_access": true},
		},
		{
			Code: "enterprise", Name: "Enterprise", PriceCents: 49900, Currency: "EUR",
			MaxVehicles: 0, MaxDevices: 0, DisplayOrder: 3,
			Features: models.JSONB{"export": true, "api_access": true, "sso": true},
		},
	}
	for i := range plans {
		if err := db.Where("code = ?", plans[i].Code).FirstOrCreate(&plans[i]).Error; err != nil {
			return fmt.Errorf("failed to seed plan %s: %w", plans[i].Code, err)
		}
	}

	return nil
}
