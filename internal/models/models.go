// Package models contains the FleetDesk persistence models. Every managed
// entity carries a uuid primary key, timestamps and a nullable deleted_at
// for soft deletion; listing maps rows through the entity services rather
// than returning these structs directly.
package models

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TENANCY AND ACCESS MODELS
// =============================================================================

// Organization is the tenant boundary: every device, vehicle and user
// belongs to exactly one organization.
type Organization struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name      string     `json:"name" gorm:"not null;size:255"`
	Slug      string     `json:"slug" gorm:"uniqueIndex;not null;size:100"`
	Timezone  string     `json:"timezone" gorm:"size:64;default:'UTC'"`
	IsActive  bool       `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`

	// Relations
	Users    []User    `json:"users,omitempty" gorm:"foreignKey:OrganizationID"`
	Devices  []Device  `json:"devices,omitempty" gorm:"foreignKey:OrganizationID"`
	Vehicles []Vehicle `json:"vehicles,omitempty" gorm:"foreignKey:OrganizationID"`
}

// User is a console account.
type User struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID uuid.UUID  `json:"organization_id" gorm:"type:uuid;index"`
	RoleID         *uuid.UUID `json:"role_id" gorm:"type:uuid;index"`
	Email          string     `json:"email" gorm:"not null;size:255;index"`
	PasswordHash   string     `json:"-" gorm:"size:255"`
	FirstName      string     `json:"first_name" gorm:"size:100"`
	LastName       string     `json:"last_name" gorm:"size:100"`
	Phone          string     `json:"phone" gorm:"size:40"`
	IsActive       bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt    *time.Time `json:"last_login_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at" gorm:"index"`

	// Relations
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	Role         *Role         `json:"role,omitempty" gorm:"foreignKey:RoleID"`
}

// Role names a permission level. Permissions is a code-to-bool map kept as
// JSONB so levels can be tuned without a migration.
type Role struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Code        string     `json:"code" gorm:"uniqueIndex;not null;size:50"`
	Name        string     `json:"name" gorm:"not null;size:100"`
	Description string     `json:"description"`
	Permissions JSONB      `json:"permissions" gorm:"type:jsonb;default:'{}'"`
	IsSystem    bool       `json:"is_system" gorm:"default:false"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at" gorm:"index"`

	// Relations
	Users []User `json:"users,omitempty" gorm:"foreignKey:RoleID"`
}

// =============================================================================
// FLEET MODELS
// =============================================================================

// Device is a tracking unit installed in (or awaiting assignment to) a
// vehicle.
type Device struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID uuid.UUID  `json:"organization_id" gorm:"type:uuid;index"`
	VehicleID      *uuid.UUID `json:"vehicle_id" gorm:"type:uuid;index"`
	SerialNumber   string     `json:"serial_number" gorm:"uniqueIndex;not null;size:100"`
	IMEI           string     `json:"imei" gorm:"size:20"`
	Model          string     `json:"model" gorm:"size:100"`
	FirmwareVer    string     `json:"firmware_version" gorm:"size:50"`
	Status         string     `json:"status" gorm:"size:30;default:'inactive';index"`
	Metadata       JSONB      `json:"metadata" gorm:"type:jsonb;default:'{}'"`
	LastSeenAt     *time.Time `json:"last_seen_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at" gorm:"index"`

	// Relations
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	Vehicle      *Vehicle      `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
}

// Vehicle is a tracked fleet asset.
type Vehicle struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	OrganizationID uuid.UUID  `json:"organization_id" gorm:"type:uuid;index"`
	VehicleTypeID  *uuid.UUID `json:"vehicle_type_id" gorm:"type:uuid;index"`
	Name           string     `json:"name" gorm:"not null;size:100"`
	Plate          string     `json:"plate" gorm:"size:20;index"`
	VIN            string     `json:"vin" gorm:"size:17"`
	Make           string     `json:"make" gorm:"size:50"`
	ModelName      string     `json:"model" gorm:"size:50;column:model"`
	Year           int        `json:"year"`
	Odometer       float64    `json:"odometer" gorm:"default:0"`
	Status         string     `json:"status" gorm:"size:30;default:'active';index"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at" gorm:"index"`

	// Relations
	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	VehicleType  *VehicleType  `json:"vehicle_type,omitempty" gorm:"foreignKey:VehicleTypeID"`
	Devices      []Device      `json:"devices,omitempty" gorm:"foreignKey:VehicleID"`
}

// VehicleType classifies vehicles (van, truck, trailer) for filtering and
// reporting.
type VehicleType struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Code        string     `json:"code" gorm:"uniqueIndex;not null;size:50"`
	Name        string     `json:"name" gorm:"not null;size:100"`
	Description string     `json:"description"`
	Icon        string     `json:"icon" gorm:"size:50"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at" gorm:"index"`

	// Relations
	Vehicles []Vehicle `json:"vehicles,omitempty" gorm:"foreignKey:VehicleTypeID"`
}

// SubscriptionPlan describes a billable tier. Features is a free-form JSONB
// map rendered in the plan comparison table.
type SubscriptionPlan struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Code         string     `json:"code" gorm:"uniqueIndex;not null;size:50"`
	Name         string     `json:"name" gorm:"not null;size:100"`
	Description  string     `json:"description"`
	PriceCents   int64      `json:"price_cents" gorm:"default:0"`
	Currency     string     `json:"currency" gorm:"size:3;default:'EUR'"`
	MaxVehicles  int        `json:"max_vehicles" gorm:"default:0"`
	MaxDevices   int        `json:"max_devices" gorm:"default:0"`
	Features     JSONB      `json:"features" gorm:"type:jsonb;default:'{}'"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	DisplayOrder int        `json:"display_order" gorm:"default:0"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at" gorm:"index"`
}

// =============================================================================
// AUDIT MODEL
// =============================================================================

// ActivityLog records every mutation issued through the console.
type ActivityLog struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID    *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Entity    string     `json:"entity" gorm:"not null;size:50;index"`
	RecordID  string     `json:"record_id" gorm:"size:64"`
	Action    string     `json:"action" gorm:"not null;size:30"`
	Detail    JSONB      `json:"detail" gorm:"type:jsonb"`
	IPAddress string     `json:"ip_address" gorm:"size:45"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
