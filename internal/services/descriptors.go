package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/aethra/fleetdesk/internal/engine"
	apperrors "github.com/aethra/fleetdesk/internal/errors"
)

// Registry holds the one EntityService per managed table.
type Registry struct {
	Users             *EntityService
	Roles             *EntityService
	Devices           *EntityService
	Vehicles          *EntityService
	VehicleTypes      *EntityService
	SubscriptionPlans *EntityService
	Organizations     *EntityService
}

// NewRegistry wires every entity service over one connection.
func NewRegistry(db *gorm.DB) (*Registry, error) {
	activity := NewActivityRecorder(db)

	build := func(desc Descriptor) (*EntityService, error) {
		svc, err := NewEntityService(db, desc, activity)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s service: %w", desc.Table, err)
		}
		return svc, nil
	}

	var reg Registry
	var err error
	if reg.Users, err = build(userDescriptor()); err != nil {
		return nil, err
	}
	if reg.Roles, err = build(roleDescriptor()); err != nil {
		return nil, err
	}
	if reg.Devices, err = build(deviceDescriptor()); err != nil {
		return nil, err
	}
	if reg.Vehicles, err = build(vehicleDescriptor()); err != nil {
		return nil, err
	}
	if reg.VehicleTypes, err = build(vehicleTypeDescriptor()); err != nil {
		return nil, err
	}
	if reg.SubscriptionPlans, err = build(subscriptionPlanDescriptor()); err != nil {
		return nil, err
	}
	if reg.Organizations, err = build(organizationDescriptor()); err != nil {
		return nil, err
	}
	return &reg, nil
}

// ByName resolves a service by its URL segment, nil when unknown.
func (r *Registry) ByName(name string) *EntityService {
	switch name {
	case "users":
		return r.Users
	case "roles":
		return r.Roles
	case "devices":
		return r.Devices
	case "vehicles":
		return r.Vehicles
	case "vehicle-types":
		return r.VehicleTypes
	case "subscription-plans":
		return r.SubscriptionPlans
	case "organizations":
		return r.Organizations
	default:
		return nil
	}
}

// =============================================================================
// ENTITY DESCRIPTORS
// =============================================================================

func userDescriptor() Descriptor {
	return Descriptor{
		Table:         "users",
		Singular:      "User",
		Plural:        "users",
		SearchColumns: []string{"email", "first_name", "last_name"},
		FilterColumns: map[string]bool{
			"organization_id": true,
			"role_id":         true,
			"is_active":       true,
		},
		DefaultSort: "created_at DESC",
		References: []Reference{
			{Table: "roles", ForeignKey: "role_id", LabelColumn: "name", As: "role_name"},
		},
		Immutable:     []string{"organization_id"},
		PrepareCreate: prepareUserPayload(true),
		PrepareUpdate: prepareUserPayload(false),
	}
}

// prepareUserPayload normalizes the email and converts a plaintext password
// field into password_hash. Password is required on create only.
func prepareUserPayload(requirePassword bool) RowPreparer {
	return func(_ context.Context, input engine.Row) error {
		if email, ok := input["email"].(string); ok {
			input["email"] = strings.ToLower(strings.TrimSpace(email))
		}

		password, _ := input["password"].(string)
		delete(input, "password")
		if password == "" {
			if requirePassword {
				return apperrors.NewValidationError("password", "password is required")
			}
			return nil
		}
		if len(password) < 8 {
			return apperrors.NewValidationError("password", "password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		input["password_hash"] = string(hash)
		return nil
	}
}

func roleDescriptor() Descriptor {
	return Descriptor{
		Table:         "roles",
		Singular:      "Role",
		Plural:        "roles",
		SearchColumns: []string{"code", "name", "description"},
		FilterColumns: map[string]bool{"is_system": true},
		DefaultSort:   "name ASC",
		Immutable:     []string{"code", "is_system"},
	}
}

func deviceDescriptor() Descriptor {
	return Descriptor{
		Table:         "devices",
		Singular:      "Device",
		Plural:        "devices",
		SearchColumns: []string{"serial_number", "imei", "model"},
		FilterColumns: map[string]bool{
			"organization_id": true,
			"vehicle_id":      true,
			"status":          true,
		},
		DefaultSort: "created_at DESC",
		References: []Reference{
			{Table: "vehicles", ForeignKey: "vehicle_id", LabelColumn: "name", As: "vehicle_name"},
		},
		Immutable: []string{"serial_number"},
	}
}

func vehicleDescriptor() Descriptor {
	return Descriptor{
		Table:         "vehicles",
		Singular:      "Vehicle",
		Plural:        "vehicles",
		SearchColumns: []string{"name", "plate", "vin", "make", "model"},
		FilterColumns: map[string]bool{
			"organization_id": true,
			"vehicle_type_id": true,
			"status":          true,
		},
		DefaultSort: "name ASC",
		References: []Reference{
			{Table: "vehicle_types", ForeignKey: "vehicle_type_id", LabelColumn: "name", As: "vehicle_type_name"},
		},
	}
}

func vehicleTypeDescriptor() Descriptor {
	return Descriptor{
		Table:         "vehicle_types",
		Singular:      "Vehicle Type",
		Plural:        "vehicle types",
		SearchColumns: []string{"code", "name", "description"},
		FilterColumns: map[string]bool{},
		DefaultSort:   "name ASC",
		Immutable:     []string{"code"},
	}
}

func subscriptionPlanDescriptor() Descriptor {
	return Descriptor{
		Table:         "subscription_plans",
		Singular:      "Subscription Plan",
		Plural:        "subscription plans",
		SearchColumns: []string{"code", "name", "description"},
		FilterColumns: map[string]bool{"is_active": true, "currency": true},
		DefaultSort:   "display_order ASC",
		Immutable:     []string{"code"},
	}
}

func organizationDescriptor() Descriptor {
	return Descriptor{
		Table:         "organizations",
		Singular:      "Organization",
		Plural:        "organizations",
		SearchColumns: []string{"name", "slug"},
		FilterColumns: map[string]bool{"is_active": true},
		DefaultSort:   "name ASC",
		Immutable:     []string{"slug"},
	}
}
