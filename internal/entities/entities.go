// Package entities holds the declarative page configurations. Adding a new
// console page means adding one function here; the engine supplies all list
// behaviour.
package entities

import (
	"fmt"

	"github.com/aethra/fleetdesk/internal/engine"
	"github.com/aethra/fleetdesk/internal/services"
)

// Configs bundles the per-entity engine configurations built over one
// service registry.
type Configs struct {
	registry *services.Registry
}

// NewConfigs wires page configurations to the given services.
func NewConfigs(registry *services.Registry) *Configs {
	return &Configs{registry: registry}
}

// ByName resolves a page configuration by URL segment, nil when unknown.
func (c *Configs) ByName(name string) *engine.EntityConfig {
	switch name {
	case "users":
		return c.Users()
	case "roles":
		return c.Roles()
	case "devices":
		return c.Devices()
	case "vehicles":
		return c.Vehicles()
	case "vehicle-types":
		return c.VehicleTypes()
	case "subscription-plans":
		return c.SubscriptionPlans()
	case "organizations":
		return c.Organizations()
	default:
		return nil
	}
}

// Names lists the managed page segments in navigation order.
func Names() []string {
	return []string{
		"organizations", "users", "roles",
		"devices", "vehicles", "vehicle-types", "subscription-plans",
	}
}

// =============================================================================
// PAGE CONFIGURATIONS
// =============================================================================

// Users manages console accounts. Restore and hard delete are exposed so
// deactivated staff can be brought back or purged.
func (c *Configs) Users() *engine.EntityConfig {
	return &engine.EntityConfig{
		Name:     "users",
		Singular: "User",
		Plural:   "users",
		Service:  c.registry.Users,
		Columns: func(actions engine.ActionHandlers) []engine.Column {
			return []engine.Column{
				{ID: engine.ColumnSelection, Sticky: engine.StickyLeft},
				{ID: "email", Header: "Email", Sortable: true},
				{ID: "name", Header: "Name", Render: fullName, Accessor: "last_name", Sortable: true},
				{ID: "role", Header: "Role", Accessor: "role_name"},
				{ID: "is_active", Header: "Active", Render: yesNo("is_active"), Align: engine.AlignCenter},
				{ID: "last_login_at", Header: "Last Login", Sortable: true},
				{ID: "created_at", Header: "Created", Sortable: true},
				{ID: engine.ColumnActions, Header: "Actions", Sticky: engine.StickyRight},
			}
		},
		Filters: []engine.FilterDescriptor{
			{Key: "role_id", Label: "Role"},
			{Key: "is_active", Label: "Active", Options: activeOptions()},
		},
		Features: engine.Features{
			Create: true, Edit: true, Delete: true, Restore: true,
			HardDelete: true, BulkDelete: true, Export: true, Selection: true,
		},
		Messages: engine.Messages{
			DeleteSuccess: "User deactivated",
			DeleteError:   "Failed to deactivate user",
		},
	}
}

// Roles are few and mostly static; no selection or bulk operations.
func (c *Configs) Roles() *engine.EntityConfig {
	return &engine.EntityConfig{
		Name:     "roles",
		Singular: "Role",
		Plural:   "roles",
		Service:  c.registry.Roles,
		Columns: func(actions engine.ActionHandlers) []engine.Column {
			return []engine.Column{
				{ID: "code", Header: "Code", Sortable: true},
				{ID: "name", Header: "Name", Sortable: true},
				{ID: "description", Header: "Description"},
				{ID: "is_system", Header: "System", Render: yesNo("is_system"), Align: engine.AlignCenter},
				{ID: engine.ColumnActions, Header: "Actions", Sticky: engine.StickyRight},
			}
		},
		Features: engine.Features{Create: true, Edit: true, Delete: true},
	}
}

// Devices is the largest page; virtual scrolling kicks in on big fleets.
func (c *Configs) Devices() *engine.EntityConfig {
	return &engine.EntityConfig{
		Name:     "devices",
		Singular: "Device",
		Plural:   "devices",
		Service:  c.registry.Devices,
		Columns: func(actions engine.ActionHandlers) []engine.Column {
			return []engine.Column{
				{ID: engine.ColumnSelection, Sticky: engine.StickyLeft},
				{ID: "serial_number", Header: "Serial Number", Sortable: true},
				{ID: "imei", Header: "IMEI"},
				{ID: "model", Header: "Model", Sortable: true},
				{ID: "firmware_version", Header: "Firmware"},
				{ID: "status", Header: "Status", Sortable: true},
				{ID: "vehicle", Header: "Vehicle", Accessor: "vehicle_name"},
				{ID: "last_seen_at", Header: "Last Seen", Sortable: true},
				{ID: engine.ColumnActions, Header: "Actions", Sticky: engine.StickyRight},
			}
		},
		Filters: []engine.FilterDescriptor{
			{Key: "status", Label: "Status", Options: []engine.FilterOption{
				{Value: "active", Label: "Active"},
				{Value: "inactive", Label: "Inactive"},
				{Value: "maintenance", Label: "Maintenance"},
			}},
			{Key: "vehicle_id", Label: "Vehicle"},
		},
		DefaultVisibleColumns: []string{
			"serial_number", "model", "status", "vehicle", "last_seen_at",
		},
		Features: engine.Features{
			Create: true, Edit: true, Delete: true, Restore: true,
			BulkDelete: true, Export: true, Selection: true,
			VirtualScrolling: true,
		},
	}
}

// Vehicles tracks the fleet assets themselves.
func (c *Configs) Vehicles() *engine.EntityConfig {
	return &engine.EntityConfig{
		Name:     "vehicles",
		Singular: "Vehicle",
		Plural:   "vehicles",
		Service:  c.registry.Vehicles,
		Columns: func(actions engine.ActionHandlers) []engine.Column {
			return []engine.Column{
				{ID: engine.ColumnSelection, Sticky: engine.StickyLeft},
				{ID: "name", Header: "Name", Sortable: true},
				{ID: "plate", Header: "Plate", Sortable: true},
				{ID: "type", Header: "Type", Accessor: "vehicle_type_name"},
				{ID: "make", Header: "Make"},
				{ID: "model", Header: "Model"},
				{ID: "year", Header: "Year", Align: engine.AlignRight, Sortable: true},
				{ID: "odometer", Header: "Odometer", Align: engine.AlignRight, Sortable: true},
				{ID: "status", Header: "Status"},
				{ID: engine.ColumnActions, Header: "Actions", Sticky: engine.StickyRight},
			}
		},
		Filters: []engine.FilterDescriptor{
			{Key: "vehicle_type_id", Label: "Type"},
			{Key: "status", Label: "Status", Options: []engine.FilterOption{
				{Value: "active", Label: "Active"},
				{Value: "in_service", Label: "In Service"},
				{Value: "retired", Label: "Retired"},
			}},
		},
		Features: engine.Features{
			Create: true, Edit: true, Delete: true, Restore: true,
			BulkDelete: true, Export: true, Selection: true,
			VirtualScrolling: true,
		},
	}
}

// VehicleTypes is reference data.
func (c *Configs) VehicleTypes() *engine.EntityConfig {
	return &engine.EntityConfig{
		Name:     "vehicle-types",
		Singular: "Vehicle Type",
		Plural:   "vehicle types",
		Service:  c.registry.VehicleTypes,
		Columns: func(actions engine.ActionHandlers) []engine.Column {
			return []engine.Column{
				{ID: "code", Header: "Code", Sortable: true},
				{ID: "name", Header: "Name", Sortable: true},
				{ID: "description", Header: "Description"},
				{ID: engine.ColumnActions, Header: "Actions", Sticky: engine.StickyRight},
			}
		},
		Features: engine.Features{Create: true, Edit: true, Delete: true},
	}
}

// SubscriptionPlans renders prices through a cents-to-decimal formatter.
func (c *Configs) SubscriptionPlans() *engine.EntityConfig {
	return &engine.EntityConfig{
		Name:     "subscription-plans",
		Singular: "Subscription Plan",
		Plural:   "subscription plans",
		Service:  c.registry.SubscriptionPlans,
		Columns: func(actions engine.ActionHandlers) []engine.Column {
			return []engine.Column{
				{ID: "code", Header: "Code", Sortable: true},
				{ID: "name", Header: "Name", Sortable: true},
				{ID: "price", Header: "Price", Render: renderPrice, Align: engine.AlignRight},
				{ID: "max_vehicles", Header: "Max Vehicles", Align: engine.AlignRight},
				{ID: "max_devices", Header: "Max Devices", Align: engine.AlignRight},
				{ID: "is_active", Header: "Active", Render: yesNo("is_active"), Align: engine.AlignCenter},
				{ID: engine.ColumnActions, Header: "Actions", Sticky: engine.StickyRight},
			}
		},
		Filters: []engine.FilterDescriptor{
			{Key: "is_active", Label: "Active", Options: activeOptions()},
		},
		Features: engine.Features{Create: true, Edit: true, Delete: true, Export: true},
	}
}

// Organizations is the tenant directory.
func (c *Configs) Organizations() *engine.EntityConfig {
	return &engine.EntityConfig{
		Name:     "organizations",
		Singular: "Organization",
		Plural:   "organizations",
		Service:  c.registry.Organizations,
		Columns: func(actions engine.ActionHandlers) []engine.Column {
			return []engine.Column{
				{ID: engine.ColumnSelection, Sticky: engine.StickyLeft},
				{ID: "name", Header: "Name", Sortable: true},
				{ID: "slug", Header: "Slug"},
				{ID: "timezone", Header: "Timezone"},
				{ID: "is_active", Header: "Active", Render: yesNo("is_active"), Align: engine.AlignCenter},
				{ID: "created_at", Header: "Created", Sortable: true},
				{ID: engine.ColumnActions, Header: "Actions", Sticky: engine.StickyRight},
			}
		},
		Filters: []engine.FilterDescriptor{
			{Key: "is_active", Label: "Active", Options: activeOptions()},
		},
		Features: engine.Features{
			Create: true, Edit: true, Delete: true, Restore: true,
			HardDelete: true, Selection: true, BulkDelete: true, Export: true,
		},
		Messages: engine.Messages{
			DeleteError: "Failed to delete organization; move its vehicles and users first",
		},
	}
}

// =============================================================================
// RENDER HELPERS
// =============================================================================

func fullName(row engine.Row) string {
	first, _ := row["first_name"].(string)
	last, _ := row["last_name"].(string)
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

func yesNo(field string) func(engine.Row) string {
	return func(row engine.Row) string {
		if v, ok := row[field].(bool); ok && v {
			return "Yes"
		}
		return "No"
	}
}

func renderPrice(row engine.Row) string {
	cents, ok := row["price_cents"].(int64)
	if !ok {
		if f, okf := row["price_cents"].(float64); okf {
			cents = int64(f)
		}
	}
	currency, _ := row["currency"].(string)
	if currency == "" {
		currency = "EUR"
	}
	return fmt.Sprintf("%.2f %s", float64(cents)/100, currency)
}

func activeOptions() []engine.FilterOption {
	return []engine.FilterOption{
		{Value: "true", Label: "Active"},
		{Value: "false", Label: "Inactive"},
	}
}
