// Package engine implements the generic entity management engine.
// Every console page (users, roles, devices, vehicles, vehicle types,
// subscription plans, organizations) is driven by one EntityConfig and the
// shared state machinery in this package; the engine itself contains no
// per-entity branching.
package engine

import "context"

// Row is one entity record as fetched from a service. Identity lives under
// the configured ID field and is the sole key used for selection, row
// matching and mutation targeting.
type Row = map[string]any

// Reserved column ids. Both are structural: they are always rendered (first
// and last respectively) and are excluded from customization and advanced
// filtering.
const (
	ColumnSelection = "selection"
	ColumnActions   = "actions"
)

// ListParams are the query parameters the engine forwards to a service list
// call. Filters are server-bound key=value pairs, distinct from the
// row-level conditions of the advanced filter store.
type ListParams struct {
	Page     int            `json:"page"`
	PageSize int            `json:"size"`
	Search   string         `json:"search"`
	Filters  map[string]any `json:"filters"`
}

// PageMeta carries pagination totals returned by a service. The engine never
// fabricates totals; when Meta is absent the pagination footer is disabled.
type PageMeta struct {
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

// ListResult is a page of rows plus optional pagination metadata.
type ListResult struct {
	Data []Row     `json:"data"`
	Meta *PageMeta `json:"meta,omitempty"`
}

// MutationResult is the outcome of a mutating service call. Message, when
// set, overrides the engine's generated success notification.
type MutationResult struct {
	Data    Row    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Service is the fixed contract every entity supplies to the engine.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, id string) (Row, error)
	Create(ctx context.Context, input Row) (*MutationResult, error)
	Update(ctx context.Context, id string, input Row) (*MutationResult, error)
	Delete(ctx context.Context, id string) (*MutationResult, error)
}

// Restorer is the optional soft-delete reversal capability of a service.
type Restorer interface {
	Restore(ctx context.Context, id string) (*MutationResult, error)
}

// HardDeleter is the optional irreversible removal capability of a service.
type HardDeleter interface {
	HardDelete(ctx context.Context, id string) (*MutationResult, error)
}

// Features toggles engine behaviour per entity.
type Features struct {
	Create           bool
	Edit             bool
	Delete           bool
	Restore          bool
	HardDelete       bool
	BulkDelete       bool
	Export           bool
	Selection        bool
	VirtualScrolling bool
	// VirtualThreshold overrides the default row count above which the
	// table switches to windowed rendering. Zero means use the default.
	VirtualThreshold int
}

// FilterDescriptor declares one server-bound filter the page exposes.
type FilterDescriptor struct {
	Key     string
	Label   string
	Options []FilterOption
}

// FilterOption is one selectable value of a server-bound filter.
type FilterOption struct {
	Value string
	Label string
}

// Messages holds per-entity notification templates. Empty fields fall back
// to messages generated from the entity display names.
type Messages struct {
	CreateSuccess string
	UpdateSuccess string
	DeleteSuccess string
	DeleteError   string
	RestoreError  string
}

// ActionHandlers are the row-level callbacks a column factory may bind into
// the actions column.
type ActionHandlers struct {
	OnEdit       func(row Row)
	OnDelete     func(row Row)
	OnRestore    func(row Row)
	OnHardDelete func(row Row)
}

// ColumnFactory builds the full column list for an entity. It is a pure
// function from action handlers to column definitions and is invoked once
// per page mount.
type ColumnFactory func(actions ActionHandlers) []Column

// EntityConfig is the static, per-entity descriptor consumed by the engine.
// Created once per page mount; never mutated afterwards.
type EntityConfig struct {
	// Name keys persisted state (column customization, filter presets).
	Name     string
	Singular string
	Plural   string
	// IDField names the row field holding the stable unique identifier.
	// Empty means "id".
	IDField string

	Service Service
	Columns ColumnFactory
	Filters []FilterDescriptor
	// DefaultVisibleColumns, when set, limits the initially visible
	// customizable columns; otherwise every column starts visible.
	DefaultVisibleColumns []string
	Features              Features
	Messages              Messages
	// StaticParams are merged into every list query unchanged.
	StaticParams map[string]any
}

// RowID extracts the identity of a row under this config, coerced to string.
func (c *EntityConfig) RowID(row Row) string {
	field := c.IDField
	if field == "" {
		field = "id"
	}
	return toString(Lookup(row, field))
}
