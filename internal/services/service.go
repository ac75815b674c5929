// Package services implements the database-backed entity services consumed
// by the engine. One generic EntityService covers every managed table; the
// per-entity differences live entirely in the Descriptor.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/aethra/fleetdesk/internal/engine"
	apperrors "github.com/aethra/fleetdesk/internal/errors"
	"github.com/aethra/fleetdesk/internal/security"
)

// FilterIncludeDeleted is the reserved server filter that widens a list to
// soft-deleted rows. It never reaches the database as a column filter.
const FilterIncludeDeleted = "include_deleted"

// RowPreparer mutates an inbound create/update payload before it is written
// (hashing passwords, defaulting status values). Returning an error aborts
// the mutation.
type RowPreparer func(ctx context.Context, input engine.Row) error

// Reference declares a lookup table whose label column is joined into every
// listed row. The label lands on the row under the As key, so columns can
// read it without a second query.
type Reference struct {
	// Table is the lookup table; it is joined on its id column.
	Table string
	// ForeignKey is the column on the entity table holding the lookup id.
	ForeignKey string
	// LabelColumn is the human-readable column selected from the lookup table.
	LabelColumn string
	// As is the flat key the label appears under on listed rows.
	As string
}

// Descriptor is the static definition of one managed table.
type Descriptor struct {
	Table    string
	Singular string
	Plural   string

	// SearchColumns take part in the case-insensitive substring search.
	SearchColumns []string
	// FilterColumns whitelists the server-bound filter keys; anything else
	// sent by a client is ignored.
	FilterColumns map[string]bool
	// DefaultSort orders list output, e.g. "created_at DESC". Parsed and
	// table-qualified at construction.
	DefaultSort string
	// References joins lookup labels into listed rows.
	References []Reference
	// Immutable fields are stripped from update payloads.
	Immutable []string

	PrepareCreate RowPreparer
	PrepareUpdate RowPreparer
}

// EntityService implements engine.Service plus the soft-delete capabilities
// on top of one table.
type EntityService struct {
	db       *gorm.DB
	desc     Descriptor
	activity *ActivityRecorder
	// order is the validated, table-qualified form of desc.DefaultSort.
	order string
}

// NewEntityService validates the descriptor's identifiers once at
// construction; a bad descriptor is a programming error.
func NewEntityService(db *gorm.DB, desc Descriptor, activity *ActivityRecorder) (*EntityService, error) {
	if err := security.ValidateIdentifier(desc.Table); err != nil {
		return nil, fmt.Errorf("invalid table for %s: %w", desc.Singular, err)
	}
	for _, col := range desc.SearchColumns {
		if err := security.ValidateIdentifier(col); err != nil {
			return nil, fmt.Errorf("invalid search column for %s: %w", desc.Table, err)
		}
	}
	for col := range desc.FilterColumns {
		if err := security.ValidateIdentifier(col); err != nil {
			return nil, fmt.Errorf("invalid filter column for %s: %w", desc.Table, err)
		}
	}
	for _, ref := range desc.References {
		for _, name := range []string{ref.Table, ref.ForeignKey, ref.LabelColumn, ref.As} {
			if err := security.ValidateIdentifier(name); err != nil {
				return nil, fmt.Errorf("invalid reference for %s: %w", desc.Table, err)
			}
		}
	}
	order, err := qualifySort(desc.Table, desc.DefaultSort)
	if err != nil {
		return nil, fmt.Errorf("invalid default sort for %s: %w", desc.Table, err)
	}
	return &EntityService{db: db, desc: desc, activity: activity, order: order}, nil
}

// qualifySort parses a "column [ASC|DESC]" clause and qualifies the column
// with the entity table, so joins cannot make it ambiguous.
func qualifySort(table, sort string) (string, error) {
	if sort == "" {
		return "", nil
	}
	parts := strings.Fields(sort)
	if len(parts) > 2 {
		return "", fmt.Errorf("malformed sort clause %q", sort)
	}
	if err := security.ValidateIdentifier(parts[0]); err != nil {
		return "", err
	}
	dir := "ASC"
	if len(parts) == 2 {
		switch strings.ToUpper(parts[1]) {
		case "ASC", "DESC":
			dir = strings.ToUpper(parts[1])
		default:
			return "", fmt.Errorf("malformed sort direction %q", parts[1])
		}
	}
	return security.QualifyColumn(table, parts[0]) + " " + dir, nil
}

// Descriptor returns the static definition this service was built from.
func (s *EntityService) Descriptor() Descriptor { return s.desc }

// =============================================================================
// LISTING
// =============================================================================

// List fetches one page of rows as generic maps, honoring search, the
// whitelisted filters and soft deletion. Reference labels are joined in, so
// every row carries the flat keys the column accessors read.
func (s *EntityService) List(ctx context.Context, params engine.ListParams) (*engine.ListResult, error) {
	query := s.db.WithContext(ctx).Table(s.desc.Table)

	includeDeleted := false
	if v, ok := params.Filters[FilterIncludeDeleted]; ok {
		includeDeleted = v == true || v == "true"
	}
	if !includeDeleted {
		query = query.Where(security.QualifyColumn(s.desc.Table, "deleted_at") + " IS NULL")
	}

	if cond, args := security.SearchCondition(s.desc.Table, s.desc.SearchColumns, params.Search); cond != "" {
		query = query.Where(cond, args...)
	}

	for key, value := range params.Filters {
		if key == FilterIncludeDeleted || !s.desc.FilterColumns[key] {
			continue
		}
		cond, args, err := security.FilterCondition(s.desc.Table, key, value)
		if err != nil {
			return nil, fmt.Errorf("failed to build filter on %s: %w", key, err)
		}
		query = query.Where(cond, args...)
	}

	// Count before the joins go on. A LEFT JOIN on a lookup table's primary
	// key never multiplies rows, so the total is the same either way.
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", s.desc.Plural, err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = engine.DefaultPageSize
	}

	selects := []string{security.QuoteIdentifier(s.desc.Table) + ".*"}
	for _, ref := range s.desc.References {
		selects = append(selects, fmt.Sprintf("%s AS %s",
			security.QualifyColumn(ref.Table, ref.LabelColumn),
			security.QuoteIdentifier(ref.As)))
		query = query.Joins(fmt.Sprintf("LEFT JOIN %s ON %s = %s",
			security.QuoteIdentifier(ref.Table),
			security.QualifyColumn(ref.Table, "id"),
			security.QualifyColumn(s.desc.Table, ref.ForeignKey)))
	}
	query = query.Select(strings.Join(selects, ", "))

	if s.order != "" {
		query = query.Order(s.order)
	}

	var rows []map[string]any
	err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.desc.Plural, err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &engine.ListResult{
		Data: rows,
		Meta: &engine.PageMeta{TotalElements: total, TotalPages: totalPages},
	}, nil
}

// Get fetches a single row by id, soft-deleted rows included so detail and
// restore flows can see them.
func (s *EntityService) Get(ctx context.Context, id string) (engine.Row, error) {
	var row map[string]any
	err := s.db.WithContext(ctx).Table(s.desc.Table).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError(s.desc.Singular)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", s.desc.Singular, id, err)
	}
	return row, nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Create inserts a prepared payload and stamps the timestamps.
func (s *EntityService) Create(ctx context.Context, input engine.Row) (*engine.MutationResult, error) {
	payload := clone(input)
	if s.desc.PrepareCreate != nil {
		if err := s.desc.PrepareCreate(ctx, payload); err != nil {
			return nil, err
		}
	}
	now := time.Now().UTC()
	payload["created_at"] = now
	payload["updated_at"] = now
	delete(payload, "id")
	delete(payload, "deleted_at")

	if err := s.db.WithContext(ctx).Table(s.desc.Table).Create(payload).Error; err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", s.desc.Singular, err)
	}
	s.record(ctx, "", "create", payload)
	return &engine.MutationResult{Data: payload}, nil
}

// Update applies a prepared payload to one live row. Immutable and
// engine-managed fields are stripped first.
func (s *EntityService) Update(ctx context.Context, id string, input engine.Row) (*engine.MutationResult, error) {
	payload := clone(input)
	if s.desc.PrepareUpdate != nil {
		if err := s.desc.PrepareUpdate(ctx, payload); err != nil {
			return nil, err
		}
	}
	delete(payload, "id")
	delete(payload, "created_at")
	delete(payload, "deleted_at")
	for _, field := range s.desc.Immutable {
		delete(payload, field)
	}
	payload["updated_at"] = time.Now().UTC()

	result := s.db.WithContext(ctx).Table(s.desc.Table).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(payload)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update %s %s: %w", s.desc.Singular, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NewNotFoundError(s.desc.Singular)
	}
	s.record(ctx, id, "update", payload)
	return &engine.MutationResult{Data: payload}, nil
}

// Delete soft-deletes by stamping deleted_at.
func (s *EntityService) Delete(ctx context.Context, id string) (*engine.MutationResult, error) {
	result := s.db.WithContext(ctx).Table(s.desc.Table).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now().UTC())
	if result.Error != nil {
		return nil, fmt.Errorf("failed to delete %s %s: %w", s.desc.Singular, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NewNotFoundError(s.desc.Singular)
	}
	s.record(ctx, id, "delete", nil)
	return &engine.MutationResult{}, nil
}

// Restore reverses a soft delete.
func (s *EntityService) Restore(ctx context.Context, id string) (*engine.MutationResult, error) {
	result := s.db.WithContext(ctx).Table(s.desc.Table).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to restore %s %s: %w", s.desc.Singular, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NewNotFoundError(s.desc.Singular)
	}
	s.record(ctx, id, "restore", nil)
	return &engine.MutationResult{}, nil
}

// HardDelete removes the row permanently, soft-deleted or not.
func (s *EntityService) HardDelete(ctx context.Context, id string) (*engine.MutationResult, error) {
	result := s.db.WithContext(ctx).
		Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", security.QuoteIdentifier(s.desc.Table)), id)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to permanently delete %s %s: %w", s.desc.Singular, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NewNotFoundError(s.desc.Singular)
	}
	s.record(ctx, id, "hard_delete", nil)
	return &engine.MutationResult{}, nil
}

func (s *EntityService) record(ctx context.Context, id, action string, detail map[string]any) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, s.desc.Table, id, action, detail); err != nil {
		log.Printf("activity log write failed for %s %s: %v", s.desc.Table, action, err)
	}
}

func clone(row engine.Row) engine.Row {
	out := make(engine.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
