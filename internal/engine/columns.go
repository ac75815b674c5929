package engine

import (
	"log"

	"github.com/aethra/fleetdesk/internal/kvstore"
)

// =============================================================================
// COLUMN DEFINITIONS
// =============================================================================

// Align positions cell content.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Sticky pins a column to a table edge while scrolling horizontally.
type Sticky string

const (
	StickyNone  Sticky = ""
	StickyLeft  Sticky = "left"
	StickyRight Sticky = "right"
)

// Column describes one table column of an entity. ID must be stable and
// unique within the entity. Render, when nil, falls back to the accessor
// path (or the id) looked up in the row.
type Column struct {
	ID       string
	Header   string
	Accessor string
	Render   func(row Row) string
	Align    Align
	Sticky   Sticky
	Sortable bool
}

// CellValue resolves the displayed value of this column for a row.
func (c Column) CellValue(row Row) string {
	if c.Render != nil {
		return c.Render(row)
	}
	path := c.Accessor
	if path == "" {
		path = c.ID
	}
	return toString(Lookup(row, path))
}

// SortValue resolves the raw value used when sorting by this column.
func (c Column) SortValue(row Row) any {
	path := c.Accessor
	if path == "" {
		path = c.ID
	}
	return Lookup(row, path)
}

// =============================================================================
// COLUMN CUSTOMIZATION STORE
// =============================================================================

const columnKeyPrefix = "column-customization-"

type columnSnapshot struct {
	VisibleColumnIDs []string `json:"visibleColumnIds"`
	ColumnOrder      []string `json:"columnOrder"`
}

// ColumnStore holds the per-entity visible-column set and ordering,
// persisted across sessions. The selection column (when defined) is always
// rendered first and the actions column (when defined) last; neither is
// customizable.
type ColumnStore struct {
	entity  string
	store   kvstore.Store
	columns []Column

	selection *Column
	actions   *Column
	// customizable is every column except the two reserved ids, in the
	// order the factory produced them.
	customizable []Column

	defaults []string
	visible  map[string]bool
	order    []string
}

// NewColumnStore computes initial state from the persisted snapshot for the
// entity, falling back to defaultVisible or, failing that, every column.
// Persistence failures are logged and treated as "no persisted state".
func NewColumnStore(entity string, columns []Column, defaultVisible []string, store kvstore.Store) *ColumnStore {
	s := &ColumnStore{
		entity:  entity,
		store:   store,
		columns: columns,
		visible: make(map[string]bool),
	}

	for i := range columns {
		switch columns[i].ID {
		case ColumnSelection:
			s.selection = &columns[i]
		case ColumnActions:
			s.actions = &columns[i]
		default:
			s.customizable = append(s.customizable, columns[i])
		}
	}

	if len(defaultVisible) > 0 {
		s.defaults = filterKnown(defaultVisible, s.customizable)
	} else {
		for _, c := range s.customizable {
			s.defaults = append(s.defaults, c.ID)
		}
	}

	s.applyDefaults()
	s.loadSnapshot()
	return s
}

func (s *ColumnStore) applyDefaults() {
	s.visible = make(map[string]bool, len(s.defaults))
	for _, id := range s.defaults {
		s.visible[id] = true
	}
	s.order = s.order[:0]
	for _, c := range s.customizable {
		s.order = append(s.order, c.ID)
	}
}

func (s *ColumnStore) loadSnapshot() {
	if s.store == nil {
		return
	}
	var snap columnSnapshot
	err := kvstore.GetJSON(s.store, columnKeyPrefix+s.entity, &snap)
	if err == kvstore.ErrNotFound {
		return
	}
	if err != nil {
		log.Printf("[engine] column snapshot read failed for %s: %v", s.entity, err)
		return
	}

	s.visible = make(map[string]bool, len(snap.VisibleColumnIDs))
	for _, id := range filterKnown(snap.VisibleColumnIDs, s.customizable) {
		s.visible[id] = true
	}
	s.order = normalizeOrder(snap.ColumnOrder, s.customizable)
}

func (s *ColumnStore) persist() {
	if s.store == nil {
		return
	}
	snap := columnSnapshot{
		VisibleColumnIDs: s.visibleIDs(),
		ColumnOrder:      append([]string(nil), s.order...),
	}
	if err := kvstore.SetJSON(s.store, columnKeyPrefix+s.entity, snap); err != nil {
		log.Printf("[engine] column snapshot write failed for %s: %v", s.entity, err)
	}
}

// ToggleColumn flips visibility of a customizable column.
func (s *ColumnStore) ToggleColumn(id string) {
	s.SetColumnVisibility(id, !s.visible[id])
}

// SetColumnVisibility shows or hides a customizable column. Reserved ids
// are ignored.
func (s *ColumnStore) SetColumnVisibility(id string, visible bool) {
	if id == ColumnSelection || id == ColumnActions || !s.knows(id) {
		return
	}
	if visible {
		s.visible[id] = true
	} else {
		delete(s.visible, id)
	}
	s.persist()
}

// ReorderColumns replaces the customizable column order. Unknown ids are
// dropped and missing ids appended in factory order, so the effective list
// always covers exactly the customizable set.
func (s *ColumnStore) ReorderColumns(newOrder []string) {
	s.order = normalizeOrder(newOrder, s.customizable)
	s.persist()
}

// ResetColumns clears the persisted snapshot and reverts to computed
// defaults.
func (s *ColumnStore) ResetColumns() {
	s.applyDefaults()
	if s.store == nil {
		return
	}
	if err := s.store.Delete(columnKeyPrefix + s.entity); err != nil {
		log.Printf("[engine] column snapshot delete failed for %s: %v", s.entity, err)
	}
}

// IsColumnVisible reports visibility. Reserved columns are always visible.
func (s *ColumnStore) IsColumnVisible(id string) bool {
	if id == ColumnSelection {
		return s.selection != nil
	}
	if id == ColumnActions {
		return s.actions != nil
	}
	return s.visible[id]
}

// VisibleColumnIDs returns the visible customizable ids in render order.
func (s *ColumnStore) VisibleColumnIDs() []string { return s.visibleIDs() }

// VisibleColumns reconstructs the render order: selection first, then
// customizable columns filtered to the visible set in order sequence, then
// actions last. The invariant holds after every mutation.
func (s *ColumnStore) VisibleColumns() []Column {
	out := make([]Column, 0, len(s.customizable)+2)
	if s.selection != nil {
		out = append(out, *s.selection)
	}
	byID := make(map[string]Column, len(s.customizable))
	for _, c := range s.customizable {
		byID[c.ID] = c
	}
	for _, id := range s.order {
		if s.visible[id] {
			out = append(out, byID[id])
		}
	}
	if s.actions != nil {
		out = append(out, *s.actions)
	}
	return out
}

func (s *ColumnStore) visibleIDs() []string {
	ids := make([]string, 0, len(s.visible))
	for _, id := range s.order {
		if s.visible[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *ColumnStore) knows(id string) bool {
	for _, c := range s.customizable {
		if c.ID == id {
			return true
		}
	}
	return false
}

func filterKnown(ids []string, columns []Column) []string {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c.ID] = true
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if known[id] {
			out = append(out, id)
		}
	}
	return out
}

// normalizeOrder keeps known ids in the requested order, deduplicated, and
// appends any customizable columns the request omitted.
func normalizeOrder(requested []string, columns []Column) []string {
	seen := make(map[string]bool, len(columns))
	out := make([]string, 0, len(columns))
	for _, id := range filterKnown(requested, columns) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, c := range columns {
		if !seen[c.ID] {
			out = append(out, c.ID)
		}
	}
	return out
}
