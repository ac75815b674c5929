package engine

import (
	"context"
	"fmt"

	"github.com/aethra/fleetdesk/internal/kvstore"
)

// =============================================================================
// LIST STATE COMPOSER
// =============================================================================

// Session is the aggregation root of one entity page: it wires pagination,
// search, server-bound filters, selection, sorting and dialog state to the
// entity's service and produces the view-model consumed by rendering.
// One Session is created per page mount and discarded on unmount; only the
// column customization and filter presets survive, through the kvstore.
//
// All state transitions are synchronous and single-threaded; the only
// suspension points are the service round-trips.
type Session struct {
	config *EntityConfig

	Pagination *Pagination
	Columns    *ColumnStore
	Filters    *FilterStore
	Dialogs    *Dialogs
	Mutator    *Mutator

	search       string
	activeFilter map[string]any
	selection    map[string]bool
	sortState    SortState

	rows []Row
	meta *PageMeta
	// current is the row most recently targeted by an edit/delete/restore/
	// hard-delete action; cleared when the create dialog opens.
	current Row

	// generation discards stale fetch results: a response whose token is no
	// longer the latest issued is dropped instead of applied.
	generation uint64

	// everHadRows distinguishes "server has no rows at all" from "current
	// filters match nothing", so the get-started call-to-action only shows
	// for a genuinely empty entity.
	everHadRows bool

	columns []Column
}

// NewSession mounts an entity page. store may be nil to disable persistence;
// notifier may be nil to log notifications.
func NewSession(config *EntityConfig, store kvstore.Store, notifier Notifier) *Session {
	s := &Session{
		config:       config,
		Pagination:   NewPagination(DefaultPageSize),
		Filters:      NewFilterStore(config.Name, store),
		Dialogs:      NewDialogs(),
		activeFilter: make(map[string]any),
		selection:    make(map[string]bool),
	}

	s.columns = config.Columns(ActionHandlers{
		OnEdit:       s.OpenEdit,
		OnDelete:     s.OpenDelete,
		OnRestore:    s.OpenRestore,
		OnHardDelete: s.OpenHardDelete,
	})
	s.Columns = NewColumnStore(config.Name, s.columns, config.DefaultVisibleColumns, store)
	s.Mutator = NewMutator(config, notifier, nil)
	return s
}

// Config returns the entity configuration of this page.
func (s *Session) Config() *EntityConfig { return s.config }

// =============================================================================
// FETCHING
// =============================================================================

// buildParams assembles one query-parameter object from the current page,
// page size, search term, active filters and static additional params.
func (s *Session) buildParams() ListParams {
	filters := make(map[string]any, len(s.activeFilter)+len(s.config.StaticParams))
	for k, v := range s.config.StaticParams {
		filters[k] = v
	}
	for k, v := range s.activeFilter {
		filters[k] = v
	}
	return ListParams{
		Page:     s.Pagination.Page(),
		PageSize: s.Pagination.PageSize(),
		Search:   s.search,
		Filters:  filters,
	}
}

// Refresh fetches the current page of rows. A refresh superseded by a newer
// parameter change discards its result when it resolves. Selection never
// survives a fetch: the row set changes identity.
func (s *Session) Refresh(ctx context.Context) error {
	token := s.generation + 1
	s.generation = token

	result, err := s.config.Service.List(ctx, s.buildParams())
	if token != s.generation {
		// A newer fetch superseded this one.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", s.config.Plural, err)
	}

	s.rows = result.Data
	s.meta = result.Meta
	if result.Meta != nil {
		s.Pagination.SetTotalPages(result.Meta.TotalPages)
	}
	if len(result.Data) > 0 {
		s.everHadRows = true
	}
	s.clearSelection()
	return nil
}

// Rows returns the raw fetched page.
func (s *Session) Rows() []Row { return s.rows }

// Meta returns the pagination metadata of the last fetch, nil when the
// backend supplied none (the footer is then disabled).
func (s *Session) Meta() *PageMeta { return s.meta }

// VisibleRows applies the advanced filter conditions and the client-side
// sort to the fetched page. Neither triggers a fetch.
func (s *Session) VisibleRows() []Row {
	rows := s.Filters.FilterData(s.rows)
	if !s.sortState.IsActive() {
		return rows
	}
	col, ok := s.columnByID(s.sortState.Column)
	if !ok {
		return rows
	}
	return SortRows(rows, s.sortState, col.SortValue)
}

// IsEmpty reports the get-started state: the entity has never had a row and
// nothing is narrowed by search or filters.
func (s *Session) IsEmpty() bool {
	return !s.everHadRows && len(s.rows) == 0 && s.search == "" && len(s.activeFilter) == 0
}

// =============================================================================
// SEARCH AND SERVER-BOUND FILTERS
// =============================================================================

// Search returns the current search term.
func (s *Session) Search() string { return s.search }

// SetSearch changes the search term, resets to page 1 and re-fetches.
func (s *Session) SetSearch(ctx context.Context, term string) error {
	if s.search == term {
		return nil
	}
	s.search = term
	s.Pagination.Reset()
	return s.Refresh(ctx)
}

// ActiveFilters returns the server-bound filter map.
func (s *Session) ActiveFilters() map[string]any { return s.activeFilter }

// SetFilter changes one server-bound filter, resets to page 1 and
// re-fetches. A nil or empty value removes the filter.
func (s *Session) SetFilter(ctx context.Context, key string, value any) error {
	if value == nil || value == "" {
		delete(s.activeFilter, key)
	} else {
		s.activeFilter[key] = value
	}
	s.Pagination.Reset()
	return s.Refresh(ctx)
}

// SetPage navigates and re-fetches.
func (s *Session) SetPage(ctx context.Context, page int) error {
	s.Pagination.SetPage(page)
	return s.Refresh(ctx)
}

// SetPageSize changes the page size, which resets to page 1, and
// re-fetches.
func (s *Session) SetPageSize(ctx context.Context, size int) error {
	s.Pagination.SetPageSize(size)
	return s.Refresh(ctx)
}

// HandleSort cycles the sort state for a column. Client-side only.
func (s *Session) HandleSort(columnID string) {
	s.sortState.HandleSort(columnID)
}

// SortConfig returns the current sort state.
func (s *Session) SortConfig() SortState { return s.sortState }

// =============================================================================
// SELECTION
// =============================================================================

// Selection never triggers a re-fetch and is scoped to the loaded page.

// SelectedIDs returns the selected row ids in no particular order.
func (s *Session) SelectedIDs() []string {
	ids := make([]string, 0, len(s.selection))
	for id := range s.selection {
		ids = append(ids, id)
	}
	return ids
}

// IsSelected reports membership of one id.
func (s *Session) IsSelected(id string) bool { return s.selection[id] }

// ToggleSelect flips one id's membership.
func (s *Session) ToggleSelect(id string) {
	if id == "" {
		return
	}
	if s.selection[id] {
		delete(s.selection, id)
	} else {
		s.selection[id] = true
	}
}

// SelectAll replaces the selection with exactly the given rows' ids.
func (s *Session) SelectAll(rows []Row) {
	s.clearSelection()
	for _, row := range rows {
		if id := s.config.RowID(row); id != "" {
			s.selection[id] = true
		}
	}
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() { s.clearSelection() }

func (s *Session) clearSelection() {
	s.selection = make(map[string]bool)
}

// =============================================================================
// DIALOG ORCHESTRATION
// =============================================================================

// Current returns the row targeted by the open entity-scoped dialog.
func (s *Session) Current() Row { return s.current }

// OpenCreate clears the current row and opens the create dialog.
func (s *Session) OpenCreate() {
	s.current = nil
	s.Dialogs.Create.Open()
}

// OpenEdit targets a row and opens the edit dialog.
func (s *Session) OpenEdit(row Row) {
	s.current = row
	s.Dialogs.Edit.Open()
}

// OpenDelete targets a row and opens the delete confirmation.
func (s *Session) OpenDelete(row Row) {
	s.current = row
	s.Dialogs.Delete.Open()
}

// OpenRestore targets a row and opens the restore confirmation.
func (s *Session) OpenRestore(row Row) {
	s.current = row
	s.Dialogs.Restore.Open()
}

// OpenHardDelete targets a row and opens the hard-delete confirmation.
func (s *Session) OpenHardDelete(row Row) {
	s.current = row
	s.Dialogs.HardDelete.Open()
}

// OpenBulkDelete opens the bulk-delete confirmation for the selection.
func (s *Session) OpenBulkDelete() {
	s.Dialogs.BulkDelete.Open()
}

// =============================================================================
// CONFIRMATION HANDLERS
// =============================================================================

// ConfirmDelete deletes the targeted row, closes the dialog and re-fetches
// on success.
func (s *Session) ConfirmDelete(ctx context.Context) error {
	return s.confirm(ctx, s.Dialogs.Delete, func(id string) error {
		return s.Mutator.PerformDelete(ctx, id)
	})
}

// ConfirmRestore restores the targeted row.
func (s *Session) ConfirmRestore(ctx context.Context) error {
	return s.confirm(ctx, s.Dialogs.Restore, func(id string) error {
		return s.Mutator.PerformRestore(ctx, id)
	})
}

// ConfirmHardDelete permanently removes the targeted row.
func (s *Session) ConfirmHardDelete(ctx context.Context) error {
	return s.confirm(ctx, s.Dialogs.HardDelete, func(id string) error {
		return s.Mutator.PerformHardDelete(ctx, id)
	})
}

// ConfirmBulkDelete deletes every selected row, then re-fetches regardless
// of aggregate outcome: a partial failure leaves the backend in a state only
// a fresh list can describe.
func (s *Session) ConfirmBulkDelete(ctx context.Context) error {
	err := s.Mutator.PerformBulkDelete(ctx, s.SelectedIDs())
	s.Dialogs.BulkDelete.Close()
	if refreshErr := s.Refresh(ctx); refreshErr != nil && err == nil {
		err = refreshErr
	}
	return err
}

func (s *Session) confirm(ctx context.Context, dialog *Dialog, op func(id string) error) error {
	if s.current == nil {
		dialog.Close()
		return nil
	}
	id := s.config.RowID(s.current)
	err := op(id)
	if err != nil {
		return err
	}
	dialog.Close()
	s.current = nil
	return s.Refresh(ctx)
}

// =============================================================================
// HANDLERS BUNDLE
// =============================================================================

// Handlers bundles every user-facing callback of the page so presentation
// code never touches state setters directly.
type Handlers struct {
	OnSearch            func(ctx context.Context, term string) error
	OnFilterChange      func(ctx context.Context, key string, value any) error
	OnPageChange        func(ctx context.Context, page int) error
	OnPageSizeChange    func(ctx context.Context, size int) error
	OnSort              func(columnID string)
	OnToggleSelect      func(id string)
	OnSelectAll         func(rows []Row)
	OnOpenCreate        func()
	OnOpenEdit          func(row Row)
	OnOpenDelete        func(row Row)
	OnOpenRestore       func(row Row)
	OnOpenHardDelete    func(row Row)
	OnOpenBulkDelete    func()
	OnConfirmDelete     func(ctx context.Context) error
	OnConfirmRestore    func(ctx context.Context) error
	OnConfirmHardDelete func(ctx context.Context) error
	OnConfirmBulkDelete func(ctx context.Context) error
}

// Handlers returns the callback bundle for this session.
func (s *Session) Handlers() Handlers {
	return Handlers{
		OnSearch:            s.SetSearch,
		OnFilterChange:      s.SetFilter,
		OnPageChange:        s.SetPage,
		OnPageSizeChange:    s.SetPageSize,
		OnSort:              s.HandleSort,
		OnToggleSelect:      s.ToggleSelect,
		OnSelectAll:         s.SelectAll,
		OnOpenCreate:        s.OpenCreate,
		OnOpenEdit:          s.OpenEdit,
		OnOpenDelete:        s.OpenDelete,
		OnOpenRestore:       s.OpenRestore,
		OnOpenHardDelete:    s.OpenHardDelete,
		OnOpenBulkDelete:    s.OpenBulkDelete,
		OnConfirmDelete:     s.ConfirmDelete,
		OnConfirmRestore:    s.ConfirmRestore,
		OnConfirmHardDelete: s.ConfirmHardDelete,
		OnConfirmBulkDelete: s.ConfirmBulkDelete,
	}
}

func (s *Session) columnByID(id string) (Column, bool) {
	for _, c := range s.columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}
