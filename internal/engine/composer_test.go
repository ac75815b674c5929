package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/aethra/fleetdesk/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{"id": fmt.Sprintf("%d", i+1), "name": fmt.Sprintf("device-%d", i+1), "status": "active"}
	}
	return rows
}

func newTestSession(svc Service) *Session {
	return NewSession(testConfig(svc), kvstore.NewMemoryStore(), &recordingNotifier{})
}

func TestSessionRefreshLoadsPageAndMeta(t *testing.T) {
	svc := newFakeService(seedRows(25)...)
	s := newTestSession(svc)

	require.NoError(t, s.Refresh(context.Background()))
	assert.Len(t, s.Rows(), DefaultPageSize)
	require.NotNil(t, s.Meta())
	assert.Equal(t, int64(25), s.Meta().TotalElements)
	assert.Equal(t, 3, s.Pagination.TotalPages())
}

func TestSessionSearchResetsPageToOne(t *testing.T) {
	svc := newFakeService(seedRows(100)...)
	s := newTestSession(svc)
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx))
	require.NoError(t, s.SetPage(ctx, 4))
	require.Equal(t, 4, s.Pagination.Page())

	// Seeded names include device-3, device-30..39; "device-3" matches several.
	require.NoError(t, s.SetSearch(ctx, "device-3"))

	assert.Equal(t, 1, s.Pagination.Page())
	last := svc.listCalls[len(svc.listCalls)-1]
	assert.Equal(t, 1, last.Page)
	assert.Equal(t, "device-3", last.Search)
}

func TestSessionFilterChangeResetsPageToOne(t *testing.T) {
	svc := newFakeService(seedRows(50)...)
	s := newTestSession(svc)
	ctx := context.Background()

	require.NoError(t, s.SetPage(ctx, 3))
	require.NoError(t, s.SetFilter(ctx, "status", "active"))

	assert.Equal(t, 1, s.Pagination.Page())
	last := svc.listCalls[len(svc.listCalls)-1]
	assert.Equal(t, "active", last.Filters["status"])
}

func TestSessionPageSizeChangeResetsPageToOne(t *testing.T) {
	svc := newFakeService(seedRows(50)...)
	s := newTestSession(svc)
	ctx := context.Background()

	require.NoError(t, s.SetPage(ctx, 3))
	require.NoError(t, s.SetPageSize(ctx, 25))
	assert.Equal(t, 1, s.Pagination.Page())
	assert.Len(t, s.Rows(), 25)
}

func TestSessionClearingFilterRemovesKey(t *testing.T) {
	svc := newFakeService(seedRows(5)...)
	s := newTestSession(svc)
	ctx := context.Background()

	require.NoError(t, s.SetFilter(ctx, "status", "active"))
	require.NoError(t, s.SetFilter(ctx, "status", ""))

	last := svc.listCalls[len(svc.listCalls)-1]
	_, present := last.Filters["status"]
	assert.False(t, present)
}

func TestSessionStaticParamsAlwaysSent(t *testing.T) {
	svc := newFakeService(seedRows(5)...)
	cfg := testConfig(svc)
	cfg.StaticParams = map[string]any{"organization_id": "org-1"}
	s := NewSession(cfg, kvstore.NewMemoryStore(), &recordingNotifier{})

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, "org-1", svc.listCalls[0].Filters["organization_id"])
}

func TestSessionSelectionClearedByFetch(t *testing.T) {
	svc := newFakeService(seedRows(30)...)
	s := newTestSession(svc)
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx))
	s.ToggleSelect("1")
	s.ToggleSelect("2")
	require.Len(t, s.SelectedIDs(), 2)

	require.NoError(t, s.SetPage(ctx, 2))
	assert.Empty(t, s.SelectedIDs())
}

func TestSessionSelectionDoesNotFetch(t *testing.T) {
	svc := newFakeService(seedRows(5)...)
	s := newTestSession(svc)
	require.NoError(t, s.Refresh(context.Background()))
	calls := len(svc.listCalls)

	s.ToggleSelect("1")
	s.ToggleSelect("1")
	s.SelectAll(s.Rows())
	s.ClearSelection()

	assert.Equal(t, calls, len(svc.listCalls))
}

func TestSessionSelectAllCoversExactlyGivenRows(t *testing.T) {
	svc := newFakeService(seedRows(30)...)
	s := newTestSession(svc)
	require.NoError(t, s.Refresh(context.Background()))

	s.SelectAll(s.Rows())
	assert.Len(t, s.SelectedIDs(), DefaultPageSize)
	assert.True(t, s.IsSelected("1"))
	assert.False(t, s.IsSelected("11"))
}

func TestSessionSortIsClientSideOnly(t *testing.T) {
	svc := newFakeService(
		Row{"id": "1", "name": "charlie"},
		Row{"id": "2", "name": "alpha"},
		Row{"id": "3", "name": "bravo"},
	)
	s := newTestSession(svc)
	require.NoError(t, s.Refresh(context.Background()))
	calls := len(svc.listCalls)

	s.HandleSort("name")
	sorted := s.VisibleRows()
	assert.Equal(t, "alpha", sorted[0]["name"])
	assert.Equal(t, "bravo", sorted[1]["name"])
	assert.Equal(t, "charlie", sorted[2]["name"])
	assert.Equal(t, calls, len(svc.listCalls))

	// Raw row order is untouched.
	assert.Equal(t, "charlie", s.Rows()[0]["name"])
}

func TestSessionVisibleRowsApplyAdvancedFilters(t *testing.T) {
	svc := newFakeService(
		Row{"id": "1", "name": "gps tracker", "status": "active"},
		Row{"id": "2", "name": "dash cam", "status": "inactive"},
	)
	s := newTestSession(svc)
	require.NoError(t, s.Refresh(context.Background()))

	s.Filters.AddCondition(Condition{ID: "c1", Field: "status", Operator: OpEquals, Value: "active"})
	visible := s.VisibleRows()
	require.Len(t, visible, 1)
	assert.Equal(t, "1", visible[0]["id"])

	// Row-level narrowing never re-fetches.
	assert.Len(t, s.Rows(), 2)
}

func TestSessionDialogTargeting(t *testing.T) {
	svc := newFakeService(seedRows(3)...)
	s := newTestSession(svc)
	require.NoError(t, s.Refresh(context.Background()))
	row := s.Rows()[1]

	s.OpenEdit(row)
	assert.True(t, s.Dialogs.Edit.IsOpen())
	assert.Equal(t, row, s.Current())

	s.Dialogs.Edit.Close()
	s.OpenCreate()
	assert.True(t, s.Dialogs.Create.IsOpen())
	assert.Nil(t, s.Current())
}

func TestSessionConfirmDeleteClosesDialogAndRefetches(t *testing.T) {
	svc := newFakeService(seedRows(3)...)
	s := newTestSession(svc)
	ctx := context.Background()
	require.NoError(t, s.Refresh(ctx))

	s.OpenDelete(s.Rows()[0])
	require.NoError(t, s.ConfirmDelete(ctx))

	assert.False(t, s.Dialogs.Delete.IsOpen())
	assert.Nil(t, s.Current())
	assert.Len(t, s.Rows(), 2)
}

func TestSessionConfirmBulkDeleteRefetchesEvenOnPartialFailure(t *testing.T) {
	svc := newFakeService(seedRows(3)...)
	svc.failOn["2"] = fmt.Errorf("locked")
	s := newTestSession(svc)
	ctx := context.Background()
	require.NoError(t, s.Refresh(ctx))

	s.ToggleSelect("1")
	s.ToggleSelect("2")
	s.ToggleSelect("3")
	s.OpenBulkDelete()

	err := s.ConfirmBulkDelete(ctx)
	require.Error(t, err)
	assert.False(t, s.Dialogs.BulkDelete.IsOpen())

	// The re-fetch reflects the two deletions that did land.
	require.Len(t, s.Rows(), 1)
	assert.Equal(t, "2", s.Rows()[0]["id"])
}

func TestSessionEmptyStateTracksEverHadRows(t *testing.T) {
	svc := newFakeService()
	s := newTestSession(svc)
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx))
	assert.True(t, s.IsEmpty())

	svc.rows = seedRows(2)
	require.NoError(t, s.Refresh(ctx))
	assert.False(t, s.IsEmpty())

	// Rows existed once; a search matching nothing is not "empty state".
	require.NoError(t, s.SetSearch(ctx, "zzz"))
	assert.Empty(t, s.Rows())
	assert.False(t, s.IsEmpty())
}

func TestSessionEndToEndSearchScenario(t *testing.T) {
	// 10 seeded rows, page size 10: navigate to page 4 (clamped), then a
	// search matching 3 rows must issue list with page 1 and the term.
	rows := []Row{
		{"id": "1", "name": "alpha van"},
		{"id": "2", "name": "alpha truck"},
		{"id": "3", "name": "alpha bus"},
		{"id": "4", "name": "beta"},
		{"id": "5", "name": "gamma"},
		{"id": "6", "name": "delta"},
		{"id": "7", "name": "epsilon"},
		{"id": "8", "name": "zeta"},
		{"id": "9", "name": "eta"},
		{"id": "10", "name": "theta"},
	}
	svc := newFakeService(rows...)
	s := newTestSession(svc)
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx))
	s.Pagination.SetTotalPages(4) // pretend more pages existed at some point
	require.NoError(t, s.SetPage(ctx, 4))

	require.NoError(t, s.SetSearch(ctx, "alpha"))

	assert.Equal(t, 1, s.Pagination.Page())
	last := svc.listCalls[len(svc.listCalls)-1]
	assert.Equal(t, 1, last.Page)
	assert.Equal(t, "alpha", last.Search)
	assert.Len(t, s.Rows(), 3)
}

func TestSessionHandlersBundle(t *testing.T) {
	svc := newFakeService(seedRows(3)...)
	s := newTestSession(svc)
	ctx := context.Background()
	h := s.Handlers()

	require.NoError(t, h.OnSearch(ctx, "device"))
	h.OnSort("name")
	h.OnToggleSelect("1")
	h.OnOpenCreate()

	assert.Equal(t, "device", s.Search())
	assert.True(t, s.SortConfig().IsActive())
	assert.True(t, s.IsSelected("1") || len(s.SelectedIDs()) == 0) // cleared if a fetch followed
	assert.True(t, s.Dialogs.Create.IsOpen())
}

func TestSessionHandlersBundleCoversDestructiveFlows(t *testing.T) {
	svc := &restoringService{newFakeService(seedRows(3)...)}
	s := newTestSession(svc)
	ctx := context.Background()
	h := s.Handlers()

	require.NoError(t, s.Refresh(ctx))
	row := s.Rows()[0]

	h.OnOpenRestore(row)
	assert.True(t, s.Dialogs.Restore.IsOpen())
	require.NoError(t, h.OnConfirmRestore(ctx))
	assert.False(t, s.Dialogs.Restore.IsOpen())
	assert.Equal(t, []string{"1"}, svc.restored)

	h.OnOpenHardDelete(row)
	assert.True(t, s.Dialogs.HardDelete.IsOpen())
	require.NoError(t, h.OnConfirmHardDelete(ctx))
	assert.False(t, s.Dialogs.HardDelete.IsOpen())
	assert.Equal(t, []string{"1"}, svc.hardDeleted)

	h.OnToggleSelect("2")
	h.OnOpenBulkDelete()
	assert.True(t, s.Dialogs.BulkDelete.IsOpen())
	require.NoError(t, h.OnConfirmBulkDelete(ctx))
	assert.False(t, s.Dialogs.BulkDelete.IsOpen())
	assert.Empty(t, s.SelectedIDs())
}
