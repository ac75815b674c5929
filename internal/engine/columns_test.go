package engine

import (
	"testing"

	"github.com/aethra/fleetdesk/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deviceColumns() []Column {
	return []Column{
		{ID: ColumnSelection, Sticky: StickyLeft},
		{ID: "serial_number", Header: "Serial", Sortable: true},
		{ID: "model", Header: "Model", Sortable: true},
		{ID: "status", Header: "Status"},
		{ID: ColumnActions, Header: "Actions", Sticky: StickyRight},
	}
}

func TestColumnStoreDefaultsToAllCustomizable(t *testing.T) {
	s := NewColumnStore("devices", deviceColumns(), nil, kvstore.NewMemoryStore())

	assert.Equal(t, []string{"serial_number", "model", "status"}, s.VisibleColumnIDs())
	assert.True(t, s.IsColumnVisible("model"))
	assert.True(t, s.IsColumnVisible(ColumnSelection))
	assert.True(t, s.IsColumnVisible(ColumnActions))
}

func TestColumnStoreExplicitDefaults(t *testing.T) {
	s := NewColumnStore("devices", deviceColumns(), []string{"serial_number"}, kvstore.NewMemoryStore())

	assert.Equal(t, []string{"serial_number"}, s.VisibleColumnIDs())
	assert.False(t, s.IsColumnVisible("model"))
}

func TestColumnOrderingInvariant(t *testing.T) {
	s := NewColumnStore("devices", deviceColumns(), nil, kvstore.NewMemoryStore())

	// Any toggle/reorder sequence keeps selection first and actions last.
	s.ToggleColumn("model")
	s.ReorderColumns([]string{"status", "serial_number"})
	s.ToggleColumn("model")
	s.SetColumnVisibility("serial_number", false)

	visible := s.VisibleColumns()
	require.NotEmpty(t, visible)
	assert.Equal(t, ColumnSelection, visible[0].ID)
	assert.Equal(t, ColumnActions, visible[len(visible)-1].ID)
}

func TestColumnStoreReservedIDsNotCustomizable(t *testing.T) {
	s := NewColumnStore("devices", deviceColumns(), nil, kvstore.NewMemoryStore())

	s.ToggleColumn(ColumnSelection)
	s.ToggleColumn(ColumnActions)
	s.SetColumnVisibility(ColumnActions, false)

	assert.True(t, s.IsColumnVisible(ColumnSelection))
	assert.True(t, s.IsColumnVisible(ColumnActions))
	assert.NotContains(t, s.VisibleColumnIDs(), ColumnSelection)
	assert.NotContains(t, s.VisibleColumnIDs(), ColumnActions)
}

func TestColumnStoreReorder(t *testing.T) {
	s := NewColumnStore("devices", deviceColumns(), nil, kvstore.NewMemoryStore())

	s.ReorderColumns([]string{"status", "serial_number", "model"})
	assert.Equal(t, []string{"status", "serial_number", "model"}, s.VisibleColumnIDs())

	// Unknown ids are dropped, omitted ids appended.
	s.ReorderColumns([]string{"model", "bogus"})
	assert.Equal(t, []string{"model", "serial_number", "status"}, s.VisibleColumnIDs())
}

func TestColumnStoreResetRestoresDefaultsAndClearsSnapshot(t *testing.T) {
	store := kvstore.NewMemoryStore()
	s := NewColumnStore("devices", deviceColumns(), []string{"serial_number", "model"}, store)

	s.ToggleColumn("status")
	s.ToggleColumn("serial_number")
	s.ReorderColumns([]string{"model", "status", "serial_number"})

	_, err := store.Get("column-customization-devices")
	require.NoError(t, err)

	s.ResetColumns()

	assert.Equal(t, []string{"serial_number", "model"}, s.VisibleColumnIDs())
	_, err = store.Get("column-customization-devices")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestColumnStorePersistsAcrossMounts(t *testing.T) {
	store := kvstore.NewMemoryStore()

	first := NewColumnStore("devices", deviceColumns(), nil, store)
	first.ToggleColumn("model")
	first.ReorderColumns([]string{"status", "serial_number"})

	second := NewColumnStore("devices", deviceColumns(), nil, store)
	assert.Equal(t, []string{"status", "serial_number"}, second.VisibleColumnIDs())
	assert.False(t, second.IsColumnVisible("model"))
}

func TestColumnStoreCorruptSnapshotFallsBackToDefaults(t *testing.T) {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set("column-customization-devices", []byte("{not json")))

	s := NewColumnStore("devices", deviceColumns(), nil, store)
	assert.Equal(t, []string{"serial_number", "model", "status"}, s.VisibleColumnIDs())
}

func TestColumnStoreNilStoreWorksWithoutPersistence(t *testing.T) {
	s := NewColumnStore("devices", deviceColumns(), nil, nil)
	s.ToggleColumn("model")
	s.ResetColumns()
	assert.Equal(t, []string{"serial_number", "model", "status"}, s.VisibleColumnIDs())
}

func TestColumnCellAndSortValues(t *testing.T) {
	row := Row{"serial_number": "SN-1", "meta": map[string]any{"fw": "1.2"}}

	plain := Column{ID: "serial_number"}
	assert.Equal(t, "SN-1", plain.CellValue(row))
	assert.Equal(t, "SN-1", plain.SortValue(row))

	nested := Column{ID: "fw", Accessor: "meta.fw"}
	assert.Equal(t, "1.2", nested.CellValue(row))

	rendered := Column{ID: "x", Render: func(r Row) string { return "custom" }}
	assert.Equal(t, "custom", rendered.CellValue(row))
}
