package engine

// =============================================================================
// ADAPTIVE TABLE RENDERER
// =============================================================================

// RenderMode selects between eager and windowed row rendering.
type RenderMode string

const (
	ModePlain   RenderMode = "plain"
	ModeVirtual RenderMode = "virtual"
)

// Defaults for windowed rendering. Threshold is entity-overridable through
// Features.VirtualThreshold.
const (
	DefaultVirtualThreshold = 100
	DefaultOverscan         = 10
	DefaultRowHeight        = 40
)

// Viewport describes the visible scroll window for virtual mode. All values
// are pixels.
type Viewport struct {
	ScrollTop int
	Height    int
}

// HeaderCell is one rendered header entry.
type HeaderCell struct {
	ID       string
	Label    string
	Align    Align
	Sticky   Sticky
	Sortable bool
	// Direction is set when this column is the active sort column.
	Direction Direction
}

// BodyCell is one rendered body entry.
type BodyCell struct {
	ColumnID string
	Value    string
	Align    Align
	Sticky   Sticky
}

// BodyRow is one rendered item row.
type BodyRow struct {
	ID       string
	Index    int
	Selected bool
	Cells    []BodyCell
}

// TableView is the mode-independent output of the renderer. In virtual mode
// Rows covers only the window and the two spacer heights preserve total
// scrollable height and native scrollbar proportions.
type TableView struct {
	Mode         RenderMode
	Selectable   bool
	AllSelected  bool
	Header       []HeaderCell
	Rows         []BodyRow
	TotalRows    int
	TopSpacer    int
	BottomSpacer int
}

// Table chooses between plain and virtual rendering and produces identical
// selection semantics for both modes.
type Table struct {
	threshold int
	overscan  int
	rowHeight int
	virtual   bool
}

// NewTable configures a renderer from entity features. Threshold zero means
// the default.
func NewTable(features Features) *Table {
	threshold := features.VirtualThreshold
	if threshold <= 0 {
		threshold = DefaultVirtualThreshold
	}
	return &Table{
		threshold: threshold,
		overscan:  DefaultOverscan,
		rowHeight: DefaultRowHeight,
		virtual:   features.VirtualScrolling,
	}
}

// Mode returns the rendering strategy for the given row count.
func (t *Table) Mode(rowCount int) RenderMode {
	if t.virtual && rowCount > t.threshold {
		return ModeVirtual
	}
	return ModePlain
}

// SelectAllIDs returns exactly the ids of the rows passed in, never the
// full unfiltered or unpaged server set. Both modes share this behaviour.
func SelectAllIDs(config *EntityConfig, rows []Row) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if id := config.RowID(row); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Render produces the view for the given columns and rows. selected reports
// per-id selection membership and may be nil. In virtual mode viewport
// determines the window; a zero viewport renders from the top.
//
// A panicking cell render function is a programming error in the entity's
// column factory and is deliberately not recovered here.
func (t *Table) Render(config *EntityConfig, columns []Column, rows []Row, sortState SortState, selected func(id string) bool, viewport Viewport) TableView {
	view := TableView{
		Mode:       t.Mode(len(rows)),
		Selectable: config.Features.Selection,
		TotalRows:  len(rows),
	}

	for _, col := range columns {
		if col.ID == ColumnSelection && !view.Selectable {
			continue
		}
		cell := HeaderCell{
			ID:       col.ID,
			Label:    col.Header,
			Align:    col.Align,
			Sticky:   col.Sticky,
			Sortable: col.Sortable,
		}
		if sortState.Column == col.ID {
			cell.Direction = sortState.Direction
		}
		view.Header = append(view.Header, cell)
	}

	first, last := 0, len(rows)-1
	if view.Mode == ModeVirtual {
		first, last = t.window(len(rows), viewport)
		view.TopSpacer = first * t.rowHeight
		view.BottomSpacer = (len(rows) - 1 - last) * t.rowHeight
	}

	allSelected := len(rows) > 0
	for i, row := range rows {
		id := config.RowID(row)
		isSelected := selected != nil && selected(id)
		if !isSelected {
			allSelected = false
		}
		if i < first || i > last {
			continue
		}

		body := BodyRow{ID: id, Index: i, Selected: isSelected}
		for _, col := range columns {
			if col.ID == ColumnSelection {
				continue
			}
			body.Cells = append(body.Cells, BodyCell{
				ColumnID: col.ID,
				Value:    col.CellValue(row),
				Align:    col.Align,
				Sticky:   col.Sticky,
			})
		}
		view.Rows = append(view.Rows, body)
	}
	view.AllSelected = allSelected
	return view
}

// window computes the inclusive index range intersecting the viewport plus
// the overscan margin in each direction.
func (t *Table) window(rowCount int, vp Viewport) (first, last int) {
	if rowCount == 0 {
		return 0, -1
	}
	height := vp.Height
	if height <= 0 {
		height = t.rowHeight * 20
	}

	first = vp.ScrollTop/t.rowHeight - t.overscan
	if first < 0 {
		first = 0
	}
	visible := height/t.rowHeight + 1
	last = vp.ScrollTop/t.rowHeight + visible + t.overscan
	if last > rowCount-1 {
		last = rowCount - 1
	}
	if first > last {
		first = last
	}
	return first, last
}
