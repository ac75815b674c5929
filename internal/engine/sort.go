package engine

import (
	"math"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// =============================================================================
// SORT ENGINE
// =============================================================================

// Direction of a column sort. Empty means unsorted.
type Direction string

const (
	SortAsc  Direction = "asc"
	SortDesc Direction = "desc"
	SortNone Direction = ""
)

// SortState is the single-column tri-state sort configuration.
type SortState struct {
	Column    string
	Direction Direction
}

// HandleSort cycles the state for a clicked column: asc, desc, none on the
// same column; a different column restarts at asc and discards the prior
// column's state.
func (s *SortState) HandleSort(columnID string) {
	if s.Column != columnID {
		s.Column = columnID
		s.Direction = SortAsc
		return
	}
	switch s.Direction {
	case SortAsc:
		s.Direction = SortDesc
	case SortDesc:
		s.Column = ""
		s.Direction = SortNone
	default:
		s.Direction = SortAsc
	}
}

// IsActive reports whether a sort is applied.
func (s SortState) IsActive() bool { return s.Column != "" && s.Direction != SortNone }

var collator = collate.New(language.Und, collate.IgnoreCase)

// SortRows returns a sorted copy of rows for the given state, using value to
// extract the sort key per row. The input slice is never mutated. Rows with
// nil keys order last regardless of direction; strings compare via
// locale-aware collation, numbers numerically, times by instant, anything
// else by string coercion.
//
// Sorting is client-side only: it applies to the rows materialized in
// memory and never triggers a fetch.
func SortRows(rows []Row, state SortState, value func(Row) any) []Row {
	if !state.IsActive() || value == nil {
		return rows
	}

	sorted := make([]Row, len(rows))
	copy(sorted, rows)

	desc := state.Direction == SortDesc
	sort.SliceStable(sorted, func(i, j int) bool {
		a := value(sorted[i])
		b := value(sorted[j])

		// Nil keys always order after defined keys, in both passes.
		if a == nil || b == nil {
			return a != nil && b == nil
		}

		cmp := compareValues(a, b)
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return sorted
}

func compareValues(a, b any) int {
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return collator.CompareString(as, bs)
		}
	}

	an, aNum := asNumber(a)
	bn, bNum := asNumber(b)
	if aNum && bNum {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}

	if at, aok := asTime(a); aok {
		if bt, bok := asTime(b); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}

	return collator.CompareString(toString(a), toString(b))
}

func asNumber(v any) (float64, bool) {
	switch v.(type) {
	case float64, float32, int, int32, int64, uint, uint64:
		n := toNumber(v)
		return n, !math.IsNaN(n)
	default:
		return 0, false
	}
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}
