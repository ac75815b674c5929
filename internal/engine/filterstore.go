package engine

import (
	"log"

	"github.com/aethra/fleetdesk/internal/kvstore"
)

// =============================================================================
// ADVANCED FILTER STORE
// =============================================================================

const presetKeyPrefix = "filter-presets-"

// Preset is a named, persisted snapshot of conditions and logic.
type Preset struct {
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
	Logic      Logic       `json:"logic"`
}

// FilterStore holds the ordered row-level conditions, their combinator and
// the named presets for one entity. Presets persist across sessions;
// condition and logic edits do not unless explicitly saved as a preset.
type FilterStore struct {
	entity     string
	store      kvstore.Store
	conditions []Condition
	logic      Logic
	presets    map[string]Preset
}

// NewFilterStore starts with no conditions, AND logic, and the persisted
// preset map for the entity (best effort).
func NewFilterStore(entity string, store kvstore.Store) *FilterStore {
	s := &FilterStore{
		entity:  entity,
		store:   store,
		logic:   LogicAnd,
		presets: make(map[string]Preset),
	}
	s.loadPresets()
	return s
}

func (s *FilterStore) loadPresets() {
	if s.store == nil {
		return
	}
	var presets map[string]Preset
	err := kvstore.GetJSON(s.store, presetKeyPrefix+s.entity, &presets)
	if err == kvstore.ErrNotFound {
		return
	}
	if err != nil {
		log.Printf("[engine] preset read failed for %s: %v", s.entity, err)
		return
	}
	s.presets = presets
}

func (s *FilterStore) persistPresets() {
	if s.store == nil {
		return
	}
	if err := kvstore.SetJSON(s.store, presetKeyPrefix+s.entity, s.presets); err != nil {
		log.Printf("[engine] preset write failed for %s: %v", s.entity, err)
	}
}

// Conditions returns the current condition list.
func (s *FilterStore) Conditions() []Condition { return s.conditions }

// Logic returns the current combinator.
func (s *FilterStore) Logic() Logic { return s.logic }

// HasActiveFilters is true iff at least one condition is set.
func (s *FilterStore) HasActiveFilters() bool { return len(s.conditions) > 0 }

// AddCondition appends one condition.
func (s *FilterStore) AddCondition(c Condition) {
	s.conditions = append(s.conditions, c)
}

// UpdateCondition replaces the condition with the same id, if present.
func (s *FilterStore) UpdateCondition(c Condition) {
	for i := range s.conditions {
		if s.conditions[i].ID == c.ID {
			s.conditions[i] = c
			return
		}
	}
}

// RemoveCondition drops the condition with the given id.
func (s *FilterStore) RemoveCondition(id string) {
	for i := range s.conditions {
		if s.conditions[i].ID == id {
			s.conditions = append(s.conditions[:i], s.conditions[i+1:]...)
			return
		}
	}
}

// ClearConditions removes every condition.
func (s *FilterStore) ClearConditions() { s.conditions = nil }

// SetConditions replaces the whole condition list.
func (s *FilterStore) SetConditions(conditions []Condition) {
	s.conditions = append([]Condition(nil), conditions...)
}

// SetLogic switches the combinator.
func (s *FilterStore) SetLogic(logic Logic) {
	if logic == LogicAnd || logic == LogicOr {
		s.logic = logic
	}
}

// FilterData narrows already-fetched rows through the filter evaluator.
func (s *FilterStore) FilterData(rows []Row) []Row {
	return ApplyFilters(rows, s.conditions, s.logic)
}

// SavePreset snapshots the current conditions and logic under name,
// overwriting on collision.
func (s *FilterStore) SavePreset(name string) {
	if name == "" {
		return
	}
	s.presets[name] = Preset{
		Name:       name,
		Conditions: append([]Condition(nil), s.conditions...),
		Logic:      s.logic,
	}
	s.persistPresets()
}

// LoadPreset replaces the current conditions and logic with the named
// snapshot. Unknown names are reported.
func (s *FilterStore) LoadPreset(name string) bool {
	p, ok := s.presets[name]
	if !ok {
		return false
	}
	s.conditions = append([]Condition(nil), p.Conditions...)
	s.logic = p.Logic
	return true
}

// DeletePreset removes a named preset.
func (s *FilterStore) DeletePreset(name string) {
	if _, ok := s.presets[name]; !ok {
		return
	}
	delete(s.presets, name)
	s.persistPresets()
}

// PresetNames lists the stored preset names.
func (s *FilterStore) PresetNames() []string {
	names := make([]string, 0, len(s.presets))
	for name := range s.presets {
		names = append(names, name)
	}
	return names
}
