package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateStringOperators(t *testing.T) {
	row := Row{"name": "Fleet Truck", "status": "active"}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals case-insensitive", Condition{Field: "status", Operator: OpEquals, Value: "ACTIVE"}, true},
		{"equals mismatch", Condition{Field: "status", Operator: OpEquals, Value: "inactive"}, false},
		{"notEquals", Condition{Field: "status", Operator: OpNotEquals, Value: "inactive"}, true},
		{"contains", Condition{Field: "name", Operator: OpContains, Value: "truck"}, true},
		{"notContains", Condition{Field: "name", Operator: OpNotContains, Value: "van"}, true},
		{"startsWith", Condition{Field: "name", Operator: OpStartsWith, Value: "fleet"}, true},
		{"endsWith", Condition{Field: "name", Operator: OpEndsWith, Value: "Truck"}, true},
		{"numeric equals via coercion", Condition{Field: "name", Operator: OpEquals, Value: "fleet truck"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(row, tt.cond))
		})
	}
}

func TestEvaluateNumericOperators(t *testing.T) {
	row := Row{"odometer": 1500.0, "label": "abc"}

	assert.True(t, Evaluate(row, Condition{Field: "odometer", Operator: OpGt, Value: 1000}))
	assert.False(t, Evaluate(row, Condition{Field: "odometer", Operator: OpGt, Value: 2000}))
	assert.True(t, Evaluate(row, Condition{Field: "odometer", Operator: OpGte, Value: 1500}))
	assert.True(t, Evaluate(row, Condition{Field: "odometer", Operator: OpLt, Value: 1501}))
	assert.True(t, Evaluate(row, Condition{Field: "odometer", Operator: OpLte, Value: "1500"}))

	// Non-numeric coercion yields NaN and excludes the row.
	assert.False(t, Evaluate(row, Condition{Field: "label", Operator: OpGt, Value: 1}))
	assert.False(t, Evaluate(row, Condition{Field: "odometer", Operator: OpGt, Value: "not a number"}))
	assert.False(t, Evaluate(row, Condition{Field: "missing", Operator: OpLt, Value: 10}))
}

func TestEvaluateBetweenIsInclusive(t *testing.T) {
	cond := Condition{Field: "n", Operator: OpBetween, Value: 5, Value2: 10}

	assert.True(t, Evaluate(Row{"n": 5}, cond))
	assert.True(t, Evaluate(Row{"n": 10}, cond))
	assert.True(t, Evaluate(Row{"n": 7}, cond))
	assert.False(t, Evaluate(Row{"n": 4}, cond))
	assert.False(t, Evaluate(Row{"n": 11}, cond))
	assert.False(t, Evaluate(Row{"n": nil}, cond))
}

func TestEvaluateIsEmpty(t *testing.T) {
	empty := Condition{Field: "v", Operator: OpIsEmpty}

	assert.True(t, Evaluate(Row{"v": nil}, empty))
	assert.True(t, Evaluate(Row{"v": ""}, empty))
	assert.True(t, Evaluate(Row{}, empty))
	// 0 and false are not empty.
	assert.False(t, Evaluate(Row{"v": 0}, empty))
	assert.False(t, Evaluate(Row{"v": false}, empty))
	assert.False(t, Evaluate(Row{"v": "x"}, empty))

	notEmpty := Condition{Field: "v", Operator: OpIsNotEmpty}
	assert.True(t, Evaluate(Row{"v": 0}, notEmpty))
	assert.False(t, Evaluate(Row{"v": nil}, notEmpty))
}

func TestEvaluateDottedPath(t *testing.T) {
	row := Row{"vehicle": map[string]any{"type": map[string]any{"name": "Van"}}}

	assert.True(t, Evaluate(row, Condition{Field: "vehicle.type.name", Operator: OpEquals, Value: "van"}))
	// Missing intermediate values yield nil, never an error.
	assert.True(t, Evaluate(row, Condition{Field: "vehicle.owner.name", Operator: OpIsEmpty}))
	assert.False(t, Evaluate(row, Condition{Field: "vehicle.owner.name", Operator: OpEquals, Value: "x"}))
}

func TestEvaluateIsPure(t *testing.T) {
	row := Row{"a": 1}
	cond := Condition{Field: "a", Operator: OpEquals, Value: 1}

	first := Evaluate(row, cond)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Evaluate(row, cond))
	}
	assert.Equal(t, Row{"a": 1}, row)
}

func TestApplyFiltersEmptyConditionsReturnsSameSlice(t *testing.T) {
	rows := []Row{{"a": 1}, {"a": 2}}

	for _, logic := range []Logic{LogicAnd, LogicOr} {
		got := ApplyFilters(rows, nil, logic)
		assert.Len(t, got, 2)
		// Identity-equivalent: the same backing slice comes back.
		assert.Same(t, &rows[0], &got[0])
	}
}

func TestApplyFiltersAndOr(t *testing.T) {
	rows := []Row{{"a": 1, "b": 2}, {"a": 1, "b": 3}}
	conditions := []Condition{
		{Field: "a", Operator: OpEquals, Value: 1},
		{Field: "b", Operator: OpEquals, Value: 2},
	}

	and := ApplyFilters(rows, conditions, LogicAnd)
	assert.Equal(t, []Row{{"a": 1, "b": 2}}, and)

	or := ApplyFilters(rows, conditions, LogicOr)
	assert.Equal(t, rows, or)
}

func TestLookup(t *testing.T) {
	row := Row{"a": map[string]any{"b": "c"}, "x": 1}

	assert.Equal(t, "c", Lookup(row, "a.b"))
	assert.Equal(t, 1, Lookup(row, "x"))
	assert.Nil(t, Lookup(row, "a.b.c"))
	assert.Nil(t, Lookup(row, "missing"))
	assert.Nil(t, Lookup(row, "x.y"))
}
