package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// FILTER EVALUATOR
// =============================================================================

// Operator is one comparison of the filter condition language.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "notEquals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "notContains"
	OpStartsWith  Operator = "startsWith"
	OpEndsWith    Operator = "endsWith"
	OpGt          Operator = "gt"
	OpGte         Operator = "gte"
	OpLt          Operator = "lt"
	OpLte         Operator = "lte"
	OpBetween     Operator = "between"
	OpIsEmpty     Operator = "isEmpty"
	OpIsNotEmpty  Operator = "isNotEmpty"
)

// Logic combines multiple conditions.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// Condition is one typed row-level predicate. Field references a column id
// or a dotted path into the row. Value2 is only meaningful for between.
type Condition struct {
	ID       string   `json:"id"`
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
	Value2   any      `json:"value2,omitempty"`
}

// Lookup resolves a dotted path through nested row maps. Missing
// intermediate values yield nil, never an error.
func Lookup(row Row, path string) any {
	var current any = row
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[segment]
		if !ok {
			return nil
		}
	}
	return current
}

// Evaluate checks one row against one condition. Pure and idempotent.
//
// String operators compare case-insensitively after coercing both operands
// to string. Numeric operators coerce both operands to numbers; a
// non-numeric operand excludes the row. isEmpty is true only for nil and
// the empty string (0 and false are not empty).
func Evaluate(row Row, c Condition) bool {
	value := Lookup(row, c.Field)

	switch c.Operator {
	case OpIsEmpty:
		return isEmptyValue(value)
	case OpIsNotEmpty:
		return !isEmptyValue(value)
	case OpEquals:
		return strings.EqualFold(toString(value), toString(c.Value))
	case OpNotEquals:
		return !strings.EqualFold(toString(value), toString(c.Value))
	case OpContains:
		return strings.Contains(lower(value), lower(c.Value))
	case OpNotContains:
		return !strings.Contains(lower(value), lower(c.Value))
	case OpStartsWith:
		return strings.HasPrefix(lower(value), lower(c.Value))
	case OpEndsWith:
		return strings.HasSuffix(lower(value), lower(c.Value))
	case OpGt:
		return compareNumeric(value, c.Value, func(a, b float64) bool { return a > b })
	case OpGte:
		return compareNumeric(value, c.Value, func(a, b float64) bool { return a >= b })
	case OpLt:
		return compareNumeric(value, c.Value, func(a, b float64) bool { return a < b })
	case OpLte:
		return compareNumeric(value, c.Value, func(a, b float64) bool { return a <= b })
	case OpBetween:
		lo := toNumber(c.Value)
		hi := toNumber(c.Value2)
		n := toNumber(value)
		if math.IsNaN(n) || math.IsNaN(lo) || math.IsNaN(hi) {
			return false
		}
		return n >= lo && n <= hi
	}
	return false
}

// ApplyFilters narrows rows by the given conditions. An empty condition list
// returns rows unchanged (same slice, no copy).
func ApplyFilters(rows []Row, conditions []Condition, logic Logic) []Row {
	if len(conditions) == 0 {
		return rows
	}

	filtered := make([]Row, 0, len(rows))
	for _, row := range rows {
		if matches(row, conditions, logic) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func matches(row Row, conditions []Condition, logic Logic) bool {
	if logic == LogicOr {
		for _, c := range conditions {
			if Evaluate(row, c) {
				return true
			}
		}
		return false
	}
	for _, c := range conditions {
		if !Evaluate(row, c) {
			return false
		}
	}
	return true
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func compareNumeric(a, b any, cmp func(a, b float64) bool) bool {
	x := toNumber(a)
	y := toNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}
	return cmp(x, y)
}

func lower(v any) string {
	return strings.ToLower(toString(v))
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func toNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return math.NaN()
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return math.NaN()
		}
		return n
	default:
		n, err := strconv.ParseFloat(toString(v), 64)
		if err != nil {
			return math.NaN()
		}
		return n
	}
}
