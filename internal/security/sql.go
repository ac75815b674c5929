// Package security guards the SQL fragments the entity services assemble
// from declarative configuration: identifier validation, quoting and LIKE
// pattern escaping.
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidIdentifierRegex matches valid PostgreSQL identifiers.
// Lowercase letters, digits and underscores only, starting with a letter or
// underscore.
var ValidIdentifierRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidateIdentifier checks that a string is usable as a table or column
// name. Entity descriptors are static, but every name still passes through
// here before it reaches a query.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 63 {
		return fmt.Errorf("identifier too long (max 63 characters)")
	}
	if !ValidIdentifierRegex.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: must contain only lowercase letters, numbers, and underscores, starting with a letter or underscore", name)
	}
	if isReservedWord(name) {
		return fmt.Errorf("%q is a reserved SQL keyword", name)
	}
	return nil
}

// QuoteIdentifier quotes an identifier for PostgreSQL. Use only after
// validation.
func QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, `"`, `""`)
	return `"` + escaped + `"`
}

// SafeIdentifier validates and quotes an identifier in one step.
func SafeIdentifier(name string) (string, error) {
	if err := ValidateIdentifier(name); err != nil {
		return "", err
	}
	return QuoteIdentifier(name), nil
}

// QualifyColumn quotes a table-qualified column reference. List queries join
// lookup tables, so bare column names would be ambiguous. Use only after
// validation.
func QualifyColumn(table, column string) string {
	return QuoteIdentifier(table) + "." + QuoteIdentifier(column)
}

// EscapeLikePattern escapes %, _ and \ so a search term matches literally
// inside a LIKE pattern.
func EscapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}

// SearchCondition builds a parameterized case-insensitive substring match
// over the given table's columns, OR-joined. Columns failing validation are
// skipped. Returns an empty condition when nothing searchable remains.
func SearchCondition(table string, columns []string, term string) (string, []any) {
	if len(columns) == 0 || term == "" {
		return "", nil
	}
	if err := ValidateIdentifier(table); err != nil {
		return "", nil
	}

	pattern := "%" + EscapeLikePattern(term) + "%"

	clauses := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, col := range columns {
		if err := ValidateIdentifier(col); err != nil {
			continue
		}
		clauses = append(clauses, fmt.Sprintf(`%s::text ILIKE ? ESCAPE '\'`, QualifyColumn(table, col)))
		args = append(args, pattern)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

// FilterCondition builds a parameterized equality filter for one column of
// the given table.
func FilterCondition(table, column string, value any) (string, []any, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", nil, err
	}
	if err := ValidateIdentifier(column); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s = ?", QualifyColumn(table, column)), []any{value}, nil
}

// isReservedWord reports PostgreSQL reserved words that validation rejects
// as identifiers.
func isReservedWord(word string) bool {
	reserved := map[string]bool{
		"all": true, "analyse": true, "analyze": true, "and": true, "any": true,
		"array": true, "as": true, "asc": true, "asymmetric": true, "both": true,
		"case": true, "cast": true, "check": true, "collate": true, "column": true,
		"constraint": true, "create": true, "current_catalog": true, "current_date": true,
		"current_role": true, "current_time": true, "current_timestamp": true,
		"current_user": true, "default": true, "deferrable": true, "desc": true,
		"distinct": true, "do": true, "else": true, "end": true, "except": true,
		"false": true, "fetch": true, "for": true, "foreign": true, "from": true,
		"grant": true, "group": true, "having": true, "in": true, "initially": true,
		"intersect": true, "into": true, "lateral": true, "leading": true, "limit": true,
		"localtime": true, "localtimestamp": true, "not": true, "null": true, "offset": true,
		"on": true, "only": true, "or": true, "order": true, "placing": true,
		"primary": true, "references": true, "returning": true, "select": true,
		"session_user": true, "some": true, "symmetric": true, "table": true,
		"then": true, "to": true, "trailing": true, "true": true, "union": true,
		"unique": true, "user": true, "using": true, "variadic": true, "when": true,
		"where": true, "window": true, "with": true,
	}
	return reserved[strings.ToLower(word)]
}
