package engine

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/phpdave11/gofpdf"
)

// =============================================================================
// EXPORT BOUNDARY
// =============================================================================

// ExportFormat selects the output encoding.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
	FormatPDF  ExportFormat = "pdf"
)

// defaultBlocklist is always excluded from exports in addition to any
// caller-specified fields. The exclusion is a hard contract, not a default.
var defaultBlocklist = []string{"password", "password_hash", "token"}

// Exporter writes the currently filtered/selected row set in one of the
// supported formats. Nested object fields flatten to parent_child keys and
// array fields join as comma-separated strings.
type Exporter struct {
	blocked map[string]bool
}

// NewExporter builds an exporter with the caller's field blocklist merged
// into the built-in one.
func NewExporter(blocklist ...string) *Exporter {
	blocked := make(map[string]bool, len(blocklist)+len(defaultBlocklist))
	for _, f := range defaultBlocklist {
		blocked[f] = true
	}
	for _, f := range blocklist {
		blocked[f] = true
	}
	return &Exporter{blocked: blocked}
}

// Export writes rows to w in the given format. stem names the logical file
// (used for the PDF title); extension handling is the caller's concern.
func (e *Exporter) Export(w io.Writer, format ExportFormat, rows []Row, stem string) error {
	flat := make([]map[string]string, len(rows))
	for i, row := range rows {
		flat[i] = e.Flatten(row)
	}
	keys := collectKeys(flat)

	switch format {
	case FormatCSV:
		return writeCSV(w, keys, flat)
	case FormatJSON:
		return writeJSON(w, keys, flat)
	case FormatPDF:
		return writePDF(w, keys, flat, stem)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// Flatten produces the export view of one row: nested maps become
// parent_child keys, slices join with commas, blocked fields disappear.
func (e *Exporter) Flatten(row Row) map[string]string {
	out := make(map[string]string)
	e.flattenInto(out, "", row)
	return out
}

func (e *Exporter) flattenInto(out map[string]string, prefix string, value map[string]any) {
	for key, v := range value {
		if e.blocked[key] {
			continue
		}
		flatKey := key
		if prefix != "" {
			flatKey = prefix + "_" + key
		}
		if e.blocked[flatKey] {
			continue
		}

		switch nested := v.(type) {
		case map[string]any:
			e.flattenInto(out, flatKey, nested)
		case []any:
			parts := make([]string, len(nested))
			for i, item := range nested {
				parts[i] = toString(item)
			}
			out[flatKey] = strings.Join(parts, ", ")
		default:
			out[flatKey] = toString(v)
		}
	}
}

func collectKeys(rows []map[string]string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, row := range rows {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func writeCSV(w io.Writer, keys []string, rows []map[string]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(keys); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(keys))
	for _, row := range rows {
		for i, key := range keys {
			record[i] = row[key]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, keys []string, rows []map[string]string) error {
	// keys are unused for JSON; each row keeps its own flattened fields.
	_ = keys
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writePDF(w io.Writer, keys []string, rows []map[string]string, title string) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageWidth - left - right
	colWidth := usable
	if len(keys) > 0 {
		colWidth = usable / float64(len(keys))
	}

	pdf.SetFont("Arial", "B", 8)
	for _, key := range keys {
		pdf.CellFormat(colWidth, 7, key, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range rows {
		for _, key := range keys {
			pdf.CellFormat(colWidth, 6, row[key], "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
