// Package ui - HTML rendering for console list pages
package ui

import (
	"html/template"
	"io"

	"github.com/aethra/fleetdesk/internal/engine"
)

// FilterView is one filter dropdown on the page.
type FilterView struct {
	Key      string
	Label    string
	Options  []engine.FilterOption
	Selected string
}

// Page carries everything one list page needs to render.
type Page struct {
	Title         string
	Entity        string
	Search        string
	Filters       []FilterView
	Table         engine.TableView
	PageNumber    int
	PageSize      int
	TotalPages    int
	TotalElements int64
	CanPrev       bool
	CanNext       bool
	// Empty is true when the entity has no rows at all, as opposed to the
	// current search or filters matching nothing.
	Empty    bool
	Features engine.Features
}

// PrevPage returns the page number of the previous page.
func (p Page) PrevPage() int { return p.PageNumber - 1 }

// NextPage returns the page number of the next page.
func (p Page) NextPage() int { return p.PageNumber + 1 }

// Renderer renders console pages from the compiled page template.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer compiles the page template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl}, nil
}

// RenderPage writes the full HTML document for one list page.
func (r *Renderer) RenderPage(w io.Writer, page Page) error {
	return r.tmpl.Execute(w, page)
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} - FleetDesk</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6f8; color: #1a1d21; }
header { background: #10263b; color: #fff; padding: 12px 24px; }
main { padding: 24px; }
.toolbar { display: flex; gap: 12px; margin-bottom: 16px; align-items: center; flex-wrap: wrap; }
.toolbar input, .toolbar select { padding: 6px 10px; border: 1px solid #c6ccd4; border-radius: 4px; }
table { width: 100%; border-collapse: collapse; background: #fff; }
th, td { padding: 8px 12px; border-bottom: 1px solid #e3e6ea; text-align: left; }
th { background: #eef1f4; font-weight: 600; white-space: nowrap; }
.align-center { text-align: center; }
.align-right { text-align: right; }
tr.selected { background: #eaf2fc; }
.spacer td { padding: 0; border: none; }
.pager { display: flex; gap: 8px; align-items: center; margin-top: 16px; }
.pager a { padding: 6px 12px; border: 1px solid #c6ccd4; border-radius: 4px; text-decoration: none; color: inherit; background: #fff; }
.pager span.disabled { padding: 6px 12px; color: #9aa1a9; }
.empty { padding: 48px; text-align: center; color: #5a6169; background: #fff; }
.sort-indicator { font-size: 11px; margin-left: 4px; }
</style>
</head>
<body>
<header><strong>FleetDesk</strong> &middot; {{.Title}}</header>
<main>
<form class="toolbar" method="get">
  <input type="search" name="search" placeholder="Search {{.Title}}" value="{{.Search}}">
  {{range .Filters}}
  <select name="filter_{{.Key}}">
    <option value="">{{.Label}}</option>
    {{$selected := .Selected}}
    {{range .Options}}
    <option value="{{.Value}}"{{if eq .Value $selected}} selected{{end}}>{{.Label}}</option>
    {{end}}
  </select>
  {{end}}
  <button type="submit">Apply</button>
  {{if .Features.Export}}
  <a href="/api/{{.Entity}}/export?format=csv">Export CSV</a>
  {{end}}
</form>

{{if .Empty}}
<div class="empty">
  <p>No {{.Title}} yet.</p>
  {{if .Features.Create}}<p>Create the first one to get started.</p>{{end}}
</div>
{{else if not .Table.Rows}}
<div class="empty"><p>No {{.Title}} match the current search and filters.</p></div>
{{else}}
<table data-mode="{{.Table.Mode}}" data-total-rows="{{.Table.TotalRows}}">
<thead>
<tr>
  {{range .Table.Header}}
  <th class="align-{{.Align}}" data-column="{{.ID}}">
    {{if .Sortable}}
    <a href="?sort={{.ID}}{{if eq (printf "%s" .Direction) "asc"}}&amp;dir=desc{{end}}">{{.Label}}</a>
    {{else}}{{.Label}}{{end}}
    {{if eq (printf "%s" .Direction) "asc"}}<span class="sort-indicator">&#9650;</span>{{end}}
    {{if eq (printf "%s" .Direction) "desc"}}<span class="sort-indicator">&#9660;</span>{{end}}
  </th>
  {{end}}
</tr>
</thead>
<tbody>
{{if gt .Table.TopSpacer 0}}<tr class="spacer"><td colspan="{{len .Table.Header}}" style="height:{{.Table.TopSpacer}}px"></td></tr>{{end}}
{{range .Table.Rows}}
<tr data-id="{{.ID}}"{{if .Selected}} class="selected"{{end}}>
  {{range .Cells}}
  <td class="align-{{.Align}}">{{.Value}}</td>
  {{end}}
</tr>
{{end}}
{{if gt .Table.BottomSpacer 0}}<tr class="spacer"><td colspan="{{len .Table.Header}}" style="height:{{.Table.BottomSpacer}}px"></td></tr>{{end}}
</tbody>
</table>

<div class="pager">
  {{if .CanPrev}}<a href="?page={{.PrevPage}}&amp;page_size={{.PageSize}}">&laquo; Previous</a>{{else}}<span class="disabled">&laquo; Previous</span>{{end}}
  <span>Page {{.PageNumber}}{{if gt .TotalPages 0}} of {{.TotalPages}}{{end}} &middot; {{.TotalElements}} total</span>
  {{if .CanNext}}<a href="?page={{.NextPage}}&amp;page_size={{.PageSize}}">Next &raquo;</a>{{else}}<span class="disabled">Next &raquo;</span>{{end}}
</div>
{{end}}
</main>
</body>
</html>
`
