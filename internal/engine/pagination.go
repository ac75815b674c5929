package engine

// =============================================================================
// PAGINATION STATE
// =============================================================================

// DefaultPageSize is used when a page mount does not specify one.
const DefaultPageSize = 10

// Pagination is a page/page-size counter with bounds-aware navigation.
// All mutations are synchronous; bounds checks use the optional known total
// page count (zero means unknown, navigation forward is then unbounded).
type Pagination struct {
	page       int
	pageSize   int
	totalPages int
}

// NewPagination starts at page 1 with the given page size.
func NewPagination(pageSize int) *Pagination {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Pagination{page: 1, pageSize: pageSize}
}

func (p *Pagination) Page() int     { return p.page }
func (p *Pagination) PageSize() int { return p.pageSize }

// TotalPages returns the known page count, zero when unknown.
func (p *Pagination) TotalPages() int { return p.totalPages }

// SetPage moves to the given page, clamped to 1 and, when known, the total
// page count.
func (p *Pagination) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	if p.totalPages > 0 && page > p.totalPages {
		page = p.totalPages
	}
	p.page = page
}

// SetPageSize changes the page size and resets to page 1.
func (p *Pagination) SetPageSize(size int) {
	if size < 1 {
		return
	}
	p.pageSize = size
	p.page = 1
}

// SetTotalPages records the page count reported by the backend and clamps
// the current page into range.
func (p *Pagination) SetTotalPages(total int) {
	if total < 0 {
		total = 0
	}
	p.totalPages = total
	if total > 0 && p.page > total {
		p.page = total
	}
}

// Reset returns to page 1.
func (p *Pagination) Reset() { p.page = 1 }

func (p *Pagination) CanGoPrev() bool { return p.page > 1 }

func (p *Pagination) CanGoNext() bool {
	if p.totalPages == 0 {
		return true
	}
	return p.page < p.totalPages
}

// NextPage advances one page when allowed.
func (p *Pagination) NextPage() {
	if p.CanGoNext() {
		p.page++
	}
}

// PrevPage goes back one page when allowed.
func (p *Pagination) PrevPage() {
	if p.CanGoPrev() {
		p.page--
	}
}
