package query

// PageRef points at an adjacent page in a paginated listing.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination describes the window a listing returned and how to move through
// the full result set.
type Pagination struct {
	Total int64    `json:"total"`
	Pages int      `json:"pages"`
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
	Next  *PageRef `json:"next,omitempty"`
	Prev  *PageRef `json:"prev,omitempty"`
}

// Paginate computes the pagination descriptor for a page/limit window over
// total matching rows. Next is present iff rows exist past this window, Prev
// iff any rows were skipped.
func Paginate(page, limit int, total int64) Pagination {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	pages := int(total / int64(limit))
	if total%int64(limit) != 0 {
		pages++
	}

	p := Pagination{Total: total, Pages: pages, Page: page, Limit: limit}
	if int64(page)*int64(limit) < total {
		p.Next = &PageRef{Page: page + 1, Limit: limit}
	}
	if (page-1)*limit > 0 {
		p.Prev = &PageRef{Page: page - 1, Limit: limit}
	}
	return p
}
