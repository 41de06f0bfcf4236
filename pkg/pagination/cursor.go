package pagination

// HasMore reports whether hits beyond the given page remain.
func HasMore(page, pageSize, totalHits int) bool {
	if page < 1 || pageSize <= 0 {
		return false
	}
	return page*pageSize < totalHits
}

// TotalPages returns the number of pages needed to cover totalHits.
func TotalPages(pageSize, totalHits int) int {
	if pageSize <= 0 || totalHits <= 0 {
		return 0
	}
	return (totalHits + pageSize - 1) / pageSize
}

// Cursor tracks the position of an incremental browse through one query.
// It is a value; Next returns a new cursor.
type Cursor struct {
	Page      int
	PageSize  int
	TotalHits int
	// Known is false until the first page reported totalHits.
	Known bool
}

// NewCursor returns a cursor positioned on page 1.
func NewCursor(pageSize int) Cursor {
	return Cursor{Page: 1, PageSize: pageSize}
}

// Observe records the totalHits reported by the page the cursor points at.
func (c *Cursor) Observe(totalHits int) {
	if totalHits < 0 {
		totalHits = 0
	}
	c.TotalHits = totalHits
	c.Known = true
}

// HasMore reports whether another page can be requested.
func (c Cursor) HasMore() bool {
	return c.Known && HasMore(c.Page, c.PageSize, c.TotalHits)
}

// Exhausted reports whether every hit has been fetched.
func (c Cursor) Exhausted() bool {
	return c.Known && !c.HasMore()
}

// Next returns the cursor for the following page.
func (c Cursor) Next() Cursor {
	c.Page++
	return c
}

// Offset is the zero-based index of the first hit on the current page.
func (c Cursor) Offset() int {
	if c.Page < 1 {
		return 0
	}
	return (c.Page - 1) * c.PageSize
}
