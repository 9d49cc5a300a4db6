package repository

// normalizePage clamps list paging parameters to page >= 1 and 1..500 rows.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return page, limit
}
