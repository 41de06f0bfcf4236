// Package pagination provides the page arithmetic behind incremental
// "load more" browsing of Pixabay search results.
//
// Pixabay pages are 1-based and every response reports totalHits, the number
// of hits reachable through the API for the query. A result set is exhausted
// once page*pageSize >= totalHits.
//
// Example usage:
//
//	c := pagination.NewCursor(40)
//	c.Observe(res.TotalHits) // after page 1
//	if c.HasMore() {
//		c = c.Next()
//		// fetch c.Page
//	}
package pagination
