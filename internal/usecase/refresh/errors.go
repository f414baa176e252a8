// Package refresh implements feed synchronization: fetching and parsing each
// feed, reconciling its entries against stored articles, maintaining the
// bounded per-feed article window and reclaiming unreferenced articles.
package refresh

import "errors"

var (
	// ErrFetchFailed indicates the feed document could not be retrieved.
	ErrFetchFailed = errors.New("feed fetch failed")

	// ErrParseFailed indicates the feed document is not valid RSS or Atom.
	ErrParseFailed = errors.New("feed parse failed")

	// ErrCategoryNotFound indicates the target category of a new feed does not exist.
	ErrCategoryNotFound = errors.New("category not found")
)
