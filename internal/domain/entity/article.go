// Package entity defines the core domain entities of the feed aggregator.
// Articles are immutable once stored; feeds own an ordered window of article
// ids that the synchronization engine replaces wholesale on every refresh.
package entity

import (
	"sort"
	"time"
)

// UnknownAuthor is stored when an entry carries no author information.
const UnknownAuthor = "Unknown"

// Article is a single stored feed entry, deduplicated globally by URL.
// Media is empty when the entry has no image. Date is nil for undated entries.
type Article struct {
	ID          int64
	URL         string
	Title       string
	Description string
	Media       string
	Date        *time.Time
	Author      string
	CreatedAt   time.Time
}

// DateAfter reports whether date a sorts before date b in a newest-first
// ordering. Undated values sort after every dated value.
func DateAfter(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}

// SortArticlesByDateDesc orders articles newest first, undated last.
// The sort is stable so ties keep their input order.
func SortArticlesByDateDesc(articles []*Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return DateAfter(articles[i].Date, articles[j].Date)
	})
}
