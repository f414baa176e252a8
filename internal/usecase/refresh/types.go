package refresh

import (
	"context"
	"time"
)

// Fetcher retrieves the raw feed document at url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FeedParser turns a raw RSS or Atom document into normalized entries.
type FeedParser interface {
	Parse(data []byte) (*ParsedFeed, error)
}

// ParsedFeed is a feed document after normalization.
type ParsedFeed struct {
	Title string
	// Logo is the feed-level image, empty when the document has none.
	Logo    string
	Entries []ParsedEntry
}

// ParsedEntry is one normalized RSS item or Atom entry. Description is plain
// text. Media already includes the feed logo fallback.
type ParsedEntry struct {
	Link        string
	Title       string
	Description string
	Author      string
	Media       string
	PublishedAt *time.Time
}

// FeedResult summarizes the refresh of a single feed.
type FeedResult struct {
	FeedID     int64
	Inserted   int
	Reused     int
	Backfilled int
	Size       int
}

// GCStats summarizes a garbage collection pass.
type GCStats struct {
	Candidates int
	Retained   int
	Deleted    int64
	Duration   time.Duration
}

// CycleStats summarizes a full refresh cycle.
type CycleStats struct {
	RunID     string
	Feeds     int
	Refreshed int64
	Failed    int64
	Inserted  int64
	GC        *GCStats
	Duration  time.Duration
}

// AddFeedResult is returned by AddFeed.
type AddFeedResult struct {
	ID      int64
	Name    string
	Created bool
}
