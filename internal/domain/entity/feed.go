package entity

import (
	"net/url"
	"strings"
)

// Feed is a subscribed RSS or Atom source.
// ArticleIDs is the bounded, newest-first window of articles that currently
// belong to the feed. It is the only field mutated after creation.
type Feed struct {
	ID           int64
	URL          string
	URLKey       string
	Name         string
	DefaultMedia string
	ArticleIDs   []int64
}

// FeedURLKey returns the identity key of a feed URL. URLs that differ only in
// scheme, a leading "www.", host case or a trailing slash share one key.
func FeedURLKey(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		rest := u.EscapedPath()
		if u.RawQuery != "" {
			rest += "?" + u.RawQuery
		}
		return strings.TrimSuffix(host+rest, "/")
	}
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	return strings.TrimSuffix(strings.TrimPrefix(s, "www."), "/")
}

// FeedName derives the display name of a feed from its URL: the hostname
// without a leading "www.". It returns an empty string for URLs with no host.
func FeedName(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
