package feedparser

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"

	"feedhub/internal/domain/entity"
	"feedhub/internal/usecase/refresh"
)

func normalizeAtom(feed *atom.Feed) *refresh.ParsedFeed {
	out := &refresh.ParsedFeed{
		Title:   strings.TrimSpace(feed.Title),
		Logo:    strings.TrimSpace(feed.Logo),
		Entries: make([]refresh.ParsedEntry, 0, len(feed.Entries)),
	}

	for _, e := range feed.Entries {
		if e == nil {
			continue
		}
		raw := e.Summary
		if e.Content != nil && strings.TrimSpace(e.Content.Value) != "" {
			raw = e.Content.Value
		}
		out.Entries = append(out.Entries, refresh.ParsedEntry{
			Link:        atomLink(e.Links),
			Title:       plainText(e.Title),
			Description: plainText(raw),
			Author:      atomAuthor(e),
			Media:       firstNonEmpty(atomMedia(e), firstImage(raw), out.Logo),
			PublishedAt: atomDate(e),
		})
	}
	return out
}

// atomLink prefers the alternate link, which is also what an absent rel means.
func atomLink(links []*atom.Link) string {
	var first string
	for _, l := range links {
		if l == nil || strings.TrimSpace(l.Href) == "" {
			continue
		}
		href := strings.TrimSpace(l.Href)
		if l.Rel == "" || l.Rel == "alternate" {
			return href
		}
		if first == "" && l.Rel != "enclosure" && l.Rel != "self" {
			first = href
		}
	}
	return first
}

func atomAuthor(e *atom.Entry) string {
	for _, p := range e.Authors {
		if p != nil && strings.TrimSpace(p.Name) != "" {
			return strings.TrimSpace(p.Name)
		}
	}
	if c := extensionValue(e.Extensions, "dc", "creator"); c != "" {
		return c
	}
	return entity.UnknownAuthor
}

func atomMedia(e *atom.Entry) string {
	var enclosure string
	for _, l := range e.Links {
		if l != nil && l.Rel == "enclosure" && l.Href != "" {
			enclosure = l.Href
			break
		}
	}
	return firstNonEmpty(
		extensionAttr(e.Extensions, "itunes", "image", "href"),
		enclosure,
		mediaContent(e.Extensions),
	)
}

func atomDate(e *atom.Entry) *time.Time {
	for _, t := range []*time.Time{e.UpdatedParsed, e.PublishedParsed} {
		if t != nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}
