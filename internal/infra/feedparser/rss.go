package feedparser

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"

	"feedhub/internal/domain/entity"
	"feedhub/internal/usecase/refresh"
)

func normalizeRSS(feed *rss.Feed) *refresh.ParsedFeed {
	out := &refresh.ParsedFeed{
		Title:   strings.TrimSpace(feed.Title),
		Entries: make([]refresh.ParsedEntry, 0, len(feed.Items)),
	}
	if feed.Image != nil {
		out.Logo = strings.TrimSpace(feed.Image.URL)
	}

	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		raw := item.Description
		if strings.TrimSpace(raw) == "" {
			raw = item.Content
		}
		out.Entries = append(out.Entries, refresh.ParsedEntry{
			Link:        rssLink(item),
			Title:       plainText(item.Title),
			Description: plainText(raw),
			Author:      rssAuthor(item),
			Media:       firstNonEmpty(rssMedia(item), firstImage(raw), out.Logo),
			PublishedAt: rssDate(item),
		})
	}
	return out
}

func rssLink(item *rss.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	for _, l := range item.Links {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

func rssAuthor(item *rss.Item) string {
	if a := strings.TrimSpace(item.Author); a != "" {
		return a
	}
	if item.DublinCoreExt != nil {
		for _, c := range item.DublinCoreExt.Creator {
			if c = strings.TrimSpace(c); c != "" {
				return c
			}
		}
	}
	return entity.UnknownAuthor
}

func rssMedia(item *rss.Item) string {
	var itunes, enclosure string
	if item.ITunesExt != nil {
		itunes = item.ITunesExt.Image
	}
	if item.Enclosure != nil {
		enclosure = item.Enclosure.URL
	}
	return firstNonEmpty(itunes, enclosure, mediaContent(item.Extensions))
}

func rssDate(item *rss.Item) *time.Time {
	if item.PubDateParsed != nil {
		t := item.PubDateParsed.UTC()
		return &t
	}
	if item.DublinCoreExt != nil {
		for _, d := range item.DublinCoreExt.Date {
			if t := parseDate(d); t != nil {
				return t
			}
		}
	}
	return nil
}
