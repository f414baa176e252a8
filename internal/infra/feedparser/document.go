// Package feedparser decodes RSS 2.0 and Atom documents and normalizes their
// entries into one shape for the refresh engine.
//
// Decoding produces a Document, a tagged union over the two formats. Each
// variant has its own normalization function; nothing outside this package
// probes format-specific fields.
package feedparser

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"

	"feedhub/internal/usecase/refresh"
)

var (
	// ErrUnsupportedFormat is returned for documents that are neither RSS nor Atom.
	ErrUnsupportedFormat = errors.New("unsupported feed format")

	// ErrMalformed is returned when an RSS or Atom document cannot be decoded.
	ErrMalformed = errors.New("malformed feed document")
)

// Format identifies the variant held by a Document.
type Format int

const (
	FormatRSS Format = iota + 1
	FormatAtom
)

func (f Format) String() string {
	switch f {
	case FormatRSS:
		return "rss"
	case FormatAtom:
		return "atom"
	default:
		return "unknown"
	}
}

// Document is a decoded feed. Exactly one of RSS and Atom is set, matching Format.
type Document struct {
	Format Format
	RSS    *rss.Feed
	Atom   *atom.Feed
}

// Decode detects the format of data and decodes it.
func Decode(data []byte) (*Document, error) {
	switch gofeed.DetectFeedType(bytes.NewReader(data)) {
	case gofeed.FeedTypeRSS:
		feed, err := (&rss.Parser{}).Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: rss: %w", ErrMalformed, err)
		}
		return &Document{Format: FormatRSS, RSS: feed}, nil
	case gofeed.FeedTypeAtom:
		feed, err := (&atom.Parser{}).Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: atom: %w", ErrMalformed, err)
		}
		return &Document{Format: FormatAtom, Atom: feed}, nil
	case gofeed.FeedTypeJSON:
		return nil, fmt.Errorf("%w: json feed", ErrUnsupportedFormat)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// Normalize converts the document into the engine's entry shape.
func (d *Document) Normalize() *refresh.ParsedFeed {
	switch d.Format {
	case FormatRSS:
		return normalizeRSS(d.RSS)
	case FormatAtom:
		return normalizeAtom(d.Atom)
	default:
		return &refresh.ParsedFeed{}
	}
}
