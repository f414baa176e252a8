package feedparser

import "feedhub/internal/usecase/refresh"

// Parser implements refresh.FeedParser.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// Parse decodes an RSS or Atom document and normalizes its entries.
func (p *Parser) Parse(data []byte) (*refresh.ParsedFeed, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return doc.Normalize(), nil
}

var _ refresh.FeedParser = (*Parser)(nil)
