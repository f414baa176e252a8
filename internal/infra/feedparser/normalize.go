package feedparser

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	ext "github.com/mmcdole/gofeed/extensions"
)

// blockElements start a new line in plain text output.
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "blockquote": true, "pre": true, "section": true, "article": true,
	"figure": true, "figcaption": true, "table": true, "hr": true,
}

// plainText converts an HTML fragment to plain text. Lines are only broken
// at block elements and <br>, never wrapped.
func plainText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapse(raw)
	}
	var b strings.Builder
	writeText(&b, doc.Find("body"))
	return collapse(b.String())
}

func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		switch name := goquery.NodeName(s); {
		case name == "#text":
			b.WriteString(s.Text())
		case name == "br":
			b.WriteByte('\n')
		case name == "script" || name == "style" || name == "#comment":
		case blockElements[name]:
			b.WriteByte('\n')
			writeText(b, s)
			b.WriteByte('\n')
		default:
			writeText(b, s)
		}
	})
}

// collapse squeezes runs of spaces within each line and drops blank lines.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// firstImage returns the src of the first <img> in an HTML fragment.
func firstImage(raw string) string {
	if !strings.Contains(raw, "<img") && !strings.Contains(raw, "<IMG") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

func mediaContent(exts ext.Extensions) string {
	return extensionAttr(exts, "media", "content", "url")
}

func extensionAttr(exts ext.Extensions, ns, name, attr string) string {
	for _, e := range exts[ns][name] {
		if v := strings.TrimSpace(e.Attrs[attr]); v != "" {
			return v
		}
	}
	return ""
}

func extensionValue(exts ext.Extensions, ns, name string) string {
	for _, e := range exts[ns][name] {
		if v := strings.TrimSpace(e.Value); v != "" {
			return v
		}
	}
	return ""
}

var dateLayouts = []string{time.RFC3339, time.RFC1123Z, time.RFC1123, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
