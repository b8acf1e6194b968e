package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ArticlesChat/internal/ports"
)

var (
	tagExpr   = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9]*(\s[^<>]*)?/?>`)
	spaceExpr = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
)

// blockSelector lists elements that start a new line in the rendered text.
const blockSelector = "p, div, br, li, tr, h1, h2, h3, h4, h5, h6, blockquote, pre, section, article, header, footer"

// HTMLText reduces article bodies scraped as HTML to plain prompt text.
// Bodies without markup pass through untouched.
type HTMLText struct{}

var _ ports.TextNormalizer = HTMLText{}

// NewHTMLText builds the normalizer.
func NewHTMLText() HTMLText {
	return HTMLText{}
}

// PlainText returns the visible text of content when it contains HTML markup.
func (HTMLText) PlainText(content string) string {
	if !tagExpr.MatchString(content) {
		return content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}

	doc.Find("script, style, noscript, template").Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml("\n")
	})

	return tidyLines(doc.Text())
}

func tidyLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(spaceExpr.ReplaceAllString(line, " "))
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
