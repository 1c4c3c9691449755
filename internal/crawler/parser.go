package crawler

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parsedPage is the title, visible body text, and every discovered
// anchor/canonical-link target from one fetched HTML document.
type parsedPage struct {
	title string
	body  string
	links []string
}

// parseHTML reads reader as HTML and extracts the document title, its
// body's human-readable text, and every `<a href>`/`<link rel=canonical>`
// target, generalizing the teacher's link-only GoqueryParser to also
// yield the text content the Store and Analyzer need.
func parseHTML(reader io.Reader) (parsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return parsedPage{}, err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	body := strings.TrimSpace(collapseWhitespace(doc.Find("body").Text()))

	var links []string
	doc.Find("a[href], link[rel=canonical]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})

	return parsedPage{title: title, body: body, links: links}, nil
}

// collapseWhitespace folds runs of whitespace (including newlines from
// block elements) into single spaces, matching how a reader would
// perceive the rendered body text.
func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
