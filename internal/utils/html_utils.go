package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EnhanceHTMLContent makes images lazy and privacy friendly and marks
// external links noopener.
func EnhanceHTMLContent(htmlStr string) string {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return htmlStr
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
		if _, ok := s.Attr("alt"); !ok {
			s.SetAttr("alt", "")
		}
	})

	doc.Find("a[target=_blank]").Each(func(i int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		if !strings.Contains(rel, "noopener") {
			s.SetAttr("rel", strings.TrimSpace(rel+" noopener"))
		}
	})

	// goquery wraps fragments in html/body; only the body content is wanted.
	html, _ := doc.Find("body").Html()
	if html == "" {
		html, _ = doc.Html()
	}
	return html
}
