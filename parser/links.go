package parser

import (
	"net/url"
	"strings"
)

const catalogueSegment = "catalogue/"

// NormalizeDetailLink resolves a detail-page href against the catalogue base
// URL. The source site emits three relative-link conventions depending on
// crawl depth, and each branch must be preserved as-is:
//
//  1. "../../../foo/index.html" — strip the up-three marker, ensure a
//     "catalogue/" prefix on the remainder and resolve.
//  2. "catalogue/foo/index.html" — resolve directly.
//  3. "foo/index.html" — prefix "catalogue/" and resolve.
//
// An unparsable href yields "".
func NormalizeDetailLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(href, "../../../"):
		href = strings.ReplaceAll(href, "../../../", "")
		if !strings.HasPrefix(href, catalogueSegment) {
			href = catalogueSegment + href
		}
	case strings.HasPrefix(href, catalogueSegment):
	default:
		href = catalogueSegment + href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
