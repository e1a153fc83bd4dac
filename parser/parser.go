// Package parser extracts structured book records from detail-page markup.
//
// Extraction is per-field: a field that cannot be parsed falls back to its
// documented default instead of failing the record. Only a missing title
// drops the whole record.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rmachado/go-book-harvest/models"
)

var (
	priceSymbolRe = regexp.MustCompile(`[£,]`)
	firstIntRe    = regexp.MustCompile(`\d+`)
)

// CleanPrice strips the currency symbol and thousands separators from a
// displayed price and parses the remainder. Unparsable input yields 0.
func CleanPrice(text string) float64 {
	cleaned := strings.TrimSpace(priceSymbolRe.ReplaceAllString(text, ""))
	// Some fixtures carry a mis-decoded "Â£" prefix.
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "Â"))
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// FirstInt returns the first embedded integer in text, or 0 when none exists.
func FirstInt(text string) int {
	match := firstIntRe.FindString(text)
	if match == "" {
		return 0
	}
	value, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return value
}

// RatingWord maps a textual rating label to its numeric value.
func RatingWord(word string) int {
	switch strings.TrimSpace(word) {
	case "One":
		return 1
	case "Two":
		return 2
	case "Three":
		return 3
	case "Four":
		return 4
	case "Five":
		return 5
	default:
		return 0
	}
}

// RatingFromClass scans a star-rating class attribute (e.g. "star-rating
// Three") for a recognised rating word. Unrecognised input yields 0.
func RatingFromClass(class string) int {
	for _, token := range strings.Fields(class) {
		if rating := RatingWord(token); rating > 0 {
			return rating
		}
	}
	return 0
}

// ExtractBook parses one detail page into a RawBook. It returns nil when the
// page has no title, the only condition that skips an item entirely.
func ExtractBook(dom *goquery.Selection, sourceURL string) *models.RawBook {
	title := strings.TrimSpace(dom.Find("h1").First().Text())
	if title == "" {
		return nil
	}

	book := &models.RawBook{
		Title: title,
		URL:   sourceURL,
	}

	book.Price = CleanPrice(dom.Find("p.price_color").First().Text())
	book.Availability = FirstInt(dom.Find("p.availability").First().Text())
	book.Rating = RatingFromClass(dom.Find("p.star-rating").First().AttrOr("class", ""))
	book.Description = strings.TrimSpace(dom.Find("#product_description + p").First().Text())
	book.Category = breadcrumbCategory(dom)

	info := productInfo(dom)
	book.UPC = info["UPC"]
	book.ProductType = info["Product Type"]
	book.Tax = CleanPrice(withDefault(info, "Tax", "£0.00"))
	if reviews, err := strconv.Atoi(withDefault(info, "Number of reviews", "0")); err == nil && reviews >= 0 {
		book.NumReviews = reviews
	}

	return book
}

// breadcrumbCategory reads the third breadcrumb entry. Pages without a full
// trail report "Unknown".
func breadcrumbCategory(dom *goquery.Selection) string {
	crumbs := dom.Find("ul.breadcrumb li")
	if crumbs.Length() <= 2 {
		return "Unknown"
	}
	return strings.TrimSpace(crumbs.Eq(2).Text())
}

// productInfo flattens the key/value product table on a detail page.
func productInfo(dom *goquery.Selection) map[string]string {
	info := make(map[string]string)
	dom.Find("table.table-striped tr").Each(func(_ int, row *goquery.Selection) {
		key := strings.TrimSpace(row.Find("th").First().Text())
		if key == "" {
			key = strings.TrimSpace(row.Find("td").First().Text())
		}
		if key == "" {
			return
		}
		info[key] = strings.TrimSpace(row.Find("td").Last().Text())
	})
	return info
}

func withDefault(info map[string]string, key, fallback string) string {
	if value, ok := info[key]; ok && value != "" {
		return value
	}
	return fallback
}
