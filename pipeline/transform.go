// Package pipeline turns a raw harvest into the processed book table and
// the category aggregate table, and persists both.
package pipeline

import (
	"math"
	"strings"

	"github.com/rmachado/go-book-harvest/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Price bucket labels, in ascending order.
const (
	RangeBudget   = "Budget"
	RangeMidRange = "Mid-range"
	RangePremium  = "Premium"
	RangeLuxury   = "Luxury"
)

var titleCaser = cases.Title(language.English)

// PriceRange buckets a price using half-open intervals: a price exactly on
// a boundary belongs to the higher bucket.
func PriceRange(price float64) string {
	switch {
	case price < 20:
		return RangeBudget
	case price < 40:
		return RangeMidRange
	case price < 60:
		return RangePremium
	default:
		return RangeLuxury
	}
}

// PopularityScore derives a popularity figure from rating and review count,
// rounded to two decimal places.
func PopularityScore(rating, numReviews int) float64 {
	return round2(float64(rating)*2 + float64(numReviews)*0.1)
}

// Transform deduplicates, normalizes and enriches the raw harvest, and
// builds the category aggregate table. It is a pure single-pass batch
// computation: running it twice on the same input yields identical output.
func Transform(raw []*models.RawBook) ([]*models.ProcessedBook, []*models.CategoryStats) {
	processed := make([]*models.ProcessedBook, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, book := range raw {
		if book == nil {
			continue
		}
		key := book.Title + "\x00" + book.UPC
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		clean := *book
		clean.Title = strings.TrimSpace(clean.Title)
		clean.Description = strings.TrimSpace(clean.Description)
		clean.Category = titleCaser.String(strings.TrimSpace(clean.Category))
		clampNumerics(&clean)
		clean.ID = len(processed) + 1

		processed = append(processed, &models.ProcessedBook{
			RawBook:         clean,
			PriceRange:      PriceRange(clean.Price),
			PopularityScore: PopularityScore(clean.Rating, clean.NumReviews),
		})
	}

	return processed, aggregateCategories(processed)
}

// clampNumerics restores the documented defaults for out-of-domain values
// that slipped through extraction.
func clampNumerics(book *models.RawBook) {
	if book.Price < 0 {
		book.Price = 0
	}
	if book.Tax < 0 {
		book.Tax = 0
	}
	if book.Availability < 0 {
		book.Availability = 0
	}
	if book.NumReviews < 0 {
		book.NumReviews = 0
	}
	if book.Rating < 0 || book.Rating > 5 {
		book.Rating = 0
	}
}

// aggregateCategories groups processed records by category in order of
// first appearance and computes the aggregate row for each group.
func aggregateCategories(processed []*models.ProcessedBook) []*models.CategoryStats {
	type acc struct {
		count     int
		priceSum  float64
		priceMin  float64
		priceMax  float64
		ratingSum float64
	}

	order := make([]string, 0)
	groups := make(map[string]*acc)

	for _, book := range processed {
		group, ok := groups[book.Category]
		if !ok {
			group = &acc{priceMin: book.Price, priceMax: book.Price}
			groups[book.Category] = group
			order = append(order, book.Category)
		}
		group.count++
		group.priceSum += book.Price
		if book.Price < group.priceMin {
			group.priceMin = book.Price
		}
		if book.Price > group.priceMax {
			group.priceMax = book.Price
		}
		group.ratingSum += float64(book.Rating)
	}

	stats := make([]*models.CategoryStats, 0, len(order))
	for _, category := range order {
		group := groups[category]
		stats = append(stats, &models.CategoryStats{
			Category:   category,
			TotalBooks: group.count,
			AvgPrice:   round2(group.priceSum / float64(group.count)),
			MinPrice:   round2(group.priceMin),
			MaxPrice:   round2(group.priceMax),
			AvgRating:  round2(group.ratingSum / float64(group.count)),
		})
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
