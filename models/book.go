// Package models defines the records exchanged between pipeline stages.
package models

import "time"

// RawBook is a single harvested catalogue item. Every optional field carries
// a safe default so a partially malformed detail page still yields a record.
type RawBook struct {
	Title        string  `csv:"title" json:"title"`
	Price        float64 `csv:"price" json:"price"`
	Availability int     `csv:"availability" json:"availability"`
	Rating       int     `csv:"rating" json:"rating"`
	Description  string  `csv:"description" json:"description"`
	Category     string  `csv:"category" json:"category"`
	UPC          string  `csv:"upc" json:"upc"`
	ProductType  string  `csv:"product_type" json:"product_type"`
	Tax          float64 `csv:"tax" json:"tax"`
	NumReviews   int     `csv:"num_reviews" json:"num_reviews"`
	URL          string  `csv:"url" json:"url"`
	ID           int     `csv:"id" json:"id"`
}

// ProcessedBook is a RawBook after the transform stage, with derived fields
// and a densely renumbered ID.
type ProcessedBook struct {
	RawBook
	PriceRange      string  `csv:"price_range" json:"price_range"`
	PopularityScore float64 `csv:"popularity_score" json:"popularity_score"`
}

// CategoryStats is one row of the category aggregate table.
type CategoryStats struct {
	Category   string  `csv:"category" json:"category"`
	TotalBooks int     `csv:"total_books" json:"total_books"`
	AvgPrice   float64 `csv:"avg_price" json:"avg_price"`
	MinPrice   float64 `csv:"min_price" json:"min_price"`
	MaxPrice   float64 `csv:"max_price" json:"max_price"`
	AvgRating  float64 `csv:"avg_rating" json:"avg_rating"`
}

// HarvestResult holds the run-level counters reported when a crawl finishes.
// Non-fatal failures accumulate here instead of aborting the run.
type HarvestResult struct {
	StartTime          time.Time
	EndTime            time.Time
	PagesDiscovered    int
	PagesFailed        int
	DetailsFailed      int
	RecordsDropped     int
	RecordsHarvested   int
	CheckpointsWritten int
	RequestCount       int
	ErrorsByType       map[string]int
}
