// Package dataset is the read-side view over the processed output tables.
//
// The downstream query service treats the processed book table and the
// category aggregate table as its entire data source. A missing table
// degrades the health status instead of failing, and numerics that cannot
// be computed (e.g. from an empty table) are null, never NaN.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rmachado/go-book-harvest/models"
)

// Table file names, matching the pipeline writers.
const (
	ProcessedFile  = "books_processed.csv"
	CategoriesFile = "categories.csv"
)

// Dataset is an immutable snapshot of one pipeline run's outputs.
type Dataset struct {
	books      []*models.ProcessedBook
	categories []*models.CategoryStats

	booksErr      error
	categoriesErr error
}

// Health reports whether the snapshot's source tables were readable.
type Health struct {
	Status              string // healthy or degraded
	BooksAvailable      bool
	CategoriesAvailable bool
	Detail              string
}

// SearchFilter narrows a book search. Nil numerics mean "no bound".
type SearchFilter struct {
	Title     string
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *int
}

// Stats summarises the loaded snapshot. Pointer fields are nil when the
// underlying table is empty or unavailable.
type Stats struct {
	TotalBooks      int
	TotalCategories int
	MinPrice        *float64
	MaxPrice        *float64
	AvgPrice        *float64
	AvgRating       *float64
}

// Load reads both processed tables from dir. It never fails: unreadable
// tables leave an empty view and a degraded health status.
func Load(dir string) *Dataset {
	d := &Dataset{}
	d.books, d.booksErr = readProcessedBooks(filepath.Join(dir, ProcessedFile))
	d.categories, d.categoriesErr = readCategories(filepath.Join(dir, CategoriesFile))
	return d
}

// Health reports the snapshot status.
func (d *Dataset) Health() Health {
	h := Health{
		Status:              "healthy",
		BooksAvailable:      d.booksErr == nil,
		CategoriesAvailable: d.categoriesErr == nil,
	}
	var problems []string
	if d.booksErr != nil {
		problems = append(problems, fmt.Sprintf("books table: %v", d.booksErr))
	}
	if d.categoriesErr != nil {
		problems = append(problems, fmt.Sprintf("categories table: %v", d.categoriesErr))
	}
	if len(problems) > 0 {
		h.Status = "degraded"
		h.Detail = strings.Join(problems, "; ")
	}
	return h
}

// Books returns one page of books and the total count. A non-positive
// limit returns everything from offset.
func (d *Dataset) Books(limit, offset int) ([]*models.ProcessedBook, int) {
	return paginate(d.books, limit, offset), len(d.books)
}

// BookByID looks up a book by its dense post-transform id.
func (d *Dataset) BookByID(id int) (*models.ProcessedBook, bool) {
	for _, b := range d.books {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// Search returns one page of books matching the filter and the total match
// count. Text filters are case-insensitive substring matches.
func (d *Dataset) Search(filter SearchFilter, limit, offset int) ([]*models.ProcessedBook, int) {
	matches := make([]*models.ProcessedBook, 0, len(d.books))
	for _, b := range d.books {
		if filter.Title != "" && !containsFold(b.Title, filter.Title) {
			continue
		}
		if filter.Category != "" && !containsFold(b.Category, filter.Category) {
			continue
		}
		if filter.MinPrice != nil && b.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && b.Price > *filter.MaxPrice {
			continue
		}
		if filter.MinRating != nil && b.Rating < *filter.MinRating {
			continue
		}
		matches = append(matches, b)
	}
	return paginate(matches, limit, offset), len(matches)
}

// Categories returns the category aggregate rows in table order.
func (d *Dataset) Categories() []*models.CategoryStats {
	out := make([]*models.CategoryStats, len(d.categories))
	copy(out, d.categories)
	return out
}

// Stats summarises the snapshot.
func (d *Dataset) Stats() Stats {
	s := Stats{
		TotalBooks:      len(d.books),
		TotalCategories: len(d.categories),
	}
	if len(d.books) == 0 {
		return s
	}

	minPrice := d.books[0].Price
	maxPrice := d.books[0].Price
	priceSum := 0.0
	ratingSum := 0.0
	for _, b := range d.books {
		if b.Price < minPrice {
			minPrice = b.Price
		}
		if b.Price > maxPrice {
			maxPrice = b.Price
		}
		priceSum += b.Price
		ratingSum += float64(b.Rating)
	}
	avgPrice := priceSum / float64(len(d.books))
	avgRating := ratingSum / float64(len(d.books))

	s.MinPrice = &minPrice
	s.MaxPrice = &maxPrice
	s.AvgPrice = &avgPrice
	s.AvgRating = &avgRating
	return s
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func readProcessedBooks(path string) ([]*models.ProcessedBook, error) {
	rows, index, err := readTable(path)
	if err != nil {
		return nil, err
	}

	books := make([]*models.ProcessedBook, 0, len(rows))
	for _, row := range rows {
		cell := func(name string) string { return cellAt(row, index, name) }
		book := &models.ProcessedBook{
			RawBook: models.RawBook{
				Title:        cell("title"),
				Price:        parseFloat(cell("price")),
				Availability: parseInt(cell("availability")),
				Rating:       parseInt(cell("rating")),
				Description:  cell("description"),
				Category:     cell("category"),
				UPC:          cell("upc"),
				ProductType:  cell("product_type"),
				Tax:          parseFloat(cell("tax")),
				NumReviews:   parseInt(cell("num_reviews")),
				URL:          cell("url"),
				ID:           parseInt(cell("id")),
			},
			PriceRange:      cell("price_range"),
			PopularityScore: parseFloat(cell("popularity_score")),
		}
		books = append(books, book)
	}
	return books, nil
}

func readCategories(path string) ([]*models.CategoryStats, error) {
	rows, index, err := readTable(path)
	if err != nil {
		return nil, err
	}

	stats := make([]*models.CategoryStats, 0, len(rows))
	for _, row := range rows {
		cell := func(name string) string { return cellAt(row, index, name) }
		stats = append(stats, &models.CategoryStats{
			Category:   cell("category"),
			TotalBooks: parseInt(cell("total_books")),
			AvgPrice:   parseFloat(cell("avg_price")),
			MinPrice:   parseFloat(cell("min_price")),
			MaxPrice:   parseFloat(cell("max_price")),
			AvgRating:  parseFloat(cell("avg_rating")),
		})
	}
	return stats, nil
}

// readTable reads a CSV file into rows plus a header name index.
func readTable(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s has no header row", filepath.Base(path))
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[strings.TrimSpace(name)] = i
	}
	return records[1:], index, nil
}

func cellAt(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
