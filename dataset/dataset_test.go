package dataset

import (
	"path/filepath"
	"testing"

	"github.com/rmachado/go-book-harvest/models"
	"github.com/rmachado/go-book-harvest/pipeline"
)

func processedBook(id int, title, category string, price float64, rating int) *models.ProcessedBook {
	return &models.ProcessedBook{
		RawBook: models.RawBook{
			Title:    title,
			Price:    price,
			Rating:   rating,
			Category: category,
			URL:      "https://site/catalogue/x/index.html",
			ID:       id,
		},
		PriceRange:      pipeline.PriceRange(price),
		PopularityScore: pipeline.PopularityScore(rating, 0),
	}
}

func writeFixture(t *testing.T, books []*models.ProcessedBook, stats []*models.CategoryStats) string {
	t.Helper()
	dir := t.TempDir()
	if err := pipeline.WriteProcessedCSV(filepath.Join(dir, ProcessedFile), books); err != nil {
		t.Fatalf("write books fixture: %v", err)
	}
	if err := pipeline.WriteCategoriesCSV(filepath.Join(dir, CategoriesFile), stats); err != nil {
		t.Fatalf("write categories fixture: %v", err)
	}
	return dir
}

func fixtureBooks() []*models.ProcessedBook {
	return []*models.ProcessedBook{
		processedBook(1, "A Light in the Attic", "Poetry", 51.77, 3),
		processedBook(2, "Tipping the Velvet", "Historical Fiction", 53.74, 1),
		processedBook(3, "Soumission", "Fiction", 50.10, 1),
		processedBook(4, "Sharp Objects", "Mystery", 47.82, 4),
	}
}

func fixtureStats() []*models.CategoryStats {
	return []*models.CategoryStats{
		{Category: "Poetry", TotalBooks: 1, AvgPrice: 51.77, MinPrice: 51.77, MaxPrice: 51.77, AvgRating: 3},
		{Category: "Historical Fiction", TotalBooks: 1, AvgPrice: 53.74, MinPrice: 53.74, MaxPrice: 53.74, AvgRating: 1},
		{Category: "Fiction", TotalBooks: 1, AvgPrice: 50.10, MinPrice: 50.10, MaxPrice: 50.10, AvgRating: 1},
		{Category: "Mystery", TotalBooks: 1, AvgPrice: 47.82, MinPrice: 47.82, MaxPrice: 47.82, AvgRating: 4},
	}
}

func TestLoadHealthy(t *testing.T) {
	dir := writeFixture(t, fixtureBooks(), fixtureStats())
	d := Load(dir)

	h := d.Health()
	if h.Status != "healthy" || !h.BooksAvailable || !h.CategoriesAvailable {
		t.Fatalf("health = %+v, want healthy", h)
	}

	books, total := d.Books(0, 0)
	if total != 4 || len(books) != 4 {
		t.Fatalf("books = %d/%d, want 4/4", len(books), total)
	}
	if books[0].Title != "A Light in the Attic" || books[0].PriceRange != "Premium" {
		t.Fatalf("first book = %+v", books[0])
	}
}

func TestLoadMissingTablesDegrades(t *testing.T) {
	d := Load(t.TempDir())

	h := d.Health()
	if h.Status != "degraded" {
		t.Fatalf("health status = %q, want degraded", h.Status)
	}
	if h.BooksAvailable || h.CategoriesAvailable {
		t.Fatalf("tables should be unavailable: %+v", h)
	}

	// A degraded dataset still answers queries, with empty results.
	books, total := d.Books(10, 0)
	if total != 0 || len(books) != 0 {
		t.Fatalf("expected empty view, got %d/%d", len(books), total)
	}
	if got := d.Categories(); len(got) != 0 {
		t.Fatalf("expected no categories, got %d", len(got))
	}
}

func TestStatsNullOnEmptyTable(t *testing.T) {
	dir := writeFixture(t, nil, nil)
	d := Load(dir)

	s := d.Stats()
	if s.TotalBooks != 0 {
		t.Fatalf("total books = %d, want 0", s.TotalBooks)
	}
	if s.MinPrice != nil || s.MaxPrice != nil || s.AvgPrice != nil || s.AvgRating != nil {
		t.Fatalf("numerics from an empty table must be null, got %+v", s)
	}
}

func TestStats(t *testing.T) {
	dir := writeFixture(t, fixtureBooks(), fixtureStats())
	d := Load(dir)

	s := d.Stats()
	if s.TotalBooks != 4 || s.TotalCategories != 4 {
		t.Fatalf("stats = %+v", s)
	}
	if s.MinPrice == nil || *s.MinPrice != 47.82 {
		t.Fatalf("min price = %v, want 47.82", s.MinPrice)
	}
	if s.MaxPrice == nil || *s.MaxPrice != 53.74 {
		t.Fatalf("max price = %v, want 53.74", s.MaxPrice)
	}
	if s.AvgPrice == nil || *s.AvgPrice < 47.82 || *s.AvgPrice > 53.74 {
		t.Fatalf("avg price = %v, want within [min, max]", s.AvgPrice)
	}
}

func TestBookByID(t *testing.T) {
	dir := writeFixture(t, fixtureBooks(), fixtureStats())
	d := Load(dir)

	book, ok := d.BookByID(3)
	if !ok || book.Title != "Soumission" {
		t.Fatalf("lookup = (%v, %v)", book, ok)
	}
	if _, ok := d.BookByID(99); ok {
		t.Fatal("expected missing id to report not found")
	}
}

func TestSearchFilters(t *testing.T) {
	dir := writeFixture(t, fixtureBooks(), fixtureStats())
	d := Load(dir)

	minPrice := 50.0
	maxPrice := 52.0
	minRating := 3

	tests := []struct {
		name   string
		filter SearchFilter
		want   int
	}{
		{name: "title substring case-insensitive", filter: SearchFilter{Title: "light"}, want: 1},
		{name: "category substring", filter: SearchFilter{Category: "fiction"}, want: 2},
		{name: "min price", filter: SearchFilter{MinPrice: &minPrice}, want: 3},
		{name: "price window", filter: SearchFilter{MinPrice: &minPrice, MaxPrice: &maxPrice}, want: 2},
		{name: "min rating", filter: SearchFilter{MinRating: &minRating}, want: 2},
		{name: "no match", filter: SearchFilter{Title: "zzz"}, want: 0},

		{name: "combined", filter: SearchFilter{Category: "poetry", MinRating: &minRating}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total := d.Search(tt.filter, 0, 0)
			if total != tt.want {
				t.Fatalf("matches = %d, want %d", total, tt.want)
			}
		})
	}
}

func TestPagination(t *testing.T) {
	dir := writeFixture(t, fixtureBooks(), fixtureStats())
	d := Load(dir)

	page, total := d.Books(2, 0)
	if total != 4 || len(page) != 2 || page[0].ID != 1 {
		t.Fatalf("page 1 = %d items of %d", len(page), total)
	}

	page, _ = d.Books(2, 2)
	if len(page) != 2 || page[0].ID != 3 {
		t.Fatalf("page 2 starts at id %d, want 3", page[0].ID)
	}

	page, _ = d.Books(2, 4)
	if len(page) != 0 {
		t.Fatalf("out-of-range offset should yield empty page, got %d", len(page))
	}
}
