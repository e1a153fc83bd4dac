package parser

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{name: "with currency symbol", input: "£51.77", expected: 51.77},
		{name: "zero", input: "£0.00", expected: 0},
		{name: "thousands separator", input: "£1,051.20", expected: 1051.20},
		{name: "with whitespace", input: "  £10.50  ", expected: 10.50},
		{name: "already clean", input: "25.99", expected: 25.99},
		{name: "mis-decoded symbol", input: "Â£51.77", expected: 51.77},
		{name: "empty string", input: "", expected: 0},
		{name: "garbage", input: "free", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanPrice(tt.input); got != tt.expected {
				t.Errorf("CleanPrice(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFirstInt(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "stock count", input: "In stock (22 available)", expected: 22},
		{name: "leading text", input: "availability: 3", expected: 3},
		{name: "no digits", input: "Out of stock", expected: 0},
		{name: "empty", input: "", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstInt(tt.input); got != tt.expected {
				t.Errorf("FirstInt(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRatingFromClass(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "one", input: "star-rating One", expected: 1},
		{name: "two", input: "star-rating Two", expected: 2},
		{name: "three", input: "star-rating Three", expected: 3},
		{name: "four", input: "star-rating Four", expected: 4},
		{name: "five", input: "star-rating Five", expected: 5},
		{name: "unmapped label", input: "star-rating Six", expected: 0},
		{name: "lowercase not recognised", input: "star-rating three", expected: 0},
		{name: "missing label", input: "star-rating", expected: 0},
		{name: "empty", input: "", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RatingFromClass(tt.input); got != tt.expected {
				t.Errorf("RatingFromClass(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeDetailLink(t *testing.T) {
	base, err := url.Parse("https://site/")
	if err != nil {
		t.Fatalf("parse base: %v", err)
	}

	tests := []struct {
		name     string
		href     string
		expected string
	}{
		{
			name:     "up three levels",
			href:     "../../../catalogue/foo/index.html",
			expected: "https://site/catalogue/foo/index.html",
		},
		{
			name:     "up three levels bare slug",
			href:     "../../../foo/index.html",
			expected: "https://site/catalogue/foo/index.html",
		},
		{
			name:     "already prefixed",
			href:     "catalogue/bar/index.html",
			expected: "https://site/catalogue/bar/index.html",
		},
		{
			name:     "bare slug",
			href:     "baz/index.html",
			expected: "https://site/catalogue/baz/index.html",
		},
		{
			name:     "empty",
			href:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDetailLink(base, tt.href); got != tt.expected {
				t.Errorf("NormalizeDetailLink(%q) = %q, want %q", tt.href, got, tt.expected)
			}
		})
	}
}

const detailPage = `<html><body>
<ul class="breadcrumb">
  <li><a href="/">Home</a></li>
  <li><a href="/books">Books</a></li>
  <li><a href="/books/poetry">Poetry</a></li>
  <li class="active">A Light in the Attic</li>
</ul>
<div class="product_main">
  <h1>A Light in the Attic</h1>
  <p class="price_color">£51.77</p>
  <p class="instock availability">In stock (22 available)</p>
  <p class="star-rating Three"></p>
</div>
<div id="product_description"><h2>Product Description</h2></div>
<p>A classic collection of poems.</p>
<table class="table table-striped">
  <tr><th>UPC</th><td>a897fe39b1053632</td></tr>
  <tr><th>Product Type</th><td>Books</td></tr>
  <tr><th>Tax</th><td>£0.00</td></tr>
  <tr><th>Number of reviews</th><td>10</td></tr>
</table>
</body></html>`

func mustDoc(t *testing.T, markup string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse markup: %v", err)
	}
	return doc.Selection
}

func TestExtractBook(t *testing.T) {
	book := ExtractBook(mustDoc(t, detailPage), "https://site/catalogue/a-light-in-the-attic/index.html")
	if book == nil {
		t.Fatal("expected a record")
	}

	if book.Title != "A Light in the Attic" {
		t.Errorf("title = %q", book.Title)
	}
	if book.Price != 51.77 {
		t.Errorf("price = %v, want 51.77", book.Price)
	}
	if book.Availability != 22 {
		t.Errorf("availability = %d, want 22", book.Availability)
	}
	if book.Rating != 3 {
		t.Errorf("rating = %d, want 3", book.Rating)
	}
	if book.Description != "A classic collection of poems." {
		t.Errorf("description = %q", book.Description)
	}
	if book.Category != "Poetry" {
		t.Errorf("category = %q, want Poetry", book.Category)
	}
	if book.UPC != "a897fe39b1053632" {
		t.Errorf("upc = %q", book.UPC)
	}
	if book.ProductType != "Books" {
		t.Errorf("product_type = %q", book.ProductType)
	}
	if book.Tax != 0 {
		t.Errorf("tax = %v, want 0", book.Tax)
	}
	if book.NumReviews != 10 {
		t.Errorf("num_reviews = %d, want 10", book.NumReviews)
	}
	if book.URL != "https://site/catalogue/a-light-in-the-attic/index.html" {
		t.Errorf("url = %q", book.URL)
	}
}

func TestExtractBookMissingTitle(t *testing.T) {
	markup := `<html><body><p class="price_color">£10.00</p></body></html>`
	if book := ExtractBook(mustDoc(t, markup), "https://site/catalogue/x/index.html"); book != nil {
		t.Fatalf("expected nil record, got %+v", book)
	}
}

func TestExtractBookDefaultsOptionalFields(t *testing.T) {
	// A bare page with only a title: every other field takes its default
	// instead of failing the record.
	markup := `<html><body><h1>Sparse Book</h1></body></html>`
	book := ExtractBook(mustDoc(t, markup), "https://site/catalogue/sparse/index.html")
	if book == nil {
		t.Fatal("expected a record")
	}
	if book.Price != 0 || book.Availability != 0 || book.Rating != 0 || book.NumReviews != 0 || book.Tax != 0 {
		t.Errorf("numeric defaults violated: %+v", book)
	}
	if book.Description != "" || book.UPC != "" || book.ProductType != "" {
		t.Errorf("text defaults violated: %+v", book)
	}
	if book.Category != "Unknown" {
		t.Errorf("category = %q, want Unknown", book.Category)
	}
}

func TestExtractBookShortBreadcrumb(t *testing.T) {
	markup := `<html><body>
<ul class="breadcrumb"><li>Home</li><li>Books</li></ul>
<h1>Two Crumbs</h1>
</body></html>`
	book := ExtractBook(mustDoc(t, markup), "https://site/catalogue/two-crumbs/index.html")
	if book == nil {
		t.Fatal("expected a record")
	}
	if book.Category != "Unknown" {
		t.Errorf("category = %q, want Unknown", book.Category)
	}
}

func TestExtractBookTableWithTDKeys(t *testing.T) {
	// Some mirrors render the product table with td cells only.
	markup := `<html><body>
<h1>TD Table</h1>
<table class="table-striped">
  <tr><td>UPC</td><td>deadbeef</td></tr>
  <tr><td>Number of reviews</td><td>4</td></tr>
</table>
</body></html>`
	book := ExtractBook(mustDoc(t, markup), "https://site/catalogue/td-table/index.html")
	if book == nil {
		t.Fatal("expected a record")
	}
	if book.UPC != "deadbeef" {
		t.Errorf("upc = %q, want deadbeef", book.UPC)
	}
	if book.NumReviews != 4 {
		t.Errorf("num_reviews = %d, want 4", book.NumReviews)
	}
}
