package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rmachado/go-book-harvest/models"
)

// ReadRawCSV loads a raw harvest table written by WriteRawCSV (or one of
// its checkpoints). Unparsable numeric cells fall back to the field's
// documented default rather than failing the load.
func ReadRawCSV(path string) ([]*models.RawBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open raw table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read raw table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("raw table %s has no header row", path)
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[strings.TrimSpace(name)] = i
	}

	books := make([]*models.RawBook, 0, len(records)-1)
	for _, row := range records[1:] {
		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		books = append(books, &models.RawBook{
			Title:        cell("title"),
			Price:        defaultFloat(cell("price")),
			Availability: defaultInt(cell("availability")),
			Rating:       defaultInt(cell("rating")),
			Description:  cell("description"),
			Category:     cell("category"),
			UPC:          cell("upc"),
			ProductType:  cell("product_type"),
			Tax:          defaultFloat(cell("tax")),
			NumReviews:   defaultInt(cell("num_reviews")),
			URL:          cell("url"),
			ID:           defaultInt(cell("id")),
		})
	}
	return books, nil
}

func defaultFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func defaultInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
