package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rmachado/go-book-harvest/models"
)

// Output file names expected by the downstream query service.
const (
	RawFile        = "books_data.csv"
	ProcessedFile  = "books_processed.csv"
	CategoriesFile = "categories.csv"
)

func rawHeader() []string {
	return []string{"title", "price", "availability", "rating", "description", "category", "upc", "product_type", "tax", "num_reviews", "url", "id"}
}

func processedHeader() []string {
	return append(rawHeader(), "price_range", "popularity_score")
}

func categoriesHeader() []string {
	return []string{"category", "total_books", "avg_price", "min_price", "max_price", "avg_rating"}
}

func rawRow(b *models.RawBook) []string {
	return []string{
		b.Title,
		formatFloat(b.Price),
		strconv.Itoa(b.Availability),
		strconv.Itoa(b.Rating),
		b.Description,
		b.Category,
		b.UPC,
		b.ProductType,
		formatFloat(b.Tax),
		strconv.Itoa(b.NumReviews),
		b.URL,
		strconv.Itoa(b.ID),
	}
}

func processedRow(b *models.ProcessedBook) []string {
	return append(rawRow(&b.RawBook), b.PriceRange, formatFloat(b.PopularityScore))
}

func categoryRow(c *models.CategoryStats) []string {
	return []string{
		c.Category,
		strconv.Itoa(c.TotalBooks),
		formatFloat(c.AvgPrice),
		formatFloat(c.MinPrice),
		formatFloat(c.MaxPrice),
		formatFloat(c.AvgRating),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteRawCSV writes the raw harvest table. The column layout is part of
// the downstream contract and must not change.
func WriteRawCSV(path string, books []*models.RawBook) error {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, rawRow(b))
	}
	return writeCSV(path, rawHeader(), rows)
}

// WriteProcessedCSV writes the processed book table.
func WriteProcessedCSV(path string, books []*models.ProcessedBook) error {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, processedRow(b))
	}
	return writeCSV(path, processedHeader(), rows)
}

// WriteCategoriesCSV writes the category aggregate table.
func WriteCategoriesCSV(path string, stats []*models.CategoryStats) error {
	rows := make([][]string, 0, len(stats))
	for _, c := range stats {
		rows = append(rows, categoryRow(c))
	}
	return writeCSV(path, categoriesHeader(), rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// WriteRawJSONL writes the raw harvest in newline-delimited JSON.
func WriteRawJSONL(path string, books []*models.RawBook) error {
	return writeJSONL(path, func(enc *json.Encoder) error {
		for _, b := range books {
			if err := enc.Encode(b); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteProcessedJSONL writes the processed book table in JSONL.
func WriteProcessedJSONL(path string, books []*models.ProcessedBook) error {
	return writeJSONL(path, func(enc *json.Encoder) error {
		for _, b := range books {
			if err := enc.Encode(b); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteCategoriesJSONL writes the category aggregate table in JSONL.
func WriteCategoriesJSONL(path string, stats []*models.CategoryStats) error {
	return writeJSONL(path, func(enc *json.Encoder) error {
		for _, c := range stats {
			if err := enc.Encode(c); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeJSONL(path string, encode func(*json.Encoder) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	buffer := bufio.NewWriter(f)
	if err := encode(json.NewEncoder(buffer)); err != nil {
		return fmt.Errorf("encode json record: %w", err)
	}
	if err := buffer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// WriteRawOutputs persists the raw harvest in the configured format under
// dir/raw.
func WriteRawOutputs(dir, format string, books []*models.RawBook) error {
	base := filepath.Join(dir, "raw")
	switch format {
	case "csv":
		return WriteRawCSV(filepath.Join(base, RawFile), books)
	case "json":
		return WriteRawJSONL(filepath.Join(base, jsonlName(RawFile)), books)
	case "dual":
		if err := WriteRawCSV(filepath.Join(base, RawFile), books); err != nil {
			return err
		}
		return WriteRawJSONL(filepath.Join(base, jsonlName(RawFile)), books)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteProcessedOutputs persists both processed tables in the configured
// format under dir/processed.
func WriteProcessedOutputs(dir, format string, books []*models.ProcessedBook, stats []*models.CategoryStats) error {
	base := filepath.Join(dir, "processed")
	switch format {
	case "csv":
		if err := WriteProcessedCSV(filepath.Join(base, ProcessedFile), books); err != nil {
			return err
		}
		return WriteCategoriesCSV(filepath.Join(base, CategoriesFile), stats)
	case "json":
		if err := WriteProcessedJSONL(filepath.Join(base, jsonlName(ProcessedFile)), books); err != nil {
			return err
		}
		return WriteCategoriesJSONL(filepath.Join(base, jsonlName(CategoriesFile)), stats)
	case "dual":
		if err := WriteProcessedOutputs(dir, "csv", books, stats); err != nil {
			return err
		}
		return WriteProcessedOutputs(dir, "json", books, stats)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func jsonlName(csvName string) string {
	return csvName[:len(csvName)-len(".csv")] + ".jsonl"
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
