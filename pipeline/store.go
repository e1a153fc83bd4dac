package pipeline

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rmachado/go-book-harvest/models"

	_ "modernc.org/sqlite"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS books (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	price REAL NOT NULL,
	availability INTEGER NOT NULL,
	rating INTEGER NOT NULL,
	description TEXT NOT NULL,
	category TEXT NOT NULL,
	upc TEXT NOT NULL,
	product_type TEXT NOT NULL,
	tax REAL NOT NULL,
	num_reviews INTEGER NOT NULL,
	url TEXT NOT NULL,
	price_range TEXT NOT NULL,
	popularity_score REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS categories (
	category TEXT PRIMARY KEY,
	total_books INTEGER NOT NULL,
	avg_price REAL NOT NULL,
	min_price REAL NOT NULL,
	max_price REAL NOT NULL,
	avg_rating REAL NOT NULL
);
`

// Store is an optional sqlite snapshot of the two processed tables, kept in
// lockstep with the CSV outputs so the read side can consume a single file.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and initialises) a sqlite store at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Replace atomically swaps both tables for the given run output.
func (s *Store) Replace(ctx context.Context, books []*models.ProcessedBook, stats []*models.CategoryStats) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin store tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return fmt.Errorf("clear books: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}

	for _, b := range books {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO books (id, title, price, availability, rating, description, category, upc, product_type, tax, num_reviews, url, price_range, popularity_score)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.Title, b.Price, b.Availability, b.Rating, b.Description, b.Category,
			b.UPC, b.ProductType, b.Tax, b.NumReviews, b.URL, b.PriceRange, b.PopularityScore,
		)
		if err != nil {
			return fmt.Errorf("insert book %d: %w", b.ID, err)
		}
	}

	for _, c := range stats {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO categories (category, total_books, avg_price, min_price, max_price, avg_rating)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.Category, c.TotalBooks, c.AvgPrice, c.MinPrice, c.MaxPrice, c.AvgRating,
		)
		if err != nil {
			return fmt.Errorf("insert category %q: %w", c.Category, err)
		}
	}

	return tx.Commit()
}

// CountBooks reports the number of stored book rows.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&count)
	return count, err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
