package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/shelfwise/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// the catalog and index blobs through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.shelfwise/data/catalog.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".shelfwise", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "catalog.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ProductStore returns a ProductStore interface backed by this store.
func (s *Store) ProductStore() driven.ProductStore {
	return &productStore{store: s}
}

// BlobStore returns a BlobStore interface backed by this store.
func (s *Store) BlobStore() driven.BlobStore {
	return &blobStore{store: s}
}

// migrate runs all pending migrations. Each migration file records its own
// version in schema_migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== ProductStore Implementation ====================

// productStore implements driven.ProductStore using SQLite.
type productStore struct {
	store *Store
}

const productColumns = `id, title, brand, price, rating, review_count, image_url, product_url`

// Replace swaps the whole catalog for records in one transaction.
func (s *productStore) Replace(ctx context.Context, records []domain.ProductRecord) error {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateRecord, r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("clearing products: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (position, `+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, i, r.ID, r.Title, r.Brand,
			nullFloat(r.Price), nullFloat(r.Rating), nullInt(r.ReviewCount),
			r.ImageURL, r.ProductURL); err != nil {
			return fmt.Errorf("inserting product %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing products: %w", err)
	}
	return nil
}

// List returns every product in import order.
func (s *productStore) List(ctx context.Context) ([]domain.ProductRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+productColumns+` FROM products ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	return scanProducts(rows)
}

// Get returns one product by id.
func (s *productStore) Get(ctx context.Context, id string) (*domain.ProductRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = ?
	`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return p, nil
}

// Search returns products whose title or brand contains every keyword.
func (s *productStore) Search(ctx context.Context, keywords string, limit int) ([]domain.ProductRecord, error) {
	terms := strings.Fields(strings.ToLower(keywords))
	if len(terms) == 0 {
		return []domain.ProductRecord{}, nil
	}

	var where []string
	args := make([]any, 0, len(terms)+1)
	for _, t := range terms {
		where = append(where, "instr(lower(title || ' ' || brand), ?) > 0")
		args = append(args, t)
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY position`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	return scanProducts(rows)
}

// Count returns the number of stored products.
func (s *productStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return n, nil
}

// ==================== BlobStore Implementation ====================

// blobStore implements driven.BlobStore using SQLite.
// A single upsert statement gives readers the old or the new blob in full.
type blobStore struct {
	store *Store
}

// Write stores data at location, replacing any previous blob.
func (s *blobStore) Write(ctx context.Context, location string, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO blobs (location, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(location) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, location, data)
	if err != nil {
		return fmt.Errorf("writing blob %s: %w", location, err)
	}
	return nil
}

// Read returns the blob at location.
func (s *blobStore) Read(ctx context.Context, location string) ([]byte, error) {
	var data []byte
	err := s.store.db.QueryRowContext(ctx, "SELECT data FROM blobs WHERE location = ?", location).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, location)
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", location, err)
	}
	return data, nil
}

// Delete removes the blob at location.
func (s *blobStore) Delete(ctx context.Context, location string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM blobs WHERE location = ?", location)
	if err != nil {
		return fmt.Errorf("deleting blob %s: %w", location, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting blob %s: %w", location, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, location)
	}
	return nil
}

// ==================== Helpers ====================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.ProductRecord, error) {
	var p domain.ProductRecord
	var price, rating sql.NullFloat64
	var reviews sql.NullInt64
	if err := row.Scan(&p.ID, &p.Title, &p.Brand, &price, &rating, &reviews,
		&p.ImageURL, &p.ProductURL); err != nil {
		return nil, err
	}
	if price.Valid {
		p.Price = &price.Float64
	}
	if rating.Valid {
		p.Rating = &rating.Float64
	}
	if reviews.Valid {
		n := int(reviews.Int64)
		p.ReviewCount = &n
	}
	return &p, nil
}

func scanProducts(rows *sql.Rows) ([]domain.ProductRecord, error) {
	defer rows.Close()

	products := []domain.ProductRecord{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return products, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
