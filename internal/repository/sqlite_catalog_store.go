package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"
)

// SQLiteCatalogStore serves the asset and bundle catalog.
type SQLiteCatalogStore struct {
	db *sql.DB
}

func NewSQLiteCatalogStore(dbPath string) (*SQLiteCatalogStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// every new connection to ":memory:" would see an empty database
	db.SetMaxOpenConns(1)

	return &SQLiteCatalogStore{db: db}, nil
}

func (s *SQLiteCatalogStore) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (s *SQLiteCatalogStore) ListAssets(ctx context.Context) ([]domain.CatalogAsset, error) {
	query := `
		SELECT id, name, description, price, thumbnail, created_at
		FROM assets
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	assets := make([]domain.CatalogAsset, 0)
	for rows.Next() {
		var a domain.CatalogAsset
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Price, &a.Thumbnail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return assets, nil
}

func (s *SQLiteCatalogStore) ListBundles(ctx context.Context) ([]domain.CatalogBundle, error) {
	query := `
		SELECT id, name, description, price, thumbnail, created_at
		FROM bundles
		ORDER BY created_at, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bundles: %w", err)
	}
	defer rows.Close()

	bundles := make([]domain.CatalogBundle, 0)
	for rows.Next() {
		var b domain.CatalogBundle
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Price, &b.Thumbnail, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bundle: %w", err)
		}
		bundles = append(bundles, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return bundles, nil
}

func (s *SQLiteCatalogStore) GetAsset(ctx context.Context, id string) (*domain.CatalogAsset, error) {
	query := `
		SELECT id, name, description, price, thumbnail, created_at
		FROM assets
		WHERE id = ?
	`

	var a domain.CatalogAsset
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&a.ID, &a.Name, &a.Description, &a.Price, &a.Thumbnail, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCatalogItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query asset: %w", err)
	}
	return &a, nil
}

func (s *SQLiteCatalogStore) GetBundle(ctx context.Context, id string) (*domain.CatalogBundle, error) {
	query := `
		SELECT id, name, description, price, thumbnail, created_at
		FROM bundles
		WHERE id = ?
	`

	var b domain.CatalogBundle
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&b.ID, &b.Name, &b.Description, &b.Price, &b.Thumbnail, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCatalogItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bundle: %w", err)
	}
	return &b, nil
}

func (s *SQLiteCatalogStore) Close() error {
	return s.db.Close()
}
