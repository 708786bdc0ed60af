package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// PostgresLedger stores purchase records in Postgres.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(cred *Credentials) (*PostgresLedger, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresLedger{db: db}, nil
}

func (r *PostgresLedger) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "ledger_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *PostgresLedger) Create(ctx context.Context, record *domain.PurchaseRecord) error {
	if !record.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, record.Status)
	}

	query := `INSERT INTO purchases (id, user_id, asset_id, bundle_id, cart_item_id, amount, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, insertErr := r.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		nullString(record.AssetID),
		nullString(record.BundleID),
		record.CartItemID,
		record.Amount,
		record.Status.String(),
		record.CreatedAt)

	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicatePurchase
		}
		return fmt.Errorf("insert purchase: %w", insertErr)
	}
	return nil
}

func (r *PostgresLedger) ListByUser(ctx context.Context, userID string) ([]domain.PurchaseRecord, error) {
	query := `SELECT id, user_id, asset_id, bundle_id, cart_item_id, amount, status, created_at
	          FROM purchases WHERE user_id = $1 ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query purchases by user id: %w", err)
	}
	defer rows.Close()

	records := make([]domain.PurchaseRecord, 0)
	for rows.Next() {
		var rec domain.PurchaseRecord
		var assetID, bundleID sql.NullString
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&assetID,
			&bundleID,
			&rec.CartItemID,
			&rec.Amount,
			&rec.Status,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase row: %w", err)
		}
		rec.AssetID = assetID.String
		rec.BundleID = bundleID.String
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

func (r *PostgresLedger) Close() error {
	return r.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
