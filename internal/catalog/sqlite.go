package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

// SQLiteSource reads the catalog from a local SQLite file managed by migrations.
type SQLiteSource struct {
	db *sql.DB
}

func NewSQLiteSource(dbPath string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping catalog database: %w", err)
	}

	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) RunMigrations(migrationsPath string) error {
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

func (s *SQLiteSource) Vehicles(ctx context.Context) ([]domain.Vehicle, error) {
	query := `
		SELECT id, name, type, price, image, gallery, specs, features
		FROM vehicles
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		var vType, price, gallery, specs, features string
		if err := rows.Scan(&v.ID, &v.Name, &vType, &price, &v.Image, &gallery, &specs, &features); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		v.Type = domain.VehicleType(vType)
		if v.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("vehicle %s price: %w", v.ID, err)
		}
		if err := json.Unmarshal([]byte(gallery), &v.Gallery); err != nil {
			return nil, fmt.Errorf("vehicle %s gallery: %w", v.ID, err)
		}
		if err := json.Unmarshal([]byte(specs), &v.Specs); err != nil {
			return nil, fmt.Errorf("vehicle %s specs: %w", v.ID, err)
		}
		if err := json.Unmarshal([]byte(features), &v.Features); err != nil {
			return nil, fmt.Errorf("vehicle %s features: %w", v.ID, err)
		}
		vehicles = append(vehicles, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return vehicles, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
