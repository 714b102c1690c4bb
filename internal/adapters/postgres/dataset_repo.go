package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/districtmap/internal/core/domain"
)

// DatasetRepo implements ports.DatasetRepository with pgx. It also serves as
// a ports.DatasetSource so the map can render from stored datasets.
type DatasetRepo struct {
	db *DB
}

// NewDatasetRepo creates a new DatasetRepo.
func NewDatasetRepo(db *DB) *DatasetRepo {
	return &DatasetRepo{db: db}
}

// Upsert inserts or replaces a dataset.
func (r *DatasetRepo) Upsert(ctx context.Context, ds *domain.Dataset) error {
	data, err := ds.Data.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode %s: %w", ds.Name, err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO datasets (name, source, features, geojson, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE
		SET source = EXCLUDED.source, features = EXCLUDED.features,
		    geojson = EXCLUDED.geojson, updated_at = EXCLUDED.updated_at
	`, ds.Name, ds.Source, ds.Features, data, ds.UpdatedAt)
	return err
}

// Get returns a dataset with its data.
func (r *DatasetRepo) Get(ctx context.Context, name string) (*domain.Dataset, error) {
	var (
		ds  domain.Dataset
		raw []byte
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT name, COALESCE(source, ''), features, geojson, updated_at
		FROM datasets WHERE name = $1
	`, name).Scan(&ds.Name, &ds.Source, &ds.Features, &raw, &ds.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDatasetNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	ds.Data = fc
	return &ds, nil
}

// List returns all datasets without their data, by name.
func (r *DatasetRepo) List(ctx context.Context) ([]domain.Dataset, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT name, COALESCE(source, ''), features, updated_at
		FROM datasets ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Dataset
	for rows.Next() {
		var ds domain.Dataset
		if err := rows.Scan(&ds.Name, &ds.Source, &ds.Features, &ds.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

// Fetch returns the stored feature collection of a dataset.
func (r *DatasetRepo) Fetch(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	ds, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return ds.Data, nil
}
