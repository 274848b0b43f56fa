package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"beerfinder/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrPOINotFound = domain.NewError(domain.ErrNotFound, "POI not found")
)

// Points are stored as geography with (longitude, latitude) axis order and
// read back through the geometry cast.
const poiColumns = `id, name, description, ST_Y(location::geometry), ST_X(location::geometry),
		thumbnail, created_by, last_updated_by, created_at, updated_at`

// POIRepository defines the interface for POI data access
type POIRepository interface {
	Create(ctx context.Context, poi *domain.POI) error
	Update(ctx context.Context, poi *domain.POI) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.POI, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, params ListParams) ([]*domain.POI, int, error)
}

type poiRepository struct {
	db DBTX
}

// NewPOIRepository creates a new instance of POIRepository
func NewPOIRepository(db DBTX) POIRepository {
	return &poiRepository{db: db}
}

func scanPOI(row rowScanner) (*domain.POI, error) {
	poi := &domain.POI{}
	err := row.Scan(
		&poi.ID,
		&poi.Name,
		&poi.Description,
		&poi.Latitude,
		&poi.Longitude,
		&poi.Thumbnail,
		&poi.CreatedBy,
		&poi.LastUpdatedBy,
		&poi.CreatedAt,
		&poi.UpdatedAt,
	)
	return poi, err
}

// Create inserts a new POI
func (r *poiRepository) Create(ctx context.Context, poi *domain.POI) error {
	query := `
		INSERT INTO pois (id, name, description, location, thumbnail, created_by, last_updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		poi.ID,
		poi.Name,
		poi.Description,
		poi.Longitude,
		poi.Latitude,
		poi.Thumbnail,
		poi.CreatedBy,
		poi.LastUpdatedBy,
		poi.CreatedAt,
		poi.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create POI: %w", err)
	}

	return nil
}

// Update overwrites the mutable fields of a POI. created_by is never changed.
func (r *poiRepository) Update(ctx context.Context, poi *domain.POI) error {
	query := `
		UPDATE pois
		SET name = $2, description = $3, location = ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography,
		    thumbnail = $6, last_updated_by = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		poi.ID,
		poi.Name,
		poi.Description,
		poi.Longitude,
		poi.Latitude,
		poi.Thumbnail,
		poi.LastUpdatedBy,
		poi.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update POI: %w", err)
	}

	return checkAffected(result, ErrPOINotFound)
}

// Delete removes a POI together with its relationships
func (r *poiRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pois WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete POI: %w", err)
	}

	return checkAffected(result, ErrPOINotFound)
}

// FindByID retrieves a POI by ID
func (r *poiRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.POI, error) {
	query := `SELECT ` + poiColumns + ` FROM pois WHERE id = $1`

	poi, err := scanPOI(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPOINotFound
		}
		return nil, fmt.Errorf("failed to find POI by ID: %w", err)
	}

	return poi, nil
}

// Exists reports whether a POI with id is stored
func (r *poiRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pois WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check POI existence: %w", err)
	}
	return exists, nil
}

// List retrieves a page of POIs with sorting
func (r *poiRepository) List(ctx context.Context, params ListParams) ([]*domain.POI, int, error) {
	params = params.normalize(map[string]bool{
		"name":       true,
		"created_at": true,
		"updated_at": true,
	}, "name")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pois`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count POIs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM pois
		ORDER BY %s %s, id
		LIMIT $1 OFFSET $2
	`, poiColumns, params.SortBy, params.SortOrder)

	rows, err := r.db.QueryContext(ctx, query, params.PageSize, params.offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list POIs: %w", err)
	}
	defer rows.Close()

	pois := []*domain.POI{}
	for rows.Next() {
		poi, err := scanPOI(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan POI: %w", err)
		}
		pois = append(pois, poi)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating POIs: %w", err)
	}

	return pois, total, nil
}
