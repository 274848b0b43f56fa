package repository

import (
	"context"
	"fmt"

	"beerfinder/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrRelationshipExists = domain.NewError(domain.ErrConflict, "item is already assigned to this POI")
)

const joinedItemColumns = `i.id, i.name, i.description, i.brand, i.typical_price, i.flavor_type, i.percentage,
		i.volume, i.thumbnail, i.created_by, i.updated_by, i.created_at, i.updated_at`

// POIItemRepository defines the interface for POI/item relationship data access
type POIItemRepository interface {
	Create(ctx context.Context, rel *domain.POIItem) error
	Exists(ctx context.Context, poiID, itemID uuid.UUID) (bool, error)
	// Delete removes the relationship and reports whether one existed.
	Delete(ctx context.Context, poiID, itemID uuid.UUID) (bool, error)
	ListAvailable(ctx context.Context, poiID uuid.UUID) ([]*domain.Item, error)
	ListAssigned(ctx context.Context, poiID uuid.UUID) ([]*domain.AssignedItem, error)
	// ItemsByPOI returns the related items of every POI in poiIDs.
	ItemsByPOI(ctx context.Context, poiIDs []uuid.UUID) (map[uuid.UUID][]domain.Item, error)
}

type poiItemRepository struct {
	db DBTX
}

// NewPOIItemRepository creates a new instance of POIItemRepository
func NewPOIItemRepository(db DBTX) POIItemRepository {
	return &poiItemRepository{db: db}
}

// Create inserts a relationship. A second relationship for the same pair is
// rejected by the unique constraint and reported as ErrRelationshipExists.
func (r *poiItemRepository) Create(ctx context.Context, rel *domain.POIItem) error {
	query := `
		INSERT INTO poi_items (id, poi_id, item_id, local_price, relationship_created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		rel.ID,
		rel.POIID,
		rel.ItemID,
		rel.LocalPrice,
		rel.RelationshipCreatedBy,
		rel.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRelationshipExists
		}
		return fmt.Errorf("failed to create POI item: %w", err)
	}

	return nil
}

// Exists reports whether the pair is already related
func (r *poiItemRepository) Exists(ctx context.Context, poiID, itemID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM poi_items WHERE poi_id = $1 AND item_id = $2)`,
		poiID,
		itemID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check POI item existence: %w", err)
	}
	return exists, nil
}

func (r *poiItemRepository) Delete(ctx context.Context, poiID, itemID uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM poi_items WHERE poi_id = $1 AND item_id = $2`, poiID, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to delete POI item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListAvailable returns the items not related to the POI, ordered by name
func (r *poiItemRepository) ListAvailable(ctx context.Context, poiID uuid.UUID) ([]*domain.Item, error) {
	query := `
		SELECT ` + joinedItemColumns + `
		FROM items i
		WHERE NOT EXISTS (
			SELECT 1 FROM poi_items pi WHERE pi.poi_id = $1 AND pi.item_id = i.id
		)
		ORDER BY i.name, i.id
	`

	rows, err := r.db.QueryContext(ctx, query, poiID)
	if err != nil {
		return nil, fmt.Errorf("failed to list available items: %w", err)
	}
	defer rows.Close()

	items := []*domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating available items: %w", err)
	}

	return items, nil
}

// ListAssigned returns every relationship of the POI with its item and the
// username of the relationship creator
func (r *poiItemRepository) ListAssigned(ctx context.Context, poiID uuid.UUID) ([]*domain.AssignedItem, error) {
	query := `
		SELECT pi.id, pi.poi_id, pi.item_id, pi.local_price, pi.relationship_created_by, pi.created_at,
		       COALESCE(u.username, ''),
		       ` + joinedItemColumns + `
		FROM poi_items pi
		JOIN items i ON i.id = pi.item_id
		LEFT JOIN users u ON u.id = pi.relationship_created_by
		WHERE pi.poi_id = $1
		ORDER BY i.name, i.id
	`

	rows, err := r.db.QueryContext(ctx, query, poiID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned items: %w", err)
	}
	defer rows.Close()

	assigned := []*domain.AssignedItem{}
	for rows.Next() {
		a := &domain.AssignedItem{}
		err := rows.Scan(
			&a.ID,
			&a.POIID,
			&a.ItemID,
			&a.LocalPrice,
			&a.RelationshipCreatedBy,
			&a.CreatedAt,
			&a.CreatedByName,
			&a.Item.ID,
			&a.Item.Name,
			&a.Item.Description,
			&a.Item.Brand,
			&a.Item.TypicalPrice,
			&a.Item.FlavorType,
			&a.Item.Percentage,
			&a.Item.Volume,
			&a.Item.Thumbnail,
			&a.Item.CreatedBy,
			&a.Item.UpdatedBy,
			&a.Item.CreatedAt,
			&a.Item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assigned item: %w", err)
		}
		assigned = append(assigned, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assigned items: %w", err)
	}

	return assigned, nil
}

func (r *poiItemRepository) ItemsByPOI(ctx context.Context, poiIDs []uuid.UUID) (map[uuid.UUID][]domain.Item, error) {
	result := make(map[uuid.UUID][]domain.Item, len(poiIDs))
	if len(poiIDs) == 0 {
		return result, nil
	}

	ids := make([]string, len(poiIDs))
	for i, id := range poiIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT pi.poi_id, ` + joinedItemColumns + `
		FROM poi_items pi
		JOIN items i ON i.id = pi.item_id
		WHERE pi.poi_id = ANY($1::uuid[])
		ORDER BY i.name, i.id
	`

	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list POI items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var poiID uuid.UUID
		var item domain.Item
		err := rows.Scan(
			&poiID,
			&item.ID,
			&item.Name,
			&item.Description,
			&item.Brand,
			&item.TypicalPrice,
			&item.FlavorType,
			&item.Percentage,
			&item.Volume,
			&item.Thumbnail,
			&item.CreatedBy,
			&item.UpdatedBy,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan POI item: %w", err)
		}
		result[poiID] = append(result[poiID], item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating POI items: %w", err)
	}

	return result, nil
}
