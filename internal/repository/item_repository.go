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
	ErrItemNotFound = domain.NewError(domain.ErrNotFound, "item not found")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ListParams controls pagination and ordering of catalog listings.
type ListParams struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder SortOrder
}

// WithDefaults clamps the page to at least 1 and the page size to 1..100,
// defaulting to 20.
func (p ListParams) WithDefaults() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
	return p
}

func (p ListParams) normalize(validSortFields map[string]bool, defaultSort string) ListParams {
	p = p.WithDefaults()
	// Only whitelisted columns reach the ORDER BY clause.
	if !validSortFields[p.SortBy] {
		p.SortBy = defaultSort
	}
	if p.SortOrder != SortOrderAsc && p.SortOrder != SortOrderDesc {
		p.SortOrder = SortOrderAsc
	}
	return p
}

func (p ListParams) offset() int {
	return (p.Page - 1) * p.PageSize
}

const itemColumns = `id, name, description, brand, typical_price, flavor_type, percentage,
		volume, thumbnail, created_by, updated_by, created_at, updated_at`

// ItemRepository defines the interface for item data access
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	List(ctx context.Context, params ListParams) ([]*domain.Item, int, error)
}

type itemRepository struct {
	db DBTX
}

// NewItemRepository creates a new instance of ItemRepository
func NewItemRepository(db DBTX) ItemRepository {
	return &itemRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	item := &domain.Item{}
	err := row.Scan(
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
	return item, err
}

// Create inserts a new item
func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.Name,
		item.Description,
		item.Brand,
		item.TypicalPrice,
		item.FlavorType,
		item.Percentage,
		item.Volume,
		item.Thumbnail,
		item.CreatedBy,
		item.UpdatedBy,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

// Update overwrites the mutable fields of an existing item
func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	query := `
		UPDATE items
		SET name = $2, description = $3, brand = $4, typical_price = $5, flavor_type = $6,
		    percentage = $7, volume = $8, thumbnail = $9, updated_by = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.Name,
		item.Description,
		item.Brand,
		item.TypicalPrice,
		item.FlavorType,
		item.Percentage,
		item.Volume,
		item.Thumbnail,
		item.UpdatedBy,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	return checkAffected(result, ErrItemNotFound)
}

// Delete removes an item. Its POI relationships are removed by cascade.
func (r *itemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	return checkAffected(result, ErrItemNotFound)
}

// FindByID retrieves an item by ID
func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item by ID: %w", err)
	}

	return item, nil
}

// List retrieves a page of items with sorting
func (r *itemRepository) List(ctx context.Context, params ListParams) ([]*domain.Item, int, error) {
	params = params.normalize(map[string]bool{
		"name":          true,
		"brand":         true,
		"typical_price": true,
		"percentage":    true,
		"created_at":    true,
	}, "name")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM items
		ORDER BY %s %s, id
		LIMIT $1 OFFSET $2
	`, itemColumns, params.SortBy, params.SortOrder)

	rows, err := r.db.QueryContext(ctx, query, params.PageSize, params.offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []*domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating items: %w", err)
	}

	return items, total, nil
}
