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
	ErrItemRequestNotFound = domain.NewError(domain.ErrNotFound, "item request not found")
)

const itemRequestColumns = `id, name, description, brand, price, percentage, thumbnail, flavor_type, volume,
		requested_by, status, status_changed_by, created_at, updated_at`

// ItemRequestRepository defines the interface for item request data access
type ItemRequestRepository interface {
	Create(ctx context.Context, req *domain.ItemRequest) error
	// Update writes the attributes and moderation state of a request.
	Update(ctx context.Context, req *domain.ItemRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ItemRequest, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.ItemRequest, error)
	// List returns requests newest first, restricted to requestedBy when set.
	List(ctx context.Context, requestedBy *uuid.UUID) ([]*domain.ItemRequest, error)
}

type itemRequestRepository struct {
	db DBTX
}

// NewItemRequestRepository creates a new instance of ItemRequestRepository
func NewItemRequestRepository(db DBTX) ItemRequestRepository {
	return &itemRequestRepository{db: db}
}

func scanItemRequest(row rowScanner) (*domain.ItemRequest, error) {
	req := &domain.ItemRequest{}
	err := row.Scan(
		&req.ID,
		&req.Name,
		&req.Description,
		&req.Brand,
		&req.Price,
		&req.Percentage,
		&req.Thumbnail,
		&req.FlavorType,
		&req.Volume,
		&req.RequestedBy,
		&req.Status,
		&req.StatusChangedBy,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	return req, err
}

// Create inserts a new item request
func (r *itemRequestRepository) Create(ctx context.Context, req *domain.ItemRequest) error {
	query := `
		INSERT INTO item_requests (` + itemRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		req.ID,
		req.Name,
		req.Description,
		req.Brand,
		req.Price,
		req.Percentage,
		req.Thumbnail,
		req.FlavorType,
		req.Volume,
		req.RequestedBy,
		req.Status,
		req.StatusChangedBy,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create item request: %w", err)
	}

	return nil
}

func (r *itemRequestRepository) Update(ctx context.Context, req *domain.ItemRequest) error {
	query := `
		UPDATE item_requests
		SET name = $2, description = $3, brand = $4, price = $5, percentage = $6, thumbnail = $7,
		    flavor_type = $8, volume = $9, status = $10, status_changed_by = $11, updated_at = $12
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		req.ID,
		req.Name,
		req.Description,
		req.Brand,
		req.Price,
		req.Percentage,
		req.Thumbnail,
		req.FlavorType,
		req.Volume,
		req.Status,
		req.StatusChangedBy,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update item request: %w", err)
	}

	return checkAffected(result, ErrItemRequestNotFound)
}

// FindByID retrieves an item request by ID
func (r *itemRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ItemRequest, error) {
	return r.findOne(ctx, `SELECT `+itemRequestColumns+` FROM item_requests WHERE id = $1`, id)
}

func (r *itemRequestRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.ItemRequest, error) {
	return r.findOne(ctx, `SELECT `+itemRequestColumns+` FROM item_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *itemRequestRepository) findOne(ctx context.Context, query string, id uuid.UUID) (*domain.ItemRequest, error) {
	req, err := scanItemRequest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemRequestNotFound
		}
		return nil, fmt.Errorf("failed to find item request by ID: %w", err)
	}
	return req, nil
}

func (r *itemRequestRepository) List(ctx context.Context, requestedBy *uuid.UUID) ([]*domain.ItemRequest, error) {
	whereClause := ""
	args := []any{}
	if requestedBy != nil {
		whereClause = "WHERE requested_by = $1"
		args = append(args, *requestedBy)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM item_requests
		%s
		ORDER BY created_at DESC, id
	`, itemRequestColumns, whereClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list item requests: %w", err)
	}
	defer rows.Close()

	requests := []*domain.ItemRequest{}
	for rows.Next() {
		req, err := scanItemRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item request: %w", err)
		}
		requests = append(requests, req)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item requests: %w", err)
	}

	return requests, nil
}
