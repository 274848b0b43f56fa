package service

import (
	"context"
	"fmt"
	"time"

	"beerfinder/internal/domain"
	"beerfinder/internal/policy"
	"beerfinder/internal/repository"
	"beerfinder/internal/thumbnail"

	"github.com/google/uuid"
)

// ItemInput carries the writable fields of an item. A nil Thumbnail on
// update keeps the stored one.
type ItemInput struct {
	Name         string
	Description  string
	Brand        string
	TypicalPrice *float64
	FlavorType   domain.Flavor
	Percentage   *float64
	Volume       string
	Thumbnail    []byte
}

func (in ItemInput) attributes() domain.ItemAttributes {
	return domain.ItemAttributes{
		Name:        in.Name,
		Description: in.Description,
		Brand:       in.Brand,
		Price:       in.TypicalPrice,
		FlavorType:  in.FlavorType,
		Percentage:  in.Percentage,
		Volume:      in.Volume,
		Thumbnail:   in.Thumbnail,
	}
}

// ItemService defines the interface for catalog item operations
type ItemService interface {
	Create(ctx context.Context, caller domain.Identity, in ItemInput) (*domain.Item, error)
	Get(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.Item, error)
	List(ctx context.Context, caller domain.Identity, params repository.ListParams) (*Page[*domain.Item], error)
	Update(ctx context.Context, caller domain.Identity, id uuid.UUID, in ItemInput) (*domain.Item, error)
	Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error
}

type itemService struct {
	store    repository.Store
	compress thumbnail.Compressor
}

// NewItemService creates a new instance of ItemService
func NewItemService(store repository.Store, compress thumbnail.Compressor) ItemService {
	return &itemService{store: store, compress: orDefaultCompressor(compress)}
}

func (s *itemService) Create(ctx context.Context, caller domain.Identity, in ItemInput) (*domain.Item, error) {
	if err := authorize(caller, policy.ItemCreate, nil); err != nil {
		return nil, err
	}
	if err := in.attributes().Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	item := &domain.Item{
		ID:           uuid.New(),
		Name:         in.Name,
		Description:  in.Description,
		Brand:        in.Brand,
		TypicalPrice: in.TypicalPrice,
		FlavorType:   in.FlavorType.OrDefault(),
		Percentage:   in.Percentage,
		Volume:       in.Volume,
		Thumbnail:    s.compress(in.Thumbnail),
		CreatedBy:    caller.Ref(),
		UpdatedBy:    caller.Ref(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Repos().Items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

func (s *itemService) Get(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.Item, error) {
	if err := authorize(caller, policy.ItemRead, nil); err != nil {
		return nil, err
	}
	return s.store.Repos().Items.FindByID(ctx, id)
}

func (s *itemService) List(ctx context.Context, caller domain.Identity, params repository.ListParams) (*Page[*domain.Item], error) {
	if err := authorize(caller, policy.ItemRead, nil); err != nil {
		return nil, err
	}

	params = params.WithDefaults()
	items, total, err := s.store.Repos().Items.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return &Page[*domain.Item]{Items: items, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

func (s *itemService) Update(ctx context.Context, caller domain.Identity, id uuid.UUID, in ItemInput) (*domain.Item, error) {
	if err := authorize(caller, policy.ItemUpdate, nil); err != nil {
		return nil, err
	}
	if err := in.attributes().Validate(); err != nil {
		return nil, err
	}

	var item *domain.Item
	err := s.store.WithinTx(ctx, func(repos *repository.Repositories) error {
		var err error
		item, err = repos.Items.FindByID(ctx, id)
		if err != nil {
			return err
		}

		item.Name = in.Name
		item.Description = in.Description
		item.Brand = in.Brand
		item.TypicalPrice = in.TypicalPrice
		item.FlavorType = in.FlavorType.OrDefault()
		item.Percentage = in.Percentage
		item.Volume = in.Volume
		if in.Thumbnail != nil {
			item.Thumbnail = s.compress(in.Thumbnail)
		}
		item.UpdatedBy = caller.Ref()
		item.UpdatedAt = time.Now()

		return repos.Items.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error {
	if err := authorize(caller, policy.ItemDelete, nil); err != nil {
		return err
	}
	return s.store.Repos().Items.Delete(ctx, id)
}
