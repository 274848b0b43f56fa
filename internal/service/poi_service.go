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

// POIInput carries the writable fields of a POI. On update, absent
// coordinates keep the stored location and a nil Thumbnail keeps the stored
// image.
type POIInput struct {
	Name        string
	Description string
	Latitude    *float64
	Longitude   *float64
	Thumbnail   []byte
}

// POIService defines the interface for POI registry operations
type POIService interface {
	Create(ctx context.Context, caller domain.Identity, in POIInput) (*domain.POI, error)
	Get(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.POI, error)
	List(ctx context.Context, caller domain.Identity, params repository.ListParams) (*Page[*domain.POI], error)
	Update(ctx context.Context, caller domain.Identity, id uuid.UUID, in POIInput) (*domain.POI, error)
	Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error
}

type poiService struct {
	store    repository.Store
	compress thumbnail.Compressor
}

// NewPOIService creates a new instance of POIService
func NewPOIService(store repository.Store, compress thumbnail.Compressor) POIService {
	return &poiService{store: store, compress: orDefaultCompressor(compress)}
}

func (s *poiService) Create(ctx context.Context, caller domain.Identity, in POIInput) (*domain.POI, error) {
	if err := authorize(caller, policy.POICreate, nil); err != nil {
		return nil, err
	}
	if err := validateName(in.Name); err != nil {
		return nil, err
	}

	location, ok, err := domain.NewLocation(in.Latitude, in.Longitude)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ValidationErrors{
			{Field: "latitude", Message: "This field is required"},
			{Field: "longitude", Message: "This field is required"},
		}
	}

	now := time.Now()
	poi := &domain.POI{
		ID:            uuid.New(),
		Name:          in.Name,
		Description:   in.Description,
		Location:      location,
		Thumbnail:     s.compress(in.Thumbnail),
		CreatedBy:     caller.Ref(),
		LastUpdatedBy: caller.Ref(),
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         []domain.Item{},
	}

	if err := s.store.Repos().POIs.Create(ctx, poi); err != nil {
		return nil, fmt.Errorf("failed to create POI: %w", err)
	}
	return poi, nil
}

func (s *poiService) Get(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.POI, error) {
	if err := authorize(caller, policy.POIRead, nil); err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	poi, err := repos.POIs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := attachItems(ctx, repos, poi); err != nil {
		return nil, err
	}
	return poi, nil
}

func (s *poiService) List(ctx context.Context, caller domain.Identity, params repository.ListParams) (*Page[*domain.POI], error) {
	if err := authorize(caller, policy.POIRead, nil); err != nil {
		return nil, err
	}

	params = params.WithDefaults()
	repos := s.store.Repos()
	pois, total, err := repos.POIs.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list POIs: %w", err)
	}
	if err := attachItems(ctx, repos, pois...); err != nil {
		return nil, err
	}
	return &Page[*domain.POI]{Items: pois, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

func (s *poiService) Update(ctx context.Context, caller domain.Identity, id uuid.UUID, in POIInput) (*domain.POI, error) {
	if caller.IsAnonymous() {
		return nil, authorize(caller, policy.POIUpdate, nil)
	}
	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	location, hasLocation, err := domain.NewLocation(in.Latitude, in.Longitude)
	if err != nil {
		return nil, err
	}

	var poi *domain.POI
	err = s.store.WithinTx(ctx, func(repos *repository.Repositories) error {
		var err error
		poi, err = repos.POIs.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(caller, policy.POIUpdate, poi.CreatedBy); err != nil {
			return err
		}

		poi.Name = in.Name
		poi.Description = in.Description
		if hasLocation {
			poi.Location = location
		}
		if in.Thumbnail != nil {
			poi.Thumbnail = s.compress(in.Thumbnail)
		}
		poi.LastUpdatedBy = caller.Ref()
		poi.UpdatedAt = time.Now()

		if err := repos.POIs.Update(ctx, poi); err != nil {
			return err
		}
		return attachItems(ctx, repos, poi)
	})
	if err != nil {
		return nil, err
	}
	return poi, nil
}

func (s *poiService) Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error {
	if caller.IsAnonymous() {
		return authorize(caller, policy.POIDelete, nil)
	}

	return s.store.WithinTx(ctx, func(repos *repository.Repositories) error {
		poi, err := repos.POIs.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(caller, policy.POIDelete, poi.CreatedBy); err != nil {
			return err
		}
		return repos.POIs.Delete(ctx, id)
	})
}

// attachItems fills the derived item set of each POI from its relationships.
func attachItems(ctx context.Context, repos *repository.Repositories, pois ...*domain.POI) error {
	if len(pois) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(pois))
	for i, poi := range pois {
		ids[i] = poi.ID
	}

	byPOI, err := repos.POIItems.ItemsByPOI(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load POI items: %w", err)
	}
	for _, poi := range pois {
		poi.Items = byPOI[poi.ID]
		if poi.Items == nil {
			poi.Items = []domain.Item{}
		}
	}
	return nil
}
