package service

import (
	"context"
	"time"

	"beerfinder/internal/domain"
	"beerfinder/internal/events"
	"beerfinder/internal/policy"
	"beerfinder/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RelationshipService manages which items are offered at which POIs.
type RelationshipService interface {
	// AssignItem relates an item to a POI. A pair that is already related
	// yields a Conflict and must not be retried.
	AssignItem(ctx context.Context, caller domain.Identity, poiID, itemID uuid.UUID, localPrice *float64) (*domain.POIItem, error)
	// RemoveItem deletes the relationship if present. An unknown item is
	// reported as NotFound even when nothing was related.
	RemoveItem(ctx context.Context, caller domain.Identity, poiID, itemID uuid.UUID) error
	ListAvailableItems(ctx context.Context, caller domain.Identity, poiID uuid.UUID) ([]*domain.Item, error)
	ListAssignedItems(ctx context.Context, caller domain.Identity, poiID uuid.UUID) ([]*domain.AssignedItem, error)
}

type relationshipService struct {
	store  repository.Store
	events eventSink
}

// NewRelationshipService creates a new instance of RelationshipService
func NewRelationshipService(store repository.Store, publisher events.Publisher, logger *zap.Logger) RelationshipService {
	return &relationshipService{store: store, events: newEventSink(publisher, logger)}
}

type relationshipPayload struct {
	POIID      uuid.UUID `json:"poi_id"`
	ItemID     uuid.UUID `json:"item_id"`
	LocalPrice *float64  `json:"local_price,omitempty"`
}

func (s *relationshipService) AssignItem(ctx context.Context, caller domain.Identity, poiID, itemID uuid.UUID, localPrice *float64) (*domain.POIItem, error) {
	if caller.IsAnonymous() {
		return nil, authorize(caller, policy.RelationshipAssign, nil)
	}
	if localPrice != nil && *localPrice < 0 {
		return nil, domain.ValidationError{Field: "local_price", Message: "Value must be greater than or equal to 0"}
	}
	if localPrice != nil && *localPrice > domain.MaxPrice {
		return nil, domain.ValidationError{Field: "local_price", Message: "Value must be less than or equal to 99999999.99"}
	}

	rel := &domain.POIItem{
		ID:                    uuid.New(),
		POIID:                 poiID,
		ItemID:                itemID,
		LocalPrice:            localPrice,
		RelationshipCreatedBy: caller.Ref(),
		CreatedAt:             time.Now(),
	}

	err := s.store.WithinTx(ctx, func(repos *repository.Repositories) error {
		poi, err := repos.POIs.FindByID(ctx, poiID)
		if err != nil {
			return err
		}
		if err := authorize(caller, policy.RelationshipAssign, poi.CreatedBy); err != nil {
			return err
		}
		if _, err := repos.Items.FindByID(ctx, itemID); err != nil {
			return err
		}

		// Fast path; the unique constraint still guards concurrent inserts.
		exists, err := repos.POIItems.Exists(ctx, poiID, itemID)
		if err != nil {
			return err
		}
		if exists {
			return repository.ErrRelationshipExists
		}
		return repos.POIItems.Create(ctx, rel)
	})
	if err != nil {
		return nil, err
	}

	s.events.publish(ctx, events.New(events.POIItemAssigned, poiID, caller.Ref(), relationshipPayload{
		POIID:      poiID,
		ItemID:     itemID,
		LocalPrice: localPrice,
	}))
	return rel, nil
}

func (s *relationshipService) RemoveItem(ctx context.Context, caller domain.Identity, poiID, itemID uuid.UUID) error {
	if caller.IsAnonymous() {
		return authorize(caller, policy.RelationshipRemove, nil)
	}

	var removed bool
	err := s.store.WithinTx(ctx, func(repos *repository.Repositories) error {
		poi, err := repos.POIs.FindByID(ctx, poiID)
		if err != nil {
			return err
		}
		if err := authorize(caller, policy.RelationshipRemove, poi.CreatedBy); err != nil {
			return err
		}
		if _, err := repos.Items.FindByID(ctx, itemID); err != nil {
			return err
		}

		removed, err = repos.POIItems.Delete(ctx, poiID, itemID)
		return err
	})
	if err != nil {
		return err
	}

	if removed {
		s.events.publish(ctx, events.New(events.POIItemRemoved, poiID, caller.Ref(), relationshipPayload{
			POIID:  poiID,
			ItemID: itemID,
		}))
	}
	return nil
}

func (s *relationshipService) ListAvailableItems(ctx context.Context, caller domain.Identity, poiID uuid.UUID) ([]*domain.Item, error) {
	repos, err := s.readablePOI(ctx, caller, poiID)
	if err != nil {
		return nil, err
	}
	return repos.POIItems.ListAvailable(ctx, poiID)
}

func (s *relationshipService) ListAssignedItems(ctx context.Context, caller domain.Identity, poiID uuid.UUID) ([]*domain.AssignedItem, error) {
	repos, err := s.readablePOI(ctx, caller, poiID)
	if err != nil {
		return nil, err
	}
	return repos.POIItems.ListAssigned(ctx, poiID)
}

func (s *relationshipService) readablePOI(ctx context.Context, caller domain.Identity, poiID uuid.UUID) (*repository.Repositories, error) {
	if err := authorize(caller, policy.POIRead, nil); err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	exists, err := repos.POIs.Exists(ctx, poiID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrPOINotFound
	}
	return repos, nil
}
