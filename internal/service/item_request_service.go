package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beerfinder/internal/domain"
	"beerfinder/internal/events"
	"beerfinder/internal/policy"
	"beerfinder/internal/repository"
	"beerfinder/internal/thumbnail"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutcomeKind tags the result of a moderation transition.
type OutcomeKind int

const (
	// OutcomeInvalid means the transition was not applied.
	OutcomeInvalid OutcomeKind = iota
	OutcomeApproved
	OutcomeRejected
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeApproved:
		return "approved"
	case OutcomeRejected:
		return "rejected"
	default:
		return "invalid"
	}
}

// Outcome is the result of approving or rejecting a request. Item is set
// only for OutcomeApproved.
type Outcome struct {
	Kind    OutcomeKind
	Request *domain.ItemRequest
	Item    *domain.Item
}

// ItemRequestInput carries the proposed item fields. A nil Thumbnail on
// update keeps the stored one.
type ItemRequestInput struct {
	Name        string
	Description string
	Brand       string
	Price       *float64
	Percentage  *float64
	FlavorType  domain.Flavor
	Volume      string
	Thumbnail   []byte
}

func (in ItemRequestInput) attributes() domain.ItemAttributes {
	return domain.ItemAttributes{
		Name:        in.Name,
		Description: in.Description,
		Brand:       in.Brand,
		Price:       in.Price,
		FlavorType:  in.FlavorType,
		Percentage:  in.Percentage,
		Volume:      in.Volume,
		Thumbnail:   in.Thumbnail,
	}
}

// ItemRequestService runs the moderation workflow for proposed items
type ItemRequestService interface {
	Submit(ctx context.Context, caller domain.Identity, in ItemRequestInput) (*domain.ItemRequest, error)
	Get(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.ItemRequest, error)
	// List returns the caller's own requests, or every request for staff.
	List(ctx context.Context, caller domain.Identity) ([]*domain.ItemRequest, error)
	// ListAll returns every request and is restricted to staff.
	ListAll(ctx context.Context, caller domain.Identity) ([]*domain.ItemRequest, error)
	Update(ctx context.Context, caller domain.Identity, id uuid.UUID, in ItemRequestInput) (*domain.ItemRequest, error)
	Approve(ctx context.Context, caller domain.Identity, id uuid.UUID) (Outcome, error)
	Reject(ctx context.Context, caller domain.Identity, id uuid.UUID) (Outcome, error)
}

type itemRequestService struct {
	store    repository.Store
	compress thumbnail.Compressor
	events   eventSink
}

// NewItemRequestService creates a new instance of ItemRequestService
func NewItemRequestService(
	store repository.Store,
	compress thumbnail.Compressor,
	publisher events.Publisher,
	logger *zap.Logger,
) ItemRequestService {
	return &itemRequestService{
		store:    store,
		compress: orDefaultCompressor(compress),
		events:   newEventSink(publisher, logger),
	}
}

type requestPayload struct {
	Name   string               `json:"name"`
	Status domain.RequestStatus `json:"status"`
	ItemID *uuid.UUID           `json:"item_id,omitempty"`
}

func (s *itemRequestService) Submit(ctx context.Context, caller domain.Identity, in ItemRequestInput) (*domain.ItemRequest, error) {
	if err := authorize(caller, policy.RequestSubmit, nil); err != nil {
		return nil, err
	}
	if err := in.attributes().Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	req := &domain.ItemRequest{
		ID:              uuid.New(),
		Name:            in.Name,
		Description:     in.Description,
		Brand:           in.Brand,
		Price:           in.Price,
		Percentage:      in.Percentage,
		Thumbnail:       s.compress(in.Thumbnail),
		FlavorType:      in.FlavorType.OrDefault(),
		Volume:          in.Volume,
		RequestedBy:     caller.UserID,
		Status:          domain.RequestPending,
		StatusChangedBy: caller.Ref(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Repos().ItemRequests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to submit item request: %w", err)
	}

	s.events.publish(ctx, events.New(events.ItemRequestSubmitted, req.ID, caller.Ref(), requestPayload{
		Name:   req.Name,
		Status: req.Status,
	}))
	return req, nil
}

func (s *itemRequestService) Get(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.ItemRequest, error) {
	if caller.IsAnonymous() {
		return nil, authorize(caller, policy.RequestRead, nil)
	}

	req, err := s.store.Repos().ItemRequests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, policy.RequestRead, &req.RequestedBy); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *itemRequestService) List(ctx context.Context, caller domain.Identity) ([]*domain.ItemRequest, error) {
	if err := authorize(caller, policy.RequestRead, caller.Ref()); err != nil {
		return nil, err
	}

	// Ownership filtering applies to every non-staff caller; listing all is a
	// staff capability, not an ownership one.
	var requestedBy *uuid.UUID
	if !caller.IsStaff {
		requestedBy = caller.Ref()
	}
	return s.store.Repos().ItemRequests.List(ctx, requestedBy)
}

func (s *itemRequestService) ListAll(ctx context.Context, caller domain.Identity) ([]*domain.ItemRequest, error) {
	if err := authorize(caller, policy.RequestListAll, nil); err != nil {
		return nil, err
	}
	return s.store.Repos().ItemRequests.List(ctx, nil)
}

func (s *itemRequestService) Update(ctx context.Context, caller domain.Identity, id uuid.UUID, in ItemRequestInput) (*domain.ItemRequest, error) {
	if err := authorize(caller, policy.RequestEdit, nil); err != nil {
		return nil, err
	}
	if err := in.attributes().Validate(); err != nil {
		return nil, err
	}

	var req *domain.ItemRequest
	err := s.store.WithinTx(ctx, func(repos *repository.Repositories) error {
		var err error
		req, err = repos.ItemRequests.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req.Status != domain.RequestPending {
			return domain.ErrRequestNotPending
		}

		req.Name = in.Name
		req.Description = in.Description
		req.Brand = in.Brand
		req.Price = in.Price
		req.Percentage = in.Percentage
		req.FlavorType = in.FlavorType.OrDefault()
		req.Volume = in.Volume
		if in.Thumbnail != nil {
			req.Thumbnail = s.compress(in.Thumbnail)
		}
		req.UpdatedAt = time.Now()

		return repos.ItemRequests.Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Approve materializes the request into a new catalog item. The item insert
// and the status change commit together.
func (s *itemRequestService) Approve(ctx context.Context, caller domain.Identity, id uuid.UUID) (Outcome, error) {
	return s.transition(ctx, caller, id, domain.RequestApproved)
}

func (s *itemRequestService) Reject(ctx context.Context, caller domain.Identity, id uuid.UUID) (Outcome, error) {
	return s.transition(ctx, caller, id, domain.RequestRejected)
}

func (s *itemRequestService) transition(ctx context.Context, caller domain.Identity, id uuid.UUID, next domain.RequestStatus) (Outcome, error) {
	action := policy.RequestApprove
	if next == domain.RequestRejected {
		action = policy.RequestReject
	}
	if err := authorize(caller, action, nil); err != nil {
		return Outcome{Kind: OutcomeInvalid}, err
	}

	outcome := Outcome{Kind: OutcomeInvalid}
	err := s.store.WithinTx(ctx, func(repos *repository.Repositories) error {
		req, err := repos.ItemRequests.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		outcome.Request = req

		now := time.Now()
		if err := req.Transition(next, caller, now); err != nil {
			return err
		}

		if next == domain.RequestApproved {
			item := req.Materialize(uuid.New(), caller, now)
			if err := repos.Items.Create(ctx, item); err != nil {
				return fmt.Errorf("failed to materialize item: %w", err)
			}
			outcome.Item = item
		}

		return repos.ItemRequests.Update(ctx, req)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidState) {
			outcome.Request = nil
		}
		outcome.Item = nil
		return outcome, err
	}

	payload := requestPayload{Name: outcome.Request.Name, Status: outcome.Request.Status}
	eventType := events.ItemRequestRejected
	outcome.Kind = OutcomeRejected
	if next == domain.RequestApproved {
		outcome.Kind = OutcomeApproved
		eventType = events.ItemRequestApproved
		payload.ItemID = &outcome.Item.ID
	}

	s.events.publish(ctx, events.New(eventType, outcome.Request.ID, caller.Ref(), payload))
	return outcome, nil
}
