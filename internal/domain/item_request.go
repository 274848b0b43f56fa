package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the moderation state of an item request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// ErrRequestNotPending is returned for any transition or edit attempted after
// a request reached a terminal state.
var ErrRequestNotPending = NewError(ErrInvalidState, "item request is no longer pending")

// IsTerminal reports whether no transition leaves s.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	return s == RequestPending && next.IsTerminal()
}

// ItemRequest is a user proposal for a new catalog item.
type ItemRequest struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	Name            string        `json:"name" db:"name"`
	Description     string        `json:"description" db:"description"`
	Brand           string        `json:"brand" db:"brand"`
	Price           *float64      `json:"price" db:"price"`
	Percentage      *float64      `json:"percentage" db:"percentage"`
	Thumbnail       []byte        `json:"thumbnail,omitempty" db:"thumbnail"`
	FlavorType      Flavor        `json:"flavor_type" db:"flavor_type"`
	Volume          string        `json:"volume" db:"volume"`
	RequestedBy     uuid.UUID     `json:"requested_by" db:"requested_by"`
	Status          RequestStatus `json:"status" db:"status"`
	StatusChangedBy *uuid.UUID    `json:"status_changed_by" db:"status_changed_by"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// Attributes returns the descriptive fields of the request.
func (r *ItemRequest) Attributes() ItemAttributes {
	return ItemAttributes{
		Name:        r.Name,
		Description: r.Description,
		Brand:       r.Brand,
		Price:       r.Price,
		FlavorType:  r.FlavorType,
		Percentage:  r.Percentage,
		Volume:      r.Volume,
		Thumbnail:   r.Thumbnail,
	}
}

// Materialize builds the catalog item an approval of r produces. The item is
// credited to the requester and last updated by the approving actor.
func (r *ItemRequest) Materialize(id uuid.UUID, approver Identity, now time.Time) *Item {
	requester := r.RequestedBy
	return &Item{
		ID:           id,
		Name:         r.Name,
		Description:  r.Description,
		Brand:        r.Brand,
		TypicalPrice: r.Price,
		FlavorType:   r.FlavorType.OrDefault(),
		Percentage:   r.Percentage,
		Volume:       r.Volume,
		Thumbnail:    r.Thumbnail,
		CreatedBy:    &requester,
		UpdatedBy:    approver.Ref(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Transition moves r to next on behalf of actor.
func (r *ItemRequest) Transition(next RequestStatus, actor Identity, now time.Time) error {
	if !r.Status.CanTransitionTo(next) {
		return ErrRequestNotPending
	}
	r.Status = next
	r.StatusChangedBy = actor.Ref()
	r.UpdatedAt = now
	return nil
}
