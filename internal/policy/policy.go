// Package policy decides which identities may perform which catalog actions.
package policy

import (
	"fmt"

	"beerfinder/internal/domain"

	"github.com/google/uuid"
)

// Action is an operation on a catalog resource.
type Action string

const (
	POIRead            Action = "poi:read"
	POICreate          Action = "poi:create"
	POIUpdate          Action = "poi:update"
	POIDelete          Action = "poi:delete"
	ItemRead           Action = "item:read"
	ItemCreate         Action = "item:create"
	ItemUpdate         Action = "item:update"
	ItemDelete         Action = "item:delete"
	RequestSubmit      Action = "item_request:submit"
	RequestRead        Action = "item_request:read"
	RequestListAll     Action = "item_request:list_all"
	RequestApprove     Action = "item_request:approve"
	RequestReject      Action = "item_request:reject"
	RequestEdit        Action = "item_request:edit"
	RelationshipAssign Action = "poi_item:assign"
	RelationshipRemove Action = "poi_item:remove"
)

// Effect is the outcome of a decision.
type Effect int

const (
	Deny Effect = iota
	Allow
)

// Decision is a tagged allow/deny result with the rule that produced it.
type Decision struct {
	Effect Effect
	Reason string
}

// Allowed reports whether the decision permits the action.
func (d Decision) Allowed() bool {
	return d.Effect == Allow
}

// Err converts a denial into a Forbidden error and returns nil otherwise.
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	return domain.NewError(domain.ErrForbidden, d.Reason)
}

func allow(reason string) Decision { return Decision{Effect: Allow, Reason: reason} }

func deny(reason string) Decision { return Decision{Effect: Deny, Reason: reason} }

// rule evaluates one row of the table for a given caller class.
type rule struct {
	anonymous     bool
	authenticated bool
	owner         bool
	staff         bool
}

var table = map[Action]rule{
	POIRead:            {anonymous: true, authenticated: true, owner: true, staff: true},
	POICreate:          {authenticated: true, owner: true, staff: true},
	POIUpdate:          {owner: true, staff: true},
	POIDelete:          {owner: true, staff: true},
	ItemRead:           {anonymous: true, authenticated: true, owner: true, staff: true},
	ItemCreate:         {staff: true},
	ItemUpdate:         {staff: true},
	ItemDelete:         {staff: true},
	RequestSubmit:      {authenticated: true, owner: true, staff: true},
	RequestRead:        {owner: true, staff: true},
	RequestListAll:     {staff: true},
	RequestApprove:     {staff: true},
	RequestReject:      {staff: true},
	RequestEdit:        {staff: true},
	RelationshipAssign: {owner: true, staff: true},
	RelationshipRemove: {owner: true, staff: true},
}

// Decide evaluates whether identity may perform action on a resource owned by
// owner. A nil owner means the resource has no owner, which no identity can
// match. Staff status and ownership are checked independently.
func Decide(identity domain.Identity, action Action, owner *uuid.UUID) Decision {
	r, ok := table[action]
	if !ok {
		return deny(fmt.Sprintf("unknown action %q", action))
	}

	switch {
	case identity.IsAnonymous():
		if r.anonymous {
			return allow("public")
		}
		return deny("authentication required")
	case identity.IsStaff && r.staff:
		return allow("staff")
	case identity.Is(owner) && r.owner:
		return allow("owner")
	case r.authenticated:
		return allow("authenticated")
	}

	if r.owner && !r.staff {
		return deny("only the owner may perform this action")
	}
	if r.owner {
		return deny("only the owner or staff may perform this action")
	}
	return deny("staff privileges required")
}
