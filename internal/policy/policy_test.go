package policy

import (
	"errors"
	"testing"

	"beerfinder/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

type caller int

const (
	anonymous caller = iota
	nonOwner
	owner
	staff
)

func TestDecideTable(t *testing.T) {
	ownerID := uuid.New()
	identities := map[caller]domain.Identity{
		anonymous: domain.Anonymous,
		nonOwner:  {UserID: uuid.New()},
		owner:     {UserID: ownerID},
		staff:     {UserID: uuid.New(), IsStaff: true},
	}

	// expected results in order anonymous, non-owner, owner, staff
	tests := map[Action][4]bool{
		POIRead:            {true, true, true, true},
		POICreate:          {false, true, true, true},
		POIUpdate:          {false, false, true, true},
		POIDelete:          {false, false, true, true},
		ItemRead:           {true, true, true, true},
		ItemCreate:         {false, false, false, true},
		ItemUpdate:         {false, false, false, true},
		ItemDelete:         {false, false, false, true},
		RequestSubmit:      {false, true, true, true},
		RequestRead:        {false, false, true, true},
		RequestListAll:     {false, false, false, true},
		RequestApprove:     {false, false, false, true},
		RequestReject:      {false, false, false, true},
		RequestEdit:        {false, false, false, true},
		RelationshipAssign: {false, false, true, true},
		RelationshipRemove: {false, false, true, true},
	}

	for action, want := range tests {
		for c, identity := range identities {
			got := Decide(identity, action, &ownerID)
			assert.Equal(t, want[c], got.Allowed(), "action %s caller %d: %s", action, c, got.Reason)
		}
	}
}

func TestDecideDeniesEditWhenOwnerAbsent(t *testing.T) {
	user := domain.Identity{UserID: uuid.New()}

	for _, action := range []Action{POIUpdate, POIDelete, RelationshipAssign, RelationshipRemove} {
		d := Decide(user, action, nil)
		assert.False(t, d.Allowed(), action)
		assert.True(t, errors.Is(d.Err(), domain.ErrForbidden))
	}

	staffUser := domain.Identity{UserID: uuid.New(), IsStaff: true}
	assert.True(t, Decide(staffUser, POIUpdate, nil).Allowed())
}

func TestDecideUnknownAction(t *testing.T) {
	d := Decide(domain.Identity{UserID: uuid.New(), IsStaff: true}, Action("poi:teleport"), nil)
	assert.False(t, d.Allowed())
	assert.Error(t, d.Err())
}

func TestAllowedDecisionHasNoError(t *testing.T) {
	assert.NoError(t, Decide(domain.Anonymous, POIRead, nil).Err())
}

// Property: ownership never grants moderation rights.
func TestProperty_OwnershipIsNotStaff(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("non-staff owners cannot moderate item requests", prop.ForAll(
		func(action string) bool {
			id := domain.Identity{UserID: uuid.New()}
			return !Decide(id, Action(action), id.Ref()).Allowed()
		},
		gen.OneConstOf(string(RequestApprove), string(RequestReject), string(RequestEdit), string(RequestListAll), string(ItemCreate)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
