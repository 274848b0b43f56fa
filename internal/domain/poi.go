package domain

import (
	"time"

	"github.com/google/uuid"
)

// Location is a single geographic point. Latitude and longitude are always
// set together.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewLocation builds a location from optional coordinates. Both or neither
// must be provided; when neither is, ok is false.
func NewLocation(lat, lon *float64) (loc Location, ok bool, err error) {
	switch {
	case lat == nil && lon == nil:
		return Location{}, false, nil
	case lat == nil:
		return Location{}, false, ValidationError{Field: "latitude", Message: "latitude and longitude must be provided together"}
	case lon == nil:
		return Location{}, false, ValidationError{Field: "longitude", Message: "latitude and longitude must be provided together"}
	}
	loc = Location{Latitude: *lat, Longitude: *lon}
	if err := loc.Validate(); err != nil {
		return Location{}, false, err
	}
	return loc, true, nil
}

// Validate checks the coordinate ranges.
func (l Location) Validate() error {
	var errs ValidationErrors
	if l.Latitude < -90 || l.Latitude > 90 {
		errs = append(errs, ValidationError{Field: "latitude", Message: "Value must be between -90 and 90"})
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		errs = append(errs, ValidationError{Field: "longitude", Message: "Value must be between -180 and 180"})
	}
	return errs.OrNil()
}

// POI is a named place with a geographic location.
type POI struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Location
	Thumbnail     []byte     `json:"thumbnail,omitempty" db:"thumbnail"`
	CreatedBy     *uuid.UUID `json:"created_by" db:"created_by"`
	LastUpdatedBy *uuid.UUID `json:"last_updated_by" db:"last_updated_by"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	Items         []Item     `json:"items"`
}

// POIItem is the association of one item with one POI.
type POIItem struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	POIID                 uuid.UUID  `json:"poi_id" db:"poi_id"`
	ItemID                uuid.UUID  `json:"item_id" db:"item_id"`
	LocalPrice            *float64   `json:"local_price" db:"local_price"`
	RelationshipCreatedBy *uuid.UUID `json:"relationship_created_by" db:"relationship_created_by"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
}

// AssignedItem is a relationship together with its resolved item and the
// display name of the user who created it.
type AssignedItem struct {
	POIItem
	Item          Item   `json:"item"`
	CreatedByName string `json:"relationship_created_by_name"`
}

// EffectivePrice is the local price when set, otherwise the item's typical price.
func (a AssignedItem) EffectivePrice() *float64 {
	if a.LocalPrice != nil {
		return a.LocalPrice
	}
	return a.Item.TypicalPrice
}
