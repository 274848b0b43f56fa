package domain

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxPrice is the largest amount a DECIMAL(10,2) price column holds.
const MaxPrice = 99999999.99

// Item is a catalog entry that can be offered at POIs.
type Item struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Description  string     `json:"description" db:"description"`
	Brand        string     `json:"brand" db:"brand"`
	TypicalPrice *float64   `json:"typical_price" db:"typical_price"`
	FlavorType   Flavor     `json:"flavor_type" db:"flavor_type"`
	Percentage   *float64   `json:"percentage" db:"percentage"`
	Volume       string     `json:"volume" db:"volume"`
	Thumbnail    []byte     `json:"thumbnail,omitempty" db:"thumbnail"`
	CreatedBy    *uuid.UUID `json:"created_by" db:"created_by"`
	UpdatedBy    *uuid.UUID `json:"updated_by" db:"updated_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// ItemAttributes are the descriptive fields shared by items and item requests.
type ItemAttributes struct {
	Name        string
	Description string
	Brand       string
	Price       *float64
	FlavorType  Flavor
	Percentage  *float64
	Volume      string
	Thumbnail   []byte
}

// Validate checks the attribute ranges.
func (a ItemAttributes) Validate() error {
	var errs ValidationErrors
	if a.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "This field is required"})
	}
	if utf8.RuneCountInString(a.Name) > 200 {
		errs = append(errs, ValidationError{Field: "name", Message: "Value is too long"})
	}
	if utf8.RuneCountInString(a.Brand) > 100 {
		errs = append(errs, ValidationError{Field: "brand", Message: "Value is too long"})
	}
	if utf8.RuneCountInString(a.Volume) > 50 {
		errs = append(errs, ValidationError{Field: "volume", Message: "Value is too long"})
	}
	if a.Price != nil && *a.Price < 0 {
		errs = append(errs, ValidationError{Field: "price", Message: "Value must be greater than or equal to 0"})
	}
	if a.Price != nil && *a.Price > MaxPrice {
		errs = append(errs, ValidationError{Field: "price", Message: "Value must be less than or equal to 99999999.99"})
	}
	if a.Percentage != nil && (*a.Percentage < 0 || *a.Percentage > 100) {
		errs = append(errs, ValidationError{Field: "percentage", Message: "Value must be between 0 and 100"})
	}
	if !a.FlavorType.OrDefault().Valid() {
		errs = append(errs, ValidationError{Field: "flavor_type", Message: "Unknown flavor type"})
	}
	return errs.OrNil()
}
