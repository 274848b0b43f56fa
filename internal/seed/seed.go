// Package seed loads a small demo catalog. Every record has a stable ID
// derived from its name so running it twice changes nothing.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"beerfinder/internal/domain"
	"beerfinder/internal/repository"
	"beerfinder/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var namespace = uuid.MustParse("6f1c7a52-3b0e-4d7e-9a8c-2f4b1e9d0c11")

func stableID(kind, name string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(kind+":"+name))
}

// Account is a seeded login.
type Account struct {
	Username string
	Email    string
	Password string
	IsStaff  bool
}

// Beer is a seeded catalog item.
type Beer struct {
	Name       string
	Brand      string
	Price      float64
	Flavor     domain.Flavor
	Percentage float64
	Volume     string
}

// Venue is a seeded POI with the beers it serves.
type Venue struct {
	Name      string
	Latitude  float64
	Longitude float64
	Owner     string
	Serves    []string
}

// Dataset is everything Run writes.
type Dataset struct {
	Accounts []Account
	Beers    []Beer
	Venues   []Venue
	Requests []Beer
}

// Summary counts the records Run created. Records that already existed are
// not counted.
type Summary struct {
	Users         int
	Items         int
	POIs          int
	Relationships int
	Requests      int
}

// Default is the demo dataset.
func Default() Dataset {
	return Dataset{
		Accounts: []Account{
			{Username: "admin", Email: "admin@beerfinder.local", Password: "admin12345", IsStaff: true},
			{Username: "demo", Email: "demo@beerfinder.local", Password: "demo12345"},
		},
		Beers: []Beer{
			{Name: "Pilsner Urquell", Brand: "Plzeňský Prazdroj", Price: 3.5, Flavor: domain.FlavorCrisp, Percentage: 4.4, Volume: "500ml"},
			{Name: "Guinness Draught", Brand: "Guinness", Price: 4.2, Flavor: domain.FlavorRoasty, Percentage: 4.2, Volume: "440ml"},
			{Name: "La Chouffe", Brand: "Brasserie d'Achouffe", Price: 4.8, Flavor: domain.FlavorFruity, Percentage: 8.0, Volume: "330ml"},
			{Name: "Orval", Brand: "Brasserie d'Orval", Price: 5.5, Flavor: domain.FlavorFunky, Percentage: 6.2, Volume: "330ml"},
			{Name: "Punk IPA", Brand: "BrewDog", Price: 3.9, Flavor: domain.FlavorHoppy, Percentage: 5.4, Volume: "330ml"},
			{Name: "Rodenbach Grand Cru", Brand: "Rodenbach", Price: 4.6, Flavor: domain.FlavorSour, Percentage: 6.0, Volume: "330ml"},
		},
		Venues: []Venue{
			{Name: "In de Wildeman", Latitude: 52.3765, Longitude: 4.8965, Owner: "demo",
				Serves: []string{"Orval", "La Chouffe", "Rodenbach Grand Cru"}},
			{Name: "Kulminator", Latitude: 51.2076, Longitude: 4.4009, Owner: "admin",
				Serves: []string{"Orval", "Guinness Draught"}},
			{Name: "U Zlatého Tygra", Latitude: 50.0858, Longitude: 14.4188,
				Serves: []string{"Pilsner Urquell"}},
		},
		Requests: []Beer{
			{Name: "Hazy IPA", Brand: "Local Brewery", Price: 6.99, Flavor: domain.FlavorHoppy, Percentage: 6.8, Volume: "440ml"},
			{Name: "Smoked Porter", Brand: "Local Brewery", Price: 5.25, Flavor: domain.FlavorSmoky, Percentage: 5.9, Volume: "330ml"},
		},
	}
}

// LocalPrice is the seeded venue price: the typical price plus 10%, rounded
// to cents.
func LocalPrice(typical float64) float64 {
	return math.Round(typical*110) / 100
}

// Run writes ds through store inside a single transaction.
func Run(ctx context.Context, store repository.Store, ds Dataset, logger *zap.Logger) (Summary, error) {
	var summary Summary
	err := store.WithinTx(ctx, func(repos *repository.Repositories) error {
		summary = Summary{}
		users, err := seedUsers(ctx, repos, ds.Accounts, &summary)
		if err != nil {
			return err
		}
		admin := users["admin"]

		items := make(map[string]*domain.Item, len(ds.Beers))
		for _, b := range ds.Beers {
			item, created, err := seedItem(ctx, repos, b, admin)
			if err != nil {
				return err
			}
			if created {
				summary.Items++
			}
			items[b.Name] = item
		}

		for _, v := range ds.Venues {
			if err := seedVenue(ctx, repos, v, users, items, &summary); err != nil {
				return err
			}
		}

		requester := users["demo"]
		for _, b := range ds.Requests {
			created, err := seedRequest(ctx, repos, b, requester)
			if err != nil {
				return err
			}
			if created {
				summary.Requests++
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	logger.Info("Seed completed",
		zap.Int("users", summary.Users),
		zap.Int("items", summary.Items),
		zap.Int("pois", summary.POIs),
		zap.Int("relationships", summary.Relationships),
		zap.Int("requests", summary.Requests),
	)
	return summary, nil
}

func seedUsers(ctx context.Context, repos *repository.Repositories, accounts []Account, summary *Summary) (map[string]*domain.User, error) {
	users := make(map[string]*domain.User, len(accounts))
	for _, a := range accounts {
		existing, err := repos.Users.FindByUsername(ctx, a.Username)
		if err == nil {
			users[a.Username] = existing
			continue
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user %s: %w", a.Username, err)
		}

		hash, err := service.HashPassword(a.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		now := time.Now()
		user := &domain.User{
			ID:           stableID("user", a.Username),
			Username:     a.Username,
			Email:        a.Email,
			PasswordHash: hash,
			IsStaff:      a.IsStaff,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := repos.Users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", a.Username, err)
		}
		users[a.Username] = user
		summary.Users++
	}
	return users, nil
}

func seedItem(ctx context.Context, repos *repository.Repositories, b Beer, creator *domain.User) (*domain.Item, bool, error) {
	id := stableID("item", b.Name)
	existing, err := repos.Items.FindByID(ctx, id)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrItemNotFound) {
		return nil, false, fmt.Errorf("failed to look up item %s: %w", b.Name, err)
	}

	price, pct := b.Price, b.Percentage
	now := time.Now()
	item := &domain.Item{
		ID:           id,
		Name:         b.Name,
		Brand:        b.Brand,
		TypicalPrice: &price,
		FlavorType:   b.Flavor,
		Percentage:   &pct,
		Volume:       b.Volume,
		CreatedBy:    userRef(creator),
		UpdatedBy:    userRef(creator),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repos.Items.Create(ctx, item); err != nil {
		return nil, false, fmt.Errorf("failed to create item %s: %w", b.Name, err)
	}
	return item, true, nil
}

func seedVenue(
	ctx context.Context,
	repos *repository.Repositories,
	v Venue,
	users map[string]*domain.User,
	items map[string]*domain.Item,
	summary *Summary,
) error {
	owner := userRef(users[v.Owner])
	id := stableID("poi", v.Name)

	_, err := repos.POIs.FindByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrPOINotFound):
		now := time.Now()
		poi := &domain.POI{
			ID:            id,
			Name:          v.Name,
			Location:      domain.Location{Latitude: v.Latitude, Longitude: v.Longitude},
			CreatedBy:     owner,
			LastUpdatedBy: owner,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := repos.POIs.Create(ctx, poi); err != nil {
			return fmt.Errorf("failed to create poi %s: %w", v.Name, err)
		}
		summary.POIs++
	case err != nil:
		return fmt.Errorf("failed to look up poi %s: %w", v.Name, err)
	}

	for _, name := range v.Serves {
		item, ok := items[name]
		if !ok {
			return fmt.Errorf("venue %s serves unknown item %s", v.Name, name)
		}
		exists, err := repos.POIItems.Exists(ctx, id, item.ID)
		if err != nil {
			return fmt.Errorf("failed to check relationship: %w", err)
		}
		if exists {
			continue
		}

		var localPrice *float64
		if item.TypicalPrice != nil {
			p := LocalPrice(*item.TypicalPrice)
			localPrice = &p
		}
		if err := repos.POIItems.Create(ctx, &domain.POIItem{
			ID:                    uuid.New(),
			POIID:                 id,
			ItemID:                item.ID,
			LocalPrice:            localPrice,
			RelationshipCreatedBy: owner,
			CreatedAt:             time.Now(),
		}); err != nil {
			return fmt.Errorf("failed to link %s to %s: %w", name, v.Name, err)
		}
		summary.Relationships++
	}
	return nil
}

func seedRequest(ctx context.Context, repos *repository.Repositories, b Beer, requester *domain.User) (bool, error) {
	if requester == nil {
		return false, nil
	}
	id := stableID("request", b.Name)
	_, err := repos.ItemRequests.FindByID(ctx, id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrItemRequestNotFound) {
		return false, fmt.Errorf("failed to look up item request %s: %w", b.Name, err)
	}

	price, pct := b.Price, b.Percentage
	now := time.Now()
	req := &domain.ItemRequest{
		ID:              id,
		Name:            b.Name,
		Brand:           b.Brand,
		Price:           &price,
		Percentage:      &pct,
		FlavorType:      b.Flavor,
		Volume:          b.Volume,
		RequestedBy:     requester.ID,
		Status:          domain.RequestPending,
		StatusChangedBy: &requester.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := repos.ItemRequests.Create(ctx, req); err != nil {
		return false, fmt.Errorf("failed to create item request %s: %w", b.Name, err)
	}
	return true, nil
}

func userRef(u *domain.User) *uuid.UUID {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}
