package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"beerfinder/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, *Repositories, Store) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := NewStore(db)
	return mock, store.Repos(), store
}

func float(v float64) *float64 { return &v }

var itemColumnNames = []string{
	"id", "name", "description", "brand", "typical_price", "flavor_type", "percentage",
	"volume", "thumbnail", "created_by", "updated_by", "created_at", "updated_at",
}

func TestItemRepository_FindByIDNotFound(t *testing.T) {
	mock, repos, _ := newMock(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM items WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(itemColumnNames))

	_, err := repos.Items.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRepository_FindByIDScansNullableColumns(t *testing.T) {
	mock, repos, _ := newMock(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM items WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(itemColumnNames).
			AddRow(id.String(), "Hazy IPA", "", "Brewdog", 6.99, "hoppy", nil, "33cl", nil, nil, nil, now, now))

	item, err := repos.Items.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Hazy IPA", item.Name)
	assert.Equal(t, domain.FlavorHoppy, item.FlavorType)
	require.NotNil(t, item.TypicalPrice)
	assert.InDelta(t, 6.99, *item.TypicalPrice, 1e-9)
	assert.Nil(t, item.Percentage)
	assert.Nil(t, item.CreatedBy)
}

func TestItemRepository_DeleteMissing(t *testing.T) {
	mock, repos, _ := newMock(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM items WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repos.Items.Delete(context.Background(), id)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestItemRepository_ListRejectsUnknownSortField(t *testing.T) {
	mock, repos, _ := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM items")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY name ASC, id")).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(itemColumnNames))

	items, total, err := repos.Items.List(context.Background(), ListParams{SortBy: "name; DROP TABLE items", SortOrder: "sideways"})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPOIRepository_CreateWritesLongitudeFirst(t *testing.T) {
	mock, repos, _ := newMock(t)
	owner := uuid.New()
	poi := &domain.POI{
		ID:            uuid.New(),
		Name:          "Corner Pub",
		Location:      domain.Location{Latitude: 52.37, Longitude: 4.89},
		CreatedBy:     &owner,
		LastUpdatedBy: &owner,
	}

	mock.ExpectExec(regexp.QuoteMeta("ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography")).
		WithArgs(poi.ID, poi.Name, "", 4.89, 52.37, sqlmock.AnyArg(), owner, owner, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repos.POIs.Create(context.Background(), poi))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPOIRepository_FindByIDReadsLatitudeFromY(t *testing.T) {
	mock, repos, _ := newMock(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("ST_Y(location::geometry), ST_X(location::geometry)")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "lat", "lon", "thumbnail", "created_by", "last_updated_by", "created_at", "updated_at",
		}).AddRow(id.String(), "Corner Pub", "", 52.37, 4.89, nil, nil, nil, now, now))

	poi, err := repos.POIs.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 52.37, poi.Latitude)
	assert.Equal(t, 4.89, poi.Longitude)
	assert.Nil(t, poi.CreatedBy)
}

func TestPOIItemRepository_CreateMapsUniqueViolation(t *testing.T) {
	mock, repos, _ := newMock(t)
	rel := &domain.POIItem{ID: uuid.New(), POIID: uuid.New(), ItemID: uuid.New(), LocalPrice: float(4.5)}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO poi_items")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "poi_items_poi_item_key"})

	err := repos.POIItems.Create(context.Background(), rel)
	assert.ErrorIs(t, err, ErrRelationshipExists)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestPOIItemRepository_CreateWrapsOtherErrors(t *testing.T) {
	mock, repos, _ := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO poi_items")).
		WillReturnError(errors.New("connection reset"))

	err := repos.POIItems.Create(context.Background(), &domain.POIItem{ID: uuid.New()})
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrConflict))
	assert.Contains(t, err.Error(), "failed to create POI item")
}

func TestPOIItemRepository_DeleteReportsRemoval(t *testing.T) {
	mock, repos, _ := newMock(t)
	poiID, itemID := uuid.New(), uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM poi_items WHERE poi_id = $1 AND item_id = $2")).
		WithArgs(poiID, itemID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := repos.POIItems.Delete(context.Background(), poiID, itemID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPOIItemRepository_ListAvailableExcludesRelated(t *testing.T) {
	mock, repos, _ := newMock(t)
	poiID := uuid.New()
	itemC := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE NOT EXISTS")).
		WithArgs(poiID).
		WillReturnRows(sqlmock.NewRows(itemColumnNames).
			AddRow(itemC.String(), "C", "", "", nil, "other", nil, "", nil, nil, nil, now, now))

	items, err := repos.POIItems.ListAvailable(context.Background(), poiID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, itemC, items[0].ID)
}

func TestPOIItemRepository_ListAssignedCarriesCreatorName(t *testing.T) {
	mock, repos, _ := newMock(t)
	poiID, itemID, relID, creator := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	columns := append([]string{"id", "poi_id", "item_id", "local_price", "relationship_created_by", "created_at", "username"}, itemColumnNames...)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN users u ON u.id = pi.relationship_created_by")).
		WithArgs(poiID).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(relID.String(), poiID.String(), itemID.String(), 5.5, creator.String(), now, "alice",
				itemID.String(), "Pils", "", "", 4.0, "crisp", 5.0, "50cl", nil, nil, nil, now, now))

	assigned, err := repos.POIItems.ListAssigned(context.Background(), poiID)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "alice", assigned[0].CreatedByName)
	assert.Equal(t, itemID, assigned[0].Item.ID)
	assert.InDelta(t, 5.5, *assigned[0].EffectivePrice(), 1e-9)
}

func TestItemRequestRepository_ListFiltersByRequester(t *testing.T) {
	mock, repos, _ := newMock(t)
	requester := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE requested_by = $1")).
		WithArgs(requester).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	requests, err := repos.ItemRequests.List(context.Background(), &requester)
	require.NoError(t, err)
	assert.Empty(t, requests)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItemRequestRepository_FindByIDForUpdateLocksRow(t *testing.T) {
	mock, repos, _ := newMock(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 FOR UPDATE")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repos.ItemRequests.FindByIDForUpdate(context.Background(), id)
	assert.ErrorIs(t, err, ErrItemRequestNotFound)
}

func TestUserRepository_CreateMapsConstraintToConflict(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{name: "username", constraint: "users_username_key", want: ErrUsernameTaken},
		{name: "email", constraint: "users_email_key", want: ErrEmailAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repos, _ := newMock(t)
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			err := repos.Users.Create(context.Background(), &domain.User{ID: uuid.New(), Username: "alice"})
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, domain.ErrConflict)
		})
	}
}

func TestRefreshTokenRepository_FindRevoked(t *testing.T) {
	mock, repos, _ := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens")).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at", "revoked"}).
			AddRow(uuid.New().String(), uuid.New().String(), "tok", now.Add(time.Hour), now, true))

	_, err := repos.RefreshTokens.FindByToken(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
}

func TestStore_WithinTxCommits(t *testing.T) {
	mock, _, store := newMock(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM items WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(repos *Repositories) error {
		return repos.Items.Delete(context.Background(), id)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	mock, _, store := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(*Repositories) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
