package service

import (
	"context"
	"maps"
	"sort"
	"sync"

	"beerfinder/internal/domain"
	"beerfinder/internal/events"
	"beerfinder/internal/repository"

	"github.com/google/uuid"
)

// memDB is an in-memory catalog store shared by the mock repositories.
type memDB struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	users    map[uuid.UUID]domain.User
	tokens   map[string]domain.RefreshToken
	items    map[uuid.UUID]domain.Item
	pois     map[uuid.UUID]domain.POI
	rels     map[uuid.UUID]domain.POIItem
	requests map[uuid.UUID]domain.ItemRequest

	// failRequestUpdate makes every item request update fail.
	failRequestUpdate error
}

func newMemDB() *memDB {
	return &memDB{
		users:    make(map[uuid.UUID]domain.User),
		tokens:   make(map[string]domain.RefreshToken),
		items:    make(map[uuid.UUID]domain.Item),
		pois:     make(map[uuid.UUID]domain.POI),
		rels:     make(map[uuid.UUID]domain.POIItem),
		requests: make(map[uuid.UUID]domain.ItemRequest),
	}
}

type memSnapshot struct {
	users    map[uuid.UUID]domain.User
	tokens   map[string]domain.RefreshToken
	items    map[uuid.UUID]domain.Item
	pois     map[uuid.UUID]domain.POI
	rels     map[uuid.UUID]domain.POIItem
	requests map[uuid.UUID]domain.ItemRequest
}

func (m *memDB) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memSnapshot{
		users:    maps.Clone(m.users),
		tokens:   maps.Clone(m.tokens),
		items:    maps.Clone(m.items),
		pois:     maps.Clone(m.pois),
		rels:     maps.Clone(m.rels),
		requests: maps.Clone(m.requests),
	}
}

func (m *memDB) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users, m.tokens, m.items, m.pois, m.rels, m.requests = s.users, s.tokens, s.items, s.pois, s.rels, s.requests
}

// memStore implements repository.Store. Transactions are serialized and
// roll back by restoring a snapshot.
type memStore struct {
	db    *memDB
	repos *repository.Repositories
}

func newMemStore() *memStore {
	db := newMemDB()
	return &memStore{
		db: db,
		repos: &repository.Repositories{
			Users:         &mockUserRepository{db: db},
			RefreshTokens: &mockRefreshTokenRepository{db: db},
			Items:         &mockItemRepository{db: db},
			POIs:          &mockPOIRepository{db: db},
			POIItems:      &mockPOIItemRepository{db: db},
			ItemRequests:  &mockItemRequestRepository{db: db},
		},
	}
}

func (s *memStore) Repos() *repository.Repositories { return s.repos }

func (s *memStore) WithinTx(ctx context.Context, fn func(*repository.Repositories) error) error {
	s.db.txMu.Lock()
	defer s.db.txMu.Unlock()

	snap := s.db.snapshot()
	if err := fn(s.repos); err != nil {
		s.db.restore(snap)
		return err
	}
	return nil
}

type mockUserRepository struct{ db *memDB }

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, u := range m.db.users {
		if u.Username == user.Username {
			return repository.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return repository.ErrEmailAlreadyExists
		}
	}
	m.db.users[user.ID] = *user
	return nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for _, u := range m.db.users {
		if u.ID != user.ID && u.Email == user.Email {
			return repository.ErrEmailAlreadyExists
		}
	}
	m.db.users[user.ID] = *user
	return nil
}

func (m *mockUserRepository) find(match func(domain.User) bool) (*domain.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, u := range m.db.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Username == username })
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Email == email })
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.ID == id })
}

type mockRefreshTokenRepository struct{ db *memDB }

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.tokens[token.Token] = *token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	refreshToken, exists := m.db.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return &refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	refreshToken, exists := m.db.tokens[token]
	if !exists || refreshToken.Revoked {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	m.db.tokens[token] = refreshToken
	return nil
}

type mockItemRepository struct{ db *memDB }

func (m *mockItemRepository) Create(ctx context.Context, item *domain.Item) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.items[item.ID] = *item
	return nil
}

func (m *mockItemRepository) Update(ctx context.Context, item *domain.Item) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.items[item.ID]; !ok {
		return repository.ErrItemNotFound
	}
	m.db.items[item.ID] = *item
	return nil
}

func (m *mockItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.items[id]; !ok {
		return repository.ErrItemNotFound
	}
	delete(m.db.items, id)
	for relID, rel := range m.db.rels {
		if rel.ItemID == id {
			delete(m.db.rels, relID)
		}
	}
	return nil
}

func (m *mockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	item, ok := m.db.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	return &item, nil
}

func (m *mockItemRepository) List(ctx context.Context, params repository.ListParams) ([]*domain.Item, int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	items := sortedItems(m.db.items, func(domain.Item) bool { return true })
	params = params.WithDefaults()
	start := min(params.Page-1, len(items)/params.PageSize) * params.PageSize
	end := min(start+params.PageSize, len(items))
	return items[start:end], len(items), nil
}

func sortedItems(all map[uuid.UUID]domain.Item, keep func(domain.Item) bool) []*domain.Item {
	items := []*domain.Item{}
	for _, item := range all {
		if keep(item) {
			copied := item
			items = append(items, &copied)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

type mockPOIRepository struct{ db *memDB }

func (m *mockPOIRepository) Create(ctx context.Context, poi *domain.POI) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	stored := *poi
	stored.Items = nil
	m.db.pois[poi.ID] = stored
	return nil
}

func (m *mockPOIRepository) Update(ctx context.Context, poi *domain.POI) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	existing, ok := m.db.pois[poi.ID]
	if !ok {
		return repository.ErrPOINotFound
	}
	stored := *poi
	stored.CreatedBy = existing.CreatedBy
	stored.Items = nil
	m.db.pois[poi.ID] = stored
	return nil
}

func (m *mockPOIRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, ok := m.db.pois[id]; !ok {
		return repository.ErrPOINotFound
	}
	delete(m.db.pois, id)
	for relID, rel := range m.db.rels {
		if rel.POIID == id {
			delete(m.db.rels, relID)
		}
	}
	return nil
}

func (m *mockPOIRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.POI, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	poi, ok := m.db.pois[id]
	if !ok {
		return nil, repository.ErrPOINotFound
	}
	return &poi, nil
}

func (m *mockPOIRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	_, ok := m.db.pois[id]
	return ok, nil
}

func (m *mockPOIRepository) List(ctx context.Context, params repository.ListParams) ([]*domain.POI, int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	pois := []*domain.POI{}
	for _, poi := range m.db.pois {
		copied := poi
		pois = append(pois, &copied)
	}
	sort.Slice(pois, func(i, j int) bool { return pois[i].Name < pois[j].Name })
	return pois, len(pois), nil
}

type mockPOIItemRepository struct{ db *memDB }

func (m *mockPOIItemRepository) Create(ctx context.Context, rel *domain.POIItem) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, existing := range m.db.rels {
		if existing.POIID == rel.POIID && existing.ItemID == rel.ItemID {
			return repository.ErrRelationshipExists
		}
	}
	m.db.rels[rel.ID] = *rel
	return nil
}

func (m *mockPOIItemRepository) Exists(ctx context.Context, poiID, itemID uuid.UUID) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, rel := range m.db.rels {
		if rel.POIID == poiID && rel.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPOIItemRepository) Delete(ctx context.Context, poiID, itemID uuid.UUID) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for id, rel := range m.db.rels {
		if rel.POIID == poiID && rel.ItemID == itemID {
			delete(m.db.rels, id)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPOIItemRepository) related(poiID uuid.UUID) map[uuid.UUID]domain.POIItem {
	byItem := make(map[uuid.UUID]domain.POIItem)
	for _, rel := range m.db.rels {
		if rel.POIID == poiID {
			byItem[rel.ItemID] = rel
		}
	}
	return byItem
}

func (m *mockPOIItemRepository) ListAvailable(ctx context.Context, poiID uuid.UUID) ([]*domain.Item, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	related := m.related(poiID)
	return sortedItems(m.db.items, func(item domain.Item) bool {
		_, ok := related[item.ID]
		return !ok
	}), nil
}

func (m *mockPOIItemRepository) ListAssigned(ctx context.Context, poiID uuid.UUID) ([]*domain.AssignedItem, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	related := m.related(poiID)
	assigned := []*domain.AssignedItem{}
	for _, item := range sortedItems(m.db.items, func(item domain.Item) bool {
		_, ok := related[item.ID]
		return ok
	}) {
		rel := related[item.ID]
		a := &domain.AssignedItem{POIItem: rel, Item: *item}
		if rel.RelationshipCreatedBy != nil {
			a.CreatedByName = m.db.users[*rel.RelationshipCreatedBy].Username
		}
		assigned = append(assigned, a)
	}
	return assigned, nil
}

func (m *mockPOIItemRepository) ItemsByPOI(ctx context.Context, poiIDs []uuid.UUID) (map[uuid.UUID][]domain.Item, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	result := make(map[uuid.UUID][]domain.Item)
	for _, poiID := range poiIDs {
		related := m.related(poiID)
		for _, item := range sortedItems(m.db.items, func(item domain.Item) bool {
			_, ok := related[item.ID]
			return ok
		}) {
			result[poiID] = append(result[poiID], *item)
		}
	}
	return result, nil
}

type mockItemRequestRepository struct{ db *memDB }

func (m *mockItemRequestRepository) Create(ctx context.Context, req *domain.ItemRequest) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.requests[req.ID] = *req
	return nil
}

func (m *mockItemRequestRepository) Update(ctx context.Context, req *domain.ItemRequest) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.db.failRequestUpdate != nil {
		return m.db.failRequestUpdate
	}
	if _, ok := m.db.requests[req.ID]; !ok {
		return repository.ErrItemRequestNotFound
	}
	m.db.requests[req.ID] = *req
	return nil
}

func (m *mockItemRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ItemRequest, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	req, ok := m.db.requests[id]
	if !ok {
		return nil, repository.ErrItemRequestNotFound
	}
	return &req, nil
}

func (m *mockItemRequestRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.ItemRequest, error) {
	return m.FindByID(ctx, id)
}

func (m *mockItemRequestRepository) List(ctx context.Context, requestedBy *uuid.UUID) ([]*domain.ItemRequest, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	requests := []*domain.ItemRequest{}
	for _, req := range m.db.requests {
		if requestedBy != nil && req.RequestedBy != *requestedBy {
			continue
		}
		copied := req
		requests = append(requests, &copied)
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.After(requests[j].CreatedAt) })
	return requests, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

func identityPassthrough(data []byte) []byte { return data }

func staffIdentity() domain.Identity { return domain.Identity{UserID: uuid.New(), IsStaff: true} }

func userIdentity() domain.Identity { return domain.Identity{UserID: uuid.New()} }

func price(v float64) *float64 { return &v }
