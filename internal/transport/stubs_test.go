package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"beerfinder/internal/domain"
	"beerfinder/internal/middleware"
	"beerfinder/internal/repository"
	"beerfinder/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "transport-secret"

type stubPOIService struct {
	create func(caller domain.Identity, in service.POIInput) (*domain.POI, error)
	get    func(caller domain.Identity, id uuid.UUID) (*domain.POI, error)
	list   func(caller domain.Identity, params repository.ListParams) (*service.Page[*domain.POI], error)
	update func(caller domain.Identity, id uuid.UUID, in service.POIInput) (*domain.POI, error)
	delete func(caller domain.Identity, id uuid.UUID) error
}

func (s *stubPOIService) Create(ctx context.Context, caller domain.Identity, in service.POIInput) (*domain.POI, error) {
	return s.create(caller, in)
}

func (s *stubPOIService) Get(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.POI, error) {
	return s.get(caller, id)
}

func (s *stubPOIService) List(ctx context.Context, caller domain.Identity, params repository.ListParams) (*service.Page[*domain.POI], error) {
	return s.list(caller, params)
}

func (s *stubPOIService) Update(ctx context.Context, caller domain.Identity, id uuid.UUID, in service.POIInput) (*domain.POI, error) {
	return s.update(caller, id, in)
}

func (s *stubPOIService) Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error {
	return s.delete(caller, id)
}

type stubRelationshipService struct {
	assign    func(caller domain.Identity, poiID, itemID uuid.UUID, localPrice *float64) (*domain.POIItem, error)
	remove    func(caller domain.Identity, poiID, itemID uuid.UUID) error
	available func(caller domain.Identity, poiID uuid.UUID) ([]*domain.Item, error)
	assigned  func(caller domain.Identity, poiID uuid.UUID) ([]*domain.AssignedItem, error)
}

func (s *stubRelationshipService) AssignItem(ctx context.Context, caller domain.Identity, poiID, itemID uuid.UUID, localPrice *float64) (*domain.POIItem, error) {
	return s.assign(caller, poiID, itemID, localPrice)
}

func (s *stubRelationshipService) RemoveItem(ctx context.Context, caller domain.Identity, poiID, itemID uuid.UUID) error {
	return s.remove(caller, poiID, itemID)
}

func (s *stubRelationshipService) ListAvailableItems(ctx context.Context, caller domain.Identity, poiID uuid.UUID) ([]*domain.Item, error) {
	return s.available(caller, poiID)
}

func (s *stubRelationshipService) ListAssignedItems(ctx context.Context, caller domain.Identity, poiID uuid.UUID) ([]*domain.AssignedItem, error) {
	return s.assigned(caller, poiID)
}

type stubItemService struct {
	create func(caller domain.Identity, in service.ItemInput) (*domain.Item, error)
	get    func(caller domain.Identity, id uuid.UUID) (*domain.Item, error)
	list   func(caller domain.Identity, params repository.ListParams) (*service.Page[*domain.Item], error)
	update func(caller domain.Identity, id uuid.UUID, in service.ItemInput) (*domain.Item, error)
	delete func(caller domain.Identity, id uuid.UUID) error
}

func (s *stubItemService) Create(ctx context.Context, caller domain.Identity, in service.ItemInput) (*domain.Item, error) {
	return s.create(caller, in)
}

func (s *stubItemService) Get(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.Item, error) {
	return s.get(caller, id)
}

func (s *stubItemService) List(ctx context.Context, caller domain.Identity, params repository.ListParams) (*service.Page[*domain.Item], error) {
	return s.list(caller, params)
}

func (s *stubItemService) Update(ctx context.Context, caller domain.Identity, id uuid.UUID, in service.ItemInput) (*domain.Item, error) {
	return s.update(caller, id, in)
}

func (s *stubItemService) Delete(ctx context.Context, caller domain.Identity, id uuid.UUID) error {
	return s.delete(caller, id)
}

type stubItemRequestService struct {
	submit  func(caller domain.Identity, in service.ItemRequestInput) (*domain.ItemRequest, error)
	get     func(caller domain.Identity, id uuid.UUID) (*domain.ItemRequest, error)
	list    func(caller domain.Identity) ([]*domain.ItemRequest, error)
	listAll func(caller domain.Identity) ([]*domain.ItemRequest, error)
	update  func(caller domain.Identity, id uuid.UUID, in service.ItemRequestInput) (*domain.ItemRequest, error)
	approve func(caller domain.Identity, id uuid.UUID) (service.Outcome, error)
	reject  func(caller domain.Identity, id uuid.UUID) (service.Outcome, error)
}

func (s *stubItemRequestService) Submit(ctx context.Context, caller domain.Identity, in service.ItemRequestInput) (*domain.ItemRequest, error) {
	return s.submit(caller, in)
}

func (s *stubItemRequestService) Get(ctx context.Context, caller domain.Identity, id uuid.UUID) (*domain.ItemRequest, error) {
	return s.get(caller, id)
}

func (s *stubItemRequestService) List(ctx context.Context, caller domain.Identity) ([]*domain.ItemRequest, error) {
	return s.list(caller)
}

func (s *stubItemRequestService) ListAll(ctx context.Context, caller domain.Identity) ([]*domain.ItemRequest, error) {
	return s.listAll(caller)
}

func (s *stubItemRequestService) Update(ctx context.Context, caller domain.Identity, id uuid.UUID, in service.ItemRequestInput) (*domain.ItemRequest, error) {
	return s.update(caller, id, in)
}

func (s *stubItemRequestService) Approve(ctx context.Context, caller domain.Identity, id uuid.UUID) (service.Outcome, error) {
	return s.approve(caller, id)
}

func (s *stubItemRequestService) Reject(ctx context.Context, caller domain.Identity, id uuid.UUID) (service.Outcome, error) {
	return s.reject(caller, id)
}

type stubUserService struct {
	register      func(in service.RegisterInput) (*service.AuthResult, error)
	login         func(username, password string) (*service.AuthResult, error)
	logout        func(refreshToken string) error
	refresh       func(refreshToken string) (string, error)
	getUser       func(userID uuid.UUID) (*domain.User, error)
	updateProfile func(userID uuid.UUID, in service.ProfileInput) (*domain.User, error)
}

func (s *stubUserService) Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	return s.register(in)
}

func (s *stubUserService) Login(ctx context.Context, username, password string) (*service.AuthResult, error) {
	return s.login(username, password)
}

func (s *stubUserService) Logout(ctx context.Context, refreshToken string) error {
	return s.logout(refreshToken)
}

func (s *stubUserService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return s.refresh(refreshToken)
}

func (s *stubUserService) ValidateToken(tokenString string) (*service.Claims, error) {
	return nil, service.ErrInvalidToken
}

func (s *stubUserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.getUser(userID)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in service.ProfileInput) (*domain.User, error) {
	return s.updateProfile(userID, in)
}

func authStack() (authRequired, authOptional, staffOnly Middleware) {
	logger := zap.NewNop()
	return middleware.AuthMiddleware(testSecret, logger),
		middleware.OptionalAuthMiddleware(testSecret, logger),
		middleware.RequireStaff(logger)
}

func bearer(t *testing.T, identity domain.Identity) string {
	t.Helper()
	role := domain.RoleUser
	if identity.IsStaff {
		role = domain.RoleStaff
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": identity.UserID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func do(t *testing.T, h http.Handler, method, path, body string, identity *domain.Identity) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if identity != nil {
		req.Header.Set("Authorization", bearer(t, *identity))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func staff() *domain.Identity {
	return &domain.Identity{UserID: uuid.New(), IsStaff: true}
}

func member() *domain.Identity {
	return &domain.Identity{UserID: uuid.New()}
}
