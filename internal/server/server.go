package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"beerfinder/internal/config"
	"beerfinder/internal/database"
	"beerfinder/internal/events"
	custommiddleware "beerfinder/internal/middleware"
	"beerfinder/internal/repository"
	"beerfinder/internal/service"
	"beerfinder/internal/thumbnail"
	"beerfinder/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config    *config.Config
	logger    *zap.Logger
	db        database.Service
	redis     *redis.Client
	publisher events.Publisher
}

// NewServer wires the catalog services and HTTP routes. redisClient may be
// nil, in which case rate limiting is disabled.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db database.Service,
	redisClient *redis.Client,
	publisher events.Publisher,
) *Server {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	s := &Server{
		config:    cfg,
		logger:    logger,
		db:        db,
		redis:     redisClient,
		publisher: publisher,
	}

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      s.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	cfg := s.config
	router := chi.NewRouter()

	// Add basic middleware
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(s.logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(s.logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, !cfg.IsProduction()))

	router.Get("/health", s.health)

	// Initialize repositories
	store := repository.NewStore(s.db.DB())
	repos := store.Repos()

	// Initialize services
	userService := service.NewUserService(repos.Users, repos.RefreshTokens, cfg.JWT)
	itemService := service.NewItemService(store, thumbnail.Compress)
	poiService := service.NewPOIService(store, thumbnail.Compress)
	relationshipService := service.NewRelationshipService(store, s.publisher, s.logger)
	requestService := service.NewItemRequestService(store, thumbnail.Compress, s.publisher, s.logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, s.logger)
	optionalAuth := custommiddleware.OptionalAuthMiddleware(cfg.JWT.Secret, s.logger)
	requireStaff := custommiddleware.RequireStaff(s.logger)

	// Writes are rate limited per caller when Redis is available.
	if s.redis != nil {
		authMiddleware = chainLimiter(authMiddleware, custommiddleware.RateLimitMiddleware(s.redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window(),
			KeyPrefix:         "rate_limit",
			Methods:           []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		}, s.logger))
	}

	// Register routes
	transport.NewUserHandler(userService, s.logger).RegisterRoutes(router, authMiddleware)
	transport.NewPOIHandler(poiService, relationshipService, cfg.Server.PublicBaseURL, s.logger).
		RegisterRoutes(router, authMiddleware, optionalAuth)
	transport.NewItemHandler(itemService, s.logger).RegisterRoutes(router, authMiddleware, optionalAuth)
	transport.NewItemRequestHandler(requestService, s.logger).RegisterRoutes(router, authMiddleware, requireStaff)

	return router
}

// chainLimiter runs the limiter after authentication so it can key by user.
func chainLimiter(auth, limiter func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return auth(limiter(next))
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{"status": "ok"}

	dbHealth := s.db.Health()
	body["database"] = dbHealth
	if dbHealth["status"] != "up" {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			body["redis"] = map[string]string{"status": "down", "error": err.Error()}
			body["status"] = "degraded"
		} else {
			body["redis"] = map[string]string{"status": "up"}
		}
	}

	custommiddleware.RespondWithJSON(w, status, body)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if err := s.publisher.Close(); err != nil {
		s.logger.Error("Failed to close event publisher", zap.Error(err))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
