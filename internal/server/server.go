// Package server contains the HTTP handlers and route table for the API.
package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"snsdso/internal/cache"
	"snsdso/internal/config"
	"snsdso/internal/database"
	"snsdso/internal/middleware"
	"snsdso/internal/models"
	"snsdso/internal/repository"
	"snsdso/internal/service"
	"snsdso/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	apiVersion = "1.0.0"

	localsServices = "services"
	localsSession  = "session"
)

// Per-IP budgets for the credential endpoints.
var (
	registerRule = middleware.Rule{Limit: 5, Window: 10 * time.Minute}
	loginRule    = middleware.Rule{Limit: 10, Window: 5 * time.Minute}
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	dbm            *database.Manager
	redis          *redis.Client
	limiter        *middleware.Limiter
	promMiddleware *fiberprometheus.FiberPrometheus

	mu       sync.Mutex
	boundDB  *gorm.DB
	services *services
}

// services is everything built on top of one database handle.
type services struct {
	users    repository.UserRepository
	auth     *service.AuthService
	posts    *service.PostService
	comments *service.CommentService
}

// NewServer creates a server whose database connection is established lazily.
// A database that is down at startup only fails the requests that need it.
func NewServer(cfg *config.Config) *Server {
	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, database.NewManager(cfg), cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, in which case sessions live in the SQL table only.
func NewServerWithDeps(cfg *config.Config, dbm *database.Manager, redisClient *redis.Client) *Server {
	return &Server{
		config:         cfg,
		dbm:            dbm,
		redis:          redisClient,
		limiter:        middleware.NewLimiter(redisClient, cfg),
		promMiddleware: middleware.InitMetrics("sns-api"),
	}
}

// App builds a fiber app with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "SNS API",
		ErrorHandler: errorHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler turns errors escaping a handler into the JSON envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Status: "error", Message: fe.Message})
	}
	return models.RespondWithAppError(c, err)
}

// loadServices returns the services bound to the current database handle,
// connecting first if needed.
func (s *Server) loadServices() (*services, error) {
	db, err := s.dbm.Get()
	if err != nil {
		return nil, models.NewInfrastructureError("Database connection failed", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.services != nil && s.boundDB == db {
		return s.services, nil
	}

	var store session.Store = session.NewGormStore(db)
	if s.redis != nil {
		store = session.NewFailoverStore(session.NewRedisStore(s.redis), store)
	}

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)

	s.services = &services{
		users:    users,
		auth:     service.NewAuthService(users, store, s.config.BcryptCost, s.config.SessionLifetime),
		posts:    service.NewPostService(posts),
		comments: service.NewCommentService(comments, posts),
	}
	s.boundDB = db
	return s.services, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// Preflight wraps CORS so OPTIONS answers 200 with the CORS headers intact.
	app.Use(middleware.Preflight())
	origins := strings.TrimSpace(s.config.AllowedOrigins)
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		// Browsers refuse credentials with a wildcard origin.
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	if s.config.RateLimitPerMinute > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        s.config.RateLimitPerMinute,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
					Status:  "error",
					Message: "Too many requests, please try again later",
				})
			},
		}))
	}
}

// SetupRoutes configures all routes for the application. Every route is
// served both at the root and under /api.
func (s *Server) SetupRoutes(app *fiber.App) {
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	s.registerRoutes(app)
	s.registerRoutes(app.Group("/api"))

	app.Use(s.NotFound)
}

func (s *Server) registerRoutes(r fiber.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/health/live", s.LivenessCheck)
	r.Get("/health/ready", s.ReadinessCheck)

	// Handlers are chained per route: a prefix group with middleware would
	// also match the unknown paths that must reach NotFound.
	db := s.DatabaseRequired()
	sess := s.LoadSession()
	authed := s.AuthRequired()

	r.Get("/init", db, s.InitDatabase)

	r.Post("/auth/register", s.limiter.Middleware("register", registerRule, middleware.FailOpen), db, s.Register)
	r.Post("/auth/login", s.limiter.Middleware("login", loginRule, middleware.FailOpen), db, s.Login)
	r.Post("/auth/logout", db, s.Logout)
	r.Get("/auth/me", db, sess, s.Me)

	r.Get("/posts", db, sess, s.GetPosts)
	r.Post("/posts", db, sess, authed, s.CreatePost)
	r.Get("/posts/:id<int>", db, sess, s.GetPost)
	r.Put("/posts/:id<int>", db, sess, authed, s.UpdatePost)
	r.Delete("/posts/:id<int>", db, sess, authed, s.DeletePost)
	r.Post("/posts/:id<int>/like", db, sess, authed, s.LikePost)
	r.Post("/posts/:id<int>/unlike", db, sess, authed, s.UnlikePost)
	r.Get("/posts/:id<int>/likes", db, s.GetLikes)
	r.Post("/posts/:id<int>/comments", db, sess, authed, s.CreateComment)
	r.Get("/posts/:id<int>/comments", db, s.GetComments)

	r.Delete("/comments/:id<int>", db, sess, authed, s.DeleteComment)

	r.Get("/users/:id<int>", db, sess, s.GetUserProfile)
}

// NotFound echoes the unmatched path, without the /api prefix.
func (s *Server) NotFound(c *fiber.Ctx) error {
	path := strings.TrimPrefix(c.Path(), "/api")
	if path == "" {
		path = "/"
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"status":  "error",
		"message": "Endpoint not found",
		"path":    path,
	})
}

// DatabaseRequired binds the services for the request or fails with 500.
func (s *Server) DatabaseRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc, err := s.loadServices()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		c.Locals(localsServices, svc)
		return c.Next()
	}
}

// LoadSession resolves the session cookie. Anonymous requests pass through.
func (s *Server) LoadSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(s.config.SessionCookieName)
		if token == "" {
			return c.Next()
		}
		sess, err := servicesFrom(c).auth.Session(c.UserContext(), token)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		if sess != nil {
			c.Locals(localsSession, sess)
			middleware.WithUserID(c, sess.UserID)
		}
		return c.Next()
	}
}

// AuthRequired rejects requests without a live session.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals("userID").(uint); !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}
		return c.Next()
	}
}

// Shutdown releases the database and Redis connections.
func (s *Server) Shutdown() error {
	var errs []error
	if err := s.dbm.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database close: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	return errors.Join(errs...)
}
