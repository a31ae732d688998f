package server

import (
	"context"
	"time"

	"snsdso/internal/database"
	"snsdso/internal/models"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck handles GET /health. It always answers 200 and reports
// the state of each dependency.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	dbStatus := s.databaseStatus(ctx)
	cacheStatus := s.cacheStatus(ctx)

	status := "healthy"
	if dbStatus != "connected" {
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   apiVersion,
		"database":  dbStatus,
		"cache":     cacheStatus,
	})
}

// LivenessCheck handles GET /health/live
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles GET /health/ready. It answers 503 until the database responds.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := s.databaseStatus(ctx)
	code := fiber.StatusOK
	status := "ready"
	if dbStatus != "connected" {
		code = fiber.StatusServiceUnavailable
		status = "not ready"
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": fiber.Map{
			"database": dbStatus,
			"cache":    s.cacheStatus(ctx),
		},
		"time": time.Now(),
	})
}

func (s *Server) databaseStatus(ctx context.Context) string {
	if _, err := s.dbm.Get(); err != nil {
		return "disconnected"
	}
	if err := s.dbm.Ping(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}

func (s *Server) cacheStatus(ctx context.Context) string {
	if s.redis == nil {
		return "unavailable"
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return "disconnected"
	}
	return "connected"
}

// InitDatabase handles GET /init. Already applied migrations are skipped.
func (s *Server) InitDatabase(c *fiber.Ctx) error {
	db, err := s.dbm.Get()
	if err == nil {
		err = database.ApplySchema(c.UserContext(), db, s.config)
	}
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInfrastructureError("Failed to initialize database", err))
	}
	return success(c, fiber.StatusOK, fiber.Map{"message": "Database initialized successfully"})
}
