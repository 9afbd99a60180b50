// Package api wires the fiber HTTP surface (spec.md §4.I): the three
// summaries endpoints, the middleware stack, and the error handler.
// Grounded on the teacher's app/main.go setupMiddleware and
// app/handlers/error.go.
package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/corvidlabs/vidsum/config"
	"github.com/corvidlabs/vidsum/job"
	"github.com/corvidlabs/vidsum/ratelimit"
	"github.com/corvidlabs/vidsum/validate"
)

// Server bundles the driver and its collaborators behind the fiber app.
type Server struct {
	App *fiber.App

	driver    *job.Driver
	validator *validate.Validator
	limiter   *ratelimit.Limiter
	logger    zerolog.Logger
	cfg       *config.Config
}

// New builds the fiber app with the teacher's exact middleware ordering
// (recover, requestid, logger, cors, compress, etag) gated by the same
// per-flag config knobs as app/main.go's setupMiddleware.
func New(cfg *config.Config, driver *job.Driver, validator *validate.Validator, limiter *ratelimit.Limiter, logger zerolog.Logger, accessLog *fiberLogger.Config) *Server {
	s := &Server{driver: driver, validator: validator, limiter: limiter, logger: logger, cfg: cfg}

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: !cfg.Debug,
		StrictRouting:         true,
		CaseSensitive:         true,
		AppName:               "vidsum " + cfg.Version,
	})

	s.setupMiddleware(app, accessLog)
	s.setupRoutes(app)

	s.App = app
	return s
}

func (s *Server) setupMiddleware(app *fiber.App, accessLog *fiberLogger.Config) {
	if s.cfg.Middleware.EnableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: s.cfg.Debug}))
	}

	if s.cfg.Middleware.EnableRequestID {
		app.Use(requestid.New(requestid.Config{
			Header: "X-Request-ID",
			Generator: func() string {
				return uuid.New().String()
			},
		}))
	}

	if s.cfg.Middleware.EnableLogger && accessLog != nil {
		app.Use(fiberLogger.New(*accessLog))
	}

	if s.cfg.Middleware.EnableCORS {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(s.cfg.CORS.AllowedOrigins, ","),
			AllowMethods:     strings.Join(s.cfg.CORS.AllowedMethods, ","),
			AllowHeaders:     strings.Join(s.cfg.CORS.AllowedHeaders, ","),
			ExposeHeaders:    strings.Join(s.cfg.CORS.ExposedHeaders, ","),
			AllowCredentials: s.cfg.CORS.AllowCredentials,
			MaxAge:           s.cfg.CORS.MaxAge,
		}))
	}

	if s.cfg.Middleware.EnableCompress {
		app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	}

	if s.cfg.Middleware.EnableETag {
		app.Use(etag.New())
	}
}

func (s *Server) setupRoutes(app *fiber.App) {
	app.Get("/health", s.handleHealth)

	v1 := app.Group("/api/v1")
	v1.Post("/summaries", s.handleCreateSummary)
	v1.Get("/summaries/:id", s.handleGetSummary)
	v1.Delete("/summaries/:id", s.handleDeleteSummary)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
