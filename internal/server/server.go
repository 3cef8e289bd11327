package server

import (
	"github.com/iwatkot/fatracingbot/internal/auth"
	"github.com/iwatkot/fatracingbot/internal/config"
	"github.com/iwatkot/fatracingbot/internal/finish"
	"github.com/iwatkot/fatracingbot/internal/leaderboard"
	"github.com/iwatkot/fatracingbot/internal/publish"
	"github.com/iwatkot/fatracingbot/internal/race"
	"github.com/iwatkot/fatracingbot/internal/registry"
	"github.com/iwatkot/fatracingbot/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App       *fiber.App
	Cfg       config.Config
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Stream    *stream.Hub
	Publisher *publish.Publisher
	Race      *race.Controller
	Builder   *leaderboard.Builder
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	registrySvc := registry.NewService(db)
	finishSvc := finish.NewService(redisClient)
	publisher := publish.New(cfg.PublishURL, cfg.PostToken)
	hub := stream.NewHub(redisClient)

	controller := race.NewController(
		registrySvc, registrySvc, finishSvc, finishSvc, publisher,
		cfg.TracksDir, cfg.MapDir,
	)
	builder := leaderboard.NewBuilder(controller, publisher, hub, cfg.MapDir, cfg.TickInterval)
	controller.AfterStop = builder.Reset

	s := &Server{
		App:       app,
		Cfg:       cfg,
		DB:        db,
		Redis:     redisClient,
		Stream:    hub,
		Publisher: publisher,
		Race:      controller,
		Builder:   builder,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	riderAuth := auth.RiderMiddleware(s.Cfg.JWTSecret)
	adminAuth := auth.PostTokenMiddleware(s.Cfg.PostToken)

	auth.RegisterRoutes(s.App, s.Cfg.JWTSecret, adminAuth)
	race.RegisterRoutes(s.App, s.Race, riderAuth, adminAuth)
	leaderboard.RegisterRoutes(s.App, s.Builder)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
