package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/samirrijal/districtmap/internal/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// requestTimeout bounds a single request, including a cold render.
const requestTimeout = 15 * time.Second

// NewApp creates a Fiber app that encodes JSON with jsoniter.
func NewApp(readTimeout, writeTimeout time.Duration) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "districtmap",
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		DisableStartupMessage: true,
	})
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes. corsOrigins
// is a comma-separated allow list; empty disables CORS.
func SetupRoutes(app *fiber.App, deps *Dependencies, corsOrigins string) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	if origins := strings.TrimSpace(corsOrigins); origins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: origins,
			AllowMethods: "GET,POST,OPTIONS",
		}))
	}

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Map page
	app.Get("/", PageHandler(deps))

	// REST API v1
	v1 := app.Group("/v1")
	v1.Get("/map", timeout.NewWithContext(MapHandler(deps), requestTimeout))
	v1.Get("/view", timeout.NewWithContext(ViewHandler(deps), requestTimeout))
	v1.Get("/legend", timeout.NewWithContext(LegendHandler(deps), requestTimeout))
	v1.Get("/layers", timeout.NewWithContext(ListLayersHandler(deps), requestTimeout))
	v1.Get("/layers/:id", timeout.NewWithContext(GetLayerHandler(deps), requestTimeout))
	v1.Post("/layers/termini/refresh", timeout.NewWithContext(RefreshTerminiHandler(deps), requestTimeout))
	v1.Get("/stops", timeout.NewWithContext(StopsHandler(deps), requestTimeout))
	v1.Get("/termini", timeout.NewWithContext(TerminiHandler(deps), requestTimeout))
	v1.Get("/datasets", timeout.NewWithContext(ListDatasetsHandler(deps), requestTimeout))
	v1.Get("/datasets/:name", timeout.NewWithContext(GetDatasetHandler(deps), requestTimeout))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket relay of map.updated events
	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}
