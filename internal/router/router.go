package router // package router wires handlers and middleware onto echo instances

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/greeter/internal/config"
	"github.com/iliyamo/greeter/internal/handler"
	"github.com/iliyamo/greeter/internal/middleware"
	"github.com/iliyamo/greeter/internal/validation"
)

// Deps are the optional backends of the greeter.  The zero value serves the
// two routes with no rate limiting, caching or events.
type Deps struct {
	Redis  *redis.Client
	Events middleware.EventPublisher
}

// newEcho applies the settings shared by the greeter and the auditor.
func newEcho(logLevel string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(config.ParseLogLevel(logLevel))
	e.Validator = validation.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	return e
}

// New builds the greeter's echo instance.
func New(cfg config.Config, deps Deps) *echo.Echo {
	e := newEcho(cfg.LogLevel)
	e.Use(middleware.NewTokenBucket(cfg.RateLimit, deps.Redis))
	RegisterRoutes(e, cfg.Cache, deps)
	return e
}

// RegisterRoutes maps GET / and POST /data, plus the /healthz probe.  Any
// other method/path gets echo's default 404 or 405.
func RegisterRoutes(e *echo.Echo, cache config.CacheConfig, deps Deps) {
	events := middleware.GreetingEvents(deps.Events)
	e.GET("/", handler.Greet, events, middleware.NewRedisCache(cache, deps.Redis))
	e.POST("/data", handler.CreatePerson, events)
	e.GET("/healthz", handler.Health)
}

// NewAuditor builds the auditor's echo instance.
func NewAuditor(logLevel string, h *handler.EventsHandler) *echo.Echo {
	e := newEcho(logLevel)
	RegisterAuditor(e, h)
	return e
}

// RegisterAuditor exposes the stored greeting events read-only under /v1.
func RegisterAuditor(e *echo.Echo, h *handler.EventsHandler) {
	g := e.Group("/v1")
	g.GET("/events", h.ListEvents)
	g.GET("/events/stats", h.Stats)
	e.GET("/healthz", handler.Health)
}
