package http

import (
	"log/slog"

	"github.com/geocoder89/filmlib/internal/config"
	"github.com/geocoder89/filmlib/internal/http/handlers"
	"github.com/geocoder89/filmlib/internal/http/middlewares"
	"github.com/geocoder89/filmlib/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "filmlib-api"

// Deps is everything the router wires into handlers.
type Deps struct {
	Log     *slog.Logger
	Cfg     config.Config
	Library handlers.FilmLibrary
	Filters handlers.FilterLabeler
	Gate    handlers.SessionGate

	// optional
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Ping     func() error

	// ShuttingDown flips /readyz to 503 once the server starts draining.
	ShuttingDown func() bool
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" && d.Cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	if d.Log == nil {
		d.Log = slog.Default()
	}

	if err := handlers.RegisterValidators(); err != nil {
		d.Log.Error("register validators failed", "err", err)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(serviceName))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSOrigins))

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Not found")
	})

	// health
	h := handlers.NewHealthHandler(d.Ping, d.ShuttingDown)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// Wire up handlers
	sessionsHandler := handlers.NewSessionsHandler(d.Gate, handlers.CookieConfig{
		Name:   d.Cfg.SessionCookie,
		Secure: d.Cfg.Env == "prod",
	}, d.Prom)
	filmsHandler := handlers.NewFilmsHandler(d.Library)
	filtersHandler := handlers.NewFiltersHandler(d.Filters)

	sessionAuth := middlewares.NewSessionAuth(d.Gate, d.Cfg.SessionCookie)
	loginLimiter := middlewares.NewRateLimiter(d.Cfg.LoginRatePerMin)

	api := r.Group("/api", middlewares.RequireJSON(), middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))

	// sessions
	api.POST("/sessions", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), sessionsHandler.Login)
	api.GET("/sessions/current", sessionsHandler.Current)
	api.DELETE("/sessions/current", sessionsHandler.Logout)

	api.GET("/filters", filtersHandler.ListFilters)

	// films, owner taken from the session
	films := api.Group("/films", sessionAuth.RequireSession())
	films.GET("", filmsHandler.ListFilms)
	films.POST("", filmsHandler.CreateFilm)
	films.GET("/:id", filmsHandler.GetFilm)
	films.PUT("/:id", filmsHandler.UpdateFilm)
	films.PUT("/:id/favorite", filmsHandler.SetFavorite)
	films.DELETE("/:id", filmsHandler.DeleteFilm)

	return r
}
