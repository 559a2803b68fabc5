package http

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/voyagr/travelstory/internal/auth"
	"github.com/voyagr/travelstory/internal/blob"
	"github.com/voyagr/travelstory/internal/cache"
	"github.com/voyagr/travelstory/internal/config"
	"github.com/voyagr/travelstory/internal/http/handlers"
	"github.com/voyagr/travelstory/internal/http/middlewares"
	"github.com/voyagr/travelstory/internal/observability"
)

// Deps carries everything the router wires together. Stores are interfaces
// so tests can run the full surface against in-memory implementations.
type Deps struct {
	Log     *slog.Logger
	Users   handlers.UserStore
	Stories handlers.StoryStore
	Blobs   blob.Store
	Cache   cache.StoryListCache
	JWT     *auth.Manager
	Prom    *observability.Prom

	// Ping probes the backing stores for readiness; nil means always ready.
	Ping func(context.Context) error
}

func NewRouter(cfg config.Config, d Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("travelstory"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(d.Prom.Handler()))
	}

	health := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	// uploaded photos and fixed assets (placeholder image) are served
	// directly
	r.Static("/uploads", cfg.UploadDir)
	r.Static("/assets", cfg.AssetsDir)

	authHandler := handlers.NewAuthHandler(d.Users, d.JWT)
	imagesHandler := handlers.NewImagesHandler(d.Blobs)
	storiesHandler := handlers.NewStoriesHandler(d.Stories, d.Blobs, d.Cache, cfg.PlaceholderImageURL())

	// multipart upload and asset removal sit outside the JSON guard
	r.POST("/image-upload", imagesHandler.Upload)
	r.DELETE("/delete-image", imagesHandler.Delete)

	public := r.Group("", middlewares.RequireJSON())
	public.POST("/create-account", authHandler.CreateAccount)
	public.POST("/login", authHandler.Login)

	authMW := middlewares.NewAuthMiddleware(d.JWT)

	authed := r.Group("", authMW.RequireAuth(), middlewares.RequireJSON())
	authed.GET("/get-user", authHandler.GetUser)
	authed.POST("/add-travel-story", storiesHandler.Add)
	authed.GET("/get-all-stories", storiesHandler.GetAll)
	authed.PUT("/edit-story/:id", storiesHandler.Edit)
	authed.DELETE("/delete-story/:id", storiesHandler.Delete)
	authed.PUT("/update-is-favourite/:id", storiesHandler.SetFavourite)
	authed.POST("/search", storiesHandler.Search)
	authed.GET("/travel-stories/filter", storiesHandler.FilterByDate)

	return r
}
