// Package router wires the HTTP routes and middleware chain of the API.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amrouehab/AirBnB-clone-v3/internal/config"
	"github.com/amrouehab/AirBnB-clone-v3/internal/handler"
	"github.com/amrouehab/AirBnB-clone-v3/internal/middleware"
	"github.com/amrouehab/AirBnB-clone-v3/internal/model"
	"github.com/amrouehab/AirBnB-clone-v3/internal/storage"
)

// Prefix is the mount point of the API.
const Prefix = "/api/v1"

// Paths that stay open when authentication is enabled.
const (
	loginPath  = Prefix + "/auth/login"
	searchPath = Prefix + "/places_search"
)

// Options carries the optional pieces of the middleware chain. A nil Redis
// client disables caching and rate limiting.
type Options struct {
	Logger    zerolog.Logger
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	BodyLimit string
	JWTSecret string
}

// New returns an echo instance with the error handler, the global middleware
// and every route registered.
func New(p *storage.Provider, h *handler.Handler, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.HTTPErrorHandler = handler.ErrorHandler

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(middleware.RequestLogger(opts.Logger))
	e.Use(echomw.Recover())
	if opts.BodyLimit != "" {
		e.Use(echomw.BodyLimit(opts.BodyLimit))
	}

	RegisterRoutes(e)
	RegisterAPI(e, p, h, opts)
	return e
}

// RegisterRoutes registers routes outside the API, currently only the health
// check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI mounts the resource routes under Prefix.
func RegisterAPI(e *echo.Echo, p *storage.Provider, h *handler.Handler, opts Options) {
	g := e.Group(Prefix)
	// auth first: the limiter may key on the caller
	g.Use(middleware.RequireAuth(opts.JWTSecret, loginPath, searchPath))
	g.Use(middleware.NewTokenBucket(opts.RateLimit, opts.Redis))
	g.Use(middleware.NewRedisCache(opts.Cache, opts.Redis, searchPath))
	g.Use(middleware.Session(p))

	g.GET("/status", handler.Status)
	g.GET("/stats", h.Stats)
	g.POST("/auth/login", h.Login)

	// top-level collections
	for _, k := range []model.Kind{model.KindState, model.KindAmenity, model.KindUser} {
		base := "/" + model.SchemaOf(k).Plural
		g.GET(base, h.List(k))
		g.POST(base, h.Create(k))
	}

	// collections nested under their parent
	for _, k := range []model.Kind{model.KindCity, model.KindPlace, model.KindReview} {
		s := model.SchemaOf(k)
		base := "/" + model.SchemaOf(s.Parent.Kind).Plural + "/:id/" + s.Plural
		g.GET(base, h.ListChildren(k))
		g.POST(base, h.Create(k))
	}

	for _, k := range model.Kinds {
		item := "/" + model.SchemaOf(k).Plural + "/:id"
		g.GET(item, h.Get(k))
		g.PUT(item, h.Update(k))
		g.DELETE(item, h.Delete(k))
	}

	g.GET("/places/:id/amenities", h.PlaceAmenities)
	g.POST("/places/:id/amenities/:amenity_id", h.LinkAmenity)
	g.DELETE("/places/:id/amenities/:amenity_id", h.UnlinkAmenity)
	g.POST("/places_search", h.PlacesSearch)
}
