package api

import (
	"context"
	"net/http"

	apiContext "ecoflow/internal/api/context"
	"ecoflow/internal/api/handlers"
	"ecoflow/internal/api/middleware"
	"ecoflow/internal/pkg/errors"
	"github.com/julienschmidt/httprouter"
)

type Dependencies struct {
	AuthHandler    *handlers.AuthHandler
	DeviceHandler  *handlers.DeviceHandler
	SignHandler    *handlers.SignHandler
	HealthHandler  *handlers.HealthHandler
	MetricsHandler *handlers.MetricsHandler
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Route not found", nil)
	})

	router.GET("/health", wrap(deps.HealthHandler.Check))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	router.POST("/api/v1/auth/login",
		chain(deps.AuthHandler.Login, deps.RateLimiter.Limit(middleware.LimitWrite)))

	authMid := deps.AuthMiddleware
	read := deps.RateLimiter.Limit(middleware.LimitRead)
	write := deps.RateLimiter.Limit(middleware.LimitWrite)

	// Devices
	router.GET("/api/v1/devices",
		chain(deps.DeviceHandler.List, authMid.Handle, read))
	router.GET("/api/v1/devices/:sn",
		chain(deps.DeviceHandler.Get, authMid.Handle, read))
	router.GET("/api/v1/devices/:sn/quota",
		chain(deps.DeviceHandler.Quota, authMid.Handle, read))
	router.POST("/api/v1/devices/:sn/quota/query",
		chain(deps.DeviceHandler.Query, authMid.Handle, read))
	router.PUT("/api/v1/devices/:sn/quota",
		chain(deps.DeviceHandler.Command, authMid.Handle, write))
	router.GET("/api/v1/devices/:sn/snapshots",
		chain(deps.DeviceHandler.Snapshots, authMid.Handle, read))
	router.GET("/api/v1/devices/:sn/commands",
		chain(deps.DeviceHandler.Commands, authMid.Handle, read))

	// Signing preview
	router.POST("/api/v1/sign",
		chain(deps.SignHandler.Preview, authMid.Handle, read))

	return middleware.RequestLogger(router)
}

// chain applies middlewares so the first one listed runs first.
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// wrap converts an http.HandlerFunc to an httprouter.Handle, carrying the
// path parameters in the request context.
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
