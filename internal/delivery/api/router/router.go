// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"leadintake/internal/delivery/api/middleware"
	"leadintake/internal/delivery/api/router/handler"
	"leadintake/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	LeadHandler    *handler.LeadHandler
	AuthMiddleware *middleware.AuthMiddleware
	Registry       *prometheus.Registry
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	leadHandler    *handler.LeadHandler
	authMiddleware *middleware.AuthMiddleware
	registry       *prometheus.Registry
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		leadHandler:    params.LeadHandler,
		authMiddleware: params.AuthMiddleware,
		registry:       params.Registry,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(r.registry)))

	// Token lifecycle
	e.POST("/access-token", r.authHandler.IssueAccessToken)
	e.POST("/refresh-token", r.authHandler.RefreshToken)
	e.POST("/register", r.authHandler.Register)

	// Lead intake
	e.POST("/filelead", r.leadHandler.FileLead)
	e.POST("/updatelead", r.leadHandler.UpdateLead)
	e.POST("/getpendingleads", r.leadHandler.ListPendingLeads)
	e.POST("/getreachedleads", r.leadHandler.ListReachedLeads)
	e.POST("/getattorneys", r.leadHandler.ListAttorneys)
	e.POST("/getprospects", r.leadHandler.ListProspects)

	leadsGroup := e.Group("/leads")
	leadsGroup.Use(r.authMiddleware.Authenticate)
	{
		leadsGroup.POST("/:id/reached-out", r.leadHandler.MarkReachedOut)
	}
}
