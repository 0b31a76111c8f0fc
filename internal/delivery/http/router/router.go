// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"authlinker/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	LinkHandler *handler.LinkHandler
	KeyHandler  *handler.KeyHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	linkHandler *handler.LinkHandler
	keyHandler  *handler.KeyHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		linkHandler: params.LinkHandler,
		keyHandler:  params.KeyHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Link issuance and verification routes
	linkGroup := e.Group("/links")
	{
		linkGroup.POST("", r.linkHandler.IssueLink)
		linkGroup.GET("/cooldown", r.linkHandler.Cooldown)
	}

	// Verification accepts both the JSON form used by backend callers and the
	// query form a clicked link produces.
	e.POST("/verify", r.linkHandler.VerifyLink)
	e.GET("/verify", r.linkHandler.VerifyLink)

	// Keypair administration routes
	adminGroup := e.Group("/admin/keys")
	{
		adminGroup.POST("", r.keyHandler.GenerateKeys)
		adminGroup.GET("/public", r.keyHandler.PublicKey)
	}
}
