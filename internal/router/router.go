package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/ketabplus/frontend/api/handler"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Session *apiHandler.SessionHandler
	Cart    *apiHandler.CartHandler
	Health  *apiHandler.HealthHandler
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// New assembles the storefront routes. Activity wraps every user-facing
// route so each request resets the idle timers; authGuard and adminGuard
// carry the latched-redirect semantics.
func New(handlers Handlers, activity, authGuard, adminGuard Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", activity(handlers.Auth.Login))
	r.POST("/api/v1/auth/logout", activity(handlers.Auth.Logout))

	// Session surface
	r.GET("/api/v1/session", handlers.Session.Get)
	r.POST("/api/v1/session/refresh", activity(authGuard(handlers.Session.Refresh)))
	r.POST("/api/v1/session/dismiss-warning", authGuard(handlers.Session.DismissWarning))
	r.PATCH("/api/v1/profile", activity(authGuard(handlers.Session.UpdateUser)))

	// Cart routes
	r.GET("/api/v1/cart/items", activity(authGuard(handlers.Cart.List)))
	r.POST("/api/v1/cart/items", activity(authGuard(handlers.Cart.Add)))
	r.PUT("/api/v1/preferences", activity(handlers.Cart.SetPreference))

	// Admin routes
	r.GET("/api/v1/admin/session", activity(adminGuard(handlers.Session.Get)))

	return r
}
