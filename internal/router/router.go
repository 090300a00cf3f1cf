package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/magnetbrain/backend/api/handler"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/api/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/auth/register", handlers.Auth.Register)
	r.POST("/api/auth/login", handlers.Auth.Login)
	r.POST("/api/auth/logout", authMiddleware(handlers.Auth.Logout))
	r.GET("/api/auth/me", authMiddleware(handlers.Auth.Me))

	// User directory (admin gate enforced in the use case)
	r.GET("/api/users", authMiddleware(handlers.Auth.ListUsers))

	// Task routes. my-tasks is registered before {id} so the router
	// never treats it as an identifier.
	r.GET("/api/tasks", authMiddleware(handlers.Task.List))
	r.POST("/api/tasks", authMiddleware(handlers.Task.Create))
	r.GET("/api/tasks/my-tasks", authMiddleware(handlers.Task.ListMine))
	r.GET("/api/tasks/{id}", authMiddleware(handlers.Task.Get))
	r.PUT("/api/tasks/{id}", authMiddleware(handlers.Task.Update))
	r.DELETE("/api/tasks/{id}", authMiddleware(handlers.Task.Delete))
	r.PATCH("/api/tasks/{id}/status", authMiddleware(handlers.Task.SetStatus))
	r.PATCH("/api/tasks/{id}/priority", authMiddleware(handlers.Task.SetPriority))
	r.GET("/api/tasks/{id}/activity", authMiddleware(handlers.Task.Activity))

	return r
}
