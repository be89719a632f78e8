package http

import (
	"github.com/labstack/echo/v4"
)

func Register(e *echo.Echo, h *Handler, limiter echo.MiddlewareFunc) {
	if limiter != nil {
		e.Use(limiter)
	}

	e.GET("/healthz", h.Health)
	e.GET("/stats", h.Stats)
	e.POST("/purge", h.Purge)

	e.POST("/tasks", h.Register)
	e.POST("/tasks/batch", h.RegisterBatch)
	e.POST("/tasks/claim", h.Claim)
	e.POST("/tasks/delete-batch", h.DeleteBatch)

	e.GET("/tasks", h.ListTasks)
	e.GET("/tasks/deleted", h.ListDeleted)
	e.GET("/tasks/recent", h.ListRecent)
	e.GET("/tasks/:id", h.GetTask)

	e.POST("/tasks/:id/success", h.Complete)
	e.POST("/tasks/:id/fail", h.Fail)
	e.POST("/tasks/:id/restore", h.Restore)
	e.DELETE("/tasks/:id", h.Delete)
}
