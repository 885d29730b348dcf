package v1

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/attachment-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")
	group.POST("/photos", r.handlers.Photo.Create)
	group.GET("/photos", r.handlers.Photo.List)
	group.GET("/photos/:id", r.handlers.Photo.Get)
	group.PUT("/photos/:id", r.handlers.Photo.Update)
	group.DELETE("/photos/:id", r.handlers.Photo.Delete)
	group.GET("/files/*path", r.handlers.File.Serve)
}
