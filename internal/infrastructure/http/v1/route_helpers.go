package v1

import (
	"github.com/gin-gonic/gin"
)

// CRUDRouteHandler defines the handlers of a resource with full and partial updates.
type CRUDRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Replace(c *gin.Context)
	Patch(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterCRUDRoutes registers the standard routes of a resource on group.
//
// Usage:
//
//	handler := handlers.NewRecordHandler(base, cfg.Records)
//	RegisterCRUDRoutes(protected.Group("/records"), handler)
func RegisterCRUDRoutes(group *gin.RouterGroup, handler CRUDRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Replace)
	group.PATCH("/:id", handler.Patch)
	group.DELETE("/:id", handler.Delete)
}
