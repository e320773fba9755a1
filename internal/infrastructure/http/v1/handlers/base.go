package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studentrecords/internal/core/apperror"
	appctx "studentrecords/internal/core/context"
	"studentrecords/internal/core/id"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the Gin context and aborts the request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses the positive integer path parameter key.
func (h *BaseHandler) ParseID(c *gin.Context, key string) (int64, bool) {
	raw := c.Param(key)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		h.Error(c, apperror.NewValidation("invalid id").
			WithDetail("field", key).
			WithDetail("value", raw))
		return 0, false
	}
	return v, true
}

// CurrentUserID returns the authenticated user's id.
func (h *BaseHandler) CurrentUserID(c *gin.Context) (id.ID, bool) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return id.ID{}, false
	}
	userID, err := id.Parse(user.UserID)
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("invalid user id"))
		return id.ID{}, false
	}
	return userID, true
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
