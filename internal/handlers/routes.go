package handlers

import "github.com/gin-gonic/gin"

// RegisterTodoRoutes mounts the todo operations on api.
func RegisterTodoRoutes(api *gin.RouterGroup, h *TodoHandler) {
	api.GET("/todos", h.List)
	api.POST("/todos", h.Create)
	api.GET("/todos/:id", h.GetByID)
	api.PATCH("/todos/:id", h.Update)
	api.DELETE("/todos/:id", h.Delete)
}
