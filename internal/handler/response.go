package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vidaplus/internal/validation"
)

// bindJSON decodes the request body into req and writes a 400 response when
// binding fails. Validation failures carry messages keyed by JSON field.
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	if fields := validation.FieldErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
	return false
}
