package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"vidaplus/internal/lib/sl"
	"vidaplus/internal/model"
	"vidaplus/internal/service"
)

// RecordHandler serves the read routes of the mock data collections
type RecordHandler struct {
	service service.RecordService
	log     *slog.Logger
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(s service.RecordService, log *slog.Logger) *RecordHandler {
	return &RecordHandler{service: s, log: log.With(slog.String("component", "handler/record"))}
}

// List returns a handler listing every record of collection
func (h *RecordHandler) List(collection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := h.service.List(c.Request.Context(), collection)
		if err != nil {
			h.fail(c, collection, err)
			return
		}
		c.JSON(http.StatusOK, recs)
	}
}

// Get returns a handler serving one record of collection by the :id param
func (h *RecordHandler) Get(collection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := h.service.Get(c.Request.Context(), collection, c.Param("id"))
		if err != nil {
			h.fail(c, collection, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func (h *RecordHandler) fail(c *gin.Context, collection string, err error) {
	switch {
	case errors.Is(err, service.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, service.ErrUnknownCollection):
		c.JSON(http.StatusNotFound, gin.H{"error": "collection not found"})
	default:
		h.log.Error("failed to read collection", slog.String("collection", collection), sl.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// RegisterRecordRoutes mounts list and get routes for every collection.
// guards returns the middleware to run before a collection's handlers.
func (h *RecordHandler) RegisterRecordRoutes(rg *gin.RouterGroup, guards func(collection string) []gin.HandlerFunc) {
	for _, collection := range model.Collections {
		var mw []gin.HandlerFunc
		if guards != nil {
			mw = guards(collection)
		}
		g := rg.Group("/"+collection, mw...)
		{
			g.GET("", h.List(collection))
			g.GET("/:id", h.Get(collection))
		}
	}
}
