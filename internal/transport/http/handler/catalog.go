package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bookhive/library-backend/internal/catalog"
	"github.com/bookhive/library-backend/internal/metrics"
	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	client catalog.Searcher
	logger *slog.Logger
}

func NewCatalogHandler(client catalog.Searcher, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		client: client,
		logger: logger.With("component", "catalog_handler"),
	}
}

// GET /books/google-books/search?q=
// A missing query is rejected before any upstream call is made.
func (h *CatalogHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errQueryRequired})
		return
	}

	books, err := h.client.Search(c.Request.Context(), q)
	if err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, catalog.ErrUpstream) {
			h.logger.ErrorContext(c.Request.Context(), "catalog search", "query", q, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": errUpstreamFailed})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "catalog search", "query", q, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	metrics.CatalogRequestsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, books)
}

// GET /books/google-books/:id
func (h *CatalogHandler) GetByID(c *gin.Context) {
	book, err := h.client.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		metrics.CatalogRequestsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, catalog.ErrUpstream) {
			h.logger.ErrorContext(c.Request.Context(), "catalog get", "volume_id", c.Param("id"), "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": errUpstreamFailed})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "catalog get", "volume_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	metrics.CatalogRequestsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, book)
}
