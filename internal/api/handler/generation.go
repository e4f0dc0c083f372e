package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Tephenbaay/imagescribeAI/internal/domain"
	"github.com/Tephenbaay/imagescribeAI/internal/storage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GenerationHandler exposes persisted generations as JSON.
type GenerationHandler struct {
	generations GenerationReader
}

// NewGenerationHandler creates a new generation handler.
func NewGenerationHandler(generations GenerationReader) *GenerationHandler {
	return &GenerationHandler{generations: generations}
}

// ListGenerations handles GET /api/v1/generations. An optional filename
// query narrows the list to uploads stored under that name.
func (h *GenerationHandler) ListGenerations(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}

	var rows []domain.Generation
	if filename := c.Query("filename"); filename != "" {
		rows, err = h.generations.ListByFilename(c.Request.Context(), storage.SecureFilename(filename))
		if len(rows) > limit {
			rows = rows[:limit]
		}
	} else {
		rows, err = h.generations.ListRecent(c.Request.Context(), limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list generations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"generations": rows,
		"count":       len(rows),
	})
}

// GetGeneration handles GET /api/v1/generations/:id.
func (h *GenerationHandler) GetGeneration(c *gin.Context) {
	g, err := h.generations.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Generation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load generation"})
		return
	}
	c.JSON(http.StatusOK, g)
}

// GetStats handles GET /api/v1/stats.
func (h *GenerationHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	stats := gin.H{}
	for _, status := range []domain.GenerationStatus{domain.GenerationStatusCompleted, domain.GenerationStatusFailed} {
		n, err := h.generations.CountByStatus(ctx, status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
			return
		}
		stats[string(status)] = n
	}
	c.JSON(http.StatusOK, stats)
}
