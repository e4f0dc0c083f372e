package handler

import (
	"context"
	"net/http"

	"github.com/Tephenbaay/imagescribeAI/internal/domain"
	"github.com/Tephenbaay/imagescribeAI/internal/history"
	"github.com/Tephenbaay/imagescribeAI/internal/logger"
	"github.com/gin-gonic/gin"
)

// historyPageLimit bounds the rows shown on /history.
const historyPageLimit = 50

// GenerationReader reads persisted generations.
type GenerationReader interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Generation, error)
	ListByFilename(ctx context.Context, filename string) ([]domain.Generation, error)
	GetByID(ctx context.Context, id string) (*domain.Generation, error)
	CountByStatus(ctx context.Context, status domain.GenerationStatus) (int64, error)
}

// PageHandler serves the HTML pages.
type PageHandler struct {
	captions     *history.Store
	descriptions *history.Store
	generations  GenerationReader
}

// NewPageHandler creates a page handler. generations may be nil.
func NewPageHandler(captions, descriptions *history.Store, generations GenerationReader) *PageHandler {
	return &PageHandler{
		captions:     captions,
		descriptions: descriptions,
		generations:  generations,
	}
}

// Index renders the upload page with both histories.
func (h *PageHandler) Index(c *gin.Context) {
	h.renderIndex(c, "")
}

// renderIndex renders the upload page. A non-empty errMsg is shown together
// with an empty result set.
func (h *PageHandler) renderIndex(c *gin.Context, errMsg string) {
	view := IndexView{
		Captions:     h.captions.Entries(),
		Descriptions: h.descriptions.Entries(),
		Error:        errMsg,
	}
	if errMsg != "" {
		view.Results = []history.Entry{}
	}
	c.HTML(http.StatusOK, templateIndex, view)
}

// Static returns a handler rendering a template without data.
func (h *PageHandler) Static(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, nil)
	}
}

// History lists the most recent generations.
func (h *PageHandler) History(c *gin.Context) {
	if h.generations == nil {
		c.HTML(http.StatusOK, templateHistory, HistoryView{})
		return
	}

	rows, err := h.generations.ListRecent(c.Request.Context(), historyPageLimit)
	if err != nil {
		logger.FromContext(c.Request.Context()).WithError(err).Error("Failed to list generations")
		c.HTML(http.StatusOK, templateHistory, HistoryView{Available: true, Error: "History is unavailable right now."})
		return
	}
	c.HTML(http.StatusOK, templateHistory, HistoryView{Available: true, Generations: rows})
}
