package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Tephenbaay/imagescribeAI/internal/domain"
	"github.com/Tephenbaay/imagescribeAI/internal/logger"
	"github.com/Tephenbaay/imagescribeAI/internal/service"
	"github.com/gin-gonic/gin"
)

// Upload form field and user-facing messages.
const (
	UploadField       = "my_image"
	msgNoFile         = "No file uploaded."
	msgProcessingFail = "Failed to process the image. Please try again."
)

// Scribe processes one uploaded image.
type Scribe interface {
	Process(ctx context.Context, req service.ScribeRequest) (*service.ScribeResult, error)
}

// UploadHandler handles image submission.
type UploadHandler struct {
	scribe   Scribe
	pages    *PageHandler
	maxBytes int64
}

// NewUploadHandler creates an upload handler. Uploads declaring more than
// maxBytes are rejected.
func NewUploadHandler(scribe Scribe, pages *PageHandler, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		scribe:   scribe,
		pages:    pages,
		maxBytes: maxBytes,
	}
}

// OversizeMessage is shown when an upload exceeds the limit.
func OversizeMessage(maxBytes int64) string {
	return fmt.Sprintf("You can only upload a maximum of %dMB per image.", maxBytes/(1024*1024))
}

// Submit handles GET and POST /submit.
func (h *UploadHandler) Submit(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		h.pages.Index(c)
		return
	}

	ctx := c.Request.Context()
	ctx = logger.SetStage(ctx, string(domain.StageReceived))

	header, err := c.FormFile(UploadField)
	if err != nil {
		c.String(http.StatusBadRequest, msgNoFile)
		return
	}

	if header.Size > h.maxBytes {
		logger.With(logger.Fields{logger.FieldSize: header.Size}).
			Info(ctx, "Rejected oversize upload %s", header.Filename)
		h.pages.renderIndex(c, OversizeMessage(h.maxBytes))
		return
	}

	file, err := header.Open()
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("Failed to open upload")
		c.String(http.StatusInternalServerError, msgProcessingFail)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("Failed to read upload")
		c.String(http.StatusInternalServerError, msgProcessingFail)
		return
	}

	result, err := h.scribe.Process(ctx, service.ScribeRequest{
		OriginalName: header.Filename,
		Data:         data,
	})
	if err != nil {
		if stage, ok := service.FailedStage(err); ok {
			ctx = logger.SetStage(ctx, string(stage))
		}
		logger.FromContext(ctx).WithError(err).Error("Failed to process upload")
		c.String(http.StatusInternalServerError, msgProcessingFail)
		return
	}

	gen := result.Generation
	c.HTML(http.StatusOK, templateResult, ResultView{
		Filename:            gen.Filename,
		Caption:             gen.Caption,
		FirstDescription:    gen.FirstDescription,
		SecondDescription:   gen.SecondDescription,
		Category:            gen.Category,
		ImageURL:            result.ImageURL,
		CaptionAudioURL:     result.CaptionAudioURL,
		DescriptionAudioURL: result.DescriptionAudioURL,
	})
	logger.CtxDebug(logger.SetStage(ctx, string(domain.StageRendered)), "Rendered result for %s", gen.Filename)
}
