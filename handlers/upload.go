package handlers

import (
	"net/http"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/assets"
	"github.com/ABH36/Machine-test/middleware"
	"github.com/ABH36/Machine-test/policy"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UploadHandler struct {
	store  assets.Store
	logger *zap.Logger
}

func NewUploadHandler(store assets.Store, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{store: store, logger: logger}
}

// Upload stores the multipart "image" field and returns its URL.
func (h *UploadHandler) Upload(c *gin.Context) {
	if err := policy.Authorize(middleware.PrincipalFrom(c), policy.ActionUploadAsset, policy.Resource{}); err != nil {
		respondError(c, h.logger, err)
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		respondError(c, h.logger, apperr.Validation("image", "No file uploaded"))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, h.logger, apperr.Validation("image", "Failed to read upload"))
		return
	}
	defer file.Close()

	url, err := h.store.Upload(c.Request.Context(), file)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
