package handlers

import (
	"github.com/gin-gonic/gin"

	"template-repo-service/internal/core/services"
)

type Handler struct {
	templateSvc *services.TemplateService
	tempDir     string
	maxSize     int64
}

func New(templateSvc *services.TemplateService, tempDir string, maxSize int64) *Handler {
	return &Handler{
		templateSvc: templateSvc,
		tempDir:     tempDir,
		maxSize:     maxSize,
	}
}

// RegisterRoutes wires the template repository surface. Only the upload
// endpoint requires an authenticated user principal; list and download are
// open, matching the original surface.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authn gin.HandlerFunc) {
	r.POST("/templates/upload", authn, h.UploadTemplate)
	r.GET("/templates", h.ListTemplates)
	r.GET("/templates/:id/download", h.DownloadTemplate)
}
