package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"template-repo-service/internal/adapters/primary/http/dto"
	"template-repo-service/internal/adapters/primary/http/middleware"
	"template-repo-service/internal/core/domain"
	"template-repo-service/internal/core/services"
)

func (h *Handler) UploadTemplate(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": domain.ErrMissingPrincipal.Error()})
		return
	}

	var req dto.UploadTemplateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrMissingFile.Error()})
		return
	}
	if h.maxSize > 0 && file.Size > h.maxSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	tempPath := filepath.Join(h.tempDir, "upload-"+uuid.New().String()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		log.WithError(err).Error("save uploaded file failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	originalName := req.OriginalName
	if originalName == "" {
		originalName = file.Filename
	}

	tpl, err := h.templateSvc.Upload(c.Request.Context(), services.UploadInput{
		Category:     req.Category,
		Title:        req.Title,
		Description:  req.Description,
		Owner:        req.Owner,
		TempPath:     tempPath,
		OriginalName: originalName,
		ContentType:  file.Header.Get("Content-Type"),
	}, principal)
	if err != nil {
		log.WithError(err).Error("upload template failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTemplateResponse(tpl))
}

func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.templateSvc.List(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("list templates failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.TemplateResponse, 0, len(templates))
	for _, tpl := range templates {
		items = append(items, dto.ToTemplateResponse(tpl))
	}

	c.JSON(http.StatusOK, dto.ListTemplatesResponse{Items: items})
}

func (h *Handler) DownloadTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}

	tpl, err := h.templateSvc.Get(c.Request.Context(), id)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	// A record whose archive is gone is a storage fault, not a 404.
	if _, err := os.Stat(tpl.Path); err != nil {
		log.WithError(err).WithField("id", tpl.ID).Error("stored archive unreadable")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.FileAttachment(tpl.Path, tpl.DownloadName())
}
