package dto

import (
	"time"

	"github.com/google/uuid"

	"template-repo-service/internal/core/domain"
)

type UploadTemplateRequest struct {
	Category    string `form:"category" binding:"required"`
	Title       string `form:"title" binding:"required"`
	Description string `form:"description" binding:"required"`
	Owner       string `form:"owner" binding:"required"`
	// Optional override; falls back to the multipart filename.
	OriginalName string `form:"originalName"`
}

// TemplateResponse deliberately omits the internal storage path.
type TemplateResponse struct {
	ID           uuid.UUID `json:"id"`
	Category     string    `json:"category"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Owner        string    `json:"owner"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    string    `json:"createdAt"`
}

type ListTemplatesResponse struct {
	Items []TemplateResponse `json:"items"`
}

func ToTemplateResponse(tpl *domain.Template) TemplateResponse {
	return TemplateResponse{
		ID:           tpl.ID,
		Category:     tpl.Category,
		Title:        tpl.Title,
		Description:  tpl.Description,
		Owner:        tpl.Owner,
		Filename:     tpl.Filename,
		OriginalName: tpl.OriginalName,
		CreatedBy:    tpl.CreatedBy,
		CreatedAt:    tpl.CreatedAt.Format(time.RFC3339),
	}
}
