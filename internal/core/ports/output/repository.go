package ports

import (
	"context"

	"github.com/google/uuid"

	"template-repo-service/internal/core/domain"
)

// TemplateRepository is the metadata store for template records. Insert must
// fail on a primary-key collision; GetByID must return
// domain.ErrTemplateNotFound when no record matches, distinguishable from a
// storage failure. ListAll carries no ordering contract.
type TemplateRepository interface {
	Insert(ctx context.Context, tpl *domain.Template) error
	ListAll(ctx context.Context) ([]*domain.Template, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error)
}
