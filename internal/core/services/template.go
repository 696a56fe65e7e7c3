package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"template-repo-service/internal/archive"
	"template-repo-service/internal/core/domain"
	"template-repo-service/internal/core/ports/output"
)

// UploadInput carries one upload request. TempPath points at the received
// payload (a file or an unpacked directory) staged by the transport layer;
// the service consumes it on success and leaves it in place when archive
// building fails, so the caller can retry.
type UploadInput struct {
	Category     string
	Title        string
	Description  string
	Owner        string
	TempPath     string
	OriginalName string
	ContentType  string
}

type TemplateService struct {
	repo       ports.TemplateRepository
	storageDir string
}

func NewTemplateService(repo ports.TemplateRepository, storageDir string) (*TemplateService, error) {
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &TemplateService{repo: repo, storageDir: storageDir}, nil
}

// Upload stores the payload as <id>.zip in the storage dir and records its
// metadata. The file is committed before the database row: a crash between
// the two leaves an orphan file (cleaned by the reconciler), never a record
// pointing at a missing file.
func (s *TemplateService) Upload(ctx context.Context, in UploadInput, principal domain.Principal) (*domain.Template, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if principal.UserRef == "" {
		return nil, domain.ErrMissingPrincipal
	}

	id := uuid.New()
	filename := id.String() + ".zip"
	targetPath := filepath.Join(s.storageDir, filename)

	if domain.IsArchiveContentType(in.ContentType) {
		// Already a zip, move it into place verbatim.
		if err := moveFile(in.TempPath, targetPath); err != nil {
			return nil, fmt.Errorf("move uploaded archive: %w", err)
		}
	} else {
		if err := archive.Build(in.TempPath, targetPath, in.OriginalName); err != nil {
			// Temp source stays put so the upload can be retried.
			return nil, fmt.Errorf("build archive: %w", err)
		}
		if err := os.RemoveAll(in.TempPath); err != nil {
			log.WithError(err).WithField("path", in.TempPath).Warn("remove temp upload failed")
		}
	}

	tpl := &domain.Template{
		ID:           id,
		Category:     in.Category,
		Title:        in.Title,
		Description:  in.Description,
		Owner:        in.Owner,
		Filename:     filename,
		OriginalName: in.OriginalName,
		CreatedBy:    principal.UserRef,
		CreatedAt:    time.Now().UTC(),
		Path:         targetPath,
	}

	if err := s.repo.Insert(ctx, tpl); err != nil {
		// Best effort; the reconciler sweep is the backstop.
		if rmErr := os.Remove(targetPath); rmErr != nil {
			log.WithError(rmErr).WithField("path", targetPath).Warn("remove orphaned archive failed")
		}
		return nil, err
	}

	log.WithFields(log.Fields{"id": tpl.ID, "created_by": tpl.CreatedBy}).Info("template stored")
	return tpl, nil
}

func (s *TemplateService) List(ctx context.Context) ([]*domain.Template, error) {
	return s.repo.ListAll(ctx)
}

func (s *TemplateService) Get(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	return s.repo.GetByID(ctx, id)
}

func validateInput(in UploadInput) error {
	switch {
	case in.Category == "":
		return domain.ErrMissingCategory
	case in.Title == "":
		return domain.ErrMissingTitle
	case in.Description == "":
		return domain.ErrMissingDescription
	case in.Owner == "":
		return domain.ErrMissingOwner
	case in.TempPath == "":
		return domain.ErrMissingFile
	}
	return nil
}

// moveFile renames src to dst, falling back to copy-and-remove when the two
// live on different filesystems (temp upload dirs often do).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
