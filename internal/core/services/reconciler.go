package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"template-repo-service/internal/core/ports/output"
)

// Reconciler is the out-of-band cleanup for the non-transactional dual write:
// an upload commits its archive to disk before the metadata row, so a crash
// in between leaves a file no record points at. Sweep deletes those, plus
// stale leftovers in the temp-upload dir. Files younger than the grace
// window are left alone; they may belong to an in-flight upload.
type Reconciler struct {
	repo       ports.TemplateRepository
	storageDir string
	tempDir    string
	grace      time.Duration
}

func NewReconciler(repo ports.TemplateRepository, storageDir, tempDir string, grace time.Duration) *Reconciler {
	return &Reconciler{repo: repo, storageDir: storageDir, tempDir: tempDir, grace: grace}
}

// Sweep removes unreferenced archives and stale temp uploads, returning the
// number of entries deleted.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	templates, err := r.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	referenced := make(map[string]bool, len(templates))
	for _, tpl := range templates {
		referenced[tpl.Filename] = true
	}

	cutoff := time.Now().Add(-r.grace)
	removed := 0

	entries, err := os.ReadDir(r.storageDir)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if entry.IsDir() || referenced[entry.Name()] {
			continue
		}
		// Orphaned archives plus half-written ".zip-*" temp files.
		if !strings.HasSuffix(entry.Name(), ".zip") && !strings.HasPrefix(entry.Name(), ".zip-") {
			continue
		}
		if r.removeStale(filepath.Join(r.storageDir, entry.Name()), cutoff) {
			removed++
		}
	}

	if r.tempDir != "" {
		entries, err := os.ReadDir(r.tempDir)
		if err != nil {
			return removed, err
		}
		for _, entry := range entries {
			if r.removeStale(filepath.Join(r.tempDir, entry.Name()), cutoff) {
				removed++
			}
		}
	}

	if removed > 0 {
		log.WithField("removed", removed).Info("reconciliation sweep removed orphaned files")
	}
	return removed, nil
}

func (r *Reconciler) removeStale(path string, cutoff time.Time) bool {
	info, err := os.Stat(path)
	if err != nil || info.ModTime().After(cutoff) {
		return false
	}
	if err := os.RemoveAll(path); err != nil {
		log.WithError(err).WithField("path", path).Warn("remove orphaned file failed")
		return false
	}
	log.WithField("path", path).Warn("removed orphaned file")
	return true
}
