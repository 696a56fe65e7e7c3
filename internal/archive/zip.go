package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Build writes a zip archive of sourcePath to destPath.
//
// A directory source is archived with every regular file beneath it stored
// under its path relative to the source, with no top-level wrapping
// directory. A single-file source is stored as one entry named entryName,
// so the archive reflects the caller's declared original name rather than
// whatever the temp file happens to be called on disk.
//
// The archive is written to a temp file next to destPath and renamed into
// place on success, so a file at destPath is always a fully-written archive.
func Build(sourcePath, destPath, entryName string) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".zip-*")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	tmpPath := tmp.Name()

	if err := writeArchive(tmp, sourcePath, entryName, info.IsDir()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp archive: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("move archive into place: %w", err)
	}
	return nil
}

func writeArchive(w io.Writer, sourcePath, entryName string, isDir bool) error {
	zw := zip.NewWriter(w)

	if isDir {
		err := filepath.WalkDir(sourcePath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(sourcePath, path)
			if err != nil {
				return err
			}
			return addFile(zw, path, filepath.ToSlash(rel))
		})
		if err != nil {
			zw.Close()
			return fmt.Errorf("archive directory: %w", err)
		}
	} else {
		if err := addFile(zw, sourcePath, entryName); err != nil {
			zw.Close()
			return fmt.Errorf("archive file: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
