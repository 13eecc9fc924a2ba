package vault

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// extractedDirName is the subdirectory, next to the stored archive, into which
// entries are unpacked. Derived deterministically from the storage path so
// re-extraction of the same vault lands in the same location.
const extractedDirName = "extracted"

// ExtractionResult describes one unpacked archive. Owned by the call that
// produced it; not shared across concurrent operations.
type ExtractionResult struct {
	// FileCount is the number of archive ENTRIES, which may include directory
	// entries. Downstream status reporting uses this count, so it is not
	// necessarily len(Notes)+len(Attachments)+len(Config).
	FileCount   int      `json:"fileCount"`
	Notes       []string `json:"notes"`
	Attachments []string `json:"attachments"`
	Config      []string `json:"config"`
	Root        string   `json:"root"`
}

// ExtractionDir returns the extraction directory for a stored archive.
func ExtractionDir(storagePath string) string {
	return filepath.Join(filepath.Dir(storagePath), extractedDirName)
}

// Extract unpacks the archive at storagePath into its extraction directory and
// classifies every extracted file. Archives containing entries that resolve
// outside the destination are rejected wholesale with ErrUnsafeArchiveEntry
// before anything is written.
func Extract(storagePath string) (*ExtractionResult, error) {
	r, err := zip.OpenReader(storagePath)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	defer func() { _ = r.Close() }()

	dest := ExtractionDir(storagePath)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, &ExtractionError{Err: err}
	}

	// Reject traversal attempts before extracting a single entry.
	for _, f := range r.File {
		if _, err := safeJoin(dest, f.Name); err != nil {
			return nil, err
		}
	}

	for _, f := range r.File {
		target, _ := safeJoin(dest, f.Name)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, &ExtractionError{Err: err}
			}
			continue
		}
		if err := writeEntry(f, target); err != nil {
			return nil, &ExtractionError{Err: err}
		}
	}

	notes, attachments, config, err := ClassifyTree(dest)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	return &ExtractionResult{
		FileCount:   len(r.File),
		Notes:       notes,
		Attachments: attachments,
		Config:      config,
		Root:        dest,
	}, nil
}

// ClassifyTree walks an extracted tree and partitions files into notes,
// attachments and configuration, in walk (lexical) order. Classification is a
// pure function of the tree, so repeated calls over the same tree produce
// identical lists. Priority: note extension first, then hidden files and
// anything under the reserved configuration directory, then attachment.
func ClassifyTree(root string) (notes, attachments, config []string, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		base := d.Name()
		switch {
		case strings.HasSuffix(base, noteExt):
			notes = append(notes, rel)
		case strings.HasPrefix(base, ".") || containsPathSegment(rel, obsidianDir):
			config = append(config, rel)
		default:
			attachments = append(attachments, rel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return notes, attachments, config, nil
}

// safeJoin resolves an archive entry name under dest and fails with
// ErrUnsafeArchiveEntry when the result escapes dest.
func safeJoin(dest, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchiveEntry, name)
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	if target != dest && !strings.HasPrefix(target, dest+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeArchiveEntry, name)
	}
	return target, nil
}

func writeEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}
