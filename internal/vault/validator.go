package vault

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
)

// obsidianDir is the reserved configuration directory name inside a vault.
const obsidianDir = ".obsidian"

// noteExt is the extension of knowledge-base notes.
const noteExt = ".md"

// ArchiveValidator decides whether an uploaded blob is acceptable before any
// expensive work happens. Pure inspection: no temporary files on any path.
type ArchiveValidator struct {
	MaxSize int64
}

// NewArchiveValidator returns a validator enforcing the given size ceiling.
func NewArchiveValidator(maxSize int64) *ArchiveValidator {
	return &ArchiveValidator{MaxSize: maxSize}
}

// ValidateName checks the declared filename and size without reading content.
// Size is checked before content so oversized uploads are rejected cheaply.
func (v *ArchiveValidator) ValidateName(filename string, size int64) error {
	if !strings.HasSuffix(strings.ToLower(filename), ".zip") {
		return ErrUnsupportedFormat
	}
	if v.MaxSize > 0 && size > v.MaxSize {
		return fmt.Errorf("%w (limit %d bytes)", ErrPayloadTooLarge, v.MaxSize)
	}
	return nil
}

// Validate runs the full acceptance check: filename, declared size, and the
// actual bytes. The archive must open as a ZIP and show evidence of
// knowledge-base content: at least one .md entry or one path containing the
// .obsidian directory. Intentionally permissive; false positives are accepted
// rather than rejecting vaults with unusual layouts.
func (v *ArchiveValidator) Validate(filename string, size int64, content []byte) error {
	if err := v.ValidateName(filename, size); err != nil {
		return err
	}
	if v.MaxSize > 0 && int64(len(content)) > v.MaxSize {
		return fmt.Errorf("%w (limit %d bytes)", ErrPayloadTooLarge, v.MaxSize)
	}

	r, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return ErrCorruptArchive
	}

	for _, f := range r.File {
		if strings.HasSuffix(f.Name, noteExt) {
			return nil
		}
		if containsPathSegment(f.Name, obsidianDir) {
			return nil
		}
	}
	return ErrNotKnowledgeBase
}

// containsPathSegment reports whether any slash-separated segment of name
// equals seg (archive entry names always use forward slashes).
func containsPathSegment(name, seg string) bool {
	for _, part := range strings.Split(name, "/") {
		if part == seg {
			return true
		}
	}
	return false
}
