package vault

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildZip assembles an in-memory zip with the given name -> content entries,
// in insertion order.
func buildZip(t *testing.T, entries map[string]string, order ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if len(order) == 0 {
		for name := range entries {
			order = append(order, name)
		}
	}
	for _, name := range order {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(entries[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestValidateRejectsNonZipExtension(t *testing.T) {
	v := NewArchiveValidator(1 << 20)
	err := v.Validate("test.txt", 10, []byte("hello"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	require.Contains(t, err.Error(), "Only ZIP files are supported")
}

func TestValidateRejectsOversizeBeforeContent(t *testing.T) {
	v := NewArchiveValidator(100)
	// Declared size alone triggers the rejection; content may be nil.
	err := v.Validate("big.zip", 101, nil)
	require.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestValidateRejectsCorruptArchive(t *testing.T) {
	v := NewArchiveValidator(1 << 20)
	err := v.Validate("vault.zip", 12, []byte("not a zip at all"))
	require.ErrorIs(t, err, ErrCorruptArchive)
}

func TestValidateRejectsArchiveWithoutKnowledgeBaseContent(t *testing.T) {
	v := NewArchiveValidator(1 << 20)
	data := buildZip(t, map[string]string{
		"readme.txt": "hello",
		"img/a.png":  "xx",
	}, "readme.txt", "img/a.png")
	err := v.Validate("vault.zip", int64(len(data)), data)
	require.ErrorIs(t, err, ErrNotKnowledgeBase)
}

func TestValidateAcceptsMarkdownEvidence(t *testing.T) {
	v := NewArchiveValidator(1 << 20)
	data := buildZip(t, map[string]string{"notes/hello.md": "# Hi"})
	require.NoError(t, v.Validate("vault.zip", int64(len(data)), data))
}

func TestValidateAcceptsObsidianEvidence(t *testing.T) {
	v := NewArchiveValidator(1 << 20)
	data := buildZip(t, map[string]string{".obsidian/config": "{}"})
	require.NoError(t, v.Validate("vault.zip", int64(len(data)), data))
}

func TestValidateObsidianEvidenceRequiresExactSegment(t *testing.T) {
	// A look-alike directory name is not evidence of a knowledge base.
	v := NewArchiveValidator(1 << 20)
	data := buildZip(t, map[string]string{"my.obsidian-backup/data.bin": "x"})
	err := v.Validate("vault.zip", int64(len(data)), data)
	require.ErrorIs(t, err, ErrNotKnowledgeBase)
}

func TestValidateUppercaseExtensionAccepted(t *testing.T) {
	v := NewArchiveValidator(1 << 20)
	data := buildZip(t, map[string]string{"a.md": "x"})
	require.NoError(t, v.Validate("VAULT.ZIP", int64(len(data)), data))
}

func TestValidationErrorClassification(t *testing.T) {
	for _, err := range []error{
		ErrUnsupportedFormat, ErrPayloadTooLarge, ErrCorruptArchive,
		ErrNotKnowledgeBase, ErrUnsafeArchiveEntry,
	} {
		require.True(t, IsValidationError(err), "%v must classify as validation", err)
		require.False(t, Retryable(err), "%v must not be retryable", err)
	}

	ee := &ExtractionError{Err: errors.New("disk hiccup")}
	require.False(t, IsValidationError(ee))
	require.True(t, Retryable(ee))
	require.True(t, Retryable(&AnalysisError{Err: errors.New("io")}))
	require.True(t, Retryable(ErrStorageWrite))
	require.False(t, Retryable(nil))
}
