package vault

import "errors"

// Validation failures. Detected before any record exists, surfaced to the
// caller as client-input errors, never retried.
var (
	ErrUnsupportedFormat = errors.New("Only ZIP files are supported")
	ErrPayloadTooLarge   = errors.New("archive exceeds the maximum allowed size")
	ErrCorruptArchive    = errors.New("archive is corrupt or not a valid ZIP file")
	ErrNotKnowledgeBase  = errors.New("archive does not contain a knowledge base (no markdown notes or .obsidian directory)")

	// ErrUnsafeArchiveEntry rejects archives whose entries resolve outside the
	// extraction directory. Treated as a validation failure: never retried.
	ErrUnsafeArchiveEntry = errors.New("archive entry escapes the extraction directory")

	// ErrStorageWrite signals the blob store could not persist the upload.
	// No vault record exists when this is returned.
	ErrStorageWrite = errors.New("failed to persist uploaded archive")
)

// ExtractionError wraps failures while unpacking a stored archive. The vault
// record already exists at that point; the orchestrator captures the message
// on the record before propagating.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return "extraction failed: " + e.Err.Error() }
func (e *ExtractionError) Unwrap() error { return e.Err }

// AnalysisError wraps failures while analyzing extracted notes.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string { return "analysis failed: " + e.Err.Error() }
func (e *AnalysisError) Unwrap() error { return e.Err }

// IsValidationError reports whether err is a client-input rejection that must
// never touch the persistence layer.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrPayloadTooLarge) ||
		errors.Is(err, ErrCorruptArchive) ||
		errors.Is(err, ErrNotKnowledgeBase) ||
		errors.Is(err, ErrUnsafeArchiveEntry)
}

// Retryable reports whether err is a transient failure the queued strategy may
// re-dispatch. Validation and unsafe-archive rejections are terminal;
// extraction/analysis I/O failures are retryable.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if IsValidationError(err) {
		return false
	}
	var ee *ExtractionError
	var ae *AnalysisError
	if errors.As(err, &ee) || errors.As(err, &ae) {
		return true
	}
	if errors.Is(err, ErrStorageWrite) {
		return true
	}
	// Unknown failures (including step timeouts) default to transient.
	return true
}
