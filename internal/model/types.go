package model

import "time"

// VaultStatus tracks a vault's lifecycle through the ingestion pipeline.
type VaultStatus string

const (
	StatusUploaded   VaultStatus = "uploaded"
	StatusProcessing VaultStatus = "processing"
	StatusCompleted  VaultStatus = "completed"
	StatusFailed     VaultStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s VaultStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is a legal forward
// transition. Both the inline and the queued execution paths drive the state
// machine through this single predicate. Failed is reachable from any
// non-terminal state; nothing leaves completed or failed.
func (s VaultStatus) CanTransition(next VaultStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case StatusProcessing:
		return s == StatusUploaded
	case StatusCompleted:
		return s == StatusProcessing
	case StatusFailed:
		return true
	default:
		return false
	}
}

// Vault is the persisted record of an uploaded knowledge-base archive.
// Status, counters and error message are mutated only by the ingestion
// orchestrator and the pipeline worker.
type Vault struct {
	VaultID          string      `json:"vaultId"`
	Name             string      `json:"name"`
	OriginalFilename string      `json:"originalFilename"`
	FileSize         int64       `json:"fileSize"`
	StoragePath      string      `json:"storagePath"`
	Status           VaultStatus `json:"status"`
	FileCount        *int        `json:"fileCount,omitempty"`
	ProcessedFiles   *int        `json:"processedFiles,omitempty"`
	ErrorMessage     *string     `json:"errorMessage,omitempty"`
	CreationTime     time.Time   `json:"creationTime"`
	UpdateTime       time.Time   `json:"updateTime"`
}

// ProcessingJob is one dispatchable unit of the queued pipeline. It doubles as
// the audit record for that step: done and failed rows are retained.
type ProcessingJob struct {
	ID            int64     `json:"id"`
	VaultID       string    `json:"vaultId"`
	Op            string    `json:"op"`
	Payload       []byte    `json:"payload,omitempty"`
	Status        string    `json:"status"`
	Attempts      int       `json:"attempts"`
	NextAttemptAt time.Time `json:"nextAttemptAt"`
	LastError     *string   `json:"lastError,omitempty"`
	CreationTime  time.Time `json:"creationTime"`
	UpdateTime    time.Time `json:"updateTime"`
}

// ProcessingJob statuses.
const (
	JobPending = "pending"
	JobDone    = "done"
	JobFailed  = "failed"
)

// SearchHit represents a search result from the vector index.
type SearchHit struct {
	NoteID  string  `json:"noteId"`
	VaultID string  `json:"vaultId"`
	Title   string  `json:"title"`
	Path    string  `json:"path"`
	Content string  `json:"content,omitempty"`
	Score   float64 `json:"score"`
}
