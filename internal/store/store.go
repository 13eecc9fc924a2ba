package store

import (
	"context"
	"time"

	"github.com/secondbrain/vault-service/internal/model"
)

// Store exposes persistence operations required by services and the pipeline
// worker. Implementations live under internal/store/<driver>/.
type Store interface {
	Vaults() Vaults
	Jobs() Jobs
}

// Vaults is the persistence contract for vault records. Update writes the
// whole mutable portion of the row (status, counters, error message) in one
// statement so concurrent readers never observe partial field writes.
type Vaults interface {
	Create(ctx context.Context, v *model.Vault) (*model.Vault, error)
	Get(ctx context.Context, vaultID string) (*model.Vault, error)
	// List returns vaults most-recently-created first.
	List(ctx context.Context, offset, limit int) ([]*model.Vault, error)
	Update(ctx context.Context, v *model.Vault) (*model.Vault, error)
	Delete(ctx context.Context, vaultID string) error
}

// LeaseDuration is how long a claimed job stays invisible to other workers.
// A worker that crashes mid-step loses its claim once the horizon passes and
// the job is delivered again.
const LeaseDuration = 5 * time.Minute

// Jobs is the queue and audit log for the queued execution strategy.
// Delivery is at-least-once: a leased job that is never marked done becomes
// ready again once its next_attempt_at passes.
type Jobs interface {
	Enqueue(ctx context.Context, j *model.ProcessingJob) (*model.ProcessingJob, error)
	Get(ctx context.Context, id int64) (*model.ProcessingJob, error)
	ListByVault(ctx context.Context, vaultID string) ([]*model.ProcessingJob, error)
	// LeaseReady claims up to limit pending jobs whose next attempt is due.
	// Claiming advances each row's next_attempt_at by LeaseDuration so a
	// concurrent worker cannot lease the same batch.
	LeaseReady(ctx context.Context, now time.Time, limit int) ([]*model.ProcessingJob, error)
	MarkDone(ctx context.Context, id int64) error
	// MarkFailed records a transient failure: attempts+1, reschedules.
	MarkFailed(ctx context.Context, id int64, cause string, nextAttempt time.Time) error
	// MarkTerminal retires a job permanently with the captured cause.
	MarkTerminal(ctx context.Context, id int64, cause string) error
}

// HealthPinger is optionally implemented by a Store to expose a liveness
// check. Returns nil when healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
