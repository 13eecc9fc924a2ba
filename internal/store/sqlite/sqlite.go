package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/secondbrain/vault-service/internal/model"
	"github.com/secondbrain/vault-service/internal/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS vaults (
    vault_id          TEXT PRIMARY KEY,
    name              TEXT NOT NULL,
    original_filename TEXT NOT NULL,
    file_size         INTEGER NOT NULL,
    storage_path      TEXT NOT NULL,
    status            TEXT NOT NULL,
    file_count        INTEGER,
    processed_files   INTEGER,
    error_message     TEXT,
    creation_time     TIMESTAMP NOT NULL,
    update_time       TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS processing_jobs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    vault_id        TEXT NOT NULL,
    op              TEXT NOT NULL,
    payload         BLOB,
    status          TEXT NOT NULL DEFAULT 'pending',
    attempts        INTEGER NOT NULL DEFAULT 0,
    next_attempt_at TIMESTAMP NOT NULL,
    last_error      TEXT,
    creation_time   TIMESTAMP NOT NULL,
    update_time     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_ready ON processing_jobs (status, next_attempt_at);
`

// New opens (or creates) a SQLite-backed store at path.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB allows wiring with an existing connection.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Vaults() store.Vaults { return &vaults{db: s.db} }
func (s *sqliteStore) Jobs() store.Jobs     { return &jobs{db: s.db} }

// HealthPing implements store.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- Vaults ---

type vaults struct{ db *sql.DB }

func (v *vaults) Create(ctx context.Context, mv *model.Vault) (*model.Vault, error) {
	now := time.Now().UTC()
	out := *mv
	out.CreationTime = now
	out.UpdateTime = now
	_, err := v.db.ExecContext(ctx, `
        INSERT INTO vaults (vault_id, name, original_filename, file_size, storage_path, status,
                            file_count, processed_files, error_message, creation_time, update_time)
        VALUES (?,?,?,?,?,?,?,?,?,?,?)
    `, out.VaultID, out.Name, out.OriginalFilename, out.FileSize, out.StoragePath, string(out.Status),
		out.FileCount, out.ProcessedFiles, out.ErrorMessage, out.CreationTime, out.UpdateTime)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (v *vaults) Get(ctx context.Context, vaultID string) (*model.Vault, error) {
	row := v.db.QueryRowContext(ctx, `
        SELECT vault_id, name, original_filename, file_size, storage_path, status,
               file_count, processed_files, error_message, creation_time, update_time
        FROM vaults WHERE vault_id = ?
    `, vaultID)
	return scanVault(row)
}

func (v *vaults) List(ctx context.Context, offset, limit int) ([]*model.Vault, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := v.db.QueryContext(ctx, `
        SELECT vault_id, name, original_filename, file_size, storage_path, status,
               file_count, processed_files, error_message, creation_time, update_time
        FROM vaults ORDER BY creation_time DESC LIMIT ? OFFSET ?
    `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Vault
	for rows.Next() {
		mv, err := scanVault(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, mv)
	}
	return res, rows.Err()
}

func (v *vaults) Update(ctx context.Context, mv *model.Vault) (*model.Vault, error) {
	now := time.Now().UTC()
	res, err := v.db.ExecContext(ctx, `
        UPDATE vaults
        SET status = ?, file_count = ?, processed_files = ?, error_message = ?, update_time = ?
        WHERE vault_id = ?
    `, string(mv.Status), mv.FileCount, mv.ProcessedFiles, mv.ErrorMessage, now, mv.VaultID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	out := *mv
	out.UpdateTime = now
	return &out, nil
}

func (v *vaults) Delete(ctx context.Context, vaultID string) error {
	res, err := v.db.ExecContext(ctx, `DELETE FROM vaults WHERE vault_id = ?`, vaultID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanVault(row rowScanner) (*model.Vault, error) {
	var out model.Vault
	var status string
	err := row.Scan(&out.VaultID, &out.Name, &out.OriginalFilename, &out.FileSize, &out.StoragePath,
		&status, &out.FileCount, &out.ProcessedFiles, &out.ErrorMessage, &out.CreationTime, &out.UpdateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out.Status = model.VaultStatus(status)
	return &out, nil
}

// --- Jobs ---

type jobs struct{ db *sql.DB }

func (j *jobs) Enqueue(ctx context.Context, job *model.ProcessingJob) (*model.ProcessingJob, error) {
	now := time.Now().UTC()
	out := *job
	out.Status = model.JobPending
	out.CreationTime = now
	out.UpdateTime = now
	if out.NextAttemptAt.IsZero() {
		out.NextAttemptAt = now
	}
	res, err := j.db.ExecContext(ctx, `
        INSERT INTO processing_jobs (vault_id, op, payload, status, attempts, next_attempt_at, last_error, creation_time, update_time)
        VALUES (?,?,?,'pending',0,?,NULL,?,?)
    `, out.VaultID, out.Op, out.Payload, out.NextAttemptAt, out.CreationTime, out.UpdateTime)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	out.ID = id
	return &out, nil
}

func (j *jobs) Get(ctx context.Context, id int64) (*model.ProcessingJob, error) {
	row := j.db.QueryRowContext(ctx, `
        SELECT id, vault_id, op, payload, status, attempts, next_attempt_at, last_error, creation_time, update_time
        FROM processing_jobs WHERE id = ?
    `, id)
	return scanJob(row)
}

func (j *jobs) ListByVault(ctx context.Context, vaultID string) ([]*model.ProcessingJob, error) {
	rows, err := j.db.QueryContext(ctx, `
        SELECT id, vault_id, op, payload, status, attempts, next_attempt_at, last_error, creation_time, update_time
        FROM processing_jobs WHERE vault_id = ? ORDER BY id ASC
    `, vaultID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.ProcessingJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, job)
	}
	return res, rows.Err()
}

// LeaseReady claims a batch of due jobs. SQLite has no row locks to skip, so
// the claim is an in-transaction next_attempt_at bump: a concurrent worker's
// lease sees the claimed rows as not yet due.
func (j *jobs) LeaseReady(ctx context.Context, now time.Time, limit int) ([]*model.ProcessingJob, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
        SELECT id, vault_id, op, payload, status, attempts, next_attempt_at, last_error, creation_time, update_time
        FROM processing_jobs
        WHERE status = 'pending' AND next_attempt_at <= ?
        ORDER BY id ASC
        LIMIT ?
    `, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	var res []*model.ProcessingJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		res = append(res, job)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	horizon := now.UTC().Add(store.LeaseDuration)
	for _, job := range res {
		if _, err := tx.ExecContext(ctx, `
            UPDATE processing_jobs SET next_attempt_at = ?, update_time = ? WHERE id = ? AND status = 'pending'
        `, horizon, time.Now().UTC(), job.ID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

func (j *jobs) MarkDone(ctx context.Context, id int64) error {
	_, err := j.db.ExecContext(ctx, `
        UPDATE processing_jobs SET status='done', update_time=? WHERE id=?
    `, time.Now().UTC(), id)
	return err
}

func (j *jobs) MarkFailed(ctx context.Context, id int64, cause string, nextAttempt time.Time) error {
	_, err := j.db.ExecContext(ctx, `
        UPDATE processing_jobs
        SET attempts = attempts + 1, last_error = ?, next_attempt_at = ?, update_time = ?
        WHERE id = ?
    `, cause, nextAttempt.UTC(), time.Now().UTC(), id)
	return err
}

func (j *jobs) MarkTerminal(ctx context.Context, id int64, cause string) error {
	_, err := j.db.ExecContext(ctx, `
        UPDATE processing_jobs
        SET status='failed', attempts = attempts + 1, last_error = ?, update_time = ?
        WHERE id = ?
    `, cause, time.Now().UTC(), id)
	return err
}

func scanJob(row rowScanner) (*model.ProcessingJob, error) {
	var out model.ProcessingJob
	err := row.Scan(&out.ID, &out.VaultID, &out.Op, &out.Payload, &out.Status, &out.Attempts,
		&out.NextAttemptAt, &out.LastError, &out.CreationTime, &out.UpdateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
