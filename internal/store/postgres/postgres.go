package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/secondbrain/vault-service/internal/model"
	"github.com/secondbrain/vault-service/internal/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS vaults (
    vault_id          TEXT PRIMARY KEY,
    name              TEXT NOT NULL,
    original_filename TEXT NOT NULL,
    file_size         BIGINT NOT NULL,
    storage_path      TEXT NOT NULL,
    status            TEXT NOT NULL,
    file_count        INTEGER,
    processed_files   INTEGER,
    error_message     TEXT,
    creation_time     TIMESTAMPTZ NOT NULL,
    update_time       TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS processing_jobs (
    id              BIGSERIAL PRIMARY KEY,
    vault_id        TEXT NOT NULL,
    op              TEXT NOT NULL,
    payload         BYTEA,
    status          TEXT NOT NULL DEFAULT 'pending',
    attempts        INTEGER NOT NULL DEFAULT 0,
    next_attempt_at TIMESTAMPTZ NOT NULL,
    last_error      TEXT,
    creation_time   TIMESTAMPTZ NOT NULL,
    update_time     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_ready ON processing_jobs (status, next_attempt_at);
`

// Open opens a PostgreSQL connection using the pgx stdlib driver, verifies
// connectivity and applies the schema.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Vaults() store.Vaults { return &vaults{db: s.db} }
func (s *pgStore) Jobs() store.Jobs     { return &jobs{db: s.db} }

// HealthPing implements store.HealthPinger.
func (s *pgStore) HealthPing(ctx context.Context) error {
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
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
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
        FROM vaults WHERE vault_id=$1
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
        FROM vaults ORDER BY creation_time DESC OFFSET $1 LIMIT $2
    `, offset, limit)
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
        SET status=$2, file_count=$3, processed_files=$4, error_message=$5, update_time=$6
        WHERE vault_id=$1
    `, mv.VaultID, string(mv.Status), mv.FileCount, mv.ProcessedFiles, mv.ErrorMessage, now)
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
	res, err := v.db.ExecContext(ctx, `DELETE FROM vaults WHERE vault_id=$1`, vaultID)
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
	row := j.db.QueryRowContext(ctx, `
        INSERT INTO processing_jobs (vault_id, op, payload, status, attempts, next_attempt_at, last_error, creation_time, update_time)
        VALUES ($1,$2,$3,'pending',0,$4,NULL,$5,$6)
        RETURNING id
    `, out.VaultID, out.Op, out.Payload, out.NextAttemptAt, out.CreationTime, out.UpdateTime)
	if err := row.Scan(&out.ID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (j *jobs) Get(ctx context.Context, id int64) (*model.ProcessingJob, error) {
	row := j.db.QueryRowContext(ctx, `
        SELECT id, vault_id, op, payload, status, attempts, next_attempt_at, last_error, creation_time, update_time
        FROM processing_jobs WHERE id=$1
    `, id)
	return scanJob(row)
}

func (j *jobs) ListByVault(ctx context.Context, vaultID string) ([]*model.ProcessingJob, error) {
	rows, err := j.db.QueryContext(ctx, `
        SELECT id, vault_id, op, payload, status, attempts, next_attempt_at, last_error, creation_time, update_time
        FROM processing_jobs WHERE vault_id=$1 ORDER BY id ASC
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

// LeaseReady claims a batch inside one transaction. SKIP LOCKED keeps
// concurrent workers from blocking on each other, and the next_attempt_at
// bump keeps the claim after commit.
func (j *jobs) LeaseReady(ctx context.Context, now time.Time, limit int) ([]*model.ProcessingJob, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
        SELECT id, vault_id, op, payload, status, attempts, next_attempt_at, last_error, creation_time, update_time
        FROM processing_jobs
        WHERE status='pending' AND next_attempt_at <= $1
        ORDER BY id ASC
        FOR UPDATE SKIP LOCKED
        LIMIT $2
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
            UPDATE processing_jobs SET next_attempt_at=$2, update_time=$3 WHERE id=$1
        `, job.ID, horizon, time.Now().UTC()); err != nil {
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
        UPDATE processing_jobs SET status='done', update_time=$2 WHERE id=$1
    `, id, time.Now().UTC())
	return err
}

func (j *jobs) MarkFailed(ctx context.Context, id int64, cause string, nextAttempt time.Time) error {
	_, err := j.db.ExecContext(ctx, `
        UPDATE processing_jobs
        SET attempts = attempts + 1, last_error=$2, next_attempt_at=$3, update_time=$4
        WHERE id=$1
    `, id, cause, nextAttempt.UTC(), time.Now().UTC())
	return err
}

func (j *jobs) MarkTerminal(ctx context.Context, id int64, cause string) error {
	_, err := j.db.ExecContext(ctx, `
        UPDATE processing_jobs
        SET status='failed', attempts = attempts + 1, last_error=$2, update_time=$3
        WHERE id=$1
    `, id, cause, time.Now().UTC())
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
