package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/secondbrain/vault-service/internal/model"
	"github.com/secondbrain/vault-service/internal/services"
	"github.com/secondbrain/vault-service/internal/store"
	"github.com/secondbrain/vault-service/internal/vault"
)

// Pipeline operation names stored in processing_jobs.op. Each step enqueues
// its successor with the step output as the payload, so a crash between steps
// resumes from the last completed one.
const (
	OpExtract  = "extract"
	OpAnalyze  = "analyze"
	OpFinalize = "finalize"
)

// Config controls batch size, polling cadence and per-step timeout.
type Config struct {
	BatchSize   int           // number of jobs to lease per cycle
	Interval    time.Duration // poll interval
	StepTimeout time.Duration // wall-clock limit per step execution
	Policy      RetryPolicy
}

// Worker drains the processing job queue and drives vaults through the
// ingestion pipeline.
type Worker struct {
	store  store.Store
	vaults *services.VaultService
	cfg    Config
	log    zerolog.Logger
}

// NewWorker constructs a Worker from dependencies.
func NewWorker(s store.Store, svc *services.VaultService, cfg Config, log zerolog.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = time.Hour
	}
	if cfg.Policy.MaxAttempts <= 0 {
		cfg.Policy = DefaultRetryPolicy()
	}
	if cfg.Policy.Retryable == nil {
		cfg.Policy.Retryable = vault.Retryable
	}
	return &Worker{store: s, vaults: svc, cfg: cfg, log: log}
}

// Run starts the polling loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("batch", w.cfg.BatchSize).Dur("interval", w.cfg.Interval).Msg("pipeline worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("pipeline worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.processOnce(ctx); err != nil {
				// Log and continue; per-job backoff prevents hot-looping
				w.log.Error().Err(err).Msg("pipeline processOnce")
			}
		}
	}
}

// processOnce leases one batch and settles every job in it. The leased count
// is returned so callers can tell an idle cycle from a busy one.
func (w *Worker) processOnce(ctx context.Context) (int, error) {
	jobs, err := w.store.Jobs().LeaseReady(ctx, time.Now().UTC(), w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	for _, j := range jobs {
		stepCtx, cancel := context.WithTimeout(ctx, w.cfg.StepTimeout)
		err := w.handle(stepCtx, j)
		cancel()
		if err == nil {
			if e := w.store.Jobs().MarkDone(ctx, j.ID); e != nil {
				w.log.Error().Err(e).Int64("id", j.ID).Msg("markDone error")
			}
			continue
		}
		w.settleFailure(ctx, j, err)
	}
	return len(jobs), nil
}

// settleFailure applies the retry policy to a failed step: transient errors
// reschedule with backoff, everything else retires the job and fails the
// vault with the captured cause.
func (w *Worker) settleFailure(ctx context.Context, j *model.ProcessingJob, err error) {
	cause := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		cause = fmt.Sprintf("step %s timed out after %s", j.Op, w.cfg.StepTimeout)
	}

	// The vault is gone; nothing left to fail, retire the job quietly.
	if errors.Is(err, model.ErrNotFound) {
		if e := w.store.Jobs().MarkTerminal(ctx, j.ID, "vault no longer exists"); e != nil {
			w.log.Error().Err(e).Int64("id", j.ID).Msg("markTerminal error")
		}
		return
	}

	exhausted := j.Attempts+1 >= w.cfg.Policy.MaxAttempts
	if !w.cfg.Policy.Retryable(err) || exhausted {
		w.log.Error().Err(err).Int64("id", j.ID).Str("vaultId", j.VaultID).Str("op", j.Op).Msg("pipeline step failed terminally")
		if e := w.store.Jobs().MarkTerminal(ctx, j.ID, cause); e != nil {
			w.log.Error().Err(e).Int64("id", j.ID).Msg("markTerminal error")
		}
		w.vaults.MarkFailed(ctx, j.VaultID, cause)
		return
	}

	next := time.Now().UTC().Add(w.cfg.Policy.Backoff(j.Attempts))
	w.log.Warn().Err(err).Int64("id", j.ID).Str("op", j.Op).Int("attempts", j.Attempts+1).Time("nextAttempt", next).Msg("pipeline step failed, rescheduling")
	if e := w.store.Jobs().MarkFailed(ctx, j.ID, cause, next); e != nil {
		w.log.Error().Err(e).Int64("id", j.ID).Msg("markFailed error")
	}
}

// finalizePayload carries the extraction and analysis outputs between the
// analyze and finalize steps.
type finalizePayload struct {
	Extraction *vault.ExtractionResult `json:"extraction"`
	Analysis   *vault.AnalysisResult   `json:"analysis"`
}

// handle executes one pipeline step and, on success, enqueues the next.
func (w *Worker) handle(ctx context.Context, j *model.ProcessingJob) error {
	switch j.Op {
	case services.OpBeginProcessing:
		v, err := w.vaults.GetVault(ctx, j.VaultID)
		if err != nil {
			return err
		}
		switch v.Status {
		case model.StatusUploaded:
			if _, err := w.vaults.Transition(ctx, j.VaultID, model.StatusProcessing); err != nil {
				return err
			}
		case model.StatusProcessing:
			// re-delivery after a crash; the transition already happened
		default:
			w.log.Warn().Str("vaultId", j.VaultID).Str("status", string(v.Status)).Msg("skipping pipeline for terminal vault")
			return nil
		}
		return w.enqueue(ctx, j.VaultID, OpExtract, nil)

	case OpExtract:
		res, err := w.vaults.Extract(ctx, j.VaultID)
		if err != nil {
			return err
		}
		return w.enqueue(ctx, j.VaultID, OpAnalyze, res)

	case OpAnalyze:
		var res vault.ExtractionResult
		if err := json.Unmarshal(j.Payload, &res); err != nil {
			return fmt.Errorf("bad analyze payload: %v", err)
		}
		analysis, err := w.vaults.Analyze(ctx, j.VaultID, &res)
		if err != nil {
			return err
		}
		return w.enqueue(ctx, j.VaultID, OpFinalize, finalizePayload{Extraction: &res, Analysis: analysis})

	case OpFinalize:
		var p finalizePayload
		if err := json.Unmarshal(j.Payload, &p); err != nil || p.Extraction == nil || p.Analysis == nil {
			return fmt.Errorf("bad finalize payload: %v", err)
		}
		return w.vaults.Finalize(ctx, j.VaultID, p.Extraction, p.Analysis)

	default:
		return fmt.Errorf("unknown op: %s", j.Op)
	}
}

func (w *Worker) enqueue(ctx context.Context, vaultID, op string, payload interface{}) error {
	var raw []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = b
	}
	_, err := w.store.Jobs().Enqueue(ctx, &model.ProcessingJob{VaultID: vaultID, Op: op, Payload: raw})
	return err
}
