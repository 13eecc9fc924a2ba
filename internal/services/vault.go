package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/secondbrain/vault-service/internal/cloudstorage"
	"github.com/secondbrain/vault-service/internal/embeddings"
	"github.com/secondbrain/vault-service/internal/model"
	"github.com/secondbrain/vault-service/internal/searchindex"
	"github.com/secondbrain/vault-service/internal/store"
	"github.com/secondbrain/vault-service/internal/vault"
)

// OpBeginProcessing is the first pipeline operation enqueued for an
// asynchronous upload. The worker owns the remaining steps.
const OpBeginProcessing = "begin_processing"

// VaultService orchestrates the ingestion pipeline: validate, persist the
// blob, create the record, then either run the pipeline inline or hand it to
// the job queue.
type VaultService struct {
	store     store.Store
	blobs     *vault.BlobStore
	validator *vault.ArchiveValidator
	analyzer  *vault.Analyzer
	idx       searchindex.Index
	embedder  embeddings.Provider
	backup    cloudstorage.Provider
	log       zerolog.Logger
}

func NewVaultService(s store.Store, blobs *vault.BlobStore, v *vault.ArchiveValidator, idx searchindex.Index, emb embeddings.Provider, log zerolog.Logger) *VaultService {
	return &VaultService{
		store:     s,
		blobs:     blobs,
		validator: v,
		analyzer:  vault.NewAnalyzer(log),
		idx:       idx,
		embedder:  emb,
		log:       log,
	}
}

// WithBackup enables best-effort archive mirroring to a secondary store.
func (s *VaultService) WithBackup(p cloudstorage.Provider) *VaultService {
	s.backup = p
	return s
}

// Upload runs the full pipeline inline: the vault returned is either
// completed or failed, and a pipeline failure is also reflected on the
// record before the error propagates.
func (s *VaultService) Upload(ctx context.Context, name, filename string, size int64, content []byte) (*model.Vault, error) {
	v, err := s.admit(ctx, name, filename, size, content)
	if err != nil {
		return nil, err
	}

	if err := s.Process(ctx, v.VaultID); err != nil {
		// The failure is already on the record; hand back both.
		if cur, gerr := s.GetVault(ctx, v.VaultID); gerr == nil {
			return cur, err
		}
		return v, err
	}
	return s.GetVault(ctx, v.VaultID)
}

// UploadAsync validates and persists the upload, then enqueues the pipeline
// instead of running it. The returned vault is still in the uploaded state.
func (s *VaultService) UploadAsync(ctx context.Context, name, filename string, size int64, content []byte) (*model.Vault, error) {
	v, err := s.admit(ctx, name, filename, size, content)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Jobs().Enqueue(ctx, &model.ProcessingJob{VaultID: v.VaultID, Op: OpBeginProcessing}); err != nil {
		// The record exists but nothing will process it; fail it loudly.
		s.MarkFailed(ctx, v.VaultID, "failed to schedule processing: "+err.Error())
		return nil, err
	}
	return v, nil
}

// admit is the shared front half of both upload paths: validation never
// touches storage, and a storage failure never creates a record.
func (s *VaultService) admit(ctx context.Context, name, filename string, size int64, content []byte) (*model.Vault, error) {
	if err := s.validator.Validate(filename, size, content); err != nil {
		return nil, err
	}

	vaultID := uuid.New().String()
	storagePath, err := s.blobs.Save(vaultID, content)
	if err != nil {
		return nil, err
	}

	v, err := s.store.Vaults().Create(ctx, &model.Vault{
		VaultID:          vaultID,
		Name:             name,
		OriginalFilename: filename,
		FileSize:         size,
		StoragePath:      storagePath,
		Status:           model.StatusUploaded,
	})
	if err != nil {
		_ = s.blobs.Remove(storagePath)
		return nil, err
	}

	if s.backup != nil {
		if err := s.backup.Put(ctx, vaultID+"/vault.zip", content); err != nil {
			s.log.Warn().Err(err).Str("vaultId", vaultID).Msg("archive mirror failed")
		}
	}
	return v, nil
}

// Process runs extraction and analysis for an admitted vault and drives the
// status machine to completed, or to failed with the cause on the record.
// Both the inline path and the queued worker funnel through here.
func (s *VaultService) Process(ctx context.Context, vaultID string) error {
	if _, err := s.Transition(ctx, vaultID, model.StatusProcessing); err != nil {
		return err
	}

	res, err := s.Extract(ctx, vaultID)
	if err != nil {
		s.MarkFailed(ctx, vaultID, err.Error())
		return err
	}

	analysis, err := s.Analyze(ctx, vaultID, res)
	if err != nil {
		s.MarkFailed(ctx, vaultID, err.Error())
		return err
	}

	if err := s.Finalize(ctx, vaultID, res, analysis); err != nil {
		s.MarkFailed(ctx, vaultID, err.Error())
		return err
	}
	return nil
}

// Extract unpacks the stored archive for vaultID and classifies its files.
func (s *VaultService) Extract(ctx context.Context, vaultID string) (*vault.ExtractionResult, error) {
	v, err := s.store.Vaults().Get(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	return vault.Extract(v.StoragePath)
}

// Analyze derives note statistics from an extraction result.
func (s *VaultService) Analyze(ctx context.Context, vaultID string, res *vault.ExtractionResult) (*vault.AnalysisResult, error) {
	return s.analyzer.Analyze(res.Root, res.Notes)
}

// Finalize folds the pipeline results into the record, marks the vault
// completed, and indexes notes best-effort.
func (s *VaultService) Finalize(ctx context.Context, vaultID string, res *vault.ExtractionResult, analysis *vault.AnalysisResult) error {
	v, err := s.store.Vaults().Get(ctx, vaultID)
	if err != nil {
		return err
	}
	if !v.Status.CanTransition(model.StatusCompleted) {
		return fmt.Errorf("%w: cannot complete vault in status %s", model.ErrConflict, v.Status)
	}
	fc := res.FileCount
	pf := res.FileCount
	v.Status = model.StatusCompleted
	v.FileCount = &fc
	v.ProcessedFiles = &pf
	v.ErrorMessage = nil
	if _, err := s.store.Vaults().Update(ctx, v); err != nil {
		return err
	}

	s.log.Info().Str("vaultId", vaultID).
		Int("fileCount", res.FileCount).
		Int("notes", len(res.Notes)).
		Float64("averageNoteLength", analysis.AverageNoteLength).
		Msg("vault processing completed")

	s.indexNotes(ctx, v, res)
	return nil
}

// Transition re-reads the vault and applies a guarded status change.
func (s *VaultService) Transition(ctx context.Context, vaultID string, next model.VaultStatus) (*model.Vault, error) {
	v, err := s.store.Vaults().Get(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if !v.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: illegal status transition %s -> %s", model.ErrConflict, v.Status, next)
	}
	v.Status = next
	return s.store.Vaults().Update(ctx, v)
}

// MarkFailed records a terminal failure on the vault. Best-effort: if the
// record is already terminal or unreachable the cause is only logged.
func (s *VaultService) MarkFailed(ctx context.Context, vaultID, cause string) {
	v, err := s.store.Vaults().Get(ctx, vaultID)
	if err != nil {
		s.log.Error().Err(err).Str("vaultId", vaultID).Str("cause", cause).Msg("cannot mark vault failed")
		return
	}
	if !v.Status.CanTransition(model.StatusFailed) {
		s.log.Warn().Str("vaultId", vaultID).Str("status", string(v.Status)).Str("cause", cause).Msg("vault already terminal, failure not recorded")
		return
	}
	v.Status = model.StatusFailed
	v.ErrorMessage = &cause
	if _, err := s.store.Vaults().Update(ctx, v); err != nil {
		s.log.Error().Err(err).Str("vaultId", vaultID).Str("cause", cause).Msg("failed to record vault failure")
	}
}

func (s *VaultService) GetVault(ctx context.Context, vaultID string) (*model.Vault, error) {
	return s.store.Vaults().Get(ctx, vaultID)
}

func (s *VaultService) ListVaults(ctx context.Context, offset, limit int) ([]*model.Vault, error) {
	return s.store.Vaults().List(ctx, offset, limit)
}

// DeleteVault removes the record, the stored blob and any indexed notes.
// Index and blob cleanup are best-effort; the record delete decides the
// outcome so a missing vault surfaces as ErrNotFound.
func (s *VaultService) DeleteVault(ctx context.Context, vaultID string) error {
	v, err := s.store.Vaults().Get(ctx, vaultID)
	if err != nil {
		return err
	}
	if s.idx != nil {
		if err := s.idx.DeleteVault(ctx, vaultID); err != nil {
			s.log.Warn().Err(err).Str("vaultId", vaultID).Msg("index cleanup failed during vault delete")
		}
	}
	if err := s.blobs.Remove(v.StoragePath); err != nil {
		s.log.Warn().Err(err).Str("vaultId", vaultID).Msg("blob cleanup failed during vault delete")
	}
	if s.backup != nil {
		if err := s.backup.Delete(ctx, vaultID+"/vault.zip"); err != nil {
			s.log.Warn().Err(err).Str("vaultId", vaultID).Msg("mirror cleanup failed during vault delete")
		}
	}
	return s.store.Vaults().Delete(ctx, vaultID)
}

// indexNotes pushes each extracted note into the vector index. Failures are
// logged and never affect the vault's completed status.
func (s *VaultService) indexNotes(ctx context.Context, v *model.Vault, res *vault.ExtractionResult) {
	if s.idx == nil {
		return
	}
	for _, rel := range res.Notes {
		content, err := os.ReadFile(filepath.Join(res.Root, filepath.FromSlash(rel)))
		if err != nil {
			s.log.Warn().Err(err).Str("note", rel).Msg("skipping note during indexing")
			continue
		}
		text := string(content)

		var vec []float32
		if s.embedder != nil {
			vec, err = s.embedder.Embed(ctx, text)
			if err != nil {
				s.log.Warn().Err(err).Str("note", rel).Msg("embedding failed, indexing without vector")
				vec = nil
			}
		}

		payload := map[string]interface{}{
			"noteId":       uuid.New().String(),
			"vaultId":      v.VaultID,
			"title":        vault.NoteTitle(rel, text),
			"path":         rel,
			"content":      text,
			"creationTime": strfmt.DateTime(time.Now().UTC()),
		}
		noteID, _ := payload["noteId"].(string)
		if err := s.idx.UpsertNote(ctx, noteID, vec, payload); err != nil {
			s.log.Warn().Err(err).Str("note", rel).Msg("note indexing failed")
		}
	}
}
