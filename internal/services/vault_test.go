package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/secondbrain/vault-service/internal/cloudstorage"
	"github.com/secondbrain/vault-service/internal/model"
	"github.com/secondbrain/vault-service/internal/searchindex"
	"github.com/secondbrain/vault-service/internal/store"
	"github.com/secondbrain/vault-service/internal/store/sqlite"
	"github.com/secondbrain/vault-service/internal/vault"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func newTestService(t *testing.T) (*VaultService, store.Store, searchindex.Index) {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "vaults.db"))
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	blobs := vault.NewBlobStore(t.TempDir())
	idx := searchindex.NewMemoryIndex()
	svc := NewVaultService(st, blobs, vault.NewArchiveValidator(1<<20), idx, fixedEmbedder{}, zerolog.Nop())
	return svc, st, idx
}

func TestUpload_InlineCompletesVault(t *testing.T) {
	svc, _, idx := newTestService(t)
	ctx := context.Background()

	content := buildZip(t, map[string]string{
		"notes/first.md":     "# First Note\n\nbody",
		"notes/second.md":    "no heading here",
		"assets/diagram.png": "binary",
		".obsidian/app.json": "{}",
	})

	v, err := svc.Upload(ctx, "My Vault", "vault.zip", int64(len(content)), content)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if v.Status != model.StatusCompleted {
		t.Fatalf("status = %s, want completed", v.Status)
	}
	if v.FileCount == nil || *v.FileCount != 4 {
		t.Fatalf("fileCount = %v, want 4", v.FileCount)
	}
	if v.ProcessedFiles == nil || *v.ProcessedFiles != *v.FileCount {
		t.Fatalf("processedFiles = %v, want %v", v.ProcessedFiles, v.FileCount)
	}
	if v.ErrorMessage != nil {
		t.Fatalf("errorMessage should be nil, got %q", *v.ErrorMessage)
	}
	if _, err := os.Stat(v.StoragePath); err != nil {
		t.Fatalf("stored archive missing: %v", err)
	}

	// Both notes were indexed
	hits, err := idx.Search(ctx, v.VaultID, "first", []float32{1, 0}, 10, 0.6)
	if err != nil {
		t.Fatalf("index search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("indexed notes = %d, want 2", len(hits))
	}
}

func TestUpload_RejectsNonZipWithoutRecord(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "Bad", "notes.tar.gz", 10, []byte("whatever"))
	if !errors.Is(err, vault.ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
	lst, err := st.Vaults().List(ctx, 0, 10)
	if err != nil || len(lst) != 0 {
		t.Fatalf("rejected upload must not create a record: n=%d err=%v", len(lst), err)
	}
}

func TestProcess_ExtractionFailureMarksVaultFailed(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	content := buildZip(t, map[string]string{"note.md": "# N"})
	v, err := svc.UploadAsync(ctx, "Async", "v.zip", int64(len(content)), content)
	if err != nil {
		t.Fatalf("UploadAsync: %v", err)
	}

	// Sabotage the stored archive so extraction fails
	if err := os.Remove(v.StoragePath); err != nil {
		t.Fatalf("remove blob: %v", err)
	}

	perr := svc.Process(ctx, v.VaultID)
	var ee *vault.ExtractionError
	if !errors.As(perr, &ee) {
		t.Fatalf("want ExtractionError, got %v", perr)
	}

	got, err := svc.GetVault(ctx, v.VaultID)
	if err != nil {
		t.Fatalf("GetVault: %v", err)
	}
	if got.Status != model.StatusFailed {
		t.Fatalf("status = %s, want failed", got.Status)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage == "" {
		t.Fatalf("errorMessage not recorded")
	}
}

func TestUploadAsync_EnqueuesPipelineJob(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	content := buildZip(t, map[string]string{"note.md": "# N"})
	v, err := svc.UploadAsync(ctx, "Async", "v.zip", int64(len(content)), content)
	if err != nil {
		t.Fatalf("UploadAsync: %v", err)
	}
	if v.Status != model.StatusUploaded {
		t.Fatalf("status = %s, want uploaded", v.Status)
	}
	jobs, err := st.Jobs().ListByVault(ctx, v.VaultID)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("jobs: n=%d err=%v", len(jobs), err)
	}
	if jobs[0].Op != OpBeginProcessing || jobs[0].Status != model.JobPending {
		t.Fatalf("bad job: %+v", jobs[0])
	}
}

func TestDeleteVault_RemovesRecordBlobAndIndex(t *testing.T) {
	svc, _, idx := newTestService(t)
	ctx := context.Background()

	content := buildZip(t, map[string]string{"note.md": "# Keep"})
	v, err := svc.Upload(ctx, "Doomed", "v.zip", int64(len(content)), content)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := svc.DeleteVault(ctx, v.VaultID); err != nil {
		t.Fatalf("DeleteVault: %v", err)
	}
	if _, err := svc.GetVault(ctx, v.VaultID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("record survived delete: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(v.StoragePath)); !os.IsNotExist(err) {
		t.Fatalf("blob directory survived delete: %v", err)
	}
	hits, _ := idx.Search(ctx, v.VaultID, "keep", []float32{1, 0}, 10, 0.6)
	if len(hits) != 0 {
		t.Fatalf("index entries survived delete: %+v", hits)
	}

	if err := svc.DeleteVault(ctx, v.VaultID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestUpload_MirrorsArchiveToBackup(t *testing.T) {
	svc, _, _ := newTestService(t)
	backup := cloudstorage.NewLocal(t.TempDir())
	svc.WithBackup(backup)
	ctx := context.Background()

	content := buildZip(t, map[string]string{"note.md": "# N"})
	v, err := svc.Upload(ctx, "Mirrored", "v.zip", int64(len(content)), content)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	mirrored, err := backup.Get(ctx, v.VaultID+"/vault.zip")
	if err != nil || !bytes.Equal(mirrored, content) {
		t.Fatalf("mirror missing or wrong: err=%v", err)
	}

	if err := svc.DeleteVault(ctx, v.VaultID); err != nil {
		t.Fatalf("DeleteVault: %v", err)
	}
	if _, err := backup.Get(ctx, v.VaultID+"/vault.zip"); err == nil {
		t.Fatalf("mirror survived delete")
	}
}

func TestTransition_RejectsIllegalMove(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	content := buildZip(t, map[string]string{"note.md": "# N"})
	v, err := svc.UploadAsync(ctx, "Stuck", "v.zip", int64(len(content)), content)
	if err != nil {
		t.Fatalf("UploadAsync: %v", err)
	}

	if _, err := svc.Transition(ctx, v.VaultID, model.StatusCompleted); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("uploaded -> completed must conflict, got %v", err)
	}
}
