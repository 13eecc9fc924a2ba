package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/secondbrain/vault-service/internal/model"
	"github.com/secondbrain/vault-service/internal/store"
)

// Run exercises a minimal compliance suite against a store.Store
// implementation. makeStore should provide a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Create + Get
	id1 := uuid.New().String()
	v1, err := s.Vaults().Create(ctx, &model.Vault{
		VaultID:          id1,
		Name:             "First Vault",
		OriginalFilename: "first.zip",
		FileSize:         42,
		StoragePath:      "/tmp/" + id1 + "/vault.zip",
		Status:           model.StatusUploaded,
	})
	if err != nil {
		t.Fatalf("CreateVault: %v", err)
	}
	if v1.CreationTime.IsZero() || v1.UpdateTime.IsZero() {
		t.Fatalf("CreateVault: timestamps not set")
	}
	got, err := s.Vaults().Get(ctx, id1)
	if err != nil || got.Name != "First Vault" || got.Status != model.StatusUploaded {
		t.Fatalf("GetVault: got=%+v err=%v", got, err)
	}
	if got.FileCount != nil || got.ProcessedFiles != nil || got.ErrorMessage != nil {
		t.Fatalf("GetVault: optional fields must start nil: %+v", got)
	}

	// Get missing -> ErrNotFound
	if _, err := s.Vaults().Get(ctx, uuid.New().String()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing: want ErrNotFound, got %v", err)
	}

	// List ordering: newest first
	time.Sleep(5 * time.Millisecond) // ensure monotonic creation time ordering
	id2 := uuid.New().String()
	if _, err := s.Vaults().Create(ctx, &model.Vault{
		VaultID: id2, Name: "Second Vault", OriginalFilename: "second.zip",
		FileSize: 7, StoragePath: "p2", Status: model.StatusUploaded,
	}); err != nil {
		t.Fatalf("CreateVault 2: %v", err)
	}
	lst, err := s.Vaults().List(ctx, 0, 10)
	if err != nil || len(lst) != 2 {
		t.Fatalf("ListVaults: n=%d err=%v", len(lst), err)
	}
	if lst[0].VaultID != id2 || lst[1].VaultID != id1 {
		t.Fatalf("ListVaults: wrong order: %s, %s", lst[0].VaultID, lst[1].VaultID)
	}

	// Pagination
	page, err := s.Vaults().List(ctx, 1, 1)
	if err != nil || len(page) != 1 || page[0].VaultID != id1 {
		t.Fatalf("ListVaults offset: got=%v err=%v", page, err)
	}

	// Update is a single-row full write of the mutable fields
	fc, pf := 3, 3
	v1.Status = model.StatusCompleted
	v1.FileCount = &fc
	v1.ProcessedFiles = &pf
	upd, err := s.Vaults().Update(ctx, v1)
	if err != nil {
		t.Fatalf("UpdateVault: %v", err)
	}
	if upd.UpdateTime.Before(upd.CreationTime) {
		t.Fatalf("UpdateVault: update_time not advanced")
	}
	got, err = s.Vaults().Get(ctx, id1)
	if err != nil || got.Status != model.StatusCompleted || got.FileCount == nil || *got.FileCount != 3 {
		t.Fatalf("Get after update: got=%+v err=%v", got, err)
	}

	// Update missing -> ErrNotFound
	if _, err := s.Vaults().Update(ctx, &model.Vault{VaultID: uuid.New().String(), Status: model.StatusFailed}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Update missing: want ErrNotFound, got %v", err)
	}

	// Jobs: enqueue, lease, retry bookkeeping, terminal
	j, err := s.Jobs().Enqueue(ctx, &model.ProcessingJob{
		VaultID: id1, Op: "extract", Payload: []byte(`{"k":"v"}`),
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if j.ID == 0 || j.Status != model.JobPending || j.Attempts != 0 {
		t.Fatalf("Enqueue: bad job %+v", j)
	}

	ready, err := s.Jobs().LeaseReady(ctx, time.Now().UTC(), 10)
	if err != nil || len(ready) != 1 || ready[0].ID != j.ID {
		t.Fatalf("LeaseReady: n=%d err=%v", len(ready), err)
	}
	if string(ready[0].Payload) != `{"k":"v"}` {
		t.Fatalf("LeaseReady: payload round-trip: %q", ready[0].Payload)
	}

	// The claim must hold: a second worker polling right away gets nothing
	again, err := s.Jobs().LeaseReady(ctx, time.Now().UTC(), 10)
	if err != nil || len(again) != 0 {
		t.Fatalf("LeaseReady while claimed: n=%d err=%v", len(again), err)
	}
	jg0, err := s.Jobs().Get(ctx, j.ID)
	if err != nil || !jg0.NextAttemptAt.After(time.Now().UTC().Add(time.Minute)) {
		t.Fatalf("LeaseReady: claim did not advance next_attempt_at: %+v err=%v", jg0, err)
	}

	// Transient failure reschedules into the future and bumps attempts
	next := time.Now().UTC().Add(time.Hour)
	if err := s.Jobs().MarkFailed(ctx, j.ID, "disk hiccup", next); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	ready, err = s.Jobs().LeaseReady(ctx, time.Now().UTC(), 10)
	if err != nil || len(ready) != 0 {
		t.Fatalf("LeaseReady after backoff: n=%d err=%v", len(ready), err)
	}
	jg, err := s.Jobs().Get(ctx, j.ID)
	if err != nil || jg.Attempts != 1 || jg.LastError == nil || *jg.LastError != "disk hiccup" {
		t.Fatalf("Get job after failure: %+v err=%v", jg, err)
	}

	// Once due again, it is leased once more
	ready, err = s.Jobs().LeaseReady(ctx, time.Now().UTC().Add(2*time.Hour), 10)
	if err != nil || len(ready) != 1 {
		t.Fatalf("LeaseReady after due: n=%d err=%v", len(ready), err)
	}

	if err := s.Jobs().MarkDone(ctx, j.ID); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	ready, err = s.Jobs().LeaseReady(ctx, time.Now().UTC().Add(2*time.Hour), 10)
	if err != nil || len(ready) != 0 {
		t.Fatalf("LeaseReady after done: n=%d err=%v", len(ready), err)
	}

	// Terminal failure retires the job but keeps the audit row
	j2, err := s.Jobs().Enqueue(ctx, &model.ProcessingJob{VaultID: id1, Op: "analyze"})
	if err != nil {
		t.Fatalf("Enqueue 2: %v", err)
	}
	if err := s.Jobs().MarkTerminal(ctx, j2.ID, "unsafe archive"); err != nil {
		t.Fatalf("MarkTerminal: %v", err)
	}
	audit, err := s.Jobs().ListByVault(ctx, id1)
	if err != nil || len(audit) != 2 {
		t.Fatalf("ListByVault: n=%d err=%v", len(audit), err)
	}
	if audit[1].Status != model.JobFailed || audit[1].LastError == nil {
		t.Fatalf("ListByVault: terminal job not recorded: %+v", audit[1])
	}

	// Delete cascades nothing here but must remove the row exactly once
	if err := s.Vaults().Delete(ctx, id1); err != nil {
		t.Fatalf("DeleteVault: %v", err)
	}
	if err := s.Vaults().Delete(ctx, id1); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteVault twice: want ErrNotFound, got %v", err)
	}
	if _, err := s.Vaults().Get(ctx, id1); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get after delete: want ErrNotFound, got %v", err)
	}
}
