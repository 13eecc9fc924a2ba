package cloudstorage

import (
	"bytes"
	"context"
	"reflect"
	"testing"
)

func TestLocalPutGetDelete(t *testing.T) {
	l := NewLocal(t.TempDir())
	ctx := context.Background()

	if err := l.Put(ctx, "v1/vault.zip", []byte("archive")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := l.Get(ctx, "v1/vault.zip")
	if err != nil || !bytes.Equal(got, []byte("archive")) {
		t.Fatalf("Get: %q err=%v", got, err)
	}

	// Overwrite is last-write-wins
	if err := l.Put(ctx, "v1/vault.zip", []byte("newer")); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, _ = l.Get(ctx, "v1/vault.zip")
	if string(got) != "newer" {
		t.Fatalf("overwrite not applied: %q", got)
	}

	if err := l.Delete(ctx, "v1/vault.zip"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := l.Get(ctx, "v1/vault.zip"); err == nil {
		t.Fatalf("Get after delete should fail")
	}
	// Deleting a missing key is a no-op
	if err := l.Delete(ctx, "v1/vault.zip"); err != nil {
		t.Fatalf("Delete twice: %v", err)
	}
}

func TestLocalListByPrefix(t *testing.T) {
	l := NewLocal(t.TempDir())
	ctx := context.Background()

	_ = l.Put(ctx, "a/one.zip", []byte("1"))
	_ = l.Put(ctx, "a/two.zip", []byte("2"))
	_ = l.Put(ctx, "b/three.zip", []byte("3"))

	keys, err := l.List(ctx, "a/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"a/one.zip", "a/two.zip"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
}

func TestLocalListEmptyRoot(t *testing.T) {
	l := NewLocal(t.TempDir() + "/never-created")
	keys, err := l.List(context.Background(), "")
	if err != nil || len(keys) != 0 {
		t.Fatalf("List on missing root: keys=%v err=%v", keys, err)
	}
}
