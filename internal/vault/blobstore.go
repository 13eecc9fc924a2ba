package vault

import (
	"fmt"
	"os"
	"path/filepath"
)

// archiveName is the fixed filename of the stored upload inside a vault's
// storage directory. The original client filename is kept on the record.
const archiveName = "vault.zip"

// BlobStore persists raw uploaded bytes under per-vault directories.
type BlobStore struct {
	root string
}

// NewBlobStore returns a store rooted at dir. The directory is created lazily
// on first write.
func NewBlobStore(dir string) *BlobStore {
	return &BlobStore{root: dir}
}

// Save writes data under a fresh vault directory and returns the storage path.
// The write goes to a temp file first and is renamed into place so a
// concurrent reader never observes a partial archive. Any failure surfaces as
// ErrStorageWrite and nothing is left behind.
func (b *BlobStore) Save(vaultID string, data []byte) (string, error) {
	dir := filepath.Join(b.root, vaultID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	dst := filepath.Join(dir, archiveName)
	tmp, err := os.CreateTemp(dir, archiveName+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return dst, nil
}

// Remove deletes the vault directory owning storagePath, including the stored
// archive and any extracted tree.
func (b *BlobStore) Remove(storagePath string) error {
	if storagePath == "" {
		return nil
	}
	return os.RemoveAll(filepath.Dir(storagePath))
}
