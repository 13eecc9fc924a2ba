package cloudstorage

import "context"

// Provider mirrors stored archives to a secondary location. Implementations
// must tolerate repeated Puts of the same key (last write wins).
type Provider interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
