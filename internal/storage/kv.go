package storage

import "context"

// Document keys.
const (
	KeySales       = "sales"
	KeyCommissions = "commissions"
	KeySettings    = "settings"
)

// KV is the load/save collaborator the record store persists through.
// Load reports false when nothing has been stored under key yet.
type KV interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
}
