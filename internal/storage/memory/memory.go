package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"diamonds/internal/storage"
)

// Store is an in-process KV. Values are copied on the way in and out so
// callers can never alias the stored bytes.
type Store struct {
	mu   sync.Mutex
	docs map[string][]byte
}

var _ storage.KV = (*Store)(nil)

func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// NewFromFiles seeds the store from <key>.json files under base. Missing
// files are skipped; their keys load as absent.
func NewFromFiles(base string) *Store {
	s := New()
	for _, key := range []string{storage.KeySales, storage.KeyCommissions, storage.KeySettings} {
		b, err := os.ReadFile(filepath.Join(base, key+".json"))
		if err != nil {
			continue
		}
		s.docs[key] = b
	}
	return s
}

// Load implements storage.KV
func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

// Save implements storage.KV
func (s *Store) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append([]byte(nil), value...)
	return nil
}
