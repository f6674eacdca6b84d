package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"diamonds/internal/core"
	"diamonds/internal/log"
	"diamonds/internal/settings"
	"diamonds/internal/storage"
)

var ErrNotFound = errors.New("record not found")

// Notifier is told about every successful mutation.
type Notifier interface {
	LedgerChanged(ctx context.Context, collection, operation, id string) error
}

// Snapshot is a consistent view of both collections. The slices are never
// modified after being handed out; every mutation builds new ones.
type Snapshot struct {
	Sales       []core.Sale              `json:"sales"`
	Commissions []core.MonthlyCommission `json:"commissions"`
}

// Store owns the sale and commission collections and the settings, and
// writes each one back through the KV after every change.
type Store struct {
	mu          sync.RWMutex
	kv          storage.KV
	sales       []core.Sale
	commissions []core.MonthlyCommission
	settings    settings.Settings

	newID    func() string
	now      func() time.Time
	notifier Notifier
	logger   *log.Logger
}

type Option func(*Store)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStore) }
}

// New returns an empty store. Call Load to populate it from kv.
func New(kv storage.KV, defaults settings.Settings, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		settings: defaults,
		newID:    uuid.NewString,
		now:      time.Now,
		logger:   log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the three documents. Undecodable documents never fail the load:
// sales fall back to an empty collection, commissions to DefaultCommissions
// and settings to the defaults given to New. Only KV read errors are
// returned.
func (s *Store) Load(ctx context.Context) error {
	year := s.now().Year()

	sales := []core.Sale{}
	if b, ok, err := s.kv.Load(ctx, storage.KeySales); err != nil {
		return fmt.Errorf("load sales: %w", err)
	} else if ok {
		decoded, err := storage.DecodeSales(b)
		if err != nil {
			s.logFallback(ctx, storage.KeySales, err)
		} else {
			sales = decoded
		}
	}

	commissions := []core.MonthlyCommission{}
	if b, ok, err := s.kv.Load(ctx, storage.KeyCommissions); err != nil {
		return fmt.Errorf("load commissions: %w", err)
	} else if ok {
		decoded, err := storage.DecodeCommissions(b, year)
		if err != nil {
			s.logFallback(ctx, storage.KeyCommissions, err)
			commissions = DefaultCommissions(year)
		} else {
			commissions = decoded
		}
	}

	st := s.settings
	if b, ok, err := s.kv.Load(ctx, storage.KeySettings); err != nil {
		return fmt.Errorf("load settings: %w", err)
	} else if ok {
		var decoded settings.Settings
		if err := json.Unmarshal(b, &decoded); err != nil {
			s.logFallback(ctx, storage.KeySettings, err)
		} else if err := decoded.Validate(); err != nil {
			s.logFallback(ctx, storage.KeySettings, err)
		} else {
			st = decoded
		}
	}

	s.mu.Lock()
	s.sales, s.commissions, s.settings = sales, commissions, st
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Ledger loaded",
		"sales", len(sales),
		"commissions", len(commissions))
	return nil
}

func (s *Store) logFallback(ctx context.Context, key string, err error) {
	s.logger.LogError(ctx, "Stored document unreadable, using defaults", err, log.OpLoad,
		log.NewFields().WithRecord(key, ""))
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Sales: s.sales, Commissions: s.commissions}
}

func (s *Store) Settings() settings.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// AddSale validates the sale, assigns an id when it has none and appends it.
func (s *Store) AddSale(ctx context.Context, sale core.Sale) (core.Sale, error) {
	if err := sale.Validate(); err != nil {
		return core.Sale{}, err
	}
	if sale.ID == "" {
		sale.ID = s.newID()
	}

	s.mu.Lock()
	next := make([]core.Sale, len(s.sales), len(s.sales)+1)
	copy(next, s.sales)
	s.sales = append(next, sale)
	s.persistSales(ctx)
	s.mu.Unlock()

	s.changed(ctx, storage.KeySales, log.OpCreate, sale.ID)
	return sale, nil
}

// UpdateSale replaces the sale with the same id.
func (s *Store) UpdateSale(ctx context.Context, sale core.Sale) error {
	if err := sale.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	next, ok := replaceByID(s.sales, sale, func(x core.Sale) string { return x.ID })
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.sales = next
	s.persistSales(ctx)
	s.mu.Unlock()

	s.changed(ctx, storage.KeySales, log.OpUpdate, sale.ID)
	return nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	s.mu.Lock()
	next, ok := removeByID(s.sales, id, func(x core.Sale) string { return x.ID })
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.sales = next
	s.persistSales(ctx)
	s.mu.Unlock()

	s.changed(ctx, storage.KeySales, log.OpDelete, id)
	return nil
}

// AddCommission validates the commission, assigns an id when it has none and
// appends it.
func (s *Store) AddCommission(ctx context.Context, c core.MonthlyCommission) (core.MonthlyCommission, error) {
	if err := c.Validate(); err != nil {
		return core.MonthlyCommission{}, err
	}
	if c.ID == "" {
		c.ID = s.newID()
	}

	s.mu.Lock()
	next := make([]core.MonthlyCommission, len(s.commissions), len(s.commissions)+1)
	copy(next, s.commissions)
	s.commissions = append(next, c)
	s.persistCommissions(ctx)
	s.mu.Unlock()

	s.changed(ctx, storage.KeyCommissions, log.OpCreate, c.ID)
	return c, nil
}

// UpdateCommission replaces the whole commission record with the same id.
func (s *Store) UpdateCommission(ctx context.Context, c core.MonthlyCommission) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	next, ok := replaceByID(s.commissions, c, func(x core.MonthlyCommission) string { return x.ID })
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.commissions = next
	s.persistCommissions(ctx)
	s.mu.Unlock()

	s.changed(ctx, storage.KeyCommissions, log.OpUpdate, c.ID)
	return nil
}

func (s *Store) DeleteCommission(ctx context.Context, id string) error {
	s.mu.Lock()
	next, ok := removeByID(s.commissions, id, func(x core.MonthlyCommission) string { return x.ID })
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.commissions = next
	s.persistCommissions(ctx)
	s.mu.Unlock()

	s.changed(ctx, storage.KeyCommissions, log.OpDelete, id)
	return nil
}

// UpdateSettings replaces the settings after validating them.
func (s *Store) UpdateSettings(ctx context.Context, st settings.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.settings = st
	if b, err := json.Marshal(st); err != nil {
		s.logSaveError(ctx, storage.KeySettings, err)
	} else {
		s.save(ctx, storage.KeySettings, b)
	}
	s.mu.Unlock()

	s.changed(ctx, storage.KeySettings, log.OpUpdate, "")
	return nil
}

// persistSales and persistCommissions must be called with mu held so the
// stored document always matches the in-memory collection.
func (s *Store) persistSales(ctx context.Context) {
	b, err := storage.EncodeSales(s.sales)
	if err != nil {
		s.logSaveError(ctx, storage.KeySales, err)
		return
	}
	s.save(ctx, storage.KeySales, b)
}

func (s *Store) persistCommissions(ctx context.Context) {
	b, err := storage.EncodeCommissions(s.commissions)
	if err != nil {
		s.logSaveError(ctx, storage.KeyCommissions, err)
		return
	}
	s.save(ctx, storage.KeyCommissions, b)
}

func (s *Store) save(ctx context.Context, key string, b []byte) {
	if err := s.kv.Save(ctx, key, b); err != nil {
		s.logSaveError(ctx, key, err)
	}
}

func (s *Store) logSaveError(ctx context.Context, key string, err error) {
	s.logger.LogError(ctx, "Failed to persist collection", err, log.OpSave,
		log.NewFields().WithRecord(key, ""))
}

func (s *Store) changed(ctx context.Context, collection, op, id string) {
	s.logger.LogMutation(ctx, collection, op, id)
	if s.notifier == nil {
		return
	}
	if err := s.notifier.LedgerChanged(ctx, collection, op, id); err != nil {
		// The change is already applied and stored; the event is best effort.
		s.logger.LogError(ctx, "Failed to publish ledger change", err, log.OpPublish,
			log.NewFields().WithRecord(collection, id))
	}
}

func replaceByID[T any](in []T, rec T, idOf func(T) string) ([]T, bool) {
	id := idOf(rec)
	for i := range in {
		if idOf(in[i]) == id {
			out := make([]T, len(in))
			copy(out, in)
			out[i] = rec
			return out, true
		}
	}
	return in, false
}

func removeByID[T any](in []T, id string, idOf func(T) string) ([]T, bool) {
	for i := range in {
		if idOf(in[i]) == id {
			out := make([]T, 0, len(in)-1)
			out = append(out, in[:i]...)
			return append(out, in[i+1:]...), true
		}
	}
	return in, false
}
