package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"diamonds/internal/core"
	"diamonds/internal/settings"
	"diamonds/internal/storage"
	"diamonds/internal/storage/memory"
)

type event struct{ collection, op, id string }

type fakeNotifier struct {
	events []event
	err    error
}

func (f *fakeNotifier) LedgerChanged(_ context.Context, collection, op, id string) error {
	f.events = append(f.events, event{collection, op, id})
	return f.err
}

type failingKV struct{ loadErr, saveErr error }

func (f failingKV) Load(context.Context, string) ([]byte, bool, error) { return nil, false, f.loadErr }
func (f failingKV) Save(context.Context, string, []byte) error { return f.saveErr }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func fixedClock() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }

func newTestStore(t *testing.T, kv storage.KV, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithIDGenerator(sequentialIDs()), WithClock(fixedClock)}, opts...)
	s := New(kv, settings.Default(), opts...)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestLoadEmptyKV(t *testing.T) {
	s := newTestStore(t, memory.New())
	snap := s.Snapshot()
	if len(snap.Sales) != 0 || len(snap.Commissions) != 0 {
		t.Fatalf("expected empty collections, got %+v", snap)
	}
	if s.Settings() != settings.Default() {
		t.Fatalf("expected default settings")
	}
}

func TestLoadFallsBackOnMalformedDocuments(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	_ = kv.Save(ctx, storage.KeySales, []byte(`{{{`))
	_ = kv.Save(ctx, storage.KeyCommissions, []byte(`{"version":1,"records":"nope"}`))
	_ = kv.Save(ctx, storage.KeySettings, []byte(`{"partnerAName":"A","partnerBName":"B","partnerAPercentage":90,"partnerBPercentage":90}`))

	s := newTestStore(t, kv)
	snap := s.Snapshot()
	if len(snap.Sales) != 0 {
		t.Fatalf("malformed sales should load as empty, got %+v", snap.Sales)
	}
	if !reflect.DeepEqual(snap.Commissions, DefaultCommissions(2026)) {
		t.Fatalf("malformed commissions should load the default dataset, got %+v", snap.Commissions)
	}
	if s.Settings() != settings.Default() {
		t.Fatalf("invalid settings should fall back to defaults, got %+v", s.Settings())
	}
}

func TestLoadBackfillsCommissionYear(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	_ = kv.Save(ctx, storage.KeyCommissions, []byte(`[{"id":"c","month":"May","operator":"operator_a","commissionValue":10}]`))

	s := newTestStore(t, kv)
	if got := s.Snapshot().Commissions[0].Year; got != 2026 {
		t.Fatalf("expected year backfilled to 2026, got %d", got)
	}
}

func TestLoadPropagatesKVErrors(t *testing.T) {
	s := New(failingKV{loadErr: errors.New("disk on fire")}, settings.Default())
	if err := s.Load(context.Background()); err == nil {
		t.Fatalf("expected KV error")
	}
}

func TestPersistReloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := newTestStore(t, kv)

	if _, err := s.AddSale(ctx, core.Sale{Date: core.NewDate(2024, 3, 1), Quantity: 4}); err != nil {
		t.Fatalf("add sale: %v", err)
	}
	if _, err := s.AddSale(ctx, core.Sale{Date: core.NewDate(2024, 3, 9), Quantity: 6}); err != nil {
		t.Fatalf("add sale: %v", err)
	}
	if _, err := s.AddCommission(ctx, core.MonthlyCommission{Month: "March", Year: 2024, Operator: core.OperatorB, CommissionValue: decimal.NewFromInt(1500)}); err != nil {
		t.Fatalf("add commission: %v", err)
	}
	st := settings.Default()
	st.SetPartnerA(40)
	if err := s.UpdateSettings(ctx, st); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	reloaded := newTestStore(t, kv)
	want, got := s.Snapshot(), reloaded.Snapshot()
	if !reflect.DeepEqual(want.Sales, got.Sales) {
		t.Fatalf("sales differ after reload:\nwant=%+v\n got=%+v", want.Sales, got.Sales)
	}
	if len(got.Commissions) != 1 || !got.Commissions[0].CommissionValue.Equal(decimal.NewFromInt(1500)) || got.Commissions[0].ID != want.Commissions[0].ID {
		t.Fatalf("commissions differ after reload: %+v", got.Commissions)
	}
	if reloaded.Settings() != st {
		t.Fatalf("settings differ after reload: %+v", reloaded.Settings())
	}
}

func TestMutationsAreCopyOnWrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())
	a, _ := s.AddSale(ctx, core.Sale{Date: core.NewDate(2024, 1, 1), Quantity: 1})
	_, _ = s.AddSale(ctx, core.Sale{Date: core.NewDate(2024, 1, 2), Quantity: 2})

	before := s.Snapshot()
	if err := s.UpdateSale(ctx, core.Sale{ID: a.ID, Date: core.NewDate(2024, 1, 1), Quantity: 99}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.DeleteSale(ctx, before.Sales[1].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if before.Sales[0].Quantity != 1 || len(before.Sales) != 2 {
		t.Fatalf("earlier snapshot was mutated: %+v", before.Sales)
	}
	after := s.Snapshot()
	if len(after.Sales) != 1 || after.Sales[0].Quantity != 99 {
		t.Fatalf("unexpected current state: %+v", after.Sales)
	}
}

func TestValidationAndNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())

	if _, err := s.AddSale(ctx, core.Sale{Date: core.NewDate(2024, 1, 1), Quantity: 0}); !errors.Is(err, core.ErrInvalidQuantity) {
		t.Fatalf("expected quantity error, got %v", err)
	}
	if _, err := s.AddCommission(ctx, core.MonthlyCommission{Month: "Smarch", Year: 2024, Operator: core.OperatorA}); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected month error, got %v", err)
	}
	if err := s.UpdateSale(ctx, core.Sale{ID: "missing", Date: core.NewDate(2024, 1, 1), Quantity: 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteCommission(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	bad := settings.Default()
	bad.PartnerAPercentage = 80
	if err := s.UpdateSettings(ctx, bad); !errors.Is(err, settings.ErrSplitTotal) {
		t.Fatalf("expected split error, got %v", err)
	}
}

func TestCommissionEditReplacesWholeRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, memory.New())
	c, err := s.AddCommission(ctx, core.MonthlyCommission{Month: "May", Year: 2024, Operator: core.OperatorA, CommissionValue: decimal.NewFromInt(10)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	edited := core.MonthlyCommission{ID: c.ID, Month: "June", Year: 2025, Operator: core.OperatorB, CommissionValue: decimal.NewFromInt(20)}
	if err := s.UpdateCommission(ctx, edited); err != nil {
		t.Fatalf("update: %v", err)
	}
	got := s.Snapshot().Commissions[0]
	if got.Month != "June" || got.Year != 2025 || got.Operator != core.OperatorB || !got.CommissionValue.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("record not replaced: %+v", got)
	}
	if err := s.DeleteCommission(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(s.Snapshot().Commissions) != 0 {
		t.Fatalf("expected empty commissions")
	}
}

func TestNotifierAndSaveFailuresDoNotFailMutations(t *testing.T) {
	ctx := context.Background()
	n := &fakeNotifier{err: errors.New("broker down")}
	s := New(failingKV{saveErr: errors.New("read-only")}, settings.Default(),
		WithIDGenerator(sequentialIDs()), WithNotifier(n))

	sale, err := s.AddSale(ctx, core.Sale{Date: core.NewDate(2024, 1, 1), Quantity: 1})
	if err != nil {
		t.Fatalf("mutation should succeed despite failures: %v", err)
	}
	if sale.ID != "id-1" {
		t.Fatalf("expected generated id, got %q", sale.ID)
	}
	if err := s.DeleteSale(ctx, sale.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := []event{{storage.KeySales, "create", "id-1"}, {storage.KeySales, "delete", "id-1"}}
	if !reflect.DeepEqual(n.events, want) {
		t.Fatalf("unexpected events %+v", n.events)
	}
}
