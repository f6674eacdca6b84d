package insight

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"diamonds/internal/core"
	"diamonds/internal/ledger"
)

type stubGenerator struct {
	text  string
	err   error
	calls atomic.Int32
}

func (s *stubGenerator) Generate(ctx context.Context, summary Summary) (string, error) {
	s.calls.Add(1)
	return s.text, s.err
}

func testSnapshot() Snapshot {
	return Snapshot{
		Sales: []core.Sale{
			{ID: "1", Date: core.NewDate(2024, 1, 10), Quantity: 10},
			{ID: "2", Date: core.NewDate(2024, 2, 5), Quantity: 5},
			{ID: "3", Date: core.NewDate(2023, 6, 1), Quantity: 20},
		},
		Commissions: []core.MonthlyCommission{
			{ID: "c1", Month: "January", Year: 2024, Operator: core.OperatorA, CommissionValue: decimal.NewFromInt(500)},
		},
		Factors: core.DefaultFactors(),
		Split:   ledger.Split{PartnerAPercentage: decimal.NewFromInt(50), PartnerBPercentage: decimal.NewFromInt(50)},
		Now:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(testSnapshot())

	if s.TotalSales != 3 {
		t.Errorf("TotalSales = %d, want 3", s.TotalSales)
	}
	if s.TotalUnits != 35 {
		t.Errorf("TotalUnits = %d, want 35", s.TotalUnits)
	}
	if len(s.AnnualGrowth) != 2 {
		t.Fatalf("AnnualGrowth len = %d, want 2", len(s.AnnualGrowth))
	}
	if len(s.MonthlyGrowth) != 12 {
		t.Errorf("MonthlyGrowth len = %d, want 12", len(s.MonthlyGrowth))
	}
	if len(s.Reconciliation) != 3 {
		t.Errorf("Reconciliation len = %d, want 3", len(s.Reconciliation))
	}
	if !s.Totals.ValueReceived.Equal(decimal.NewFromInt(3500)) {
		t.Errorf("Totals.ValueReceived = %s, want 3500", s.Totals.ValueReceived)
	}
}

func TestService_Generate(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
		want string
	}{
		{"success", &stubGenerator{text: "Sales are up."}, "Sales are up."},
		{"generator error", &stubGenerator{err: errors.New("boom")}, FallbackText},
		{"missing credential", &stubGenerator{err: ErrMissingCredential}, FallbackText},
		{"empty text", &stubGenerator{}, FallbackText},
		{"no generator", nil, FallbackText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.gen, nil)
			got := svc.Generate(context.Background(), testSnapshot())
			if got != tt.want {
				t.Errorf("Generate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPGenerator_Generate(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Growth is steady. "}}]}`))
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, "secret", "test-model", 5*time.Second)
	text, err := gen.Generate(context.Background(), Summarize(testSnapshot()))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "Growth is steady." {
		t.Errorf("text = %q", text)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || !strings.Contains(gotReq.Messages[1].Content, `"totalUnits":35`) {
		t.Errorf("user message does not carry the summary: %+v", gotReq.Messages)
	}
}

func TestHTTPGenerator_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		key     string
		wantErr error
	}{
		{name: "missing key", status: http.StatusOK, body: `{}`, key: "", wantErr: ErrMissingCredential},
		{name: "upstream error", status: http.StatusInternalServerError, body: `oops`, key: "k"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, key: "k"},
		{name: "invalid json", status: http.StatusOK, body: `not json`, key: "k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gen := NewHTTPGenerator(srv.URL, tt.key, "m", time.Second)
			_, err := gen.Generate(context.Background(), Summary{})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_FallbackOnUnreachableAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	svc := NewService(NewHTTPGenerator(url, "k", "m", time.Second), nil)
	if got := svc.Generate(context.Background(), testSnapshot()); got != FallbackText {
		t.Errorf("Generate() = %q, want fallback", got)
	}
}
