package storage

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"diamonds/internal/core"
)

func TestSalesRoundTrip(t *testing.T) {
	in := []core.Sale{
		{ID: "a", Date: core.NewDate(2024, 3, 1), Quantity: 2},
		{ID: "b", Date: core.NewDate(2023, 12, 31), Quantity: 10},
	}
	b, err := EncodeSales(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeSales(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}

func TestCommissionsRoundTrip(t *testing.T) {
	in := []core.MonthlyCommission{
		{ID: "c1", Month: "March", Year: 2024, Operator: core.OperatorA, CommissionValue: decimal.RequireFromString("1500.25")},
		{ID: "c2", Month: "April", Year: 2023, Operator: core.OperatorB, CommissionValue: decimal.Zero},
	}
	b, err := EncodeCommissions(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeCommissions(b, 2030)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d records, got %d", len(in), len(out))
	}
	for i := range in {
		if in[i].ID != out[i].ID || in[i].Month != out[i].Month || in[i].Year != out[i].Year ||
			in[i].Operator != out[i].Operator || !in[i].CommissionValue.Equal(out[i].CommissionValue) {
			t.Fatalf("record %d mismatch: %+v vs %+v", i, in[i], out[i])
		}
	}
}

func TestEncodeEmptyCollection(t *testing.T) {
	b, err := EncodeSales(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(b) != `{"version":1,"records":[]}` {
		t.Fatalf("unexpected document %s", b)
	}
	out, err := DecodeSales(b)
	if err != nil || len(out) != 0 {
		t.Fatalf("expected empty collection, got %v err=%v", out, err)
	}
}

func TestDecodeLegacyCommissionsBackfillsYear(t *testing.T) {
	legacy := `[
		{"id":"1","month":"January","operator":"operator_a","commissionValue":120.5},
		{"id":"2","month":"Febuary","year":2022,"operator":"operator_b","commissionValue":"80"}
	]`
	out, err := DecodeCommissions([]byte(legacy), 2026)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out[0].Year != 2026 {
		t.Fatalf("missing year should default to current year, got %d", out[0].Year)
	}
	if out[1].Year != 2022 || out[1].Month != "Febuary" {
		t.Fatalf("explicit fields should be kept verbatim, got %+v", out[1])
	}
	if !out[0].CommissionValue.Equal(decimal.RequireFromString("120.5")) {
		t.Fatalf("unexpected value %s", out[0].CommissionValue)
	}
}

func TestDecodeLegacySalesNormalisesDates(t *testing.T) {
	out, err := DecodeSales([]byte(`[{"id":"x","date":"2024-05-01T21:00:00Z","quantity":3}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out[0].Date.String() != "2024-05-01" {
		t.Fatalf("unexpected date %s", out[0].Date)
	}
}

func TestDecodeRejectsMalformedDocuments(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		err  error
	}{
		{"garbage", `not json`, ErrMalformedDocument},
		{"empty", ``, ErrMalformedDocument},
		{"null", `null`, ErrMalformedDocument},
		{"object records", `{"version":1,"records":{"id":"1"}}`, ErrMalformedDocument},
		{"future version", `{"version":9,"records":[]}`, ErrUnknownVersion},
		{"missing id", `[{"month":"May","operator":"operator_a","commissionValue":1}]`, ErrMalformedDocument},
		{"missing value", `[{"id":"1","month":"May","operator":"operator_a"}]`, ErrMalformedDocument},
		{"wrong type", `[{"id":"1","month":"May","year":"twenty","commissionValue":1}]`, ErrMalformedDocument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeCommissions([]byte(tc.doc), 2024); !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}

	for _, doc := range []string{`[{"id":"1","date":"yesterday","quantity":1}]`, `[{"id":"1","date":"2024-01-01"}]`} {
		if _, err := DecodeSales([]byte(doc)); !errors.Is(err, ErrMalformedDocument) {
			t.Fatalf("%s: expected malformed, got %v", doc, err)
		}
	}
}
