package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"diamonds/internal/core"
)

// SchemaVersion is written into every document envelope. Version 0 is the
// legacy layout: a bare JSON array of records.
const SchemaVersion = 1

var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrUnknownVersion    = errors.New("unknown schema version")
)

type envelope struct {
	Version int             `json:"version"`
	Records json.RawMessage `json:"records"`
}

type saleRecord struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	Quantity *int   `json:"quantity"`
}

type commissionRecord struct {
	ID              string           `json:"id"`
	Month           string           `json:"month"`
	Year            *int             `json:"year"`
	Operator        string           `json:"operator"`
	CommissionValue *decimal.Decimal `json:"commissionValue"`
}

func EncodeSales(sales []core.Sale) ([]byte, error) {
	return encode(sales)
}

func EncodeCommissions(commissions []core.MonthlyCommission) ([]byte, error) {
	return encode(commissions)
}

func encode[T any](records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	return json.Marshal(envelope{Version: SchemaVersion, Records: raw})
}

// DecodeSales parses a sales document. Records must carry an id, a parseable
// date and a quantity; anything else rejects the whole document.
func DecodeSales(data []byte) ([]core.Sale, error) {
	var recs []saleRecord
	if err := decodeRecords(data, &recs); err != nil {
		return nil, err
	}
	out := make([]core.Sale, 0, len(recs))
	for i, r := range recs {
		if strings.TrimSpace(r.ID) == "" || r.Quantity == nil {
			return nil, fmt.Errorf("%w: sale %d is missing required fields", ErrMalformedDocument, i)
		}
		d, err := core.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: sale %s: %v", ErrMalformedDocument, r.ID, err)
		}
		out = append(out, core.Sale{ID: r.ID, Date: d, Quantity: *r.Quantity})
	}
	return out, nil
}

// DecodeCommissions parses a commissions document. A record without a year
// is assigned currentYear. Month names are kept verbatim; unknown names are
// the aggregator's concern.
func DecodeCommissions(data []byte, currentYear int) ([]core.MonthlyCommission, error) {
	var recs []commissionRecord
	if err := decodeRecords(data, &recs); err != nil {
		return nil, err
	}
	out := make([]core.MonthlyCommission, 0, len(recs))
	for i, r := range recs {
		if strings.TrimSpace(r.ID) == "" || r.CommissionValue == nil {
			return nil, fmt.Errorf("%w: commission %d is missing required fields", ErrMalformedDocument, i)
		}
		year := currentYear
		if r.Year != nil {
			year = *r.Year
		}
		out = append(out, core.MonthlyCommission{
			ID:              r.ID,
			Month:           core.MonthName(r.Month),
			Year:            year,
			Operator:        core.Operator(r.Operator),
			CommissionValue: *r.CommissionValue,
		})
	}
	return out, nil
}

func decodeRecords(data []byte, into any) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("%w: empty document", ErrMalformedDocument)
	}

	raw := json.RawMessage(data)
	switch data[0] {
	case '[':
	case '{':
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		if env.Version < 1 || env.Version > SchemaVersion {
			return fmt.Errorf("%w: %d", ErrUnknownVersion, env.Version)
		}
		if len(env.Records) == 0 {
			return fmt.Errorf("%w: missing records", ErrMalformedDocument)
		}
		raw = env.Records
	default:
		return fmt.Errorf("%w: expected an object or an array", ErrMalformedDocument)
	}

	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return nil
}
