// Package insight produces the narrative summary of the ledger. The text comes
// from an external model; every failure degrades to FallbackText.
package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"diamonds/internal/core"
	"diamonds/internal/ledger"
	"diamonds/internal/log"
)

// FallbackText is returned whenever a narrative cannot be produced.
const FallbackText = "Insights are unavailable right now. Check the insight service configuration and try again later."

var ErrMissingCredential = errors.New("insight API key is not configured")

// Snapshot is the state handed to the generator. It is taken once per request
// and not looked at again by the caller.
type Snapshot struct {
	Sales       []core.Sale
	Commissions []core.MonthlyCommission
	Factors     core.Factors
	Split       ledger.Split
	Now         time.Time
}

// Summary is the aggregated view sent to the model.
type Summary struct {
	GeneratedAt    string                     `json:"generatedAt"`
	TotalSales     int                        `json:"totalSales"`
	TotalUnits     int                        `json:"totalUnits"`
	Totals         ledger.SaleMetrics         `json:"totals"`
	AnnualGrowth   []ledger.Growth            `json:"annualGrowth"`
	MonthlyGrowth  []ledger.Growth            `json:"monthlyGrowth"`
	Reconciliation []ledger.ReconciliationRow `json:"reconciliation"`
}

// Generator turns a summary into narrative text.
type Generator interface {
	Generate(ctx context.Context, summary Summary) (string, error)
}

// Service shields callers from generator failures. Identical concurrent
// requests share one upstream call.
type Service struct {
	gen    Generator
	group  singleflight.Group
	logger *log.Logger
}

func NewService(gen Generator, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{gen: gen, logger: logger.WithComponent(log.ComponentInsight)}
}

// Summarize aggregates a snapshot with the ledger engine.
func Summarize(snap Snapshot) Summary {
	units := 0
	for _, s := range snap.Sales {
		units += s.Quantity
	}
	months := ledger.MonthlyVolume(snap.Sales, snap.Now.Year())
	return Summary{
		GeneratedAt:    snap.Now.Format(time.RFC3339),
		TotalSales:     len(snap.Sales),
		TotalUnits:     units,
		Totals:         ledger.SumSaleMetrics(snap.Sales, snap.Factors),
		AnnualGrowth:   ledger.AnnualGrowth(ledger.AnnualVolumeDesc(snap.Sales)),
		MonthlyGrowth:  ledger.MonthlyGrowth(months[:]),
		Reconciliation: ledger.Reconcile(ledger.ReconciliationBuckets(snap.Sales, snap.Commissions, snap.Factors), snap.Split),
	}
}

// Generate always returns text; it never returns an error.
func (s *Service) Generate(ctx context.Context, snap Snapshot) string {
	if s.gen == nil {
		return FallbackText
	}
	summary := Summarize(snap)
	body, err := json.Marshal(summary)
	if err != nil {
		s.logger.LogError(ctx, "Failed to encode insight summary", err, log.OpGenerate, nil)
		return FallbackText
	}
	sum := sha256.Sum256(body)

	v, err, _ := s.group.Do(hex.EncodeToString(sum[:]), func() (any, error) {
		return s.gen.Generate(ctx, summary)
	})
	if err != nil {
		s.logger.LogError(ctx, "Insight generation failed", err, log.OpGenerate, nil)
		return FallbackText
	}
	text, _ := v.(string)
	if text == "" {
		return FallbackText
	}
	return text
}
