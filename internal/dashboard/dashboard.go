// Package dashboard assembles the read models served by the API from a store
// snapshot. Nothing here is cached; every view is recomputed per request.
package dashboard

import (
	"errors"
	"time"

	"diamonds/internal/core"
	"diamonds/internal/ledger"
	"diamonds/internal/store"
)

// Scope selects the sales a chart covers.
type Scope string

const (
	ScopeMonth Scope = "month"
	ScopeAll   Scope = "all"
)

var ErrInvalidScope = errors.New("scope must be month or all")

func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeMonth:
		return ScopeMonth, nil
	case ScopeAll:
		return ScopeAll, nil
	}
	return "", ErrInvalidScope
}

// Overview backs the summary cards and growth tables.
type Overview struct {
	Year          int                  `json:"year"`
	Month         core.MonthName       `json:"month"`
	CurrentMonth  ledger.PeriodSummary `json:"currentMonth"`
	CurrentYear   ledger.PeriodSummary `json:"currentYear"`
	AllTime       ledger.SaleMetrics   `json:"allTime"`
	AnnualGrowth  []ledger.Growth      `json:"annualGrowth"`
	MonthlyGrowth []ledger.Growth      `json:"monthlyGrowth"`
}

// Service computes views with a fixed set of factors.
type Service struct {
	factors core.Factors
	now     func() time.Time
}

func NewService(factors core.Factors, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{factors: factors, now: now}
}

func (s *Service) Factors() core.Factors { return s.factors }

func (s *Service) Overview(snap store.Snapshot) Overview {
	today := core.DateOf(s.now())
	year, month := today.Year(), today.Month()

	monthFrom, monthTo := ledger.MonthBounds(year, month)
	yearFrom, yearTo := ledger.YearBounds(year)
	months := ledger.MonthlyVolume(snap.Sales, year)

	return Overview{
		Year:          year,
		Month:         core.MonthNameOf(month),
		CurrentMonth:  ledger.SummarizePeriod(snap.Sales, s.factors, monthFrom, monthTo),
		CurrentYear:   ledger.SummarizePeriod(snap.Sales, s.factors, yearFrom, yearTo),
		AllTime:       ledger.SumSaleMetrics(snap.Sales, s.factors),
		AnnualGrowth:  ledger.AnnualGrowth(ledger.AnnualVolumeDesc(snap.Sales)),
		MonthlyGrowth: ledger.MonthlyGrowth(months[:]),
	}
}

func (s *Service) Reconciliation(snap store.Snapshot, split ledger.Split) []ledger.ReconciliationRow {
	return ledger.Reconcile(ledger.ReconciliationBuckets(snap.Sales, snap.Commissions, s.factors), split)
}

// Chart returns the profit series for the current month or for all time.
func (s *Service) Chart(snap store.Snapshot, scope Scope) []ledger.SeriesPoint {
	sales := snap.Sales
	if scope == ScopeMonth {
		now := s.now()
		sales = ledger.FilterSalesInMonth(sales, now.Year(), now.Month())
	}
	return ledger.ProfitSeries(sales, s.factors)
}
