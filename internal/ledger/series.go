package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"diamonds/internal/core"
)

// SeriesPoint is one day of the profit chart.
type SeriesPoint struct {
	Date      core.Date       `json:"date"`
	NetProfit decimal.Decimal `json:"netProfit"`
}

// ProfitSeries merges same-day sales into one point whose value is the sum of
// their net profit. Points are keyed by calendar day and ordered by date.
func ProfitSeries(sales []core.Sale, f core.Factors) []SeriesPoint {
	byDay := make(map[core.Date]decimal.Decimal)
	for _, s := range sales {
		day := core.DateOf(s.Date.Time)
		byDay[day] = byDay[day].Add(ComputeSaleMetrics(s, f).NetProfit)
	}
	out := make([]SeriesPoint, 0, len(byDay))
	for day, profit := range byDay {
		out = append(out, SeriesPoint{Date: day, NetProfit: profit})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out
}
