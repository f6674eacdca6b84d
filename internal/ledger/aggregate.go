package ledger

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"diamonds/internal/core"
)

// Period identifies a calendar month.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// PeriodQuantity is the unit volume of a year or of a month.
type PeriodQuantity struct {
	Label    string     `json:"label"`
	Year     int        `json:"year"`
	Month    time.Month `json:"month,omitempty"` // zero for annual entries
	Quantity int        `json:"quantity"`
}

// Bucket accumulates everything that happened in one month: sales volume,
// the debt those sales created and the commissions received.
type Bucket struct {
	Period
	TotalQuantity   int
	TotalDebt       decimal.Decimal
	TotalCommission decimal.Decimal
}

// PeriodSummary totals the sales inside a date range.
type PeriodSummary struct {
	Quantity int         `json:"quantity"`
	Metrics  SaleMetrics `json:"metrics"`
}

// AnnualVolume sums sale quantities by calendar year.
func AnnualVolume(sales []core.Sale) map[int]int {
	out := make(map[int]int)
	for _, s := range sales {
		out[s.Date.Year()] += s.Quantity
	}
	return out
}

// AnnualVolumeDesc returns the annual volume ordered newest year first, the
// order AnnualGrowth expects.
func AnnualVolumeDesc(sales []core.Sale) []PeriodQuantity {
	byYear := AnnualVolume(sales)
	out := make([]PeriodQuantity, 0, len(byYear))
	for year, qty := range byYear {
		out = append(out, PeriodQuantity{Label: strconv.Itoa(year), Year: year, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out
}

// MonthlyVolume returns the twelve months of year, January first. Months
// without sales are present with a zero quantity.
func MonthlyVolume(sales []core.Sale, year int) [12]PeriodQuantity {
	var out [12]PeriodQuantity
	for i := range out {
		m := time.Month(i + 1)
		out[i] = PeriodQuantity{Label: string(core.MonthNameOf(m)), Year: year, Month: m}
	}
	for _, s := range sales {
		if s.Date.Year() != year {
			continue
		}
		out[s.Date.Month()-1].Quantity += s.Quantity
	}
	return out
}

// ReconciliationBuckets groups sales and commissions by (year, month). A
// bucket exists as soon as either record type touches the month, so a month
// with sales but no commission still yields a bucket with zero commission and
// vice versa. Commissions whose month is not a canonical month name are
// skipped.
func ReconciliationBuckets(sales []core.Sale, commissions []core.MonthlyCommission, f core.Factors) map[Period]*Bucket {
	buckets := make(map[Period]*Bucket)
	get := func(p Period) *Bucket {
		b, ok := buckets[p]
		if !ok {
			b = &Bucket{Period: p, TotalDebt: decimal.Zero, TotalCommission: decimal.Zero}
			buckets[p] = b
		}
		return b
	}

	for _, s := range sales {
		b := get(Period{Year: s.Date.Year(), Month: s.Date.Month()})
		b.TotalQuantity += s.Quantity
		b.TotalDebt = b.TotalDebt.Add(ComputeSaleMetrics(s, f).DebtOwed)
	}
	for _, c := range commissions {
		m, ok := c.Month.Month()
		if !ok {
			continue
		}
		b := get(Period{Year: c.Year, Month: m})
		b.TotalCommission = b.TotalCommission.Add(c.CommissionValue)
	}
	return buckets
}

// SummarizePeriod totals the sales dated in [from, to).
func SummarizePeriod(sales []core.Sale, f core.Factors, from, to core.Date) PeriodSummary {
	var sum PeriodSummary
	for _, s := range sales {
		if s.Date.Before(from.Time) || !s.Date.Before(to.Time) {
			continue
		}
		sum.Quantity += s.Quantity
		sum.Metrics = sum.Metrics.Add(ComputeSaleMetrics(s, f))
	}
	return sum
}

// FilterSalesInMonth returns the sales dated in the given month, in input
// order. The result is a new slice.
func FilterSalesInMonth(sales []core.Sale, year int, month time.Month) []core.Sale {
	var out []core.Sale
	for _, s := range sales {
		if s.Date.Year() == year && s.Date.Month() == month {
			out = append(out, s)
		}
	}
	return out
}

// MonthBounds returns the first day of the month and the first day of the
// following month.
func MonthBounds(year int, month time.Month) (core.Date, core.Date) {
	from := core.NewDate(year, int(month), 1)
	return from, core.Date{Time: from.AddDate(0, 1, 0)}
}

// YearBounds returns January 1st of year and of the following year.
func YearBounds(year int) (core.Date, core.Date) {
	return core.NewDate(year, 1, 1), core.NewDate(year+1, 1, 1)
}
