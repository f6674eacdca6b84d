package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Split is the share of the final balance each partner receives, in percent.
type Split struct {
	PartnerAPercentage decimal.Decimal
	PartnerBPercentage decimal.Decimal
}

// ReconciliationRow is the monthly closure: commissions received against the
// debt created by the month's sales, with the balance split between partners.
type ReconciliationRow struct {
	Year            int             `json:"year"`
	Month           time.Month      `json:"month"`
	TotalQuantity   int             `json:"totalQuantity"`
	TotalDebt       decimal.Decimal `json:"totalDebt"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
	FinalBalance    decimal.Decimal `json:"finalBalance"`
	PartnerAShare   decimal.Decimal `json:"partnerAShare"`
	PartnerBShare   decimal.Decimal `json:"partnerBShare"`
}

// Reconcile turns the monthly buckets into closure rows, most recent month
// first. A negative balance is a valid result. Values are not rounded.
func Reconcile(buckets map[Period]*Bucket, split Split) []ReconciliationRow {
	rows := make([]ReconciliationRow, 0, len(buckets))
	for _, b := range buckets {
		balance := b.TotalCommission.Sub(b.TotalDebt)
		rows = append(rows, ReconciliationRow{
			Year:            b.Year,
			Month:           b.Month,
			TotalQuantity:   b.TotalQuantity,
			TotalDebt:       b.TotalDebt,
			TotalCommission: b.TotalCommission,
			FinalBalance:    balance,
			PartnerAShare:   balance.Mul(split.PartnerAPercentage).Div(hundred),
			PartnerBShare:   balance.Mul(split.PartnerBPercentage).Div(hundred),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year > rows[j].Year
		}
		return rows[i].Month > rows[j].Month
	})
	return rows
}
