// Package ledger derives every financial figure of the dashboard from the raw
// sale and commission records.
//
// All functions are pure: they take collections as arguments, never retain
// them and never mutate them, so calling any of them twice on the same input
// yields identical output.
package ledger

import (
	"github.com/shopspring/decimal"

	"diamonds/internal/core"
)

// SaleMetrics are the monetary figures derived from a single sale.
type SaleMetrics struct {
	ValueReceived   decimal.Decimal `json:"valueReceived"`
	GrossCommission decimal.Decimal `json:"grossCommission"`
	DebtOwed        decimal.Decimal `json:"debtOwed"`
	NetProfit       decimal.Decimal `json:"netProfit"`
}

// ComputeSaleMetrics multiplies the sale quantity by each factor. Quantities
// are not validated here; zero or negative values propagate arithmetically.
func ComputeSaleMetrics(s core.Sale, f core.Factors) SaleMetrics {
	qty := decimal.NewFromInt(int64(s.Quantity))
	gross := qty.Mul(f.GrossCommissionPerUnit)
	debt := qty.Mul(f.DebtPerUnit)
	return SaleMetrics{
		ValueReceived:   qty.Mul(f.ValuePerUnit),
		GrossCommission: gross,
		DebtOwed:        debt,
		NetProfit:       gross.Sub(debt),
	}
}

// Add returns the field-wise sum of m and o.
func (m SaleMetrics) Add(o SaleMetrics) SaleMetrics {
	return SaleMetrics{
		ValueReceived:   m.ValueReceived.Add(o.ValueReceived),
		GrossCommission: m.GrossCommission.Add(o.GrossCommission),
		DebtOwed:        m.DebtOwed.Add(o.DebtOwed),
		NetProfit:       m.NetProfit.Add(o.NetProfit),
	}
}

// SumSaleMetrics totals the metrics of every sale in the collection.
func SumSaleMetrics(sales []core.Sale, f core.Factors) SaleMetrics {
	total := SaleMetrics{}
	for _, s := range sales {
		total = total.Add(ComputeSaleMetrics(s, f))
	}
	return total
}
