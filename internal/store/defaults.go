package store

import (
	"github.com/shopspring/decimal"

	"diamonds/internal/core"
)

// DefaultCommissions is the dataset used when the stored commissions cannot
// be decoded: one empty January entry per operator for year, so the ledger
// starts with a visible row for the current year rather than nothing.
func DefaultCommissions(year int) []core.MonthlyCommission {
	return []core.MonthlyCommission{
		{ID: "default-operator-a", Month: core.MonthNames[0], Year: year, Operator: core.OperatorA, CommissionValue: decimal.Zero},
		{ID: "default-operator-b", Month: core.MonthNames[0], Year: year, Operator: core.OperatorB, CommissionValue: decimal.Zero},
	}
}
