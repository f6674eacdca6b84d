package core

import "github.com/shopspring/decimal"

// Factors are the per-unit multipliers every monetary derivation is based on.
// They are fixed for the life of the process.
type Factors struct {
	ValuePerUnit           decimal.Decimal
	GrossCommissionPerUnit decimal.Decimal
	DebtPerUnit            decimal.Decimal
}

// DefaultFactors returns the factors used when the configuration does not
// override them.
func DefaultFactors() Factors {
	return Factors{
		ValuePerUnit:           decimal.NewFromInt(100),
		GrossCommissionPerUnit: decimal.NewFromInt(40),
		DebtPerUnit:            decimal.NewFromInt(30),
	}
}
