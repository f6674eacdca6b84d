package sheets

import (
	"context"

	"diamonds/internal/ledger"
)

// Ports for outbound adapters.
type (
	// ReconciliationTable is the monthly closure as shown to the partners.
	ReconciliationTable struct {
		PartnerAName string
		PartnerBName string
		Rows         []ledger.ReconciliationRow
	}

	// ReconciliationExporter replaces the exported table with a fresh copy.
	ReconciliationExporter interface {
		ExportReconciliation(ctx context.Context, table ReconciliationTable) (ref string, err error)
	}
)

// Header returns the column titles, partner columns named after the partners.
func (t ReconciliationTable) Header() []string {
	return []string{"Year", "Month", "Quantity", "Debt", "Commission", "Balance", t.PartnerAName, t.PartnerBName}
}
