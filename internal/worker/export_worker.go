package worker

import (
	"context"
	"fmt"

	"diamonds/internal/amqp"
	"diamonds/internal/core"
	"diamonds/internal/ledger"
	"diamonds/internal/log"
	"diamonds/internal/sheets"
	"diamonds/internal/store"
)

// ExportWorker keeps the spreadsheet copy of the monthly reconciliation in
// step with the stored ledger.
type ExportWorker struct {
	store    *store.Store
	exporter sheets.ReconciliationExporter
	factors  core.Factors
	logger   *log.Logger
}

func NewExportWorker(st *store.Store, exporter sheets.ReconciliationExporter, factors core.Factors, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		store:    st,
		exporter: exporter,
		factors:  factors,
		logger:   logger.WithComponent(log.ComponentSheets),
	}
}

// HandleLedgerChanged reloads the ledger written by the server and exports
// the full table. Every message triggers a complete rewrite, so lost or
// duplicated messages only delay the sheet, never corrupt it.
func (w *ExportWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		log.FieldCollection, msg.Collection,
		log.FieldOperation, msg.Operation,
		log.FieldRecordID, msg.ID)

	if err := w.store.Load(ctx); err != nil {
		return fmt.Errorf("reload ledger: %w", err)
	}
	if _, err := w.Export(ctx); err != nil {
		return fmt.Errorf("export reconciliation: %w", err)
	}
	return nil
}

// StartupExport loads the ledger and exports it once, recovering from
// messages missed while the worker was down.
func (w *ExportWorker) StartupExport(ctx context.Context) error {
	if err := w.store.Load(ctx); err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if _, err := w.Export(ctx); err != nil {
		return fmt.Errorf("startup export: %w", err)
	}
	return nil
}

// Export reconciles the current in-memory ledger and hands it to the exporter.
func (w *ExportWorker) Export(ctx context.Context) (string, error) {
	snap := w.store.Snapshot()
	st := w.store.Settings()

	table := sheets.ReconciliationTable{
		PartnerAName: st.PartnerAName,
		PartnerBName: st.PartnerBName,
		Rows:         ledger.Reconcile(ledger.ReconciliationBuckets(snap.Sales, snap.Commissions, w.factors), st.Split()),
	}

	ref, err := w.exporter.ExportReconciliation(ctx, table)
	if err != nil {
		w.logger.LogError(ctx, "Failed to export reconciliation", err, log.OpExport, nil)
		return "", err
	}

	w.logger.InfoContext(ctx, "Reconciliation exported",
		"ref", ref,
		log.FieldRecordCount, len(table.Rows))
	return ref, nil
}
