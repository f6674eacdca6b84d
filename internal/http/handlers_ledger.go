package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"diamonds/internal/core"
	"diamonds/internal/ledger"
	"diamonds/internal/log"
	"diamonds/internal/storage"
)

type saleRequest struct {
	Date     core.Date `json:"date"`
	Quantity int       `json:"quantity"`
}

func (req saleRequest) sale(id string) core.Sale {
	return core.Sale{ID: id, Date: req.Date, Quantity: req.Quantity}
}

// saleView is a sale together with the figures it produces.
type saleView struct {
	core.Sale
	Metrics ledger.SaleMetrics `json:"metrics"`
}

// commissionRequest accepts the value as a JSON number or as a string with a
// dot or comma decimal separator.
type commissionRequest struct {
	Month           core.MonthName  `json:"month"`
	Year            int             `json:"year"`
	Operator        core.Operator   `json:"operator"`
	CommissionValue json.RawMessage `json:"commissionValue"`
}

func (req commissionRequest) commission(id string) (core.MonthlyCommission, error) {
	raw := strings.TrimSpace(strings.Trim(strings.TrimSpace(string(req.CommissionValue)), `"`))
	if strings.HasPrefix(raw, "-") {
		return core.MonthlyCommission{}, core.ErrNegativeCommission
	}
	value, err := core.ParseAmount(raw)
	if err != nil {
		return core.MonthlyCommission{}, err
	}
	return core.MonthlyCommission{
		ID:              id,
		Month:           core.MonthName(strings.TrimSpace(string(req.Month))),
		Year:            req.Year,
		Operator:        req.Operator,
		CommissionValue: value,
	}, nil
}

func (s *Server) handleListSales(w http.ResponseWriter, r *http.Request) {
	factors := s.dashboard.Factors()
	sales := s.store.Snapshot().Sales
	out := make([]saleView, 0, len(sales))
	for _, sale := range sales {
		out = append(out, saleView{Sale: sale, Metrics: ledger.ComputeSaleMetrics(sale, factors)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.rejectMutation(w, r, err, log.OpCreate, storage.KeySales, "")
		return
	}
	sale, err := s.store.AddSale(r.Context(), req.sale(""))
	if err != nil {
		s.rejectMutation(w, r, err, log.OpCreate, storage.KeySales, "")
		return
	}
	writeJSON(w, http.StatusCreated, saleView{Sale: sale, Metrics: ledger.ComputeSaleMetrics(sale, s.dashboard.Factors())})
}

func (s *Server) handleUpdateSale(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.rejectMutation(w, r, err, log.OpUpdate, storage.KeySales, id)
		return
	}
	sale := req.sale(id)
	if err := s.store.UpdateSale(r.Context(), sale); err != nil {
		s.rejectMutation(w, r, err, log.OpUpdate, storage.KeySales, id)
		return
	}
	writeJSON(w, http.StatusOK, saleView{Sale: sale, Metrics: ledger.ComputeSaleMetrics(sale, s.dashboard.Factors())})
}

func (s *Server) handleDeleteSale(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteSale(r.Context(), id); err != nil {
		s.rejectMutation(w, r, err, log.OpDelete, storage.KeySales, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCommissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot().Commissions)
}

func (s *Server) handleCreateCommission(w http.ResponseWriter, r *http.Request) {
	var req commissionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.rejectMutation(w, r, err, log.OpCreate, storage.KeyCommissions, "")
		return
	}
	c, err := req.commission("")
	if err == nil {
		c, err = s.store.AddCommission(r.Context(), c)
	}
	if err != nil {
		s.rejectMutation(w, r, err, log.OpCreate, storage.KeyCommissions, "")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCommission(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req commissionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.rejectMutation(w, r, err, log.OpUpdate, storage.KeyCommissions, id)
		return
	}
	c, err := req.commission(id)
	if err == nil {
		err = s.store.UpdateCommission(r.Context(), c)
	}
	if err != nil {
		s.rejectMutation(w, r, err, log.OpUpdate, storage.KeyCommissions, id)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCommission(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteCommission(r.Context(), id); err != nil {
		s.rejectMutation(w, r, err, log.OpDelete, storage.KeyCommissions, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// rejectMutation logs a refused change and writes the mapped error response.
func (s *Server) rejectMutation(w http.ResponseWriter, r *http.Request, err error, op, collection, id string) {
	logger := log.FromContext(r.Context())
	if statusForError(err) == http.StatusInternalServerError {
		logger.LogError(r.Context(), "Mutation failed", err, op, log.NewFields().WithRecord(collection, id))
	} else {
		logger.WarnContext(r.Context(), "Mutation rejected",
			log.FieldOperation, op,
			log.FieldCollection, collection,
			log.FieldRecordID, id,
			log.FieldError, err.Error())
	}
	writeDomainError(w, err)
}
