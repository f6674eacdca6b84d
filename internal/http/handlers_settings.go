package http

import (
	"fmt"
	"net/http"
	"strings"

	"diamonds/internal/log"
	"diamonds/internal/settings"
	"diamonds/internal/storage"
)

type splitRequest struct {
	Partner    string  `json:"partner"`
	Percentage float64 `json:"percentage"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Settings())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var st settings.Settings
	if err := decodeJSON(r, &st); err != nil {
		s.rejectMutation(w, r, err, log.OpUpdate, storage.KeySettings, "")
		return
	}
	st.PartnerAName = sanitizeInput(st.PartnerAName)
	st.PartnerBName = sanitizeInput(st.PartnerBName)
	st.DefaultCategory = sanitizeInput(st.DefaultCategory)

	if err := s.store.UpdateSettings(r.Context(), st); err != nil {
		s.rejectMutation(w, r, err, log.OpUpdate, storage.KeySettings, "")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleAdjustSplit moves one partner's percentage and gives the other
// partner the remainder.
func (s *Server) handleAdjustSplit(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := decodeJSON(r, &req); err != nil {
		s.rejectMutation(w, r, err, log.OpUpdate, storage.KeySettings, "")
		return
	}

	st := s.store.Settings()
	switch strings.ToLower(strings.TrimSpace(req.Partner)) {
	case "a":
		st.SetPartnerA(req.Percentage)
	case "b":
		st.SetPartnerB(req.Percentage)
	default:
		err := fmt.Errorf("%w: partner must be a or b", errBadRequest)
		s.rejectMutation(w, r, err, log.OpUpdate, storage.KeySettings, "")
		return
	}

	if err := s.store.UpdateSettings(r.Context(), st); err != nil {
		s.rejectMutation(w, r, err, log.OpUpdate, storage.KeySettings, "")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
