package http

import (
	"net/http"

	"diamonds/internal/dashboard"
	"diamonds/internal/insight"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dashboard.Overview(s.store.Snapshot()))
}

func (s *Server) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	st := s.store.Settings()
	writeJSON(w, http.StatusOK, map[string]any{
		"partnerAName": st.PartnerAName,
		"partnerBName": st.PartnerBName,
		"rows":         s.dashboard.Reconciliation(s.store.Snapshot(), st.Split()),
	})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	scope, err := dashboard.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scope":  scope,
		"points": s.dashboard.Chart(s.store.Snapshot(), scope),
	})
}

// handleInsight always answers 200; upstream failures are replaced with the
// fallback text by the insight service.
func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	text := insight.FallbackText
	if s.insight != nil {
		snap := s.store.Snapshot()
		text = s.insight.Generate(r.Context(), insight.Snapshot{
			Sales:       snap.Sales,
			Commissions: snap.Commissions,
			Factors:     s.dashboard.Factors(),
			Split:       s.store.Settings().Split(),
			Now:         s.now(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}
