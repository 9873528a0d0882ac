package api

import (
	"net/http"
)

// RecommendationHandler serves the single best next action.
type RecommendationHandler struct {
	s *Server
}

// HandleRecommendation handles POST /recommendation requests. It answers 204
// when there is nothing to recommend.
func (h *RecommendationHandler) HandleRecommendation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_recommendation"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req aggregateRequest
	if err := decode(r, op, &req); err != nil {
		h.s.fail(w, r, err)
		return
	}
	period, err := periodFrom(op, req.Period)
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	ms, err := h.s.metricsFrom(op, req.Metrics)
	if err != nil {
		h.s.fail(w, r, err)
		return
	}

	rec, ok := h.s.engine.Recommend(r.Context(), ms, period)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.s.respond(w, r, op, rec)
}
