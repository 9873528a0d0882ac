package api

import (
	"net/http"

	"github.com/amped/longevity/internal/domain/model"
)

type impactRequest struct {
	Metric *model.HealthMetric `json:"metric"`
}

type aggregateRequest struct {
	Metrics []model.HealthMetric `json:"metrics"`
	Period  string               `json:"period"`
}

// ImpactHandler serves single-reading and aggregate impacts.
type ImpactHandler struct {
	s *Server
}

// HandleImpact handles POST /impact requests.
func (h *ImpactHandler) HandleImpact(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_impact"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req impactRequest
	if err := decode(r, op, &req); err != nil {
		h.s.fail(w, r, err)
		return
	}
	if req.Metric == nil {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errMissing("metric")))
		return
	}
	ms, err := h.s.metricsFrom(op, []model.HealthMetric{*req.Metric})
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	h.s.respond(w, r, op, h.s.engine.CalculateImpact(r.Context(), ms[0]))
}

// HandleAggregate handles POST /aggregate requests.
func (h *ImpactHandler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_aggregate"
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
	h.s.respond(w, r, op, h.s.engine.AggregateImpact(r.Context(), ms, period))
}
