package api

import (
	"errors"
	"math"
	"net/http"

	"github.com/amped/longevity/internal/domain/model"
)

type projectionRequest struct {
	Profile           model.UserProfile    `json:"profile"`
	Metrics           []model.HealthMetric `json:"metrics"`
	DailyTotalMinutes *float64             `json:"daily_total_minutes"`
	Completeness      *model.Completeness  `json:"completeness"`
}

type projectionResponse struct {
	model.LifeProjection
	NetImpactYears float64 `json:"net_impact_years"`
}

// ProjectionHandler serves life expectancy projections.
type ProjectionHandler struct {
	s *Server
}

// HandleProjection handles POST /projection requests. A supplied
// daily_total_minutes takes precedence over metrics.
func (h *ProjectionHandler) HandleProjection(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_projection"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req projectionRequest
	if err := decode(r, op, &req); err != nil {
		h.s.fail(w, r, err)
		return
	}
	if c := req.Completeness; c != nil && (c.TrackedMetricTypes < 0 || c.HistoryDays < 0) {
		h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("completeness must not be negative")))
		return
	}
	profile := req.Profile
	profile.Gender = model.ParseGender(string(profile.Gender))

	var p model.LifeProjection
	if req.DailyTotalMinutes != nil {
		if math.IsNaN(*req.DailyTotalMinutes) || math.IsInf(*req.DailyTotalMinutes, 0) {
			h.s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("daily_total_minutes must be finite")))
			return
		}
		p = h.s.engine.ProjectLifespan(r.Context(), profile, *req.DailyTotalMinutes, req.Completeness)
	} else {
		ms, err := h.s.metricsFrom(op, req.Metrics)
		if err != nil {
			h.s.fail(w, r, err)
			return
		}
		p = h.s.engine.ProjectFromMetrics(r.Context(), profile, ms, req.Completeness)
	}
	h.s.respond(w, r, op, projectionResponse{LifeProjection: p, NetImpactYears: p.NetImpactYears()})
}
