// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/amped/longevity/internal/domain/model"
	"github.com/amped/longevity/pkg/logger"
)

const (
	defaultMaxMetrics = 1000
	maxBodyBytes      = 8 << 20
)

// Engine is the calculation surface the handlers depend on.
type Engine interface {
	CalculateImpact(ctx context.Context, metric model.HealthMetric) model.ImpactValue
	AggregateImpact(ctx context.Context, metrics []model.HealthMetric, period model.TimePeriod) model.LifeImpactData
	ProjectLifespan(ctx context.Context, profile model.UserProfile, dailyTotalMinutes float64, completeness *model.Completeness) model.LifeProjection
	ProjectFromMetrics(ctx context.Context, profile model.UserProfile, metrics []model.HealthMetric, completeness *model.Completeness) model.LifeProjection
	Recommend(ctx context.Context, metrics []model.HealthMetric, period model.TimePeriod) (model.Recommendation, bool)
}

// Option configures the Server.
type Option func(*Server)

// WithMaxMetrics caps the readings accepted per request.
func WithMaxMetrics(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxMetrics = n
		}
	}
}

// WithRateLimit enables a shared token bucket. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 && burst > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithLogger sets the logger for request failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the engine API.
type Server struct {
	engine     Engine
	maxMetrics int
	limiter    *rate.Limiter
	logger     logger.Logger

	healthHandler         *HealthHandler
	statsHandler          *StatsHandler
	impactHandler         *ImpactHandler
	projectionHandler     *ProjectionHandler
	recommendationHandler *RecommendationHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(engine Engine, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		engine:     engine,
		maxMetrics: defaultMaxMetrics,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.impactHandler = &ImpactHandler{s: s}
	s.projectionHandler = &ProjectionHandler{s: s}
	s.recommendationHandler = &RecommendationHandler{s: s}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/impact", MetricsMiddleware(s.limit(s.impactHandler.HandleImpact), "impact"))
	mux.HandleFunc("/aggregate", MetricsMiddleware(s.limit(s.impactHandler.HandleAggregate), "aggregate"))
	mux.HandleFunc("/projection", MetricsMiddleware(s.limit(s.projectionHandler.HandleProjection), "projection"))
	mux.HandleFunc("/recommendation", MetricsMiddleware(s.limit(s.recommendationHandler.HandleRecommendation), "recommendation"))
}

// decode reads a JSON body into v.
func decode(r *http.Request, op string, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}

// metricsFrom validates the readings of a request and fills missing IDs.
func (s *Server) metricsFrom(op string, ms []model.HealthMetric) ([]model.HealthMetric, error) {
	if len(ms) > s.maxMetrics {
		return nil, WrapKind(op, ErrTooManyMetrics, fmt.Errorf("%d metrics exceeds limit %d", len(ms), s.maxMetrics))
	}
	for i, m := range ms {
		if m.Type == "" {
			return nil, WrapKind(op, ErrBadRequest, fmt.Errorf("metrics[%d]: missing type", i))
		}
	}
	return model.WithIDs(ms), nil
}

// periodFrom parses an optional period; empty means day.
func periodFrom(op, raw string) (model.TimePeriod, error) {
	p, ok := model.ParsePeriod(raw)
	if !ok {
		return "", WrapKind(op, ErrBadRequest, fmt.Errorf("unknown period %q", raw))
	}
	return p, nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respond writes v as a 200 response. A value that cannot be encoded is an
// internal failure of op.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, op string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes err with the status its kind maps to.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	recordCode(w, code)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", logger.String("path", r.URL.Path), logger.Error(err))
	}
	writeError(w, status, code, err)
}
