package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amped/longevity/internal/adapters/http/api"
	"github.com/amped/longevity/internal/app"
	"github.com/amped/longevity/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newMux(opts ...api.Option) (*http.ServeMux, *app.Engine) {
	engine := app.New(app.WithClock(func() time.Time { return now }))
	mux := http.NewServeMux()
	api.NewServer(engine, engine, opts...).Register(context.Background(), mux)
	return mux, engine
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

func TestImpactEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		mux, _ := newMux(api.WithMaxMetrics(3))

		Convey("When posting a single reading", func() {
			w := do(mux, http.MethodPost, "/impact", `{"metric":{"type":"steps","value":4000,"date":"2026-05-31T08:00:00Z"}}`)

			Convey("Then its daily impact should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var iv model.ImpactValue
				decodeBody(w, &iv)
				So(iv.LifespanImpactMinutes, ShouldAlmostEqual, -15.0)
				So(iv.Direction, ShouldEqual, model.DirectionNegative)
			})
		})

		Convey("When the metric is missing", func() {
			w := do(mux, http.MethodPost, "/impact", `{}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "bad_request")
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/impact", `{"metric":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the method is wrong", func() {
			w := do(mux, http.MethodGet, "/impact", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When aggregating a month", func() {
			w := do(mux, http.MethodPost, "/aggregate", `{"period":"month","metrics":[
				{"type":"steps","value":4000},
				{"type":"smokingStatus","value":6}
			]}`)

			Convey("Then rate and state metrics should be scoped separately", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var data model.LifeImpactData
				decodeBody(w, &data)
				So(data.TimePeriod, ShouldEqual, model.PeriodMonth)
				So(data.MetricContributions[model.Steps].LifespanImpactMinutes, ShouldAlmostEqual, -450.0, 1e-9)
				So(data.MetricContributions[model.SmokingStatus].LifespanImpactMinutes, ShouldEqual, -240.0)
				So(data.TotalImpact.LifespanImpactMinutes, ShouldAlmostEqual, -690.0, 1e-9)
			})
		})

		Convey("When the period is unknown", func() {
			w := do(mux, http.MethodPost, "/aggregate", `{"period":"fortnight","metrics":[]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a metric has no type", func() {
			w := do(mux, http.MethodPost, "/aggregate", `{"metrics":[{"value":1}]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When too many metrics are posted", func() {
			w := do(mux, http.MethodPost, "/aggregate", `{"metrics":[
				{"type":"steps","value":1},{"type":"steps","value":2},
				{"type":"steps","value":3},{"type":"steps","value":4}
			]}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "too_many_metrics")
		})
	})
}

func TestProjectionEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		mux, _ := newMux()

		Convey("When projecting from a daily total", func() {
			w := do(mux, http.MethodPost, "/projection", `{
				"profile":{"birth_year":1986,"gender":"Male"},
				"daily_total_minutes":0,
				"completeness":{"tracked_metric_types":8,"history_days":90}
			}`)

			Convey("Then the baseline projection should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body map[string]any
				decodeBody(w, &body)
				So(body["baseline_life_expectancy_years"], ShouldAlmostEqual, 78.3, 1e-9)
				So(body["adjusted_life_expectancy_years"], ShouldAlmostEqual, 78.3, 1e-9)
				So(body["current_age"], ShouldEqual, 40.0)
				So(body["confidence_percentage"], ShouldAlmostEqual, 0.95, 1e-9)
				So(body["net_impact_years"], ShouldAlmostEqual, 0.0, 1e-9)
			})
		})

		Convey("When projecting from readings", func() {
			w := do(mux, http.MethodPost, "/projection", `{
				"profile":{"birth_year":1986,"gender":"male"},
				"metrics":[{"type":"smokingStatus","value":6,"date":"2026-05-31T08:00:00Z"}]
			}`)

			Convey("Then the adjusted expectancy should fall", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body map[string]any
				decodeBody(w, &body)
				So(body["net_impact_years"], ShouldBeLessThan, -1.0)
			})
		})

		Convey("When completeness is negative", func() {
			w := do(mux, http.MethodPost, "/projection", `{"completeness":{"history_days":-1}}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestRecommendationEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		mux, _ := newMux()

		Convey("When there are no metrics", func() {
			w := do(mux, http.MethodPost, "/recommendation", `{"metrics":[]}`)

			Convey("Then nothing should be recommended", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Body.Len(), ShouldEqual, 0)
			})
		})

		Convey("When a smoker asks for a monthly recommendation", func() {
			w := do(mux, http.MethodPost, "/recommendation", `{"period":"month","metrics":[
				{"type":"smokingStatus","value":6},
				{"type":"steps","value":6500}
			]}`)

			Convey("Then quitting should be recommended", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var rec model.Recommendation
				decodeBody(w, &rec)
				So(rec.Metric, ShouldEqual, model.SmokingStatus)
				So(rec.ActionText, ShouldEqual, "Quit smoking")
				So(rec.Period, ShouldEqual, model.PeriodMonth)
				So(rec.BenefitMinutes, ShouldBeGreaterThanOrEqualTo, 60)
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		mux, _ := newMux()
		do(mux, http.MethodPost, "/impact", `{"metric":{"type":"steps","value":4000}}`)

		Convey("When fetching stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")

			Convey("Then engine counters should be reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var stats app.Stats
				decodeBody(w, &stats)
				So(stats.Calculations["impact"], ShouldEqual, 1)
				So(stats.CacheBackend, ShouldEqual, "none")
			})
		})

		Convey("When scraping health", func() {
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then the Prometheus exposition should be served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "longevity_engine_calculations_total")
			})
		})

		Convey("When a request fails validation", func() {
			do(mux, http.MethodPost, "/aggregate", `{"metrics":[],"period":"week"}`)
			w := do(mux, http.MethodGet, "/healthz", "")

			Convey("Then the error should be counted under its API code", func() {
				So(w.Body.String(), ShouldContainSubstring, `error_type="bad_request"`)
				So(w.Body.String(), ShouldContainSubstring, `endpoint="aggregate"`)
			})
		})
	})
}

func TestRateLimit(t *testing.T) {
	Convey("Given a server with a tiny token bucket", t, func() {
		mux, _ := newMux(api.WithRateLimit(0.001, 1))

		Convey("When the bucket is exhausted", func() {
			first := do(mux, http.MethodPost, "/impact", `{"metric":{"type":"steps","value":1}}`)
			second := do(mux, http.MethodPost, "/impact", `{"metric":{"type":"steps","value":1}}`)

			Convey("Then further requests should get 429", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(second.Code, ShouldEqual, http.StatusTooManyRequests)
				So(second.Body.String(), ShouldContainSubstring, "rate_limited")
			})

			Convey("And health should stay reachable", func() {
				So(do(mux, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

// brokenEngine returns projections that cannot be encoded.
type brokenEngine struct {
	*app.Engine
}

func (brokenEngine) ProjectLifespan(context.Context, model.UserProfile, float64, *model.Completeness) model.LifeProjection {
	return model.LifeProjection{AdjustedLifeExpectancyYears: math.NaN()}
}

func TestUnencodableResponse(t *testing.T) {
	Convey("Given an engine whose projection cannot be encoded", t, func() {
		engine := app.New(app.WithClock(func() time.Time { return now }))
		mux := http.NewServeMux()
		api.NewServer(brokenEngine{engine}, engine).Register(context.Background(), mux)

		w := do(mux, http.MethodPost, "/projection", `{"daily_total_minutes":0}`)

		Convey("Then the request should fail as an internal error", func() {
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			var body struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			}
			decodeBody(w, &body)
			So(body.Code, ShouldEqual, "internal_error")
			So(body.Message, ShouldStartWith, "api.post_projection: internal error")
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given API error helpers", t, func() {
		cause := errors.New("eof")

		So(errors.Is(api.NewKind("op", api.ErrRateLimited), api.ErrRateLimited), ShouldBeTrue)

		wrapped := api.WrapKind("op", api.ErrBadRequest, cause)
		So(errors.Is(wrapped, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(wrapped, cause), ShouldBeTrue)
		So(wrapped.Error(), ShouldEqual, "op: bad request: eof")

		So(api.Wrap("op", nil), ShouldBeNil)
		So(errors.Is(api.Wrap("op", cause), api.ErrInternal), ShouldBeTrue)
	})
}
