package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/amped/longevity/internal/app"
	"github.com/amped/longevity/internal/config"
	"github.com/amped/longevity/pkg/logger"
)

func TestMainWiring(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		ctx := context.Background()

		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("LONGEVITY_ADDR", ":8088")
			_ = os.Setenv("LONGEVITY_CACHE_BACKEND", "none")
			defer func() {
				_ = os.Unsetenv("LONGEVITY_ADDR")
				_ = os.Unsetenv("LONGEVITY_CACHE_BACKEND")
			}()

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8088")
			convey.So(cfg.CacheBackend, convey.ShouldEqual, config.CacheNone)
		})

		convey.Convey("When the mux is built from defaults", func() {
			cfg := config.New()
			engine, closeFn, err := app.FromConfig(ctx, cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = closeFn() }()

			srv := httptest.NewServer(newMux(ctx, cfg, engine, logger.Nop()))
			defer srv.Close()

			convey.Convey("Then the API should answer", func() {
				body := `{"metric":{"type":"steps","value":4000}}`
				resp, err := http.Post(srv.URL+"/impact", "application/json", strings.NewReader(body))
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("Then the OpenAPI document should be served", func() {
				resp, err := http.Get(srv.URL + "/openapi.yaml")
				convey.So(err, convey.ShouldBeNil)
				defer resp.Body.Close()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			_ = os.Setenv("LONGEVITY_ADDR", "127.0.0.1:0")
			_ = os.Setenv("LONGEVITY_CACHE_BACKEND", "none")
			defer func() {
				_ = os.Unsetenv("LONGEVITY_ADDR")
				_ = os.Unsetenv("LONGEVITY_CACHE_BACKEND")
			}()
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			convey.Convey("Then run should shut down cleanly", func() {
				convey.So(run(cctx), convey.ShouldBeNil)
			})
		})
	})
}
