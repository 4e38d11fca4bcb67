package smoke_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/techwolf/example-api/internal/adapters/http/api"
	"github.com/techwolf/example-api/internal/smoke"
	"github.com/techwolf/example-api/pkg/logger"
	"github.com/techwolf/example-api/pkg/metrics"
)

func newAPI() http.Handler {
	registry := prometheus.NewRegistry()
	server := api.NewServer(api.WithMetrics(metrics.NewManager(metrics.WithPrometheusRegistry(registry)), registry))
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return server.Wrap(mux)
}

func TestCases(t *testing.T) {
	Convey("Given the cases for a round", t, func() {
		cases := smoke.Cases(2)

		Convey("Then every business route is covered once", func() {
			names := map[string]bool{}
			for _, c := range cases {
				So(names[c.Name], ShouldBeFalse)
				names[c.Name] = true
			}
			So(len(cases), ShouldEqual, 15)
			So(names["products.search"], ShouldBeTrue)
			So(names["users.patch"], ShouldBeTrue)
		})

		Convey("Then IDs and keywords follow the round", func() {
			So(cases[1].Path, ShouldEqual, "/api/products/15")
			So(cases[1].WantBody, ShouldEqual, "This would return product with ID: 15")
			So(cases[5].Path, ShouldEqual, "/api/products/search?keyword=kw2")
		})
	})
}

func TestResultPassed(t *testing.T) {
	Convey("Given a result", t, func() {
		r := smoke.Result{Case: smoke.Case{WantStatus: 200, WantBody: "ok"}, Status: 200, Body: "ok"}

		Convey("Then a matching response passes", func() {
			So(r.Passed(), ShouldBeTrue)
		})

		Convey("Then a different body fails", func() {
			r.Body = "nope"
			So(r.Passed(), ShouldBeFalse)
		})

		Convey("Then an empty expected body only checks status", func() {
			r.Case.WantBody = ""
			r.Body = "anything"
			So(r.Passed(), ShouldBeTrue)
		})

		Convey("Then a transport error fails", func() {
			r.Err = errors.New("reset")
			So(r.Passed(), ShouldBeFalse)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a smoke config", t, func() {
		ctx := context.Background()
		log := logger.Nop()
		cfg := &smoke.Config{Rounds: 3, Workers: 4, Timeout: 5 * time.Second}

		Convey("When the API behaves", func() {
			ts := httptest.NewServer(newAPI())
			defer ts.Close()
			cfg.BaseURL = ts.URL + "/"

			stats, err := smoke.Run(ctx, cfg, log)

			Convey("Then every case passes", func() {
				So(err, ShouldBeNil)
				So(stats.Sent, ShouldEqual, 45)
				So(stats.Passed, ShouldEqual, 45)
				So(stats.Failures, ShouldBeEmpty)
				So(stats.Duration, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the API returns a wrong body", func() {
			good := newAPI()
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.HasPrefix(r.URL.Path, "/api/users/") && r.Method == http.MethodDelete {
					_, _ = w.Write([]byte("deleted"))
					return
				}
				good.ServeHTTP(w, r)
			}))
			defer ts.Close()
			cfg.BaseURL = ts.URL

			stats, err := smoke.Run(ctx, cfg, log)

			Convey("Then the run reports a mismatch", func() {
				So(errors.Is(err, smoke.ErrMismatch), ShouldBeTrue)
				So(stats.Failed, ShouldEqual, 3)
				So(stats.Passed, ShouldEqual, 42)
				So(stats.Failures[0].Case.Name, ShouldEqual, "users.delete")
				So(stats.Failures[0].RequestID, ShouldNotBeEmpty)
			})
		})

		Convey("When failures occur without verbose logging", func() {
			var buf bytes.Buffer
			So(logger.InitWithOptions(logger.WithFormat(logger.FormatJSON), logger.WithWriter(&buf)), ShouldBeNil)
			good := newAPI()
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/products" && r.Method == http.MethodGet {
					w.WriteHeader(http.StatusTeapot)
					return
				}
				good.ServeHTTP(w, r)
			}))
			defer ts.Close()
			cfg.BaseURL = ts.URL

			_, err := smoke.Run(ctx, cfg, logger.Get())

			Convey("Then each failed request is logged at warn level", func() {
				So(errors.Is(err, smoke.ErrMismatch), ShouldBeTrue)
				out := buf.String()
				So(strings.Count(out, `"msg":"smoke request failed"`), ShouldEqual, 3)
				So(out, ShouldContainSubstring, `"level":"WARN"`)
				So(out, ShouldContainSubstring, `"status":418`)
				So(out, ShouldNotContainSubstring, `"msg":"smoke request"`)
			})
		})

		Convey("When the health check fails", func() {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer ts.Close()
			cfg.BaseURL = ts.URL

			stats, err := smoke.Run(ctx, cfg, log)

			Convey("Then no cases are sent", func() {
				So(errors.Is(err, smoke.ErrUnhealthy), ShouldBeTrue)
				So(stats.Sent, ShouldEqual, 0)
			})
		})
	})
}
