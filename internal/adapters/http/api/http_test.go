package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/techwolf/example-api/internal/adapters/http/api"
	"github.com/techwolf/example-api/pkg/metrics"
)

func newTestHandler() http.Handler {
	registry := prometheus.NewRegistry()
	server := api.NewServer(api.WithMetrics(metrics.NewManager(metrics.WithPrometheusRegistry(registry)), registry))
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return server.Wrap(mux)
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestFixedResponses(t *testing.T) {
	Convey("Given the API handler", t, func() {
		h := newTestHandler()

		cases := []struct {
			method, path, want string
		}{
			{http.MethodGet, "/api/products", "This would return all products"},
			{http.MethodPost, "/api/products", "This would create a new product"},
			{http.MethodGet, "/api/users", "This would return all users"},
			{http.MethodPost, "/api/users", "This would create a new user"},
		}

		for _, tc := range cases {
			Convey(fmt.Sprintf("When calling %s %s", tc.method, tc.path), func() {
				w := do(h, tc.method, tc.path, "")

				Convey("Then the fixed text is returned as plain text", func() {
					So(w.Code, ShouldEqual, http.StatusOK)
					So(w.Body.String(), ShouldEqual, tc.want)
					So(w.Header().Get("Content-Type"), ShouldEqual, "text/plain; charset=utf-8")
				})
			})
		}

		Convey("When POST /api/users carries a body", func() {
			w := do(h, http.MethodPost, "/api/users", `{"name":"ignored","age":"not a number"}`)

			Convey("Then the body is ignored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, "This would create a new user")
			})
		})
	})
}

func TestIDRoutes(t *testing.T) {
	Convey("Given the API handler", t, func() {
		h := newTestHandler()

		routes := []struct {
			method, base, phrase string
		}{
			{http.MethodGet, "/api/products/", "This would return product with ID: "},
			{http.MethodPut, "/api/products/", "This would update product with ID: "},
			{http.MethodDelete, "/api/products/", "This would delete product with ID: "},
			{http.MethodGet, "/api/users/", "This would return user with ID: "},
			{http.MethodPut, "/api/users/", "This would update user with ID: "},
			{http.MethodDelete, "/api/users/", "This would delete user with ID: "},
			{http.MethodPatch, "/api/users/", "This would partially update user with ID: "},
		}
		ids := []string{"0", "1", "42", "-7", "9223372036854775807"}

		Convey("When calling every id route with valid ids", func() {
			Convey("Then the body embeds the id", func() {
				for _, rt := range routes {
					for _, id := range ids {
						w := do(h, rt.method, rt.base+id, "")
						So(w.Code, ShouldEqual, http.StatusOK)
						So(w.Body.String(), ShouldEqual, rt.phrase+id)
						So(w.Body.String(), ShouldContainSubstring, "ID: "+id)
					}
				}
			})
		})

		Convey("When the id has a plus sign or leading zeros", func() {
			Convey("Then it is rendered as a plain number", func() {
				So(do(h, http.MethodGet, "/api/products/+5", "").Body.String(), ShouldEqual, "This would return product with ID: 5")
				So(do(h, http.MethodGet, "/api/users/007", "").Body.String(), ShouldEqual, "This would return user with ID: 7")
			})
		})

		Convey("When the id is hex or padded with whitespace", func() {
			Convey("Then it is bound like the Java service did", func() {
				So(do(h, http.MethodGet, "/api/products/0x10", "").Body.String(), ShouldEqual, "This would return product with ID: 16")
				So(do(h, http.MethodDelete, "/api/users/%2310", "").Body.String(), ShouldEqual, "This would delete user with ID: 16")
				So(do(h, http.MethodPut, "/api/users/%2042%20", "").Body.String(), ShouldEqual, "This would update user with ID: 42")
			})
		})

		Convey("When the id is not an integer", func() {
			Convey("Then every id route answers 400", func() {
				for _, rt := range routes {
					for _, bad := range []string{"abc", "1.5", "9223372036854775808"} {
						w := do(h, rt.method, rt.base+bad, "")
						So(w.Code, ShouldEqual, http.StatusBadRequest)

						var body map[string]string
						So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
						So(body["code"], ShouldEqual, "bad_request")
						So(body["message"], ShouldContainSubstring, "invalid id")
					}
				}
			})
		})
	})
}

func TestSearch(t *testing.T) {
	Convey("Given the API handler", t, func() {
		h := newTestHandler()

		Convey("When searching with a keyword", func() {
			w := do(h, http.MethodGet, "/api/products/search?keyword=shoes", "")

			Convey("Then the keyword is echoed exactly", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, "This would search products with keyword: shoes")
			})
		})

		Convey("When the keyword is URL encoded", func() {
			w := do(h, http.MethodGet, "/api/products/search?keyword=red%20shoes%26socks", "")

			Convey("Then the decoded value is echoed", func() {
				So(w.Body.String(), ShouldEqual, "This would search products with keyword: red shoes&socks")
			})
		})

		Convey("When the keyword is present but empty", func() {
			w := do(h, http.MethodGet, "/api/products/search?keyword=", "")

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, "This would search products with keyword: ")
			})
		})

		Convey("When the keyword is missing", func() {
			w := do(h, http.MethodGet, "/api/products/search", "")

			Convey("Then a 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, `missing required parameter \"keyword\"`)
			})
		})

		Convey("When another query parameter is sent instead", func() {
			w := do(h, http.MethodGet, "/api/products/search?q=shoes", "")

			Convey("Then a 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestRouting(t *testing.T) {
	Convey("Given the API handler", t, func() {
		h := newTestHandler()

		Convey("When a method is not bound for a known path", func() {
			w := do(h, http.MethodPatch, "/api/products/1", "")

			Convey("Then 405 lists the allowed methods", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldContainSubstring, http.MethodPut)
				So(w.Header().Get("Allow"), ShouldContainSubstring, http.MethodDelete)
			})
		})

		Convey("When POSTing to a collection item", func() {
			w := do(h, http.MethodPost, "/api/users/1", "")

			Convey("Then 405 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})

		Convey("When the path is unknown", func() {
			w := do(h, http.MethodGet, "/api/orders", "")

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When a path has an extra segment", func() {
			w := do(h, http.MethodGet, "/api/users/1/roles", "")

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the API handler", t, func() {
		h := newTestHandler()

		Convey("When calling /healthz", func() {
			w := do(h, http.MethodGet, "/healthz", "")

			Convey("Then it reports ok", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})

		Convey("When calling /routes", func() {
			w := do(h, http.MethodGet, "/routes", "")

			Convey("Then the twelve business routes are listed in order", func() {
				var routes []api.RouteInfo
				So(json.Unmarshal(w.Body.Bytes(), &routes), ShouldBeNil)
				So(len(routes), ShouldEqual, 12)
				So(routes[0], ShouldResemble, api.RouteInfo{Method: "GET", Path: "/api/products", Name: "products.list", Handler: "ProductHandler.HandleList"})
				So(routes[5], ShouldResemble, api.RouteInfo{Method: "GET", Path: "/api/products/search", Name: "products.search", Handler: "ProductHandler.HandleSearch"})
				So(routes[11], ShouldResemble, api.RouteInfo{Method: "PATCH", Path: "/api/users/{id}", Name: "users.patch", Handler: "UserHandler.HandlePatch"})
			})
		})

		Convey("When searching /routes", func() {
			search := func(q string) []api.RouteInfo {
				var routes []api.RouteInfo
				So(json.Unmarshal(do(h, http.MethodGet, "/routes?q="+q, "").Body.Bytes(), &routes), ShouldBeNil)
				return routes
			}

			Convey("Then the query matches method, path, name and handler ignoring case", func() {
				So(len(search("patch")), ShouldEqual, 1)
				So(len(search("DELETE")), ShouldEqual, 2)
				So(len(search("/api/users")), ShouldEqual, 6)
				So(len(search("users.get")), ShouldEqual, 1)
				So(search("producthandler.handleget")[0].Path, ShouldEqual, "/api/products/{id}")
				So(len(search("userhandler")), ShouldEqual, 6)
			})

			Convey("Then a query matching nothing returns an empty array", func() {
				w := do(h, http.MethodGet, "/routes?q=orders", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})

			Convey("Then an empty query lists everything", func() {
				So(len(search("")), ShouldEqual, 12)
			})
		})

		Convey("When calling /metrics after traffic", func() {
			_ = do(h, http.MethodGet, "/api/products/abc", "")
			w := do(h, http.MethodGet, "/metrics", "")

			Convey("Then request and error counters are exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `example_api_http_requests_total{endpoint="products.get",method="GET",status_code="400"} 1`)
				So(w.Body.String(), ShouldContainSubstring, `example_api_http_errors_by_endpoint_total{endpoint="products.get",error_type="client_error",method="GET"} 1`)
			})
		})
	})
}

func TestServerRoutes(t *testing.T) {
	Convey("Given a new server", t, func() {
		server := api.NewServer()

		Convey("Then every route has a unique method and pattern", func() {
			seen := map[string]bool{}
			for _, r := range server.Routes() {
				key := r.Method + " " + r.Pattern
				So(seen[key], ShouldBeFalse)
				seen[key] = true
				So(r.Handler, ShouldNotBeNil)
				So(r.Name, ShouldNotBeBlank)
			}
			So(len(seen), ShouldEqual, 12)
		})

		Convey("Then registering on a nil mux panics", func() {
			So(func() { server.Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}
