package swagger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/tokscope/internal/adapters/http/api"
	"github.com/okian/tokscope/internal/adapters/http/swagger"
)

func TestSwaggerHandler(t *testing.T) {
	convey.Convey("Given a swagger handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()
		swagger.Register(ctx, mux)

		convey.Convey("Then it should handle /openapi.yaml route", func() {
			req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/yaml; charset=utf-8")
			convey.So(w.Body.Len(), convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("And it should handle /api-docs route", func() {
			req := httptest.NewRequest(http.MethodGet, "/api-docs", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "text/html; charset=utf-8")
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "redoc-container")
		})
	})
}

func loadDoc(t *testing.T) *openapi3.T {
	t.Helper()
	doc, err := openapi3.NewLoader().LoadFromData(swagger.OpenAPI)
	if err != nil {
		t.Fatalf("openapi load failed: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("openapi invalid: %v", err)
	}
	return doc
}

var pathParam = regexp.MustCompile(`\{[^}]+\}`)

// TestRouteParity checks every documented operation is mounted on the API mux.
func TestRouteParity(t *testing.T) {
	doc := loadDoc(t)
	mux := http.NewServeMux()
	api.NewServer(nil, nil).Register(context.Background(), mux)

	convey.Convey("Every documented operation has a route", t, func() {
		count := 0
		for path, item := range doc.Paths.Map() {
			for method := range item.Operations() {
				concrete := pathParam.ReplaceAllStringFunc(path, func(p string) string {
					if p == "{kind}" {
						return "videos"
					}
					return "x"
				})
				req := httptest.NewRequest(strings.ToUpper(method), concrete, http.NoBody)
				_, pattern := mux.Handler(req)
				convey.So(pattern, convey.ShouldNotBeEmpty)
				count++
			}
		}
		convey.So(count, convey.ShouldBeGreaterThanOrEqualTo, 19)
	})
}
