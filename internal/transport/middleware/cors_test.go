package middleware_test

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lop-gin/janus/internal/transport/middleware"
)

var _ = Describe("CORS", func() {
	noop := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	request := func(origins, requestOrigin, method string) *httptest.ResponseRecorder {
		handler := middleware.CORS(origins)(noop)
		req := httptest.NewRequest(method, "/api/v1/ping", nil)
		if requestOrigin != "" {
			req.Header.Set("Origin", requestOrigin)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	It("should echo a configured origin", func() {
		rec := request("https://app.example.test", "https://app.example.test", http.MethodGet)

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://app.example.test"))
		Expect(rec.Header().Get("Vary")).To(Equal("Origin"))
	})

	It("should not allow an origin outside the configured list", func() {
		rec := request("https://app.example.test", "https://evil.example.test", http.MethodGet)

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})

	It("should pick the matching origin from a comma-separated list", func() {
		rec := request("https://one.test, https://two.test", "https://two.test", http.MethodGet)

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://two.test"))
	})

	It("should allow everything when configured with a wildcard", func() {
		rec := request("*", "https://anywhere.test", http.MethodGet)

		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
	})

	It("should answer preflight with 204 and no body", func() {
		rec := request("https://app.example.test", "https://app.example.test", http.MethodOptions)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Body.Len()).To(BeZero())
		Expect(rec.Header().Get("Access-Control-Allow-Methods")).To(ContainSubstring("PATCH"))
	})
})
