package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/recognition-portal/internal/transport/middleware"
	"github.com/frahmantamala/recognition-portal/pkg/logger"
	chiMiddleware "github.com/go-chi/chi/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

var _ = Describe("RequestID", func() {
	It("propagates an incoming trace id", func() {
		var seen string
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = chiMiddleware.GetReqID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(seen).To(Equal("abc-123"))
		Expect(rec.Header().Get(middleware.TraceHeader)).To(Equal("abc-123"))
	})

	It("mints one when absent", func() {
		rec := httptest.NewRecorder()
		middleware.RequestID(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Header().Get(middleware.TraceHeader)).To(HaveLen(36))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("answers 500 with an error body and hides the panic value", func() {
		h := middleware.RecoveryMiddleware(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("db password leaked")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).NotTo(ContainSubstring("password"))

		var body map[string]map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["error"]["type"]).To(Equal("INTERNAL_ERROR"))
	})
})

var _ = Describe("CORS", func() {
	It("answers preflight requests for allowed origins", func() {
		h := middleware.CORS("https://portal.example, https://admin.example")(ok)

		req := httptest.NewRequest(http.MethodOptions, "/api/v1/thanks", nil)
		req.Header.Set("Origin", "https://admin.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://admin.example"))
	})

	It("does not echo unknown origins", func() {
		h := middleware.CORS("https://portal.example")(ok)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
	})
})

var _ = Describe("RateLimiter", func() {
	It("limits each client independently once the burst is spent", func() {
		h := middleware.NewRateLimiter(1, 2).Handler(ok)

		call := func(ip string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = ip + ":5000"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec
		}

		Expect(call("10.0.0.1").Code).To(Equal(http.StatusOK))
		Expect(call("10.0.0.1").Code).To(Equal(http.StatusOK))

		limited := call("10.0.0.1")
		Expect(limited.Code).To(Equal(http.StatusTooManyRequests))
		Expect(limited.Header().Get("Retry-After")).NotTo(BeEmpty())
		Expect(limited.Body.String()).To(ContainSubstring("RATE_LIMITED"))

		Expect(call("10.0.0.2").Code).To(Equal(http.StatusOK))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("masks credentials in logged bodies and headers", func() {
		var buf bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&buf, nil))
		h := middleware.LoggingMiddleware(lg)(ok)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"E001","password":"hunter22"}`))
		req.Header.Set("Authorization", "Bearer secret-token")
		req = req.WithContext(logger.WithLogger(req.Context(), lg))
		h.ServeHTTP(httptest.NewRecorder(), req)

		out := buf.String()
		Expect(out).To(ContainSubstring("E001"))
		Expect(out).NotTo(ContainSubstring("hunter22"))
		Expect(out).NotTo(ContainSubstring("secret-token"))
	})
})
