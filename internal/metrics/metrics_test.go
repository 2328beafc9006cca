package metrics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/recognition-portal/internal/core/events"
	"github.com/frahmantamala/recognition-portal/internal/metrics"
	"github.com/frahmantamala/recognition-portal/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func scrape(rec *metrics.Recorder) string {
	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	Expect(err).NotTo(HaveOccurred())
	return string(body)
}

var _ = Describe("Recorder", func() {
	var (
		rec *metrics.Recorder
		bus *events.EventBus
		ctx context.Context
		now time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Now()
		rec = metrics.NewRecorder()
		bus = events.NewEventBus(logger.Discard())
		rec.Subscribe(bus)
	})

	It("counts domain events published on the bus", func() {
		Expect(bus.PublishSync(ctx, events.NewThanksCreatedEvent(1, 2, 3, now))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewThanksFinalizedEvent(true, 1, 4, 3, 1, now))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewThanksFinalizedEvent(false, 2, 4, 3, 1, now))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewThanksDeletedEvent(2, 9, now))).To(Succeed())
		Expect(bus.PublishSync(ctx, events.NewUsersImportedEvent(4, 1, now))).To(Succeed())

		out := scrape(rec)
		Expect(out).To(ContainSubstring("recognition_thanks_created_total 1"))
		Expect(out).To(ContainSubstring(`recognition_thanks_finalized_total{status="approved"} 1`))
		Expect(out).To(ContainSubstring(`recognition_thanks_finalized_total{status="rejected"} 1`))
		Expect(out).To(ContainSubstring("recognition_points_awarded_total 1"))
		Expect(out).To(ContainSubstring(`recognition_thanks_admin_actions_total{action="delete"} 1`))
		Expect(out).To(ContainSubstring("recognition_users_imported_total 4"))
		Expect(out).To(ContainSubstring("recognition_users_import_skipped_total 1"))
	})

	It("labels HTTP metrics with the route pattern", func() {
		r := chi.NewRouter()
		r.Use(rec.Middleware)
		r.Get("/thanks/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		for _, id := range []string{"1", "2"} {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/thanks/"+id, nil))
		}

		Expect(scrape(rec)).To(ContainSubstring(`recognition_http_requests_total{method="GET",route="/thanks/{id}",status="404"} 2`))
	})
})
