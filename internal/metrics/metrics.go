package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/recognition-portal/internal/core/events"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recognition"

// Recorder owns a private registry with the portal's collectors. Domain
// counters are fed from the event bus, HTTP ones from Middleware.
type Recorder struct {
	registry *prometheus.Registry

	thanksCreated   prometheus.Counter
	thanksFinalized *prometheus.CounterVec
	pointsAwarded   prometheus.Counter
	adminActions    *prometheus.CounterVec
	usersDeleted    prometheus.Counter
	usersImported   prometheus.Counter
	importSkipped   prometheus.Counter
	usersUpdated    prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		thanksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "thanks_created_total",
			Help: "Thanks records created.",
		}),
		thanksFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "thanks_finalized_total",
			Help: "Thanks records approved or rejected through the approval workflow.",
		}, []string{"status"}),
		pointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "points_awarded_total",
			Help: "Points carried by approved thanks.",
		}),
		adminActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "thanks_admin_actions_total",
			Help: "Administrative overrides and deletions of thanks records.",
		}, []string{"action"}),
		usersDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "users_deleted_total",
			Help: "Users removed with their cascade.",
		}),
		usersImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "users_imported_total",
			Help: "Users inserted by bulk import.",
		}),
		importSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "users_import_skipped_total",
			Help: "Bulk import rows skipped as invalid or duplicate.",
		}),
		usersUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "users_hierarchy_updates_total",
			Help: "Users touched by manager reassignment or bulk update.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.thanksCreated,
		r.thanksFinalized,
		r.pointsAwarded,
		r.adminActions,
		r.usersDeleted,
		r.usersImported,
		r.importSkipped,
		r.usersUpdated,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Subscribe attaches the recorder to every event on the bus.
func (r *Recorder) Subscribe(bus *events.EventBus) {
	bus.SubscribeAll(r.HandleEvent)
}

func (r *Recorder) HandleEvent(ctx context.Context, e events.Event) error {
	switch ev := e.(type) {
	case *events.ThanksCreatedEvent:
		r.thanksCreated.Inc()
	case *events.ThanksFinalizedEvent:
		if ev.EventType() == events.EventTypeThanksApproved {
			r.thanksFinalized.WithLabelValues("approved").Inc()
			r.pointsAwarded.Add(float64(ev.Points))
		} else {
			r.thanksFinalized.WithLabelValues("rejected").Inc()
		}
	case *events.ThanksOverriddenEvent:
		action := "override"
		if ev.Deleted {
			action = "delete"
		}
		r.adminActions.WithLabelValues(action).Inc()
	case *events.UserDeletedEvent:
		r.usersDeleted.Inc()
	case *events.UsersImportedEvent:
		r.usersImported.Add(float64(ev.Inserted))
		r.importSkipped.Add(float64(ev.Skipped))
	case *events.UsersUpdatedEvent:
		r.usersUpdated.Add(float64(len(ev.UserIDs)))
	}
	return nil
}

// Middleware records request counts and latency labelled by the chi route
// pattern, so ids in paths do not explode cardinality.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.httpRequests.WithLabelValues(req.Method, route, strconv.Itoa(status)).Inc()
		r.httpDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}
