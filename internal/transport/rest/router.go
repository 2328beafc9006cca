package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/recognition-portal/internal/approval"
	"github.com/frahmantamala/recognition-portal/internal/auth"
	"github.com/frahmantamala/recognition-portal/internal/hierarchy"
	"github.com/frahmantamala/recognition-portal/internal/metrics"
	"github.com/frahmantamala/recognition-portal/internal/ranking"
	"github.com/frahmantamala/recognition-portal/internal/thanks"
	"github.com/frahmantamala/recognition-portal/internal/transport/middleware"
	"github.com/frahmantamala/recognition-portal/internal/transport/swagger"
	"github.com/frahmantamala/recognition-portal/internal/user"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
)

// Dependencies is everything the router mounts. Nil handlers skip their routes.
type Dependencies struct {
	DB             *sqlx.DB
	Auth           *auth.Handler
	RBAC           *auth.RBACAuthorization
	Users          *user.Handler
	Thanks         *thanks.Handler
	Approvals      *approval.Handler
	Rankings       *ranking.Handler
	Hierarchy      *hierarchy.Handler
	Metrics        *metrics.Recorder
	MetricsPath    string
	LoginLimiter   *middleware.RateLimiter
	AllowedOrigins string
	OpenAPI        []byte
	Logger         *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, deps.Metrics.Handler())
	}

	if len(deps.OpenAPI) > 0 {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(deps.OpenAPI)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	limit := func(h http.HandlerFunc) http.Handler {
		if deps.LoginLimiter == nil {
			return h
		}
		return deps.LoginLimiter.Handler(h)
	}

	router.Route("/api/v1", func(r chi.Router) {
		if deps.DB != nil {
			health := NewHealthHandler(deps.DB)
			r.Get("/health", health.healthCheckHandler)
			r.Get("/ping", health.pingHandler)
		}

		if deps.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Method(http.MethodPost, "/login", limit(deps.Auth.Login))
			if deps.Users != nil {
				ar.Method(http.MethodPost, "/register", limit(deps.Users.Register))
			}
			ar.Post("/refresh", deps.Auth.RefreshToken)
			ar.Post("/logout", deps.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(deps.Auth.AuthMiddleware)

			if deps.Users != nil {
				pr.Get("/users/me", deps.Users.GetCurrentUser)
				pr.Post("/users/me/password", deps.Users.ChangePassword)
				pr.Get("/users", deps.Users.ListUsers)
				pr.Get("/users/{id}", deps.Users.GetUser)
				pr.Get("/users/{id}/reports", deps.Users.ListReports)
			}

			pr.Group(func(adm chi.Router) {
				adm.Use(deps.RBAC.RequireAdmin())

				if deps.Users != nil {
					adm.Patch("/users/{id}", deps.Users.UpdateProfile)
					adm.Patch("/users/{id}/role", deps.Users.UpdateRole)
					adm.Post("/users/{id}/password-reset", deps.Users.ResetPassword)
				}
				if deps.Hierarchy != nil {
					adm.Patch("/users/{id}/manager", deps.Hierarchy.ReassignManager)
					adm.Delete("/users/{id}", deps.Hierarchy.DeleteUser)
					adm.Post("/users/bulk-update", deps.Hierarchy.BulkUpdate)
					adm.Post("/users/import", deps.Hierarchy.Import)
				}
				if deps.Thanks != nil {
					adm.Get("/admin/thanks", deps.Thanks.AdminList)
					adm.Patch("/admin/thanks/{id}", deps.Thanks.AdminUpdate)
					adm.Delete("/admin/thanks/{id}", deps.Thanks.AdminDelete)
				}
			})

			if deps.Thanks != nil {
				pr.Post("/thanks", deps.Thanks.CreateThanks)
				pr.Get("/thanks/recent", deps.Thanks.ListRecent)
				pr.Get("/thanks/me", deps.Thanks.ListMine)
				pr.Get("/thanks/{id}", deps.Thanks.GetThanks)
				pr.Get("/stats/{userId}", deps.Thanks.GetStats)

				pr.Group(func(apr chi.Router) {
					apr.Use(deps.RBAC.RequireApprover())
					apr.Post("/thanks/{id}/approve", deps.Thanks.Approve)
					apr.Post("/thanks/{id}/reject", deps.Thanks.Reject)
				})
			}

			if deps.Approvals != nil {
				pr.Get("/approvals", deps.Approvals.PendingQueue)
			}

			if deps.Rankings != nil {
				pr.Get("/rankings/{period}", deps.Rankings.GetRankings)
			}
		})
	})
}
