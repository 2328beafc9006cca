package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/recognition-portal/api"
	"github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/approval"
	"github.com/frahmantamala/recognition-portal/internal/auth"
	authPostgres "github.com/frahmantamala/recognition-portal/internal/auth/postgres"
	"github.com/frahmantamala/recognition-portal/internal/core/clock"
	"github.com/frahmantamala/recognition-portal/internal/core/events"
	"github.com/frahmantamala/recognition-portal/internal/hierarchy"
	hierarchyPostgres "github.com/frahmantamala/recognition-portal/internal/hierarchy/postgres"
	"github.com/frahmantamala/recognition-portal/internal/metrics"
	"github.com/frahmantamala/recognition-portal/internal/ranking"
	rankingPostgres "github.com/frahmantamala/recognition-portal/internal/ranking/postgres"
	"github.com/frahmantamala/recognition-portal/internal/thanks"
	thanksPostgres "github.com/frahmantamala/recognition-portal/internal/thanks/postgres"
	"github.com/frahmantamala/recognition-portal/internal/transport/middleware"
	"github.com/frahmantamala/recognition-portal/internal/transport/rest"
	"github.com/frahmantamala/recognition-portal/internal/user"
	userPostgres "github.com/frahmantamala/recognition-portal/internal/user/postgres"
	"github.com/frahmantamala/recognition-portal/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *database
	EventBus *events.EventBus
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		// let in-flight audit and metrics handlers finish
		deps.EventBus.Wait()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := openDatabase(cfg.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if _, err := api.Load(context.Background()); err != nil {
		return nil, err
	}

	clk := clock.System()
	bus := events.NewEventBus(lg)
	bus.SubscribeAll(events.AuditHandler(lg))

	var recorder *metrics.Recorder
	if cfg.Observability.Metrics.Enabled {
		recorder = metrics.NewRecorder()
		recorder.Subscribe(bus)
	}

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authSvc := auth.NewService(authPostgres.NewRepository(db.Gorm), tokens, lg)

	userSvc := user.NewService(userPostgres.NewUserRepository(db.Gorm), cfg.Security.BCryptCost, clk, lg)

	thanksSvc := thanks.NewService(thanksPostgres.NewThanksRepository(db.Gorm), userSvc, clk, bus, lg)
	approvalRouter := approval.NewRouter(userSvc, thanksSvc, lg)
	thanksSvc.SetAuthorizer(approvalRouter)

	rankingSvc := ranking.NewService(rankingPostgres.NewRankingRepository(db.SQLX), clk, lg)

	hierarchySvc := hierarchy.NewService(
		hierarchyPostgres.NewStore(db.Gorm),
		cfg.Import.EffectiveBatchSize(),
		cfg.Security.BCryptCost,
		clk,
		bus,
		lg,
	)

	var limiter *middleware.RateLimiter
	if rl := cfg.Security.LoginRateLimit; rl.RequestsPerMin > 0 {
		limiter = middleware.NewRateLimiter(rl.RequestsPerMin, rl.Burst)
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Dependencies{
		DB:             db.SQLX,
		Auth:           auth.NewHandler(authSvc),
		RBAC:           auth.NewRBACAuthorization(auth.NewRoleChecker(), lg),
		Users:          user.NewHandler(userSvc),
		Thanks:         thanks.NewHandler(thanksSvc),
		Approvals:      approval.NewHandler(approvalRouter),
		Rankings:       ranking.NewHandler(rankingSvc),
		Hierarchy:      hierarchy.NewHandler(hierarchySvc),
		Metrics:        recorder,
		MetricsPath:    cfg.Observability.Metrics.Path,
		LoginLimiter:   limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		OpenAPI:        api.Spec,
		Logger:         lg,
	})

	return &Dependencies{
		Config:   cfg,
		DB:       db,
		EventBus: bus,
		Router:   router,
		Logger:   lg,
	}, nil
}
