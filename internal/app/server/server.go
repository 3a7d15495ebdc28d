package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/shopspring/decimal"

	"paystream/internal/app/controller"
	"paystream/internal/domain/payslip"
	"paystream/internal/platform/config"
	"paystream/internal/platform/crypto"
	"paystream/internal/platform/db"
	"paystream/internal/platform/jobs"
	"paystream/internal/platform/metrics"
	"paystream/internal/storage"
	"paystream/internal/storage/memory"
	"paystream/internal/storage/postgres"
	"paystream/internal/storage/sqlite"
	"paystream/internal/transport/http/api"
	attendancehandler "paystream/internal/transport/http/handlers/attendance"
	corehandler "paystream/internal/transport/http/handlers/core"
	ledgerhandler "paystream/internal/transport/http/handlers/ledger"
	payrollhandler "paystream/internal/transport/http/handlers/payroll"
	reportshandler "paystream/internal/transport/http/handlers/reports"
	settingshandler "paystream/internal/transport/http/handlers/settings"
	"paystream/internal/transport/http/middleware"
)

type App struct {
	Config     config.Config
	Logger     *slog.Logger
	Store      storage.Store
	Controller *controller.Controller
	Jobs       *jobs.Service
	Metrics    *metrics.Collector
	Router     http.Handler

	cancel context.CancelFunc
}

// New opens the configured store, seeds and loads it, starts background
// jobs and builds the router. Close releases everything New acquired.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	decimal.MarshalJSONWithoutQuotes = true
	logger := NewLogger(cfg)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, store); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	cryptoSvc, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}

	collector := metrics.New()
	jobCtx, cancel := context.WithCancel(context.Background())
	jobService := jobs.New(200, collector)
	jobService.Start(jobCtx)

	ctrl := controller.New(store, controller.Options{
		Currency:     cfg.CurrencyLabel,
		DeviceSource: cfg.DeviceSource,
		Archive:      payslip.NewArchive(cfg.PayslipDir, cryptoSvc),
		Jobs:         jobService,
		Metrics:      collector,
	})
	if err := ctrl.Load(ctx); err != nil {
		cancel()
		_ = store.Close()
		return nil, fmt.Errorf("initial load: %w", err)
	}
	jobService.Every(jobCtx, cfg.ReloadInterval, jobs.JobRosterReload, ctrl.Reload)

	app := &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Controller: ctrl,
		Jobs:       jobService,
		Metrics:    collector,
		cancel:     cancel,
	}
	app.Router = NewRouter(app, middleware.NewIdempotencyStore(cfg.IdempotencyTTL))
	return app, nil
}

// Close stops background jobs after letting queued ones finish and closes
// the store.
func (a *App) Close() {
	a.Jobs.Wait()
	a.cancel()
	if err := a.Store.Close(); err != nil {
		slog.Warn("store close failed", "err", err)
	}
}

func NewLogger(cfg config.Config) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(!cfg.IsProduction())
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "paystream"),
		slog.String("env", cfg.Environment),
	)
}

func NewRouter(app *App, idempotency *middleware.IdempotencyStore) http.Handler {
	cfg := app.Config

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(httplog.RequestLogger(app.Logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
		Skip: func(req *http.Request, respStatus int) bool {
			return req.URL.Path == "/healthz" && respStatus == http.StatusOK
		},
	}))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.CleanPath)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.IdempotencyHeader, middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Content-Disposition", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(app.Metrics))
	}
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", middleware.GetRequestID(r.Context()))
	})

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if !app.Controller.Loaded() {
			http.Error(w, "data not loaded", http.StatusServiceUnavailable)
			return
		}
		if err := app.Controller.Ping(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Method(http.MethodGet, "/metrics", app.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))

		corehandler.NewHandler(app.Controller).RegisterRoutes(r)
		payrollhandler.NewHandler(app.Controller, idempotency).RegisterRoutes(r)
		ledgerhandler.NewHandler(app.Controller).RegisterRoutes(r)
		attendancehandler.NewHandler(app.Controller, idempotency).RegisterRoutes(r)
		settingshandler.NewHandler(app.Controller).RegisterRoutes(r)
		reportshandler.NewHandler(app.Controller, app.Jobs).RegisterRoutes(r)
	})

	if cfg.FrontendDir != "" {
		router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	}
	return router
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, migrationsFS(cfg)); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		return postgres.New(pool), nil
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." && cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite dir: %w", err)
			}
		}
		return sqlite.New(cfg.SQLitePath)
	case config.DriverMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

func migrationsFS(cfg config.Config) fs.FS {
	if cfg.MigrationsDir != "" {
		return os.DirFS(cfg.MigrationsDir)
	}
	return db.Migrations()
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func Run() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()
	slog.SetDefault(app.Logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("paystream server listening", "addr", cfg.Addr, "driver", cfg.DBDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed", "err", err)
		}
		slog.Info("paystream server stopped")
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
