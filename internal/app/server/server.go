// Package server wires configuration, storage, domain services and the HTTP
// transport into a runnable process.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrtime/internal/domain/identity"
	"hrtime/internal/domain/leave"
	"hrtime/internal/domain/reports"
	"hrtime/internal/domain/timerecord"
	"hrtime/internal/platform/config"
	"hrtime/internal/platform/db"
	"hrtime/internal/transport/http/api"
	authhandler "hrtime/internal/transport/http/handlers/auth"
	leavehandler "hrtime/internal/transport/http/handlers/leave"
	reportshandler "hrtime/internal/transport/http/handlers/reports"
	timerecordshandler "hrtime/internal/transport/http/handlers/timerecords"
	usershandler "hrtime/internal/transport/http/handlers/users"
	"hrtime/internal/transport/http/middleware"
)

type Server struct {
	cfg  config.Config
	pool *pgxpool.Pool
	http *http.Server
}

func New(ctx context.Context, cfg config.Config) (*Server, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	userStore := identity.NewStore(pool)
	recordStore := timerecord.NewStore(pool)
	leaveStore := leave.NewStore(pool)

	userService := identity.NewService(userStore, cfg.DefaultAnnualDays)
	recordService := timerecord.NewService(recordStore, userStore)
	leaveService := leave.NewService(leaveStore, userStore)
	reportService := reports.NewService(recordStore, userStore)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, map[string]string{"status": "ok"}, middleware.GetRequestID(r.Context()))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		if err := pool.Ping(r.Context()); err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database unreachable", reqID)
			return
		}
		api.Success(w, map[string]string{"status": "ready"}, reqID)
	})

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(userService, cfg.JWTSecret, cfg.TokenTTL).RegisterRoutes(r)
		usershandler.NewHandler(userService).RegisterRoutes(r)
		timerecordshandler.NewHandler(recordService).RegisterRoutes(r)
		leavehandler.NewHandler(leaveService).RegisterRoutes(r)
		reportshandler.NewHandler(reportService).RegisterRoutes(r)
	})

	return &Server{
		cfg:  cfg,
		pool: pool,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", s.cfg.Addr, "environment", s.cfg.Environment)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		s.pool.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.http.Shutdown(shutdownCtx)
	s.pool.Close()
	if err != nil {
		return err
	}
	return <-errCh
}
