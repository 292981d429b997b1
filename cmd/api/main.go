package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/filmlib/internal/auth"
	"github.com/geocoder89/filmlib/internal/config"
	"github.com/geocoder89/filmlib/internal/db"
	"github.com/geocoder89/filmlib/internal/filters"
	httpx "github.com/geocoder89/filmlib/internal/http"
	"github.com/geocoder89/filmlib/internal/library"
	"github.com/geocoder89/filmlib/internal/observability"
	"github.com/geocoder89/filmlib/internal/redisclient"
	"github.com/geocoder89/filmlib/internal/repo/memory"
	"github.com/geocoder89/filmlib/internal/repo/postgres"
	"github.com/geocoder89/filmlib/internal/repo/sqlite"
	"github.com/geocoder89/filmlib/internal/session"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// a missing .env is fine, real deployments use the environment
	_ = godotenv.Load()

	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, "filmlib-api", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, cancel := config.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	backend, err := openStore(ctx, cfg, prom)
	if err != nil {
		return err
	}
	defer backend.close()

	seedCtx, cancel := config.WithTimeout(ctx, 30*time.Second)
	err = db.EnsureUsers(seedCtx, backend.users, cfg.SeedUsers, log)
	cancel()
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	sessions, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	var draining atomic.Bool

	registry := filters.Default()
	gate := auth.NewGate(backend.users, sessions, auth.NewManager(cfg.SessionSecret, cfg.SessionTTL))

	router := httpx.NewRouter(httpx.Deps{
		Log:      log,
		Cfg:      cfg,
		Library:  library.New(backend.films, registry),
		Filters:  registry,
		Gate:     gate,
		Prom:     prom,
		Gatherer: reg,
		Ping:     backend.ping,

		ShuttingDown: draining.Load,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "db_driver", cfg.DBDriver)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	log.Info("server shutting down")
	draining.Store(true)

	shutdownCtx, cancelShutdown := config.WithTimeout(ctx, 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

type store struct {
	users interface {
		auth.UserReader
		db.UserSeeder
	}
	films library.FilmRepository
	ping  func() error
	close func()
}

func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom) (store, error) {
	switch cfg.DBDriver {
	case "postgres":
		pool, err := db.NewPool(cfg.DBURL)
		if err != nil {
			return store{}, fmt.Errorf("db connect: %w", err)
		}

		mctx, cancel := config.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		if err := db.Migrate(mctx, pool); err != nil {
			pool.Close()
			return store{}, fmt.Errorf("db migrate: %w", err)
		}

		return store{
			users: postgres.NewUsersRepo(pool, prom),
			films: postgres.NewFilmsRepo(pool, prom),
			ping: func() error {
				pctx, cancel := config.WithTimeout(ctx, time.Second)
				defer cancel()
				return pool.Ping(pctx)
			},
			close: pool.Close,
		}, nil

	case "sqlite":
		gdb, sqlDB, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return store{}, err
		}

		return store{
			users: sqlite.NewUsersRepo(gdb, prom),
			films: sqlite.NewFilmsRepo(gdb, prom),
			ping: func() error {
				pctx, cancel := config.WithTimeout(ctx, time.Second)
				defer cancel()
				return sqlDB.PingContext(pctx)
			},
			close: func() { _ = sqlDB.Close() },
		}, nil

	case "memory":
		return store{
			users: memory.NewUsersRepo(),
			films: memory.NewFilmsRepo(),
			close: func() {},
		}, nil
	}

	return store{}, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
}

// openSessions uses Redis when configured and an in-process store otherwise.
func openSessions(ctx context.Context, cfg config.Config) (session.Store, func(), error) {
	if cfg.RedisAddr == "" {
		return session.NewMemoryStore(), func() {}, nil
	}

	rc := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pctx, cancel := config.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rc.Ping(pctx); err != nil {
		_ = rc.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	return session.NewRedisStore(rc.Raw()), func() { _ = rc.Close() }, nil
}
