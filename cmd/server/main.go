package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"distrack/internal/advice"
	"distrack/internal/directory"
	"distrack/internal/distribution"
	"distrack/internal/distribution/numbering"
	"distrack/internal/distribution/service"
	"distrack/internal/document"
	"distrack/internal/history"
	"distrack/internal/identity"
	"distrack/internal/jwtauth"
	"distrack/internal/ledger"
	"distrack/internal/platform/config"
	"distrack/internal/platform/httpserver"
	"distrack/internal/platform/logger"
	"distrack/internal/platform/metrics"
	platformredis "distrack/internal/platform/redis"
	httptransport "distrack/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages. Without a database URL the
// process runs fully in memory, which is how local development works.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	deps, cleanup, err := buildDeps(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := service.New(deps,
		service.WithMetrics(metrics.New()),
		service.WithPeriodFormat(cfg.PeriodFormat),
	)

	tokens := jwtauth.NewService(cfg.JWTSigningKey, "distrack")
	handler := httptransport.New(svc, log, tokens)
	router := httptransport.NewRouter(handler)
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting distrack", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildDeps selects Postgres/Redis/Kafka backends when configured and
// in-memory ones otherwise.
func buildDeps(cfg config.Server, log *slog.Logger) (service.Deps, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	deps := service.Deps{Logger: log}

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return service.Deps{}, cleanup, fmt.Errorf("open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return service.Deps{}, cleanup, fmt.Errorf("ping database: %w", err)
		}
		cleanups = append(cleanups, func() { _ = db.Close() })

		deps.Store = distribution.NewPostgresStore(db)
		deps.Types = distribution.NewPostgresTypeStore(db)
		deps.Ledger = ledger.NewPostgresStore(db)
		deps.History = history.NewPostgresStore(db)
		deps.Advices = advice.NewPostgresStore(db)
		deps.Directory = directory.NewPostgresDirectory(db)
		deps.Authz = identity.NewPostgresRegistry(db)
		deps.Txn = newDistributionPostgresTx(db, cfg.TxTimeout)
		deps.Resolver = document.NewResolver(document.NewPostgresStore(db))
	} else {
		log.Warn("no database configured, using in-memory stores")
		deps.Store = distribution.NewInMemoryStore()
		deps.Types = distribution.NewInMemoryTypeStore()
		deps.Ledger = ledger.NewInMemoryStore()
		deps.History = history.NewInMemoryStore()
		deps.Advices = advice.NewInMemoryStore()
		deps.Directory = directory.NewInMemoryDirectory()
		deps.Authz = identity.NewInMemoryRegistry()
		deps.Txn = service.NewInMemoryTx()
		deps.Resolver = document.NewResolver(document.NewInMemoryStore())
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		cleanup()
		return service.Deps{}, func() {}, fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		cleanups = append(cleanups, func() { _ = redisClient.Close() })
		deps.Numbers = numbering.NewRedisAllocator(redisClient.Client)
	} else {
		log.Warn("no redis configured, using in-memory numbering")
		deps.Numbers = numbering.NewInMemoryAllocator()
	}

	if len(cfg.KafkaBrokers) > 0 {
		sink, err := history.NewKafkaSink(cfg.KafkaBrokers, cfg.HistoryTopic)
		if err != nil {
			cleanup()
			return service.Deps{}, func() {}, fmt.Errorf("connect kafka: %w", err)
		}
		cleanups = append(cleanups, sink.Close)
		deps.Sink = sink
	} else {
		deps.Sink = history.NopSink{}
	}

	return deps, cleanup, nil
}
