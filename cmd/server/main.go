package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supportops/internal/account"
	"supportops/internal/audit"
	audithandler "supportops/internal/audit/handler"
	"supportops/internal/audit/publisher"
	auditmemory "supportops/internal/audit/store/memory"
	auditpostgres "supportops/internal/audit/store/postgres"
	auditsqlite "supportops/internal/audit/store/sqlite"
	"supportops/internal/diagnostics"
	"supportops/internal/executor"
	"supportops/internal/jwttoken"
	"supportops/internal/platform/config"
	"supportops/internal/platform/httpserver"
	"supportops/internal/platform/logger"
	"supportops/internal/platform/metrics"
	"supportops/internal/platform/redis"
	"supportops/internal/policy"
	"supportops/internal/safety"
	"supportops/internal/ticket"
	"supportops/internal/triage"
	triagehandler "supportops/internal/triage/handler"
	transporthttp "supportops/internal/transport/http"
)

// main wires the triage pipeline and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Audit store backend.
	var store audit.Store
	switch cfg.AuditBackend {
	case "memory":
		store = auditmemory.New()
	case "sqlite":
		s, err := auditsqlite.Open(cfg.AuditSQLitePath)
		if err != nil {
			log.Error("open sqlite audit store failed", "path", cfg.AuditSQLitePath, "error", err)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	case "postgres":
		s, err := auditpostgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres audit store failed", "error", err)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	}
	log.Info("audit store ready", "backend", cfg.AuditBackend)

	// Account store, optionally fronted by Redis.
	var accounts account.Store = account.NewMemoryStore()
	if cfg.AuditBackend == "postgres" {
		pg, err := account.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres account store failed", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		accounts = pg
	}
	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		accounts = account.NewCachedStore(accounts, redisClient.Client, policy.AccountCacheTTL, log)
		log.Info("account cache enabled", "ttl", policy.AccountCacheTTL)
	}

	// Decision-event publisher. Nil when no brokers are configured.
	events, err := publisher.New(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if err != nil {
		log.Error("kafka publisher setup failed", "error", err)
		os.Exit(1)
	}
	if events != nil {
		defer events.Close()
	}

	// Ticket sink: real GitHub issues when credentials are present, local
	// sequence otherwise.
	var sink ticket.Sink = ticket.NewMemorySink(cfg.TicketRepo, nil)
	if cfg.GitHubToken != "" && cfg.GitHubRepo != "" {
		gh, err := ticket.NewGitHubSink(cfg.GitHubToken, cfg.GitHubRepo)
		if err != nil {
			log.Error("github sink setup failed", "error", err)
			os.Exit(1)
		}
		sink = gh
		log.Info("ticket sink ready", "kind", "github", "repo", cfg.GitHubRepo)
	} else {
		log.Info("ticket sink ready", "kind", "memory", "repo", cfg.TicketRepo)
	}

	m := metrics.New()

	gate := safety.NewGate(store, safety.NewTokenSigner(cfg.AuditSecret), cfg.AuthorizedApprovers,
		safety.WithLogger(log),
		safety.WithMetrics(safety.NewMetrics()),
		safety.WithPublisher(events),
	)

	exec := executor.New(store, sink,
		executor.WithLogger(log),
		executor.WithMetrics(executor.NewMetrics()),
		executor.WithPublisher(events),
		executor.WithSinkTimeout(cfg.SinkTimeout),
	)

	runner := diagnostics.NewRunner(accounts, diagnostics.NewSimulatedProbe(), log)
	service := triage.NewService(
		triage.NewKeywordClassifier(),
		runner,
		triage.NewEngine(),
		gate,
		exec,
		accounts,
		triage.WithLogger(log),
		triage.WithMetrics(m),
	)

	jwtService := jwttoken.New(cfg.JWTSigningKey, "supportops")

	router := transporthttp.NewRouter(log, m,
		triagehandler.New(service, log),
		audithandler.New(store, jwtService, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
