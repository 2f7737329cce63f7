package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"doseguard/internal/platform/config"
	"doseguard/internal/platform/httpserver"
	"doseguard/internal/platform/kafka"
	"doseguard/internal/platform/logger"
	"doseguard/internal/platform/outbox"
	redisclient "doseguard/internal/platform/redis"
	"doseguard/internal/platform/session"
	"doseguard/internal/verification/alerts"
	"doseguard/internal/verification/credential"
	"doseguard/internal/verification/handler"
	"doseguard/internal/verification/metrics"
	"doseguard/internal/verification/service"
	"doseguard/pkg/platform/audit/publishers/compliance"
	"doseguard/pkg/platform/audit/publishers/security"
	"doseguard/pkg/platform/circuit"
	"doseguard/pkg/platform/middleware/auth"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		slog.Error("doseguard exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := alerts.DefaultPolicy()
	if cfg.AlertPolicyFile != "" {
		policy, err = alerts.LoadPolicy(cfg.AlertPolicyFile)
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "loaded alert policy", "path", cfg.AlertPolicyFile)
	}

	digester, err := credential.NewDigester(cfg.CredentialPepper)
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer st.Close()

	checks := map[string]healthCheck{}
	if st.db != nil {
		checks["postgres"] = st.db.PingContext
	}

	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	// Without Redis, undeliverable alerts go straight to the in-memory fallback
	// and session revocation is not checked.
	var (
		queue      alerts.Queue
		revocation auth.TokenRevocationChecker
	)
	if rc != nil {
		defer rc.Close()
		queue = alerts.NewRedisQueue(rc.Client, cfg.Redis.RetryQueueKey)
		revocation = session.NewRedisRevocationList(rc.Client)
		checks["redis"] = rc.Health
	} else {
		log.WarnContext(ctx, "REDIS_URL not set, alert retry queue disabled")
	}

	var relay *outbox.Relay
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.EnsureTopics(ctx, cfg.Kafka.TopicPartitions, cfg.Kafka.ReplicationFactor,
			cfg.Kafka.AlertTopic, cfg.Kafka.AuditTopic); err != nil {
			return fmt.Errorf("ensure kafka topics: %w", err)
		}
		relay = outbox.NewRelay(st.outbox, producer, map[string]string{
			outbox.AggregateAlert: cfg.Kafka.AlertTopic,
			outbox.AggregateAudit: cfg.Kafka.AuditTopic,
		},
			outbox.WithBatchSize(cfg.Workers.OutboxBatchSize),
			outbox.WithInterval(cfg.Workers.OutboxRelayInterval),
			outbox.WithLogger(log),
			outbox.WithMetrics(outbox.NewMetrics()),
			outbox.WithBreaker(circuit.New("kafka")),
		)
		checks["kafka"] = producer.Health
	} else {
		log.WarnContext(ctx, "KAFKA_BROKERS not set, outbox relay disabled")
	}

	alertMetrics := alerts.NewMetrics()
	fallback := alerts.NewFallback()
	emitter := alerts.NewEmitter(st.alerts, queue, fallback,
		alerts.WithLogger(log),
		alerts.WithMetrics(alertMetrics),
	)
	retryWorker := alerts.NewRetryWorker(st.alerts, queue, fallback,
		alerts.WithWorkerInterval(cfg.Workers.AlertRetryInterval),
		alerts.WithWorkerLogger(log),
		alerts.WithWorkerMetrics(alertMetrics),
	)

	securityAudit := security.New(st.audit, security.WithLogger(log))
	defer securityAudit.Close()
	complianceAudit := compliance.New(st.audit,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics()),
	)

	svc, err := service.New(service.Dependencies{
		Containers: st.containers,
		Ledger:     st.ledger,
		Reference:  st.reference,
		Tx:         st.tx,
		Alerts:     emitter,
		Digester:   digester,
	},
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
		service.WithPolicy(policy),
		service.WithRetryPolicy(service.RetryPolicy{
			Attempts:       cfg.Ledger.Attempts,
			InitialBackoff: cfg.Ledger.InitialBackoff,
			MaxBackoff:     cfg.Ledger.MaxBackoff,
		}),
		service.WithComplianceAuditor(complianceAudit),
		service.WithSecurityAuditor(securityAudit),
	)
	if err != nil {
		return err
	}

	router := newRouter(routerDeps{
		logger:       log,
		verification: handler.New(svc, log),
		validator:    session.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience),
		revocation:   revocation,
		checks:       checks,
	})
	srv := httpserver.New(cfg.Addr, router, cfg.ReadHeaderTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return retryWorker.Run(gctx)
	})
	if relay != nil {
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}
	g.Go(func() error {
		log.InfoContext(gctx, "starting doseguard", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.InfoContext(shutdownCtx, "shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	// Anything still held in memory is lost on exit; say so.
	if n := fallback.Len(); n > 0 {
		log.Error("exiting with undelivered compliance alerts", "count", n)
	}
	return nil
}
