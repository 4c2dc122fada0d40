package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"agrocert/internal/audit"
	auditHandler "agrocert/internal/audit/handler"
	"agrocert/internal/certificate"
	certificateHandler "agrocert/internal/certificate/handler"
	"agrocert/internal/checklist"
	"agrocert/internal/compliance"
	complianceHandler "agrocert/internal/compliance/handler"
	complianceMetrics "agrocert/internal/compliance/metrics"
	"agrocert/internal/events"
	"agrocert/internal/nonconformity"
	nonconformityHandler "agrocert/internal/nonconformity/handler"
	"agrocert/internal/platform/config"
	"agrocert/internal/platform/httpserver"
	"agrocert/internal/platform/logger"
	"agrocert/internal/platform/metrics"
	platformredis "agrocert/internal/platform/redis"
	"agrocert/internal/registry"
	registryHandler "agrocert/internal/registry/handler"
	registryMetrics "agrocert/internal/registry/metrics"
	httptransport "agrocert/internal/transport/http"
)

const expirySweepInterval = 6 * time.Hour

// expiry sweeps flag certificates this close to their validity end.
const renewalWindowDays = 90

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	catalog := checklist.NewInMemoryCatalog()
	if err := catalog.Load(checklist.Seed()); err != nil {
		log.Error("load control point catalog", "error", err)
		os.Exit(1)
	}

	publisher, err := buildPublisher(cfg, log)
	if err != nil {
		log.Error("connect event broker", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	var db *sql.DB
	if cfg.Postgres.DSN != "" {
		db, err = sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
	}

	var (
		complianceStore    compliance.RecordStore
		nonconformityStore nonconformity.Store
		auditStore         audit.Store
		certificateStore   certificate.Store
	)
	if db != nil {
		complianceStore = compliance.NewPostgresRecordStore(db)
		nonconformityStore = nonconformity.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
		certificateStore = certificate.NewPostgres(db)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		complianceStore = compliance.NewInMemoryRecordStore()
		nonconformityStore = nonconformity.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		certificateStore = certificate.NewInMemoryStore()
	}

	tracker := nonconformity.NewService(nonconformityStore, publisher, log)
	complianceSvc := compliance.NewService(catalog, complianceStore, tracker, publisher, complianceMetrics.New(), log)
	auditEngine := audit.NewEngine(catalog, auditStore, publisher, log)
	certManager := certificate.NewManager(certificateStore, publisher, log)

	var registryOpts []registry.Option
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		registryOpts = append(registryOpts,
			registry.WithCache(registry.NewRedisCache(redisClient, cfg.Registry.CacheTTL, log)))
	}
	registryClient := registry.NewClient(cfg.Registry, registryMetrics.New(), log, registryOpts...)

	router := httptransport.NewRouter(log, metrics.New(),
		complianceHandler.New(complianceSvc, log),
		nonconformityHandler.New(tracker, log),
		auditHandler.New(auditEngine, complianceSvc, tracker, log),
		certificateHandler.New(certManager, log),
		registryHandler.New(registryClient, cfg.Registry.BatchConcurrency, log),
	)

	srv := httpserver.New(cfg.Server.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepExpiries(ctx, certManager, log)

	go func() {
		log.Info("starting agrocert server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func buildPublisher(cfg config.Config, log *slog.Logger) (events.Publisher, error) {
	kafka, err := events.NewKafkaPublisher(cfg.Kafka, log)
	if err != nil {
		return nil, err
	}
	if kafka == nil {
		log.Warn("no kafka brokers configured, events disabled")
		return events.Nop{}, nil
	}
	return kafka, nil
}

// sweepExpiries periodically derives expired/renewal_required status for
// active certificates.
func sweepExpiries(ctx context.Context, manager *certificate.Manager, log *slog.Logger) {
	ticker := time.NewTicker(expirySweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := manager.SweepExpiries(ctx, renewalWindowDays); err != nil {
				log.Error("certificate expiry sweep failed", "error", err)
			}
		}
	}
}
