package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"boxoffice/internal/boxoffice/handler"
	boxofficeMetrics "boxoffice/internal/boxoffice/metrics"
	"boxoffice/internal/boxoffice/ports"
	"boxoffice/internal/boxoffice/service"
	boxofficeStore "boxoffice/internal/boxoffice/store"
	httpapi "boxoffice/internal/http"
	"boxoffice/internal/ledger"
	"boxoffice/internal/platform/config"
	"boxoffice/internal/platform/httpserver"
	"boxoffice/internal/platform/identity"
	"boxoffice/internal/platform/idempotency"
	"boxoffice/internal/platform/logger"
	"boxoffice/internal/platform/metrics"
	platformRedis "boxoffice/internal/platform/redis"
	id "boxoffice/pkg/domain"
	"boxoffice/pkg/platform/clock"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	devToken := pflag.String("dev-token", "", "print a bearer token for `account` signed with the configured key and exit")
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	pflag.Parse()

	log := logger.New()
	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if *devToken != "" {
		account, err := id.ParseAccountID(*devToken)
		if err != nil {
			log.Error("invalid account", "error", err)
			os.Exit(1)
		}
		token, err := identity.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer).Issue(account, 24*time.Hour)
		if err != nil {
			log.Error("failed to issue token", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *migrateOnly); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger, migrateOnly bool) error {
	var db *sql.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = openDatabase(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := migrate(ctx, db); err != nil {
			return err
		}
		log.Info("database migrated")
	}
	if migrateOnly {
		if db == nil {
			return errors.New("--migrate-only requires BOXOFFICE_DATABASE_URL")
		}
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	backend := newLedgerBackend(cfg, db)
	storeTx := newStoreTx(cfg, db, backend.participant)
	log.Info("state backends selected",
		"store", cfg.Database.StoreBackend,
		"ledger", cfg.Database.LedgerBackend,
	)

	pipeline, err := newAuditPipeline(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	if err := seedDevDeposits(ctx, cfg, backend, pipeline.publisher, log); err != nil {
		return err
	}

	svc, err := service.New(storeTx, serviceConfig(cfg),
		service.WithLogger(log),
		service.WithAuditPublisher(pipeline.publisher),
		service.WithMetrics(boxofficeMetrics.New(reg)),
		service.WithBalances(backend.balances),
	)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	tokens := identity.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)
	if cfg.UsesDevSigningKey() {
		log.Warn("using the development JWT signing key; set BOXOFFICE_JWT_SIGNING_KEY in production")
	}

	checks := pipeline.checks
	idemStore := idempotency.Store(idempotency.NewInMemoryStore())
	if cfg.Redis.URL != "" {
		client, err := platformRedis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		idemStore = idempotency.NewRedisStore(client.Client)
		checks = append(checks, httpapi.HealthCheck{Name: "redis", Check: client.Health})
	}
	if db != nil {
		checks = append(checks, httpapi.HealthCheck{Name: "postgres", Check: db.PingContext})
	}

	h := handler.New(svc, log, metrics.New(reg), tokens,
		handler.WithClock(clock.NewMonotonic()),
		handler.WithIdempotency(idemStore, cfg.Idempotency.TTL),
		handler.WithRequestTimeout(cfg.Server.RequestTimeout),
	)
	router := httpapi.NewRouter(reg, checks, h)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, srv, 10*time.Second, log)
	})
	if pipeline.relay != nil {
		g.Go(func() error {
			return pipeline.relay.Run(gctx)
		})
	}
	return g.Wait()
}

func openDatabase(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func serviceConfig(cfg config.Config) service.Config {
	svcCfg := service.DefaultConfig()
	svcCfg.Limits.MinAdmissionFee = id.Amount(cfg.Boxoffice.MinAdmissionFee)
	svcCfg.Limits.MaxCapacity = cfg.Boxoffice.MaxCapacity
	svcCfg.ProtectionEnabled = cfg.Boxoffice.ProtectionEnabled
	svcCfg.ProtectionRate = cfg.Boxoffice.ProtectionRate
	svcCfg.VaultAccount = id.AccountID(cfg.Boxoffice.VaultAccount)
	return svcCfg
}

// ledgerBackend groups the views of one ledger the server needs.
type ledgerBackend struct {
	participant ledger.Participant
	balances    ports.BalanceReader
	credit      func(ctx context.Context, account id.AccountID, amount id.Amount) error
}

func newLedgerBackend(cfg config.Config, db *sql.DB) ledgerBackend {
	if cfg.Database.LedgerBackend == config.BackendPostgres {
		pg := ledger.NewPostgres(db)
		return ledgerBackend{
			// Only used by the memory store; the postgres store joins its
			// own transaction through ledger.NewPostgresTx.
			participant: ledger.NewCompensating(pg),
			balances:    pg,
			credit:      pg.Credit,
		}
	}
	mem := ledger.NewInMemory()
	return ledgerBackend{
		participant: mem,
		balances:    mem,
		credit:      mem.Credit,
	}
}

func newStoreTx(cfg config.Config, db *sql.DB, participant ledger.Participant) ports.StoreTx {
	if cfg.Database.StoreBackend == config.BackendPostgres {
		return boxofficeStore.NewPostgresTxRunner(db)
	}
	return boxofficeStore.NewInMemoryStore(participant)
}
