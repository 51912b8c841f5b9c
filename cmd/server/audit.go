package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	boxofficeStore "boxoffice/internal/boxoffice/store"
	httpapi "boxoffice/internal/http"
	"boxoffice/internal/ledger"
	"boxoffice/internal/platform/config"
	id "boxoffice/pkg/domain"
	audit "boxoffice/pkg/platform/audit"
	"boxoffice/pkg/platform/audit/publisher"
	"boxoffice/pkg/platform/audit/relay"
	auditmemory "boxoffice/pkg/platform/audit/store/memory"
	auditpostgres "boxoffice/pkg/platform/audit/store/postgres"
	"boxoffice/pkg/platform/audit/worker"
)

const auditBufferSize = 1024

// auditPipeline routes committed events to their sink:
//   - database configured: postgres outbox, relayed to Kafka when brokers are set
//   - Kafka only: produced directly from the async publisher
//   - neither: kept in memory
type auditPipeline struct {
	publisher *publisher.Publisher
	relay     *worker.Worker
	kafka     *relay.KafkaStore
	checks    []httpapi.HealthCheck
}

func newAuditPipeline(ctx context.Context, cfg config.Config, db *sql.DB, log *slog.Logger) (*auditPipeline, error) {
	p := &auditPipeline{}

	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := relay.NewKafkaStore(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		ensureCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := kafka.EnsureTopic(ensureCtx, 3, 1); err != nil {
			kafka.Close()
			return nil, err
		}
		p.kafka = kafka
		p.checks = append(p.checks, httpapi.HealthCheck{Name: "kafka", Check: kafka.Ping})
	}

	var sink audit.Store
	switch {
	case db != nil:
		outbox := auditpostgres.New(db)
		sink = outbox
		if p.kafka != nil {
			p.relay = worker.NewWorker(outbox, p.kafka, worker.WithLogger(log))
		}
		log.Info("audit events written to postgres outbox", "relay", p.relay != nil)
	case p.kafka != nil:
		sink = p.kafka
		log.Info("audit events produced to kafka", "topic", cfg.Kafka.Topic)
	default:
		sink = auditmemory.NewInMemoryStore()
		log.Info("audit events kept in memory")
	}

	p.publisher = publisher.NewPublisher(sink,
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(log),
	)
	return p, nil
}

// Close drains buffered events before the Kafka client goes away.
func (p *auditPipeline) Close() {
	p.publisher.Close()
	if p.kafka != nil {
		p.kafka.Close()
	}
}

// migrate applies every schema the server owns. Each is idempotent.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, m := range []func(context.Context, *sql.DB) error{
		ledger.Migrate,
		boxofficeStore.Migrate,
		auditpostgres.Migrate,
	} {
		if err := m(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

// seedDevDeposits credits the configured development balances once at start-up.
func seedDevDeposits(ctx context.Context, cfg config.Config, backend ledgerBackend, pub *publisher.Publisher, log *slog.Logger) error {
	for raw, amount := range cfg.DevDeposits {
		account, err := id.ParseAccountID(raw)
		if err != nil {
			return fmt.Errorf("dev deposit: %w", err)
		}
		if err := backend.credit(ctx, account, id.Amount(amount)); err != nil {
			return fmt.Errorf("dev deposit for %s: %w", account, err)
		}
		log.Warn("credited development balance", "account", account, "amount", amount)
		if err := pub.Emit(ctx, audit.Event{
			Action: string(audit.EventAccountCredited),
			Actor:  account,
			Amount: id.Amount(amount),
		}); err != nil {
			log.Warn("failed to emit audit event", "action", audit.EventAccountCredited, "error", err)
		}
	}
	return nil
}
