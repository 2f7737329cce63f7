package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"doseguard/internal/platform/config"
	"doseguard/internal/platform/outbox"
	"doseguard/internal/platform/postgres"
	"doseguard/internal/verification/alerts"
	"doseguard/internal/verification/service"
	alertstore "doseguard/internal/verification/store/alert"
	"doseguard/internal/verification/store/container"
	"doseguard/internal/verification/store/ledger"
	"doseguard/internal/verification/store/reference"
	"doseguard/migrations"
	audit "doseguard/pkg/platform/audit"
	auditmemory "doseguard/pkg/platform/audit/store/memory"
	auditpostgres "doseguard/pkg/platform/audit/store/postgres"
)

// stores is the persistence layer the service runs on.
type stores struct {
	containers service.ContainerStore
	ledger     service.ScanLedger
	reference  service.ReferenceStore
	alerts     alerts.Store
	audit      audit.Store
	outbox     outbox.Store
	tx         service.TxRunner
	db         *sql.DB
}

func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// openStores selects Postgres when DATABASE_URL is set and in-memory stores
// otherwise.
func openStores(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*stores, error) {
	if cfg.URL == "" {
		log.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
		box := outbox.NewInMemoryStore()
		return &stores{
			containers: container.NewInMemoryStore(),
			ledger:     ledger.NewInMemoryStore(),
			reference:  reference.NewInMemoryStore(),
			alerts:     alertstore.NewInMemoryStore(box),
			audit:      auditmemory.NewInMemoryStore(),
			outbox:     box,
			tx:         service.NewShardedTx(),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		applied, err := postgres.Migrate(ctx, db, migrations.FS)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if len(applied) > 0 {
			log.InfoContext(ctx, "applied migrations", "migrations", applied)
		}
	}
	return &stores{
		containers: container.NewPostgres(db),
		ledger:     ledger.NewPostgres(db),
		reference:  reference.NewPostgres(db),
		alerts:     alertstore.NewPostgres(db),
		audit:      auditpostgres.New(db),
		outbox:     outbox.NewPostgres(db),
		tx:         newPostgresTx(db),
		db:         db,
	}, nil
}
