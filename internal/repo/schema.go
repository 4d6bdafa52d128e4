package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// store_events без внешнего ключа: отказ в приёме пишется в журнал
// под сгенерированным ID, для которого записи в stores нет.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		store_id   VARCHAR(64) PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		type       VARCHAR(50)  NOT NULL DEFAULT 'woocommerce',
		kind       VARCHAR(20)  NOT NULL DEFAULT 'provision',
		status     VARCHAR(20)  NOT NULL DEFAULT 'queued',
		url        VARCHAR(500),
		admin_url  VARCHAR(500),
		namespace  VARCHAR(100) NOT NULL,
		error      TEXT,
		created_at TIMESTAMPTZ  NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ  NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stores_status ON stores (status)`,
	`CREATE INDEX IF NOT EXISTS idx_stores_created_at ON stores (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS store_events (
		id         BIGSERIAL PRIMARY KEY,
		store_id   VARCHAR(64) NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		message    TEXT,
		severity   VARCHAR(20) NOT NULL DEFAULT 'info',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_store_events_store_id ON store_events (store_id)`,
	`CREATE INDEX IF NOT EXISTS idx_store_events_created_at ON store_events (created_at DESC)`,
}

// EnsureSchema создаёт таблицы и индексы, если их ещё нет.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
