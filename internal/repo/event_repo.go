package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Vitrina/internal/domain"
)

// EventRepo — репозиторий журнала событий (store_events).
// Записи только добавляются.
type EventRepo struct {
	pool *pgxpool.Pool
}

// NewEventRepo создаёт новый EventRepo.
func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// Append добавляет событие и заполняет ID и CreatedAt.
func (r *EventRepo) Append(ctx context.Context, ev *domain.Event) error {
	query := `
		INSERT INTO store_events (store_id, event_type, message, severity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		ev.TaskID,
		ev.Type,
		ev.Message,
		ev.Severity,
	).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListByTask возвращает события магазина, новые первыми.
func (r *EventRepo) ListByTask(ctx context.Context, taskID string) ([]domain.Event, error) {
	query := `
		SELECT id, store_id, event_type, COALESCE(message, ''), severity, '' AS store_name, created_at
		FROM store_events
		WHERE store_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list events by store: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// ListRecent возвращает последние limit событий с именем магазина.
func (r *EventRepo) ListRecent(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT e.id, e.store_id, e.event_type, COALESCE(e.message, ''), e.severity,
		       COALESCE(s.name, ''), e.created_at
		FROM store_events e
		LEFT JOIN stores s ON s.store_id = e.store_id
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		var ev domain.Event
		if err := rows.Scan(
			&ev.ID,
			&ev.TaskID,
			&ev.Type,
			&ev.Message,
			&ev.Severity,
			&ev.StoreName,
			&ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
