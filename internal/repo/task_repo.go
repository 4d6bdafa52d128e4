package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Vitrina/internal/domain"
)

const taskColumns = `store_id, name, type, kind, status, namespace, url, admin_url, error, created_at, updated_at`

// TaskFilter — фильтр для списка магазинов.
type TaskFilter struct {
	// Status — только этот статус (пусто — любой).
	Status domain.TaskStatus

	// IncludeDeleted — включать удалённые магазины.
	IncludeDeleted bool

	Limit  int
	Offset int
}

// TaskRepo — репозиторий для работы с stores.
type TaskRepo struct {
	pool *pgxpool.Pool
}

// NewTaskRepo создаёт новый TaskRepo.
func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

// Insert создаёт запись о магазине.
func (r *TaskRepo) Insert(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO stores (store_id, name, type, kind, status, namespace, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Name,
		task.StoreType,
		task.Kind,
		task.Status,
		task.Namespace,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("insert store %s: %w", task.ID, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert store: %w", err)
	}
	return nil
}

// UpdateStatus обновляет статус и сопутствующие поля.
// Пустые поля не перезаписывают сохранённые значения; Error очищается
// при переходе в любой статус, кроме failed.
func (r *TaskRepo) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, fields domain.StatusFields) error {
	query := `
		UPDATE stores
		SET status     = $2,
		    kind       = COALESCE($3, kind),
		    url        = COALESCE($4, url),
		    admin_url  = COALESCE($5, admin_url),
		    error      = CASE WHEN $2 = 'failed' THEN COALESCE($6, error) ELSE NULL END,
		    updated_at = now()
		WHERE store_id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		id,
		status,
		nullString(string(fields.Kind)),
		nullString(fields.URL),
		nullString(fields.AdminURL),
		nullString(fields.Error),
	)
	if err != nil {
		return fmt.Errorf("update store status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает магазин по ID.
func (r *TaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM stores WHERE store_id = $1`
	return scanTask(r.pool.QueryRow(ctx, query, id))
}

// List возвращает магазины, новые первыми.
func (r *TaskRepo) List(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	query := `
		SELECT ` + taskColumns + `
		FROM stores
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2 OR status <> 'deleted')
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(string(filter.Status)),
		filter.IncludeDeleted,
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// CountExcluding возвращает количество магазинов, статус которых не входит
// в excluded.
func (r *TaskRepo) CountExcluding(ctx context.Context, excluded ...domain.TaskStatus) (int, error) {
	statuses := make([]string, len(excluded))
	for i, s := range excluded {
		statuses[i] = string(s)
	}

	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM stores WHERE NOT (status = ANY($1))
	`, statuses).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count stores: %w", err)
	}
	return count, nil
}

// CountByStatus возвращает количество магазинов по каждому статусу.
func (r *TaskRepo) CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM stores GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count stores by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.TaskStatus]int)
	for rows.Next() {
		var status domain.TaskStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// ListInFlight возвращает магазины в незавершённых статусах.
func (r *TaskRepo) ListInFlight(ctx context.Context) ([]domain.Task, error) {
	statuses := make([]string, 0, 3)
	for _, s := range domain.InFlightStatuses() {
		statuses = append(statuses, string(s))
	}

	query := `
		SELECT ` + taskColumns + `
		FROM stores
		WHERE status = ANY($1)
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, statuses)
	if err != nil {
		return nil, fmt.Errorf("list in-flight stores: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

// --- Helpers ---

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	var url, adminURL, taskError *string

	err := row.Scan(
		&task.ID,
		&task.Name,
		&task.StoreType,
		&task.Kind,
		&task.Status,
		&task.Namespace,
		&url,
		&adminURL,
		&taskError,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan store: %w", err)
	}

	task.URL = derefString(url)
	task.AdminURL = derefString(adminURL)
	task.Error = derefString(taskError)
	return &task, nil
}
