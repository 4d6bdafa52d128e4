package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/Vitrina/internal/domain"
)

// Recover помечает как failed задачи, оставшиеся в незавершённых статусах
// после предыдущего процесса.
//
// Задачи, принятые этим процессом (см. own), не трогаются; сравнение
// по времени не используется, поэтому расхождение часов приложения
// и базы не влияет на отбор. Для каждой помеченной
// задачи пишется ровно одно событие system_recovery. Возвращает число
// помеченных задач; ошибки отдельных задач собираются в
// ErrRecoveryCompensation и не прерывают обход.
func (o *Orchestrator) Recover(ctx context.Context) (int, error) {
	listed, err := o.tasks.ListInFlight(ctx)
	if err != nil {
		return 0, fmt.Errorf("list in-flight stores: %w", err)
	}
	tasks := listed[:0]
	for _, task := range listed {
		if !o.isOwned(task.ID) {
			tasks = append(tasks, task)
		}
	}
	if len(tasks) == 0 {
		o.logger.Info("recovery: no interrupted stores")
		return 0, nil
	}

	o.logger.Info("recovery: found interrupted stores", "count", len(tasks))

	var errs []error
	recovered := 0
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		err := o.tasks.UpdateStatus(ctx, task.ID, domain.TaskStatusFailed, domain.StatusFields{
			Error: recoveryMessage,
		})
		if err != nil {
			o.logger.Error("recovery: failed to mark store", "task_id", task.ID, "error", err)
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrRecoveryCompensation, task.ID, err))
			continue
		}
		o.events.Append(ctx, task.ID, domain.EventSystemRecovery,
			fmt.Sprintf("Marked as failed due to system restart (was %s)", task.Status), domain.SeverityWarning)
		recovered++
	}

	o.logger.Info("recovery completed", "recovered", recovered, "failed", len(errs))
	return recovered, errors.Join(errs...)
}
