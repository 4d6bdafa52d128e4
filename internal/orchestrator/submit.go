package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/Vitrina/internal/domain"
	"github.com/shaiso/Vitrina/internal/repo"
	"github.com/shaiso/Vitrina/internal/telemetry"
)

// Submission — результат приёма запроса.
type Submission struct {
	TaskID   string            `json:"id"`
	Status   domain.TaskStatus `json:"status"`
	Decision Decision          `json:"decision,omitempty"`

	// Position — позиция в очереди (только для DecisionQueue).
	Position int `json:"queue_position,omitempty"`

	// URL — будущий адрес магазина (только для развёртывания).
	URL string `json:"url,omitempty"`
}

// SubmitProvision принимает запрос на развёртывание магазина.
//
// Проверки в порядке: имя, глобальный лимит магазинов, лимит очереди,
// лимит параллельности. Отказ не создаёт записи о магазине, но пишет
// событие admission_rejected под сгенерированным ID.
func (o *Orchestrator) SubmitProvision(ctx context.Context, name, storeType string) (*Submission, error) {
	if err := domain.ValidateStoreName(name); err != nil {
		return nil, err
	}
	if _, ok := o.running(); !ok {
		return nil, ErrOrchestratorStopped
	}

	task := domain.NewProvisionTask(name, storeType)
	logger := telemetry.WithTaskID(o.logger, task.ID)

	o.submitMu.Lock()
	defer o.submitMu.Unlock()

	// Глобальный лимит: считаются все записи, кроме failed (включая deleted).
	// Ошибка подсчёта не блокирует приём.
	count, err := o.tasks.CountExcluding(ctx, domain.TaskStatusFailed)
	if err != nil {
		logger.Warn("failed to check global store limit, proceeding", "error", err)
	} else if count >= o.cfg.MaxGlobalStores {
		return nil, o.reject(ctx, task.ID, fmt.Errorf("%w (%d)", ErrQuotaExceeded, o.cfg.MaxGlobalStores))
	}

	res, err := o.scheduler.Reserve()
	if err != nil {
		return nil, o.reject(ctx, task.ID, err)
	}

	o.own(task.ID)
	if err := o.tasks.Insert(ctx, task); err != nil {
		o.scheduler.Cancel(res)
		return nil, fmt.Errorf("insert store: %w", err)
	}

	sub := &Submission{
		TaskID:   task.ID,
		Decision: res.Decision,
		Position: res.Position,
		URL:      "http://" + o.hostname(task.ID),
	}
	switch res.Decision {
	case DecisionRun:
		sub.Status = domain.TaskStatusProvisioning
		telemetry.Admissions.WithLabelValues(telemetry.DecisionAccepted).Inc()
		o.events.Append(ctx, task.ID, domain.EventAdmissionAccepted,
			fmt.Sprintf("Store %q accepted for provisioning", task.Name), domain.SeverityInfo)
	case DecisionQueue:
		sub.Status = domain.TaskStatusQueued
		telemetry.Admissions.WithLabelValues(telemetry.DecisionQueued).Inc()
		o.events.Append(ctx, task.ID, domain.EventQueued,
			fmt.Sprintf("Provisioning queued. Position: %d", res.Position), domain.SeverityInfo)
	}

	o.scheduler.Commit(Job{
		TaskID: task.ID,
		Run:    func() { o.executeProvision(task) },
	}, res)

	logger.Info("store submitted", "decision", res.Decision, "position", res.Position)
	return sub, nil
}

// reject пишет событие отказа и возвращает err.
func (o *Orchestrator) reject(ctx context.Context, taskID string, err error) error {
	telemetry.Admissions.WithLabelValues(telemetry.DecisionRejected).Inc()
	o.logger.Warn("store rejected", "task_id", taskID, "reason", err)
	o.events.Append(ctx, taskID, domain.EventAdmissionRejected, err.Error(), domain.SeverityWarning)
	return err
}

// SubmitDelete запускает удаление магазина.
//
// Удаление не проходит контроль допуска и не занимает слот. Допустимо
// только из ready и failed; для магазина с незавершённой операцией
// возвращается ErrTaskBusy.
func (o *Orchestrator) SubmitDelete(ctx context.Context, taskID string) (*Submission, error) {
	o.submitMu.Lock()
	defer o.submitMu.Unlock()

	base, ok := o.running()
	if !ok {
		return nil, ErrOrchestratorStopped
	}

	task, err := o.tasks.GetByID(ctx, taskID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}

	if task.Status == domain.TaskStatusDeleted {
		return nil, ErrTaskNotFound
	}
	if err := task.TransitionTo(domain.TaskStatusDeleting); err != nil {
		return nil, fmt.Errorf("%w: store is %s", ErrTaskBusy, task.Status)
	}

	o.own(task.ID)
	if err := o.tasks.UpdateStatus(ctx, task.ID, domain.TaskStatusDeleting, domain.StatusFields{
		Kind: domain.TaskKindDelete,
	}); err != nil {
		return nil, fmt.Errorf("mark store deleting: %w", err)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.executeDelete(base, task)
	}()

	return &Submission{TaskID: task.ID, Status: domain.TaskStatusDeleting}, nil
}

// onDequeue пишет событие о запуске задачи из очереди.
func (o *Orchestrator) onDequeue(job Job) {
	ctx, cancel := o.bookkeepingCtx(context.Background())
	defer cancel()
	o.logger.Info("processing queued store", "task_id", job.TaskID)
	o.events.Append(ctx, job.TaskID, domain.EventDequeued, "Starting queued provisioning", domain.SeverityInfo)
}
