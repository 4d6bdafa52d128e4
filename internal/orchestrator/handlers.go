package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Vitrina/internal/domain"
	"github.com/shaiso/Vitrina/internal/setup"
	"github.com/shaiso/Vitrina/internal/telemetry"
)

// storeURLs — адреса готового магазина.
type storeURLs struct {
	URL      string
	AdminURL string
}

type provisionResult struct {
	urls storeURLs
	err  error
}

// hostname возвращает wildcard-DNS имя магазина.
func (o *Orchestrator) hostname(taskID string) string {
	return fmt.Sprintf("%s.%s.nip.io", taskID, o.cfg.ClusterIP)
}

// executeProvision исполняет развёртывание с общим таймаутом.
//
// Workflow и таймер гонятся; итоговый статус пишет только эта функция.
// Вызывается из слота Scheduler, слот освобождается при возврате.
func (o *Orchestrator) executeProvision(task *domain.Task) {
	base, ok := o.running()
	if !ok {
		return
	}
	logger := telemetry.WithTaskID(o.logger, task.ID)
	start := time.Now()

	ctx, cancel := context.WithCancel(base)
	defer cancel()

	ex := newExecution(task.ID, o.events)
	done := make(chan provisionResult, 1)
	go func() {
		urls, err := o.provisionWorkflow(ctx, ex, task)
		done <- provisionResult{urls: urls, err: err}
	}()

	timer := time.NewTimer(o.cfg.ProvisionTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		ex.decide()
		switch {
		case res.err == nil:
			o.finishProvision(task, res.urls)
			o.observe(domain.TaskKindProvision, "ready", start)
		case base.Err() != nil:
			// Остановка процесса: статус остаётся незавершённым,
			// его исправит восстановление при следующем запуске.
			logger.Warn("provisioning interrupted by shutdown", "error", res.err)
			o.observe(domain.TaskKindProvision, "interrupted", start)
		default:
			o.failProvision(task, res.err.Error(), domain.EventProvisioningFailed)
			o.cleanup(task)
			o.observe(domain.TaskKindProvision, "failed", start)
		}

	case <-timer.C:
		// Сначала отмена: decide может ждать записи статуса в guard.
		cancel()
		ex.decide()
		err := fmt.Errorf("%w after %s", ErrOverallTimeout, o.cfg.ProvisionTimeout)
		logger.Error("provisioning timed out", "timeout", o.cfg.ProvisionTimeout)
		o.failProvision(task, err.Error(), domain.EventProvisioningTimeout)

		// Ждём остановки проигравшего workflow, чтобы очистка
		// не гонялась с его последним вызовом backend.
		select {
		case <-done:
		case <-time.After(o.cfg.LoserGrace):
			logger.Warn("workflow did not stop within grace period", "grace", o.cfg.LoserGrace)
		}
		o.cleanup(task)
		o.observe(domain.TaskKindProvision, "timeout", start)
	}
}

// provisionWorkflow выполняет шаги развёртывания и возвращает адреса магазина.
func (o *Orchestrator) provisionWorkflow(ctx context.Context, ex *execution, task *domain.Task) (storeURLs, error) {
	logger := telemetry.WithTaskID(o.logger, task.ID)

	ok, err := ex.guard(func() error {
		bctx, cancel := context.WithTimeout(ctx, bookkeepingTimeout)
		defer cancel()
		return o.tasks.UpdateStatus(bctx, task.ID, domain.TaskStatusProvisioning, domain.StatusFields{
			Kind: domain.TaskKindProvision,
		})
	})
	if !ok {
		return storeURLs{}, ctx.Err()
	}
	if err != nil {
		return storeURLs{}, fmt.Errorf("mark provisioning: %w", err)
	}

	ex.emit(ctx, domain.EventProvisioningStarted, "Starting store provisioning", domain.SeverityInfo)

	host := o.hostname(task.ID)
	urls := storeURLs{
		URL:      "http://" + host,
		AdminURL: "http://" + host + "/wp-admin",
	}

	params, err := setup.NewDeployParams(task.Namespace, task.Name, host)
	if err != nil {
		return storeURLs{}, err
	}

	if err := runSteps(ctx, ex, logger, o.provisionSteps(task, params, urls)); err != nil {
		return storeURLs{}, err
	}

	ex.emit(ctx, domain.EventWooCommerceDone, "WooCommerce configuration complete", domain.SeveritySuccess)
	return urls, nil
}

// provisionSteps собирает шаги развёртывания магазина.
func (o *Orchestrator) provisionSteps(task *domain.Task, params domain.DeployParams, urls storeURLs) []Step {
	ns := task.Namespace
	var target string

	steps := []Step{
		{
			Name:         "deploy",
			Event:        domain.EventHelmDeploy,
			Message:      "Deploying store infrastructure via Helm",
			AbortOnError: true,
			Run: func(ctx context.Context) error {
				return o.backend.Deploy(ctx, params)
			},
		},
	}

	for _, c := range o.components() {
		steps = append(steps, Step{
			Name:         "wait " + c.Name,
			Event:        c.Event,
			Message:      fmt.Sprintf("Waiting for %s to be ready (up to %s)", c.Name, c.Timeout),
			AbortOnError: true,
			Run: func(ctx context.Context) error {
				return o.backend.WaitReady(ctx, ns, c.Name, c.Timeout)
			},
		})
	}

	steps = append(steps,
		Step{
			Name:         "settle",
			Event:        domain.EventWordPressInitWait,
			Message:      "Waiting for WordPress initialization",
			AbortOnError: true,
			Run:          sleep(o.cfg.SettleDelay),
		},
		Step{
			Name:    "ingress",
			Event:   domain.EventIngressCreate,
			Message: "Ingress created via Helm: " + params.Hostname,
		},
		Step{
			Name:         "locate target",
			Event:        domain.EventLocateTarget,
			Message:      "Locating WordPress pod",
			AbortOnError: true,
			Run: func(ctx context.Context) error {
				pod, err := o.backend.LocateExecutionTarget(ctx, ns)
				if err != nil {
					return err
				}
				target = pod
				return nil
			},
		},
		Step{
			Name:    "woocommerce",
			Event:   domain.EventWooCommerceInit,
			Message: "Configuring WooCommerce",
		},
	)

	cmds := setup.WooCommerce(setup.Params{
		StoreURL:      urls.URL,
		StoreName:     task.Name,
		AdminUser:     o.cfg.AdminUser,
		AdminPassword: params.AdminPassword,
		AdminEmail:    o.cfg.AdminEmail,
		SampleCatalog: o.cfg.SampleCatalog,
	})
	for _, cmd := range cmds {
		steps = append(steps, Step{
			Name:    cmd.Name,
			Event:   domain.EventWooCommerceConfig,
			Message: cmd.Name,
			Run: func(ctx context.Context) error {
				_, err := o.backend.ExecCommand(ctx, ns, target, cmd.Cmd)
				return err
			},
		})
	}
	return steps
}

// components — компоненты, готовности которых ждёт развёртывание.
func (o *Orchestrator) components() []domain.Component {
	return []domain.Component{
		{Name: "mysql", Event: domain.EventMySQLWait, Timeout: o.cfg.MySQLTimeout},
		{Name: "woocommerce", Event: domain.EventWordPressWait, Timeout: o.cfg.WordPressTimeout},
	}
}

// finishProvision переводит магазин в ready.
func (o *Orchestrator) finishProvision(task *domain.Task, urls storeURLs) {
	ctx, cancel := o.bookkeepingCtx(context.Background())
	defer cancel()

	if err := o.updateStatus(ctx, task.ID, domain.TaskStatusReady, domain.StatusFields{
		URL:      urls.URL,
		AdminURL: urls.AdminURL,
	}); err != nil {
		return
	}
	o.events.Append(ctx, task.ID, domain.EventProvisioningComplete, "Store is ready!", domain.SeveritySuccess)
}

// failProvision переводит магазин в failed и пишет событие ошибки.
func (o *Orchestrator) failProvision(task *domain.Task, message, eventType string) {
	ctx, cancel := o.bookkeepingCtx(context.Background())
	defer cancel()

	_ = o.updateStatus(ctx, task.ID, domain.TaskStatusFailed, domain.StatusFields{Error: message})
	o.events.Append(ctx, task.ID, eventType, message, domain.SeverityError)
}

// cleanup удаляет ресурсы неудавшегося развёртывания.
// Ошибка очистки не меняет итог задачи.
func (o *Orchestrator) cleanup(task *domain.Task) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(o.baseCtx), o.cfg.DeleteTimeout)
	defer cancel()

	o.events.Append(ctx, task.ID, domain.EventCleanupStarted,
		"Removing resources of failed provisioning", domain.SeverityInfo)

	if err := o.backend.ForceDeleteResources(ctx, task.Namespace); err != nil {
		o.logger.Error("cleanup failed", "task_id", task.ID, "error", err)
		o.events.Append(ctx, task.ID, domain.EventCleanupFailed,
			fmt.Sprintf("Cleanup failed: %v", err), domain.SeverityWarning)
	}
}

// executeDelete удаляет магазин: штатно через release, если он есть,
// иначе напрямую через namespace. Повторов нет.
func (o *Orchestrator) executeDelete(base context.Context, task *domain.Task) {
	logger := telemetry.WithTaskID(o.logger, task.ID)
	start := time.Now()

	ctx, cancel := context.WithTimeout(base, o.cfg.DeleteTimeout)
	defer cancel()

	o.events.Append(ctx, task.ID, domain.EventDeletionStarted, "Starting store deletion", domain.SeverityInfo)

	rec, err := o.backend.GetDeploymentRecord(ctx, task.Namespace)
	if err != nil {
		logger.Warn("failed to read deployment record, using direct deletion", "error", err)
		rec = nil
	}

	if rec != nil {
		o.events.Append(ctx, task.ID, domain.EventDeletionMethod,
			fmt.Sprintf("Found Helm release %s (revision %d), uninstalling", rec.Release, rec.Revision), domain.SeverityInfo)
		err = o.backend.Delete(ctx, task.Namespace)
	} else {
		o.events.Append(ctx, task.ID, domain.EventDeletionMethod,
			"No Helm release found, deleting namespace directly", domain.SeverityInfo)
		err = o.backend.ForceDeleteResources(ctx, task.Namespace)
	}

	bctx, bcancel := o.bookkeepingCtx(ctx)
	defer bcancel()

	if err != nil {
		if base.Err() != nil {
			logger.Warn("deletion interrupted by shutdown", "error", err)
			o.observe(domain.TaskKindDelete, "interrupted", start)
			return
		}
		logger.Error("store deletion failed", "error", err)
		_ = o.updateStatus(bctx, task.ID, domain.TaskStatusFailed, domain.StatusFields{Error: err.Error()})
		o.events.Append(bctx, task.ID, domain.EventDeletionFailed, err.Error(), domain.SeverityError)
		o.observe(domain.TaskKindDelete, "failed", start)
		return
	}

	if err := o.updateStatus(bctx, task.ID, domain.TaskStatusDeleted, domain.StatusFields{}); err != nil {
		return
	}
	o.events.Append(bctx, task.ID, domain.EventDeletionComplete, "Store deleted successfully", domain.SeveritySuccess)
	o.observe(domain.TaskKindDelete, "deleted", start)
}

func (o *Orchestrator) observe(kind domain.TaskKind, outcome string, start time.Time) {
	telemetry.WorkflowDuration.WithLabelValues(string(kind), outcome).Observe(time.Since(start).Seconds())
}
