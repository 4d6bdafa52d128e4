package orchestrator

import (
	"context"
	"sync"

	"github.com/shaiso/Vitrina/internal/domain"
)

// execution — состояние одного исполнения workflow развёртывания.
//
// Workflow и таймер гонятся; первый вызвавший decide становится
// единственным писателем итогового статуса. После decide новые записи
// workflow (события и смена статуса) отбрасываются.
//
// Запись события идёт без блокировки: зависший EventLog не должен
// задерживать decide. Событие, начатое до decide, может завершиться
// после него.
type execution struct {
	taskID string
	events EventLog

	mu      sync.Mutex
	decided bool
}

func newExecution(taskID string, events EventLog) *execution {
	return &execution{taskID: taskID, events: events}
}

// decide фиксирует исход. Возвращает false, если исход уже зафиксирован.
func (e *execution) decide() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.decided {
		return false
	}
	e.decided = true
	return true
}

// isDecided сообщает, зафиксирован ли исход.
func (e *execution) isDecided() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.decided
}

// emit пишет событие, если исход ещё не зафиксирован.
// Запись ограничена bookkeepingTimeout и отменяется вместе с ctx.
func (e *execution) emit(ctx context.Context, eventType, message string, severity domain.Severity) bool {
	if e.isDecided() {
		return false
	}
	actx, cancel := context.WithTimeout(ctx, bookkeepingTimeout)
	defer cancel()
	e.events.Append(actx, e.taskID, eventType, message, severity)
	return true
}

// guard выполняет fn, если исход ещё не зафиксирован.
// decide ждёт завершения fn, поэтому fn должна завершаться по отмене
// контекста workflow.
func (e *execution) guard(fn func() error) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.decided {
		return false, nil
	}
	return true, fn()
}
