package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrQuotaExceeded — достигнут глобальный лимит магазинов.
	ErrQuotaExceeded = errors.New("global store limit reached")

	// ErrQueueFull — очередь развёртывания заполнена.
	ErrQueueFull = errors.New("provisioning queue is full")

	// ErrOverallTimeout — развёртывание не уложилось в общий таймаут.
	ErrOverallTimeout = errors.New("provisioning timed out")

	// ErrRecoveryCompensation — не удалось пометить прерванную задачу.
	ErrRecoveryCompensation = errors.New("recovery compensation failed")

	// ErrTaskNotFound — магазин не найден.
	ErrTaskNotFound = errors.New("store not found")

	// ErrTaskBusy — над магазином уже выполняется операция.
	ErrTaskBusy = errors.New("store operation in progress")

	// ErrOrchestratorStopped — оркестратор остановлен.
	ErrOrchestratorStopped = errors.New("orchestrator stopped")
)

// recoveryMessage — текст ошибки для задач, прерванных рестартом.
const recoveryMessage = "System restarted during provisioning. Please delete and retry."
