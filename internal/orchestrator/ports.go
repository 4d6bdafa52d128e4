package orchestrator

import (
	"context"
	"time"

	"github.com/shaiso/Vitrina/internal/domain"
)

// Backend — операции над инфраструктурой магазина.
type Backend interface {
	// Deploy устанавливает инфраструктуру магазина.
	Deploy(ctx context.Context, params domain.DeployParams) error

	// WaitReady ждёт готовности компонента не дольше timeout.
	WaitReady(ctx context.Context, namespace, component string, timeout time.Duration) error

	// LocateExecutionTarget находит pod для команд настройки.
	LocateExecutionTarget(ctx context.Context, namespace string) (string, error)

	// ExecCommand выполняет shell-команду в target.
	ExecCommand(ctx context.Context, namespace, target, command string) (string, error)

	// Delete — штатное удаление (release + namespace).
	Delete(ctx context.Context, namespace string) error

	// ForceDeleteResources удаляет namespace напрямую.
	ForceDeleteResources(ctx context.Context, namespace string) error

	// GetDeploymentRecord возвращает сведения о release или nil.
	GetDeploymentRecord(ctx context.Context, namespace string) (*domain.DeploymentRecord, error)
}

// TaskStore — хранилище записей о магазинах.
type TaskStore interface {
	Insert(ctx context.Context, task *domain.Task) error
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, fields domain.StatusFields) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	CountExcluding(ctx context.Context, excluded ...domain.TaskStatus) (int, error)
	ListInFlight(ctx context.Context) ([]domain.Task, error)
}

// EventLog — журнал событий. Ошибки записи не влияют на workflow.
type EventLog interface {
	Append(ctx context.Context, taskID, eventType, message string, severity domain.Severity)
}
