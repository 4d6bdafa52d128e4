package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultStoreType — тип магазина по умолчанию.
const DefaultStoreType = "woocommerce"

// MinNameLength — минимальная длина имени магазина.
const MinNameLength = 2

// ErrValidation — некорректные входные данные.
var ErrValidation = errors.New("validation failed")

// ErrInvalidTransition — недопустимый переход статуса.
var ErrInvalidTransition = errors.New("invalid status transition")

// Task — запись о магазине и текущей операции над ним.
//
// Task создаётся при приёме запроса на развёртывание и живёт до удаления
// магазина. Запись хранится в БД, в памяти оркестратора — только очередь
// и счётчик слотов.
type Task struct {
	// ID — идентификатор магазина вида "store-1a2b3c4d".
	// Совпадает с именем namespace и Helm release.
	ID string `json:"id"`

	// Name — отображаемое имя магазина.
	Name string `json:"name"`

	// StoreType — тип магазина ("woocommerce").
	StoreType string `json:"type"`

	// Kind — последняя операция над магазином.
	Kind TaskKind `json:"kind"`

	// Status — текущий статус.
	Status TaskStatus `json:"status"`

	// Namespace — namespace в кластере.
	Namespace string `json:"namespace"`

	// URL — адрес витрины (только после успешного развёртывания).
	URL string `json:"url,omitempty"`

	// AdminURL — адрес админки (только после успешного развёртывания).
	AdminURL string `json:"admin_url,omitempty"`

	// Error — текст последней ошибки.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTaskID генерирует идентификатор магазина.
func NewTaskID() string {
	return "store-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// NewProvisionTask создаёт задачу развёртывания в статусе queued.
func NewProvisionTask(name, storeType string) *Task {
	if storeType == "" {
		storeType = DefaultStoreType
	}
	id := NewTaskID()
	now := time.Now()
	return &Task{
		ID:        id,
		Name:      strings.TrimSpace(name),
		StoreType: storeType,
		Kind:      TaskKindProvision,
		Status:    TaskStatusQueued,
		Namespace: id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ValidateStoreName проверяет имя магазина.
func ValidateStoreName(name string) error {
	if len(strings.TrimSpace(name)) < MinNameLength {
		return fmt.Errorf("%w: store name must be at least %d characters", ErrValidation, MinNameLength)
	}
	return nil
}

// IsFinished возвращает true, если текущая операция завершена.
func (t *Task) IsFinished() bool {
	return t.Status.IsTerminal()
}

// TransitionTo переводит задачу в новый статус с проверкой state machine.
func (t *Task) TransitionTo(next TaskStatus) error {
	if !t.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	t.UpdatedAt = time.Now()
	return nil
}

// StatusFields — поля, обновляемые вместе со статусом.
// Пустые значения не перезаписывают сохранённые.
type StatusFields struct {
	Kind     TaskKind
	URL      string
	AdminURL string
	Error    string
}
