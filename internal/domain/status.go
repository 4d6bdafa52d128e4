package domain

// TaskStatus — статус магазина (задачи жизненного цикла).
//
// Жизненный цикл:
//
//	QUEUED → PROVISIONING → READY
//	                      ↘ FAILED
//	READY | FAILED → DELETING → DELETED
//	                          ↘ FAILED
//
// В queued задача никогда не возвращается.
type TaskStatus string

const (
	// TaskStatusQueued — задача принята и ждёт свободного слота.
	TaskStatusQueued TaskStatus = "queued"

	// TaskStatusProvisioning — идёт развёртывание магазина.
	TaskStatusProvisioning TaskStatus = "provisioning"

	// TaskStatusDeleting — идёт удаление магазина.
	TaskStatusDeleting TaskStatus = "deleting"

	// TaskStatusReady — магазин развёрнут и настроен.
	TaskStatusReady TaskStatus = "ready"

	// TaskStatusFailed — развёртывание или удаление завершилось ошибкой.
	TaskStatusFailed TaskStatus = "failed"

	// TaskStatusDeleted — ресурсы магазина удалены.
	TaskStatusDeleted TaskStatus = "deleted"
)

// transitions — допустимые переходы между статусами.
var transitions = map[TaskStatus][]TaskStatus{
	TaskStatusQueued:       {TaskStatusProvisioning, TaskStatusFailed},
	TaskStatusProvisioning: {TaskStatusReady, TaskStatusFailed},
	TaskStatusDeleting:     {TaskStatusDeleted, TaskStatusFailed},
	TaskStatusReady:        {TaskStatusDeleting},
	TaskStatusFailed:       {TaskStatusDeleting},
}

// CanTransition проверяет, допустим ли переход из s в next.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal возвращает true, если выполнение задачи завершено.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusReady, TaskStatusFailed, TaskStatusDeleted:
		return true
	default:
		return false
	}
}

// IsInFlight возвращает true для статусов, в которых задачей владеет
// работающий процесс оркестратора.
func (s TaskStatus) IsInFlight() bool {
	switch s {
	case TaskStatusQueued, TaskStatusProvisioning, TaskStatusDeleting:
		return true
	default:
		return false
	}
}

// InFlightStatuses — статусы, которые не переживают рестарт процесса.
func InFlightStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusQueued, TaskStatusProvisioning, TaskStatusDeleting}
}

// ParseTaskStatus парсит строку в TaskStatus.
// Возвращает false для неизвестного статуса.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch st := TaskStatus(s); st {
	case TaskStatusQueued, TaskStatusProvisioning, TaskStatusDeleting,
		TaskStatusReady, TaskStatusFailed, TaskStatusDeleted:
		return st, true
	default:
		return "", false
	}
}

// TaskKind — вид операции над магазином.
type TaskKind string

const (
	TaskKindProvision TaskKind = "provision"
	TaskKindDelete    TaskKind = "delete"
)

// Severity — уровень важности события.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)
