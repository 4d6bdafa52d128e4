package backend

import "errors"

var (
	// ErrReadinessTimeout — компонент не стал готов за свой бюджет времени.
	ErrReadinessTimeout = errors.New("readiness timeout")

	// ErrExecutionTargetNotFound — не найден работающий pod для команд.
	ErrExecutionTargetNotFound = errors.New("execution target not found")

	// ErrBackendCall — ошибка вызова Helm или Kubernetes API.
	ErrBackendCall = errors.New("backend call failed")

	// ErrCommandFailed — команда в pod завершилась с ошибкой.
	ErrCommandFailed = errors.New("command failed")
)
