// Package audit ведёт журнал событий магазинов.
//
// Recorder пишет событие в БД, публикует его в RabbitMQ и дублирует
// в лог. Ни одна из ошибок не возвращается вызывающему: журнал не
// должен влиять на исход workflow.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/Vitrina/internal/domain"
)

// Store — постоянное хранилище событий.
type Store interface {
	Append(ctx context.Context, ev *domain.Event) error
}

// Publisher — рассылка событий подписчикам.
type Publisher interface {
	PublishStoreEvent(ctx context.Context, ev *domain.Event) error
}

// Recorder — журнал событий.
type Recorder struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
}

// Config — конфигурация Recorder.
type Config struct {
	Store Store

	// Publisher — опционально; nil отключает публикацию.
	Publisher Publisher

	Logger *slog.Logger
}

// NewRecorder создаёт новый Recorder.
func NewRecorder(cfg Config) *Recorder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:     cfg.Store,
		publisher: cfg.Publisher,
		logger:    logger,
	}
}

// Append записывает событие магазина.
func (r *Recorder) Append(ctx context.Context, taskID, eventType, message string, severity domain.Severity) {
	ev := &domain.Event{
		TaskID:    taskID,
		Type:      eventType,
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now(),
	}

	r.logger.Log(ctx, level(severity), message, "task_id", taskID, "event_type", eventType)

	if r.store != nil {
		if err := r.store.Append(ctx, ev); err != nil {
			r.logger.Error("failed to persist event",
				"task_id", taskID,
				"event_type", eventType,
				"error", err,
			)
		}
	}

	if r.publisher != nil {
		if err := r.publisher.PublishStoreEvent(ctx, ev); err != nil {
			r.logger.Warn("failed to publish event",
				"task_id", taskID,
				"event_type", eventType,
				"error", err,
			)
		}
	}
}

// level сопоставляет важность события уровню лога.
func level(s domain.Severity) slog.Level {
	switch s {
	case domain.SeverityWarning:
		return slog.LevelWarn
	case domain.SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
