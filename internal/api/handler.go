package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/Vitrina/internal/domain"
	"github.com/shaiso/Vitrina/internal/orchestrator"
	"github.com/shaiso/Vitrina/internal/repo"
)

// Orchestrator — приём запросов на развёртывание и удаление.
type Orchestrator interface {
	SubmitProvision(ctx context.Context, name, storeType string) (*orchestrator.Submission, error)
	SubmitDelete(ctx context.Context, taskID string) (*orchestrator.Submission, error)
	Stats() (active, queued int)
}

// StoreReader — чтение записей о магазинах.
type StoreReader interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter repo.TaskFilter) ([]domain.Task, error)
	CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error)
}

// EventReader — чтение журнала событий.
type EventReader interface {
	ListByTask(ctx context.Context, taskID string) ([]domain.Event, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Event, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	orch       Orchestrator
	stores     StoreReader
	events     EventReader
	corsOrigin string
	logger     *slog.Logger
	startedAt  time.Time
}

// Config — конфигурация для создания Handler.
type Config struct {
	Orchestrator Orchestrator
	Stores       StoreReader
	Events       EventReader

	// CORSOrigin — значение Access-Control-Allow-Origin (default: "*").
	CORSOrigin string

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	return &Handler{
		orch:       cfg.Orchestrator,
		stores:     cfg.Stores,
		events:     cfg.Events,
		corsOrigin: cfg.CORSOrigin,
		logger:     cfg.Logger,
		startedAt:  time.Now(),
	}
}
