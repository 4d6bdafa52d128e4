package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Vitrina/internal/domain"
)

// DefaultStatsSchedule — расписание обновления статистики по умолчанию.
const DefaultStatsSchedule = "@every 30s"

// scheduleParser разбирает расписание: 5 полей cron или дескриптор (@every, @hourly).
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// StatusCounter — источник числа магазинов по статусам.
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error)
}

// StatsCollector периодически обновляет gauge StoresByStatus.
type StatsCollector struct {
	counter  StatusCounter
	schedule string
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// CollectorConfig — конфигурация StatsCollector.
type CollectorConfig struct {
	Counter  StatusCounter
	Schedule string // default: "@every 30s"
	Logger   *slog.Logger
}

// NewStatsCollector создаёт StatsCollector.
func NewStatsCollector(cfg CollectorConfig) *StatsCollector {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultStatsSchedule
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &StatsCollector{
		counter:  cfg.Counter,
		schedule: cfg.Schedule,
		logger:   cfg.Logger,
	}
}

// ValidateSchedule проверяет расписание.
func ValidateSchedule(spec string) error {
	if _, err := scheduleParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Tick один раз пересчитывает магазины по статусам.
func (c *StatsCollector) Tick(ctx context.Context) error {
	counts, err := c.counter.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("count stores by status: %w", err)
	}

	// Статусы без магазинов обнуляются, а не пропадают.
	for _, st := range []domain.TaskStatus{
		domain.TaskStatusQueued,
		domain.TaskStatusProvisioning,
		domain.TaskStatusDeleting,
		domain.TaskStatusReady,
		domain.TaskStatusFailed,
		domain.TaskStatusDeleted,
	} {
		StoresByStatus.WithLabelValues(string(st)).Set(float64(counts[st]))
	}

	c.logger.Debug("store stats refreshed", "counts", counts)
	return nil
}

// Start выполняет первый Tick и запускает cron до отмены ctx или Stop.
func (c *StatsCollector) Start(ctx context.Context) error {
	sched, err := scheduleParser.Parse(c.schedule)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", c.schedule, err)
	}

	if err := c.Tick(ctx); err != nil {
		c.logger.Warn("initial stats refresh failed", "error", err)
	}

	cr := cron.New()
	cr.Schedule(sched, cron.FuncJob(func() {
		if err := c.Tick(ctx); err != nil {
			c.logger.Warn("stats refresh failed", "error", err)
		}
	}))

	c.mu.Lock()
	c.cron = cr
	c.mu.Unlock()

	cr.Start()
	c.logger.Info("stats collector started", "schedule", c.schedule)

	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return nil
}

// Stop останавливает cron и ждёт текущий Tick.
func (c *StatsCollector) Stop() {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	c.mu.Unlock()

	if cr == nil {
		return
	}
	<-cr.Stop().Done()
	c.logger.Info("stats collector stopped")
}
