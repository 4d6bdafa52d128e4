package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Vitrina/internal/domain"
)

// Default configuration values.
const (
	defaultMaxConcurrency   = 2
	defaultMaxQueueSize     = 5
	defaultMaxGlobalStores  = 50
	defaultProvisionTimeout = 10 * time.Minute
	defaultDeleteTimeout    = 5 * time.Minute
	defaultMySQLTimeout     = 5 * time.Minute
	defaultWordPressTimeout = 6 * time.Minute
	defaultSettleDelay      = 15 * time.Second
	defaultRecoveryDelay    = 2 * time.Second
	defaultLoserGrace       = 30 * time.Second
	bookkeepingTimeout      = 10 * time.Second
)

// Orchestrator принимает запросы на развёртывание и удаление магазинов
// и исполняет их workflow.
type Orchestrator struct {
	tasks   TaskStore
	events  EventLog
	backend Backend

	scheduler *Scheduler

	// submitMu сериализует приём запросов: проверка лимитов, резерв
	// и запись задачи выполняются атомарно относительно других запросов.
	submitMu sync.Mutex

	cfg    Config
	logger *slog.Logger

	// Lifecycle
	baseCtx    context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	started    bool
	stopped    bool
	stoppedMu  sync.RWMutex

	// owned — задачи, которые ведёт этот процесс; Recover их не трогает.
	ownedMu sync.Mutex
	owned   map[string]struct{}
}

// Config — конфигурация Orchestrator.
type Config struct {
	Tasks   TaskStore
	Events  EventLog
	Backend Backend

	// Лимиты допуска
	MaxConcurrency  int // одновременных развёртываний (default: 2)
	MaxQueueSize    int // ожидающих в очереди (default: 5)
	MaxGlobalStores int // живых магазинов (default: 50)

	// Таймауты
	ProvisionTimeout time.Duration // общий таймаут развёртывания (default: 10m)
	DeleteTimeout    time.Duration // таймаут удаления (default: 5m)
	MySQLTimeout     time.Duration // готовность MySQL (default: 5m)
	WordPressTimeout time.Duration // готовность WordPress (default: 6m)
	SettleDelay      time.Duration // пауза после готовности WordPress (default: 15s)
	RecoveryDelay    time.Duration // задержка перед восстановлением (default: 2s)

	// LoserGrace — сколько ждать остановки workflow, проигравшего таймеру,
	// перед очисткой ресурсов (default: 30s).
	LoserGrace time.Duration

	// ClusterIP — адрес ingress для hostname "<id>.<ClusterIP>.nip.io".
	ClusterIP string

	// Учётная запись администратора магазина.
	AdminUser  string
	AdminEmail string

	// SampleCatalog — заполнять магазин демонстрационными товарами.
	SampleCatalog bool

	Logger *slog.Logger
}

func (c *Config) setDefaults() {
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = defaultMaxConcurrency
	}
	if c.MaxQueueSize < 0 {
		c.MaxQueueSize = defaultMaxQueueSize
	}
	if c.MaxGlobalStores <= 0 {
		c.MaxGlobalStores = defaultMaxGlobalStores
	}
	if c.ProvisionTimeout <= 0 {
		c.ProvisionTimeout = defaultProvisionTimeout
	}
	if c.DeleteTimeout <= 0 {
		c.DeleteTimeout = defaultDeleteTimeout
	}
	if c.MySQLTimeout <= 0 {
		c.MySQLTimeout = defaultMySQLTimeout
	}
	if c.WordPressTimeout <= 0 {
		c.WordPressTimeout = defaultWordPressTimeout
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = defaultSettleDelay
	}
	if c.RecoveryDelay < 0 {
		c.RecoveryDelay = defaultRecoveryDelay
	}
	if c.LoserGrace <= 0 {
		c.LoserGrace = defaultLoserGrace
	}
	if c.ClusterIP == "" {
		c.ClusterIP = "127.0.0.1"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// DefaultConfig возвращает конфигурацию со значениями по умолчанию.
// Нулевые SettleDelay, RecoveryDelay и MaxQueueSize в Config означают
// "без паузы" и "без очереди"; DefaultConfig задаёт рабочие значения.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency:   defaultMaxConcurrency,
		MaxQueueSize:     defaultMaxQueueSize,
		MaxGlobalStores:  defaultMaxGlobalStores,
		ProvisionTimeout: defaultProvisionTimeout,
		DeleteTimeout:    defaultDeleteTimeout,
		MySQLTimeout:     defaultMySQLTimeout,
		WordPressTimeout: defaultWordPressTimeout,
		SettleDelay:      defaultSettleDelay,
		RecoveryDelay:    defaultRecoveryDelay,
		LoserGrace:       defaultLoserGrace,
	}
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	cfg.setDefaults()

	o := &Orchestrator{
		tasks:   cfg.Tasks,
		events:  cfg.Events,
		backend: cfg.Backend,
		cfg:     cfg,
		logger:  cfg.Logger,
		owned:   make(map[string]struct{}),
	}
	o.scheduler = NewScheduler(cfg.MaxConcurrency, cfg.MaxQueueSize, o.onDequeue)
	return o
}

// Start запускает Orchestrator.
//
// Запускает восстановление задач, прерванных предыдущим процессом,
// после задержки RecoveryDelay.
func (o *Orchestrator) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	o.stoppedMu.Lock()
	o.baseCtx = ctx
	o.cancelFunc = cancel
	o.started = true
	o.stoppedMu.Unlock()

	o.logger.Info("starting orchestrator",
		"max_concurrency", o.cfg.MaxConcurrency,
		"max_queue_size", o.cfg.MaxQueueSize,
		"max_global_stores", o.cfg.MaxGlobalStores,
		"provision_timeout", o.cfg.ProvisionTimeout,
	)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := sleep(o.cfg.RecoveryDelay)(ctx); err != nil {
			return
		}
		if _, err := o.Recover(ctx); err != nil {
			o.logger.Error("recovery scan failed", "error", err)
		}
	}()

	o.logger.Info("orchestrator started")
	return nil
}

// Stop останавливает Orchestrator.
//
// Новые запросы отклоняются, задачи из очереди не запускаются,
// выполняющиеся workflow отменяются без записи итогового статуса:
// их подберёт восстановление при следующем запуске.
func (o *Orchestrator) Stop() {
	o.stoppedMu.Lock()
	o.stopped = true
	o.stoppedMu.Unlock()

	o.logger.Info("stopping orchestrator...")

	// Дожидаемся запросов, уже прошедших проверку running.
	o.submitMu.Lock()
	pending := o.scheduler.Close()
	o.submitMu.Unlock()
	if o.cancelFunc != nil {
		o.cancelFunc()
	}

	o.scheduler.Wait()
	o.wg.Wait()

	o.logger.Info("orchestrator stopped", "abandoned_queued", len(pending))
}

// IsStopped проверяет, остановлен ли Orchestrator.
func (o *Orchestrator) IsStopped() bool {
	o.stoppedMu.RLock()
	defer o.stoppedMu.RUnlock()
	return o.stopped
}

// running возвращает базовый контекст, если Orchestrator принимает работу.
func (o *Orchestrator) running() (context.Context, bool) {
	o.stoppedMu.RLock()
	defer o.stoppedMu.RUnlock()
	if !o.started || o.stopped {
		return nil, false
	}
	return o.baseCtx, true
}

// Stats возвращает число занятых слотов и длину очереди.
func (o *Orchestrator) Stats() (active, queued int) {
	return o.scheduler.Snapshot()
}

// bookkeepingCtx — контекст для записи статусов и событий.
// Не отменяется вместе с workflow, но ограничен по времени.
func (o *Orchestrator) bookkeepingCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
}

// own отмечает задачу как принадлежащую этому процессу.
func (o *Orchestrator) own(taskID string) {
	o.ownedMu.Lock()
	o.owned[taskID] = struct{}{}
	o.ownedMu.Unlock()
}

func (o *Orchestrator) isOwned(taskID string) bool {
	o.ownedMu.Lock()
	defer o.ownedMu.Unlock()
	_, ok := o.owned[taskID]
	return ok
}

// updateStatus пишет статус и логирует ошибку записи.
func (o *Orchestrator) updateStatus(ctx context.Context, taskID string, status domain.TaskStatus, fields domain.StatusFields) error {
	if err := o.tasks.UpdateStatus(ctx, taskID, status, fields); err != nil {
		o.logger.Error("failed to update store status",
			"task_id", taskID,
			"status", status,
			"error", err,
		)
		return err
	}
	o.logger.Info("store status updated", "task_id", taskID, "status", status)
	return nil
}
