// Vitrina API — HTTP API и оркестратор развёртывания магазинов.
//
// Процесс:
//   - Принимает запросы на создание и удаление магазинов
//   - Ставит развёртывания в очередь с ограничением параллелизма
//   - Разворачивает магазины через Helm и Kubernetes API
//   - Восстанавливает задачи, прерванные предыдущим процессом
//   - Публикует события магазинов в RabbitMQ (если он доступен)
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Vitrina/internal/api"
	"github.com/shaiso/Vitrina/internal/audit"
	"github.com/shaiso/Vitrina/internal/backend"
	"github.com/shaiso/Vitrina/internal/config"
	"github.com/shaiso/Vitrina/internal/mq"
	"github.com/shaiso/Vitrina/internal/orchestrator"
	"github.com/shaiso/Vitrina/internal/repo"
	"github.com/shaiso/Vitrina/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger("vitrina-api")
	logger.Info("starting vitrina-api")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repo.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	taskRepo := repo.NewTaskRepo(pool)
	eventRepo := repo.NewEventRepo(pool)

	// RabbitMQ (опционально)
	recorderCfg := audit.Config{Store: eventRepo, Logger: logger}
	if cfg.RabbitMQURL != "" {
		mqConn, err := mq.Dial(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, event publishing disabled", "error", err)
		} else {
			defer mqConn.Close()
			logger.Info("RabbitMQ connected")

			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			recorderCfg.Publisher = mq.NewPublisher(mqConn, logger)
		}
	}
	recorder := audit.NewRecorder(recorderCfg)

	// Kubernetes + Helm
	be, err := backend.New(backend.Config{
		KubeconfigPath: cfg.Kubeconfig,
		ChartPath:      cfg.ChartPath,
		InstallTimeout: cfg.ProvisionTimeout,
		Kube:           backend.KubeConfig{Container: cfg.ExecContainer, Logger: logger},
		Logger:         logger,
	})
	if err != nil {
		logger.Error("failed to initialize cluster backend", "error", err)
		os.Exit(1)
	}

	// Оркестратор
	orch := orchestrator.New(orchestrator.Config{
		Tasks:            taskRepo,
		Events:           recorder,
		Backend:          be,
		MaxConcurrency:   cfg.MaxConcurrency,
		MaxQueueSize:     cfg.MaxQueueSize,
		MaxGlobalStores:  cfg.MaxGlobalStores,
		ProvisionTimeout: cfg.ProvisionTimeout,
		DeleteTimeout:    cfg.DeleteTimeout,
		SettleDelay:      cfg.SettleDelay,
		RecoveryDelay:    cfg.RecoveryDelay,
		ClusterIP:        cfg.ClusterIP,
		AdminUser:        cfg.AdminUser,
		AdminEmail:       cfg.AdminEmail,
		SampleCatalog:    cfg.SampleCatalog,
		Logger:           logger,
	})
	if err := orch.Start(ctx); err != nil {
		logger.Error("failed to start orchestrator", "error", err)
		os.Exit(1)
	}

	// Метрики магазинов по статусам
	collector := telemetry.NewStatsCollector(telemetry.CollectorConfig{
		Counter:  taskRepo,
		Schedule: cfg.StatsSchedule,
		Logger:   logger,
	})
	if err := collector.Start(ctx); err != nil {
		logger.Error("failed to start stats collector", "error", err)
		os.Exit(1)
	}

	// HTTP API
	handler := api.NewHandler(api.Config{
		Orchestrator: orch,
		Stores:       taskRepo,
		Events:       eventRepo,
		CORSOrigin:   cfg.CORSOrigin,
		Logger:       logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	addr := ":" + cfg.APIPort
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	collector.Stop()
	orch.Stop()
	logger.Info("vitrina-api stopped")
}
