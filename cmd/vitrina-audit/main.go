// Vitrina Audit — потребитель журнала событий магазинов.
//
// Читает очередь events.audit и пишет каждое событие одной строкой JSON
// в stdout или в файл AUDIT_LOG_PATH. Сообщения, которые не удалось
// записать дважды, уходят в DLQ.
package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Vitrina/internal/audit"
	"github.com/shaiso/Vitrina/internal/config"
	"github.com/shaiso/Vitrina/internal/mq"
	"github.com/shaiso/Vitrina/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger("vitrina-audit")
	logger.Info("starting vitrina-audit")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mqURL := cfg.RabbitMQURL
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}
	conn, err := mq.Dial(mqURL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := mq.SetupTopology(ctx, conn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if path := os.Getenv("AUDIT_LOG_PATH"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("failed to open audit log", "path", path, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	sink := audit.NewSink(out, logger)
	consumer := mq.NewConsumer(conn, logger, mq.ConsumerConfig{
		Queue:    mq.QueueEventsAudit,
		Handler:  sink.Handle,
		Prefetch: 10,
	})

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !conn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("rabbitmq disconnected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8084"
	if v := os.Getenv("AUDIT_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	logger.Info("consuming", "queue", mq.QueueEventsAudit)
	if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
		logger.Error("consumer stopped", "error", err)
	}

	logger.Info("vitrina-audit stopped")
}
