package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus метрики Vitrina.
var (
	// ActiveWorkers — число занятых слотов развёртывания.
	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vitrina_active_workers",
		Help: "Provisioning workflows currently holding a worker slot",
	})

	// QueueLength — длина очереди ожидания.
	QueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vitrina_queue_length",
		Help: "Provisioning requests waiting for a worker slot",
	})

	// Admissions — решения контроля допуска.
	Admissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vitrina_admissions_total",
		Help: "Admission decisions by outcome",
	}, []string{"decision"})

	// WorkflowDuration — длительность workflow.
	WorkflowDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vitrina_workflow_duration_seconds",
		Help:    "Workflow duration by kind and outcome",
		Buckets: []float64{5, 15, 30, 60, 120, 240, 480, 600, 900},
	}, []string{"kind", "outcome"})

	// ConfigCommandFailures — неуспешные команды настройки магазина.
	ConfigCommandFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vitrina_config_command_failures_total",
		Help: "Store configuration commands that failed and were skipped",
	})

	// StoresByStatus — число магазинов по статусам (обновляется StatsCollector).
	StoresByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vitrina_stores",
		Help: "Stores by status",
	}, []string{"status"})

	// HTTPRequests — запросы к API.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vitrina_api_http_requests_total",
		Help: "HTTP requests handled by the API by status code class",
	}, []string{"code"})
)

// Значения label decision.
const (
	DecisionAccepted = "accepted"
	DecisionQueued   = "queued"
	DecisionRejected = "rejected"
)
