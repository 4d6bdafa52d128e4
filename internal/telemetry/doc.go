// Package telemetry обеспечивает наблюдаемость Vitrina.
//
// Включает:
//   - logging.go   — structured logging через slog
//   - metrics.go   — Prometheus метрики
//   - collector.go — периодический пересчёт магазинов по статусам (cron)
//
// Все сервисы используют единый формат логирования,
// API экспортирует метрики на /metrics.
package telemetry
