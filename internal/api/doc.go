// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go       — Handler с DI (оркестратор, чтение магазинов и событий)
//   - routes.go        — регистрация маршрутов
//   - middleware.go    — middleware (recovery, metrics, logging, CORS)
//   - response.go      — унифицированные JSON-ответы и маппинг ошибок
//   - dto.go           — Data Transfer Objects (request/response)
//   - store_handler.go — обработчики для /api/stores
//   - event_handler.go — /api/events, /api/metrics, /health
//
// Создание и удаление магазина асинхронны: ответ 202 Accepted,
// дальнейший прогресс виден в статусе магазина и журнале событий.
package api
