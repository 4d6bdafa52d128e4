// Package mq публикует события магазинов в RabbitMQ и потребляет их.
//
// Структура:
//   - connection.go — соединение с переподключением
//   - topology.go   — exchanges, очереди, привязки
//   - publisher.go  — публикация событий
//   - consumer.go   — потребление с DLQ
//
// Поток событий:
//
//	audit.Recorder → vitrina.events (topic, store.<severity>)
//	               → events.audit → vitrina-audit
//	                              ↘ dlq.events
package mq
