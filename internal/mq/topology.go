package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeEvents Exchange = "vitrina.events"
	ExchangeDLQ    Exchange = "vitrina.dlq"
)

// Queues — имена очередей.
const (
	QueueEventsAudit Queue = "events.audit"
	QueueDLQEvents   Queue = "dlq.events"
)

// Routing keys.
const (
	// RoutingKeyStoreEvents — шаблон привязки всех событий магазинов.
	RoutingKeyStoreEvents RoutingKey = "store.#"
	RoutingKeyDLQEvents   RoutingKey = "events"
)

// EventRoutingKey возвращает ключ маршрутизации события: "store.<severity>".
func EventRoutingKey(severity string) RoutingKey {
	return RoutingKey("store." + severity)
}

// SetupTopology объявляет exchanges, очереди и привязки.
// Операции идемпотентны, вызывается при каждом старте.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeEvents, "topic"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

func declareQueues(ch *amqp.Channel) error {
	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// events.audit — сообщения, которые не удалось обработать, уходят в DLQ
		{QueueEventsAudit, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQEvents),
		}},
		{QueueDLQEvents, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueEventsAudit, RoutingKeyStoreEvents, ExchangeEvents},
		{QueueDLQEvents, RoutingKeyDLQEvents, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Vitrina RabbitMQ Topology:

    vitrina.events (topic)
    └── events.audit [routing: store.#]
            Consumer: vitrina-audit
            DLQ: dlq.events

    vitrina.dlq (direct)
    └── dlq.events [routing: events]
            Manual processing
  `
}
