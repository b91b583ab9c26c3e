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
	// ExchangeEvents — входящие события для каналов. Очереди каналов
	// привязываются к нему по имени очереди как routing key.
	ExchangeEvents Exchange = "scenarist.events"

	// ExchangeResults — события о завершённых выполнениях сценариев.
	ExchangeResults Exchange = "scenarist.results"

	// ExchangeDLQ — мёртвые события, которые не удалось распарсить.
	ExchangeDLQ Exchange = "scenarist.dlq"
)

// Queues — фиксированные очереди.
const (
	QueueResults   Queue = "executions.finished"
	QueueDLQEvents Queue = "dlq.events"
)

// Routing keys.
const (
	RoutingKeyFinished  RoutingKey = "finished"
	RoutingKeyDLQEvents RoutingKey = "events"
)

// SetupTopology создаёт обменники и фиксированные очереди.
//
// Очереди каналов объявляются отдельно через DeclareEventQueue, когда
// менеджер каналов загружает конкретный канал.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}

		if err := declareQueues(ch); err != nil {
			return err
		}

		if err := bindQueues(ch); err != nil {
			return err
		}

		return nil
	})
}

// DeclareEventQueue объявляет очередь входящих событий одного канала и
// привязывает её к обменнику событий. Имя очереди служит routing key.
func DeclareEventQueue(ctx context.Context, conn *Connection, queue string) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		dlqArgs := amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQEvents),
		}

		_, err := ch.QueueDeclare(
			queue,   // name
			true,    // durable
			false,   // delete when unused
			false,   // exclusive
			false,   // no-wait
			dlqArgs, // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		err = ch.QueueBind(
			queue,                  // queue name
			queue,                  // routing key
			string(ExchangeEvents), // exchange
			false,                  // no-wait
			nil,                    // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", queue, ExchangeEvents, err)
		}

		return nil
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeEvents, "direct"},
		{ExchangeResults, "direct"},
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

// declareQueues создаёт фиксированные очереди.
func declareQueues(ch *amqp.Channel) error {
	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// executions.finished — события о завершённых выполнениях
		{QueueResults, nil},

		// dlq.events — события, которые не удалось обработать
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

// bindQueues привязывает фиксированные очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueResults, RoutingKeyFinished, ExchangeResults},
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
  Scenarist RabbitMQ Topology:

    scenarist.events (direct)
    └── <channel queue> [routing: <queue name>]
            Consumer: channel manager
            DLQ: dlq.events

    scenarist.results (direct)
    └── executions.finished [routing: finished]
            Consumer: external systems

    scenarist.dlq (direct)
    └── dlq.events [routing: events]
            Manual processing
  `
}
