package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeExecutionFinished MessageType = "execution.finished"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// ExecutionFinishedPayload — payload события о завершённом выполнении.
type ExecutionFinishedPayload struct {
	ExecutionID  uuid.UUID      `json:"execution_id"`
	ScenarioID   string         `json:"scenario_id"`
	ChannelID    string         `json:"channel_id,omitempty"`
	Status       string         `json:"status"`
	Error        string         `json:"error,omitempty"`
	FinalContext map[string]any `json:"final_context,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.publishBody(ctx, exchange, routingKey, msg.ID, msg.Timestamp, body)
}

// PublishExecutionFinished публикует событие о завершённом выполнении.
// Потребители: внешние системы, подписанные на executions.finished.
func (p *Publisher) PublishExecutionFinished(ctx context.Context, payload ExecutionFinishedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeExecutionFinished,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeResults, RoutingKeyFinished, msg)
}

// PublishInboundEvent публикует сырое событие в очередь канала.
//
// Тело — произвольный JSON объект: он станет начальным контекстом
// выполнения сценария. Используется CLI и тестами; внешние системы
// публикуют в scenarist.events напрямую.
func (p *Publisher) PublishInboundEvent(ctx context.Context, queue string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.publishBody(ctx, ExchangeEvents, RoutingKey(queue), uuid.New().String(), time.Now(), body)
}

// publishBody публикует готовое тело сообщения.
func (p *Publisher) publishBody(ctx context.Context, exchange Exchange, routingKey RoutingKey, messageID string, timestamp time.Time, body []byte) error {
	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    messageID,
				Timestamp:    timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", messageID,
		)

		return nil
	})
}
