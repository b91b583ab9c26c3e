package channel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkovrov/scenarist/internal/domain"
	"github.com/mkovrov/scenarist/internal/mq"
)

// QueueSource — источник событий из очереди сообщений.
//
// Объявляет очередь канала в топологии и потребляет из неё: тело
// каждого сообщения парсится как JSON объект и передаётся слушателю.
// Непарсящиеся сообщения уходят в DLQ и не останавливают потребление.
type QueueSource struct {
	conn    *mq.Connection
	channel *domain.Channel
	logger  *slog.Logger
}

// NewQueueSource создаёт QueueSource.
func NewQueueSource(conn *mq.Connection, ch *domain.Channel, logger *slog.Logger) *QueueSource {
	return &QueueSource{
		conn:    conn,
		channel: ch,
		logger:  logger,
	}
}

// QueueName возвращает имя очереди канала.
//
// Если в конфигурации транспорта очередь не задана, используется
// очередь по умолчанию events.<channel_id>.
func (s *QueueSource) QueueName() string {
	if s.channel.Transport.Queue != "" {
		return s.channel.Transport.Queue
	}
	return "events." + s.channel.ChannelID
}

// Run блокируется до отмены ctx, потребляя события из очереди канала.
func (s *QueueSource) Run(ctx context.Context, emit EmitFunc) error {
	queue := s.QueueName()

	if err := mq.DeclareEventQueue(ctx, s.conn, queue); err != nil {
		return fmt.Errorf("declare event queue: %w", err)
	}

	consumer := mq.NewConsumer(s.conn, s.logger, mq.ConsumerConfig{
		Queue: queue,
		Handler: func(msgCtx context.Context, msg *mq.Delivery) error {
			payload, err := mq.DecodeEvent(msg.Body)
			if err != nil {
				return err
			}

			emit(msgCtx, InboundEvent{
				Payload:    payload,
				ReceivedAt: time.Now(),
			})
			return nil
		},
	})

	err := consumer.Start(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
