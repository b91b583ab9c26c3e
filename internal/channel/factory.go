package channel

import (
	"fmt"
	"log/slog"

	"github.com/mkovrov/scenarist/internal/domain"
	"github.com/mkovrov/scenarist/internal/mq"
)

// NewSourceFactory возвращает фабрику источников, выбирающую реализацию
// по виду транспорта канала.
func NewSourceFactory(conn *mq.Connection, logger *slog.Logger) SourceFactory {
	return func(ch *domain.Channel) (EventSource, error) {
		switch ch.Transport.Kind {
		case domain.TransportQueue:
			if conn == nil {
				return nil, fmt.Errorf("queue transport requires a RabbitMQ connection")
			}
			return NewQueueSource(conn, ch, logger), nil
		case domain.TransportCron:
			return NewCronSource(ch, logger)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, ch.Transport.Kind)
		}
	}
}
