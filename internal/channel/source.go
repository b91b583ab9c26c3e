package channel

import (
	"context"
	"time"

	"github.com/mkovrov/scenarist/internal/domain"
)

// InboundEvent — входящее событие канала.
type InboundEvent struct {
	// ChannelID — канал, принявший событие.
	ChannelID string

	// Payload — тело события; становится начальным контекстом выполнения.
	Payload map[string]any

	// ReceivedAt — время приёма события.
	ReceivedAt time.Time
}

// EmitFunc — колбэк доставки события слушателю канала.
type EmitFunc func(ctx context.Context, event InboundEvent)

// EventSource — источник входящих событий одного канала.
//
// Run блокируется до отмены ctx, передавая каждое принятое событие в
// emit. Возврат с ошибкой до отмены ctx означает фатальный сбой
// источника; менеджер логирует его и переводит канал в Unloaded.
type EventSource interface {
	Run(ctx context.Context, emit EmitFunc) error
}

// SourceFactory создаёт источник событий для канала.
//
// Подменяется в тестах; в продакшене выбирает реализацию по
// transport.kind (очередь или cron).
type SourceFactory func(channel *domain.Channel) (EventSource, error)
