package channel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mkovrov/scenarist/internal/domain"
)

// cronParser — парсер cron-выражений (стандартные 5 полей).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	_, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

// CronSource — источник синтетических событий по расписанию.
//
// На каждый тик расписания эмитит событие с временем срабатывания в
// payload; сценарий канала выполняется как для обычного входящего
// события.
type CronSource struct {
	channel *domain.Channel
	logger  *slog.Logger
}

// NewCronSource создаёт CronSource.
//
// Возвращает ошибку, если cron-выражение или timezone невалидны.
func NewCronSource(ch *domain.Channel, logger *slog.Logger) (*CronSource, error) {
	if err := ValidateCronExpr(ch.Transport.CronExpr); err != nil {
		return nil, err
	}

	if tz := ch.Transport.Timezone; tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
	}

	return &CronSource{channel: ch, logger: logger}, nil
}

// Run блокируется до отмены ctx, эмитя события по расписанию.
func (s *CronSource) Run(ctx context.Context, emit EmitFunc) error {
	loc := time.UTC
	if tz := s.channel.Transport.Timezone; tz != "" {
		// Валидируется в NewCronSource
		loc, _ = time.LoadLocation(tz)
	}

	runner := cron.New(cron.WithParser(cronParser), cron.WithLocation(loc))

	_, err := runner.AddFunc(s.channel.Transport.CronExpr, func() {
		now := time.Now().In(loc)
		emit(ctx, InboundEvent{
			Payload: map[string]any{
				"scheduled_at": now.UTC().Format(time.RFC3339),
			},
			ReceivedAt: now,
		})
	})
	if err != nil {
		return fmt.Errorf("schedule cron job: %w", err)
	}

	runner.Start()
	s.logger.Info("cron source started",
		"channel_id", s.channel.ChannelID,
		"cron_expr", s.channel.Transport.CronExpr,
		"timezone", loc.String(),
	)

	<-ctx.Done()

	// Ждём завершения срабатывающего в этот момент джоба
	stopCtx := runner.Stop()
	<-stopCtx.Done()

	return nil
}
