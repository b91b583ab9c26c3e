package plugins

import (
	"context"
	"fmt"
	"time"

	"github.com/mkovrov/scenarist/internal/domain"
	"github.com/mkovrov/scenarist/internal/engine"
)

// Типы шагов плагина clock.
const (
	StepTypeDelay = "delay"
	StepTypeNow   = "now"
)

// Ключи параметров шагов clock.
const (
	paramDurationSec = "duration_sec"
	paramDurationMs  = "duration_ms"

	// defaultNowResultKey — ключ контекста для метки времени по умолчанию.
	defaultNowResultKey = "now"
)

// Clock — плагин работы со временем.
//
// Шаг delay приостанавливает выполнение на указанное время
// ({"duration_sec": 10} или {"duration_ms": 500}), уважая отмену
// контекста. Шаг now кладёт текущее время UTC (RFC 3339) в контекст
// под result_key (по умолчанию now).
type Clock struct {
	// nowFn подменяется в тестах.
	nowFn func() time.Time
}

// NewClock создаёт плагин clock.
func NewClock() *Clock {
	return &Clock{nowFn: time.Now}
}

// Name возвращает имя плагина.
func (p *Clock) Name() string { return "clock" }

// Handlers возвращает обработчики плагина.
func (p *Clock) Handlers() map[string]engine.HandlerFunc {
	return map[string]engine.HandlerFunc{
		StepTypeDelay: p.delay,
		StepTypeNow:   p.now,
	}
}

// Initialize инициализирует плагин.
func (p *Clock) Initialize(context.Context) error { return nil }

// Healthcheck проверяет работоспособность плагина.
func (p *Clock) Healthcheck(context.Context) bool { return true }

// delay приостанавливает выполнение на указанное время.
func (p *Clock) delay(ctx context.Context, step *domain.Step, ec *engine.Context) (*engine.HandlerResult, error) {
	duration, err := parseDuration(step.Params)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
	case <-timer.C:
		return &engine.HandlerResult{Context: ec}, nil
	}
}

// now кладёт текущую метку времени в контекст.
func (p *Clock) now(_ context.Context, step *domain.Step, ec *engine.Context) (*engine.HandlerResult, error) {
	resultKey := ParamString(step.Params, paramResultKey)
	if resultKey == "" {
		resultKey = defaultNowResultKey
	}

	ec.Set(resultKey, p.nowFn().UTC().Format(time.RFC3339))
	return &engine.HandlerResult{Context: ec}, nil
}

// parseDuration извлекает длительность из параметров.
func parseDuration(params map[string]any) (time.Duration, error) {
	if sec := ParamInt(params, paramDurationSec); sec > 0 {
		return time.Duration(sec) * time.Second, nil
	}

	if ms := ParamInt(params, paramDurationMs); ms > 0 {
		return time.Duration(ms) * time.Millisecond, nil
	}

	return 0, fmt.Errorf("%w: %s: duration_sec or duration_ms required",
		ErrInvalidParams, StepTypeDelay)
}
