package engine

import (
	"context"

	"github.com/mkovrov/scenarist/internal/domain"
)

// HandlerFunc — обработчик шага, привязанный к типу шага.
//
// Обработчик получает шаг и контекст выполнения, выполняет эффект
// (запрос к API, запись в БД, отправка сообщения) и возвращает результат.
// Возврат nil результата (или результата с nil Context) означает
// "контекст не заменён": движок продолжает с прежним контекстом,
// включая мутации, внесённые обработчиком напрямую.
//
// Любая ошибка обработчика распространяется вверх без трансляции и без
// ретраев — восстановление целиком на стороне плагина или вызывающего.
type HandlerFunc func(ctx context.Context, step *domain.Step, ec *Context) (*HandlerResult, error)

// HandlerResult — результат работы обработчика.
type HandlerResult struct {
	// Context — новый контекст выполнения. Nil — оставить прежний.
	Context *Context

	// NextStepID — динамическое переопределение маршрута. Если задано,
	// имеет приоритет над статическим next_step шага. Так плагины
	// условной маршрутизации влияют на поток управления, не раскрывая
	// движку своих условий.
	NextStepID string
}

// Plugin — поставщик возможностей, реализуемый внешними коллабораторами.
//
// Плагин регистрируется в движке ровно один раз; движок владеет его
// жизненным циклом: Initialize до первой диспетчеризации, Healthcheck
// по требованию.
type Plugin interface {
	// Name возвращает уникальное имя плагина.
	Name() string

	// Handlers возвращает отображение тип шага → обработчик.
	Handlers() map[string]HandlerFunc

	// Initialize выполняет асинхронную инициализацию плагина
	// (соединения, прогрев кэшей). Вызывается до первой диспетчеризации.
	Initialize(ctx context.Context) error

	// Healthcheck сообщает, работоспособен ли плагин.
	Healthcheck(ctx context.Context) bool
}
