package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus — статус выполнения сценария.
//
// Жизненный цикл:
//
//	RUNNING → COMPLETED
//	        ↘ ERROR
//	        ↘ SUSPENDED (пауза на шаге input, ожидание внешнего события)
//	        ↘ STOPPED   (остановлено извне)
type ExecutionStatus string

const (
	// ExecutionStatusRunning — сценарий выполняется.
	ExecutionStatusRunning ExecutionStatus = "RUNNING"

	// ExecutionStatusCompleted — сценарий успешно завершён.
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"

	// ExecutionStatusError — выполнение прервано ошибкой.
	ExecutionStatusError ExecutionStatus = "ERROR"

	// ExecutionStatusSuspended — выполнение приостановлено на шаге input.
	// Возобновление — ответственность вызывающего: движок не хранит
	// точку возврата между приостановками.
	ExecutionStatusSuspended ExecutionStatus = "SUSPENDED"

	// ExecutionStatusStopped — выполнение остановлено извне.
	ExecutionStatusStopped ExecutionStatus = "STOPPED"
)

// IsTerminal возвращает true, если статус финальный.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusError,
		ExecutionStatusSuspended, ExecutionStatusStopped:
		return true
	default:
		return false
	}
}

// StepStatus — статус выполнения одного шага.
type StepStatus string

const (
	// StepStatusRunning — шаг выполняется.
	StepStatusRunning StepStatus = "RUNNING"

	// StepStatusSucceeded — шаг успешно завершён.
	StepStatusSucceeded StepStatus = "SUCCEEDED"

	// StepStatusFailed — шаг завершился с ошибкой.
	StepStatusFailed StepStatus = "FAILED"
)

// StepRecord — запись о выполнении одного шага внутри ExecutionRecord.
type StepRecord struct {
	// StepID — идентификатор шага.
	StepID string `json:"step_id"`

	// Type — тип шага.
	Type string `json:"type"`

	// Status — итоговый статус шага.
	Status StepStatus `json:"status"`

	// StartedAt — время начала выполнения.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время завершения. Nil, если шаг ещё выполняется.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// DurationMS — продолжительность выполнения в миллисекундах.
	DurationMS int64 `json:"duration_ms"`

	// Error — текст ошибки для упавшего шага.
	Error string `json:"error,omitempty"`

	// ContextBefore — снимок контекста до шага (verbosity=full).
	ContextBefore map[string]any `json:"context_before,omitempty"`

	// ContextAfter — снимок контекста после шага (verbosity>=detailed).
	ContextAfter map[string]any `json:"context_after,omitempty"`

	// Diff — изменения контекста за время шага (verbosity>=basic).
	Diff *ContextDiff `json:"diff,omitempty"`
}

// ContextDiff — изменения ключей контекста между двумя снимками.
type ContextDiff struct {
	// Added — ключи, появившиеся в контексте.
	Added []string `json:"added,omitempty"`

	// Modified — ключи, значение которых изменилось.
	Modified []string `json:"modified,omitempty"`

	// Removed — ключи, исчезнувшие из контекста.
	Removed []string `json:"removed,omitempty"`
}

// IsEmpty возвращает true, если diff не содержит изменений.
func (d *ContextDiff) IsEmpty() bool {
	return d == nil || (len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0)
}

// ExecutionMetrics — агрегированные метрики завершённого выполнения.
type ExecutionMetrics struct {
	// DurationMS — общая продолжительность выполнения в миллисекундах.
	DurationMS int64 `json:"duration_ms"`

	// StepCount — количество выполненных шагов.
	StepCount int `json:"step_count"`

	// SuccessRate — доля успешных шагов, 0..100.
	SuccessRate float64 `json:"success_rate"`

	// SlowestStep — ID самого медленного шага.
	SlowestStep string `json:"slowest_step,omitempty"`

	// FastestStep — ID самого быстрого шага.
	FastestStep string `json:"fastest_step,omitempty"`
}

// ExecutionRecord — запись об одном выполнении сценария.
//
// Создаётся на старте, пополняется по мере завершения шагов и
// финализируется при завершении или приостановке сценария.
// Наблюдатель (Execution Logger) никогда не влияет на ход выполнения.
type ExecutionRecord struct {
	// ExecutionID — уникальный идентификатор выполнения.
	ExecutionID uuid.UUID `json:"execution_id"`

	// ScenarioID — выполняемый сценарий.
	ScenarioID string `json:"scenario_id"`

	// ChannelID — канал, породивший выполнение (пусто для API-запусков).
	ChannelID string `json:"channel_id,omitempty"`

	// Status — текущий статус выполнения.
	Status ExecutionStatus `json:"status"`

	// StartedAt — время старта.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt — время финализации. Nil, пока выполнение идёт.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки для статуса ERROR.
	Error string `json:"error,omitempty"`

	// InitialContext — снимок контекста на старте (verbosity>=detailed).
	InitialContext map[string]any `json:"initial_context,omitempty"`

	// FinalContext — снимок контекста на финализации (verbosity>=basic).
	FinalContext map[string]any `json:"final_context,omitempty"`

	// Steps — упорядоченные записи о выполненных шагах.
	Steps []StepRecord `json:"steps,omitempty"`

	// Metrics — агрегаты, вычисляемые при финализации.
	Metrics *ExecutionMetrics `json:"metrics,omitempty"`
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если выполнение ещё не финализировано.
func (r *ExecutionRecord) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
