package engine

import (
	"errors"
	"fmt"
)

// Ошибки валидации сценария.
var (
	// ErrNilScenario — сценарий не передан.
	ErrNilScenario = errors.New("scenario is nil")

	// ErrEmptySteps — сценарий не содержит шагов.
	ErrEmptySteps = errors.New("scenario has no steps")

	// ErrEmptyStepID — шаг не имеет ID.
	ErrEmptyStepID = errors.New("step has empty ID")

	// ErrEmptyStepType — шаг не имеет типа.
	ErrEmptyStepType = errors.New("step has empty type")

	// ErrDuplicateStepID — несколько шагов с одинаковым ID.
	ErrDuplicateStepID = errors.New("duplicate step ID")
)

// Ошибки выполнения.
var (
	// ErrUnknownStepType — для типа шага не зарегистрирован обработчик.
	// Фатальна для выполнения, не ретраится, контекст остаётся без изменений.
	ErrUnknownStepType = errors.New("unknown step type")

	// ErrMaxStepsExceeded — превышен настроенный лимит шагов.
	// Лимит по умолчанию отключён: циклический сценарий без end/input
	// выполняется до фатальной ошибки или остановки хоста.
	ErrMaxStepsExceeded = errors.New("max steps exceeded")

	// ErrBuiltinOverride — попытка перерегистрировать встроенный тип шага.
	ErrBuiltinOverride = errors.New("builtin step type cannot be overridden")
)

// ExecutionError — ошибка выполнения сценария с привязкой к шагу.
//
// Оборачивает исходную ошибку обработчика без трансляции: вызывающий
// видит оригинал через errors.Is/As.
type ExecutionError struct {
	// ScenarioID — сценарий, в котором произошла ошибка.
	ScenarioID string

	// StepID — шаг, на котором прервалось выполнение.
	StepID string

	// Err — исходная ошибка.
	Err error
}

// Error реализует интерфейс error.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("scenario %s: step %s: %v", e.ScenarioID, e.StepID, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError создаёт ExecutionError.
func NewExecutionError(scenarioID, stepID string, err error) *ExecutionError {
	return &ExecutionError{
		ScenarioID: scenarioID,
		StepID:     stepID,
		Err:        err,
	}
}
