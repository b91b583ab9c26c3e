package engine

// OutcomeKind — вариант результата диспетчеризации шага.
//
// Решения о маршрутизации — это данные, а не исключения или
// зарезервированные ключи контекста: обход графа интерпретирует
// Outcome, возвращённый ExecuteStep.
type OutcomeKind int

const (
	// OutcomeContinue — перейти к следующему шагу (NextStepID).
	OutcomeContinue OutcomeKind = iota

	// OutcomeEnd — сценарий завершён шагом end.
	OutcomeEnd

	// OutcomeSuspend — сценарий приостановлен шагом input и ожидает
	// внешнего события. Невозможно спутать с нормальным завершением:
	// это отдельный вариант, а не значение контекста.
	OutcomeSuspend
)

// String возвращает строковое представление варианта.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeContinue:
		return "continue"
	case OutcomeEnd:
		return "end"
	case OutcomeSuspend:
		return "suspend"
	default:
		return "unknown"
	}
}

// Outcome — результат выполнения одного шага.
type Outcome struct {
	// Kind — вариант результата.
	Kind OutcomeKind

	// NextStepID — ID следующего шага для OutcomeContinue.
	// Пустая строка означает "следующего шага нет": сценарий
	// завершается нормально без флага завершения.
	NextStepID string
}

// ContinueTo возвращает Outcome перехода к шагу nextStepID.
func ContinueTo(nextStepID string) *Outcome {
	return &Outcome{Kind: OutcomeContinue, NextStepID: nextStepID}
}

// End возвращает Outcome завершения сценария.
func End() *Outcome {
	return &Outcome{Kind: OutcomeEnd}
}

// Suspend возвращает Outcome приостановки сценария.
func Suspend() *Outcome {
	return &Outcome{Kind: OutcomeSuspend}
}
