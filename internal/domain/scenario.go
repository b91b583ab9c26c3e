package domain

import (
	"encoding/json"
	"fmt"
)

// Зарезервированные типы шагов, встроенные в движок.
const (
	// StepTypeStart — точка входа сценария. No-op, контекст проходит насквозь.
	StepTypeStart = "start"

	// StepTypeEnd — терминальный шаг. Помечает контекст флагом завершения.
	StepTypeEnd = "end"

	// StepTypeAction — универсальный passthrough-шаг для ad-hoc маршрутизации.
	StepTypeAction = "action"

	// StepTypeInput — шаг ожидания внешнего события (human-in-the-loop).
	// Никогда не завершается нормально: выполнение приостанавливается.
	StepTypeInput = "input"
)

// Step — один узел графа сценария.
//
// Type выбирает обработчик в реестре движка. Params — произвольная
// конфигурация, непрозрачная для движка и специфичная для обработчика.
type Step struct {
	// ID — уникальный идентификатор шага в рамках сценария.
	ID string `json:"id"`

	// Type — тип шага. Должен совпадать с именем, зарегистрированным
	// в реестре обработчиков на момент диспетчеризации.
	Type string `json:"type"`

	// Name — человекочитаемое имя шага.
	Name string `json:"name,omitempty"`

	// Params — параметры обработчика. Строковые значения могут содержать
	// плейсхолдеры вида {path}, разрешаемые против контекста выполнения.
	Params map[string]any `json:"params,omitempty"`

	// NextStep — ID следующего шага. Пустая строка означает, что после
	// этого шага сценарий завершается (если обработчик не вернул
	// динамический переход).
	NextStep string `json:"next_step,omitempty"`
}

// IsBuiltin возвращает true для зарезервированных типов шагов.
func (s *Step) IsBuiltin() bool {
	return IsBuiltinStepType(s.Type)
}

// IsBuiltinStepType проверяет, является ли тип шага встроенным.
func IsBuiltinStepType(stepType string) bool {
	switch stepType {
	case StepTypeStart, StepTypeEnd, StepTypeAction, StepTypeInput:
		return true
	default:
		return false
	}
}

// Scenario — именованный граф шагов, выполняемый против контекста.
//
// Граф задаётся связями next_step и может содержать циклы. Выполнение
// останавливается на шаге end, на шаге input (приостановка) или когда
// очередной next_step не найден в списке шагов.
type Scenario struct {
	// ScenarioID — уникальный идентификатор сценария.
	ScenarioID string `json:"scenario_id"`

	// Name — человекочитаемое имя сценария.
	Name string `json:"name,omitempty"`

	// Steps — упорядоченный список шагов.
	Steps []Step `json:"steps"`

	// InitialContext — значения по умолчанию, добавляемые в контекст
	// перед стартом (не перекрывают значения, переданные вызывающим).
	InitialContext map[string]any `json:"initial_context,omitempty"`
}

// FindStep ищет шаг по ID. Линейный поиск: сценарии — это десятки шагов.
// Возвращает nil, если шаг не найден.
func (s *Scenario) FindStep(id string) *Step {
	for i := range s.Steps {
		if s.Steps[i].ID == id {
			return &s.Steps[i]
		}
	}
	return nil
}

// FirstStep возвращает стартовый шаг сценария: шаг с типом start,
// либо первый элемент списка, если такого шага нет.
// Возвращает nil для пустого сценария.
func (s *Scenario) FirstStep() *Step {
	for i := range s.Steps {
		if s.Steps[i].Type == StepTypeStart {
			return &s.Steps[i]
		}
	}
	if len(s.Steps) == 0 {
		return nil
	}
	return &s.Steps[0]
}

// ScenarioFromDocument восстанавливает Scenario из документа хранилища.
func ScenarioFromDocument(doc map[string]any) (*Scenario, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal scenario document: %w", err)
	}

	var scenario Scenario
	if err := json.Unmarshal(raw, &scenario); err != nil {
		return nil, fmt.Errorf("unmarshal scenario: %w", err)
	}

	return &scenario, nil
}

// Document сериализует Scenario в документ хранилища.
func (s *Scenario) Document() (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal scenario: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal scenario document: %w", err)
	}

	return doc, nil
}
