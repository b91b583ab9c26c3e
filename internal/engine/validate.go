package engine

import (
	"fmt"

	"github.com/mkovrov/scenarist/internal/domain"
)

// Validate выполняет структурную валидацию сценария перед выполнением.
//
// Проверяет:
//   - Наличие шагов
//   - Непустые ID и типы шагов
//   - Уникальность ID шагов
//
// Ссылки next_step на несуществующие шаги валидны: обход графа
// трактует их как нормальное завершение сценария. Соответствие типов
// шагов реестру проверяется в момент диспетчеризации, не здесь:
// плагины могут регистрироваться после загрузки сценария.
func Validate(scenario *domain.Scenario) error {
	if scenario == nil {
		return ErrNilScenario
	}

	if len(scenario.Steps) == 0 {
		return fmt.Errorf("%w: scenario %s", ErrEmptySteps, scenario.ScenarioID)
	}

	stepIDs := make(map[string]bool, len(scenario.Steps))

	for i := range scenario.Steps {
		step := &scenario.Steps[i]

		if step.ID == "" {
			return fmt.Errorf("%w: scenario %s, position %d", ErrEmptyStepID, scenario.ScenarioID, i)
		}

		if step.Type == "" {
			return fmt.Errorf("%w: scenario %s, step %s", ErrEmptyStepType, scenario.ScenarioID, step.ID)
		}

		if stepIDs[step.ID] {
			return fmt.Errorf("%w: scenario %s, step %s", ErrDuplicateStepID, scenario.ScenarioID, step.ID)
		}
		stepIDs[step.ID] = true
	}

	return nil
}
