package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/mkovrov/scenarist/internal/domain"
)

// Recorder — наблюдатель выполнения сценариев.
//
// Чистый observer: никогда не мутирует контекст и не влияет на
// маршрутизацию. Движок зовёт его вокруг каждого шага и всего запуска.
// Снимки передаются копиями значений контекста.
type Recorder interface {
	// StartScenario отмечает начало выполнения.
	StartScenario(executionID uuid.UUID, scenarioID string, initial map[string]any)

	// StartStep отмечает начало шага.
	StartStep(executionID uuid.UUID, step *domain.Step, before map[string]any)

	// FinishStep отмечает завершение шага (stepErr != nil для упавшего).
	FinishStep(executionID uuid.UUID, stepID string, after map[string]any, stepErr error)

	// FinishScenario финализирует запись выполнения.
	FinishScenario(ctx context.Context, executionID uuid.UUID, status domain.ExecutionStatus, final map[string]any)
}

// Result — итог одного вызова ExecuteScenario.
type Result struct {
	// ExecutionID — идентификатор выполнения.
	ExecutionID uuid.UUID

	// ScenarioID — выполненный сценарий.
	ScenarioID string

	// Status — COMPLETED или SUSPENDED.
	Status domain.ExecutionStatus

	// Context — финальный контекст выполнения.
	Context *Context

	// StepsExecuted — количество выполненных шагов.
	StepsExecuted int

	// SuspendedAt — ID шага input, на котором выполнение приостановлено
	// (только для статуса SUSPENDED).
	SuspendedAt string
}

// Config — конфигурация Engine.
type Config struct {
	// Recorder — наблюдатель выполнения (опционально).
	Recorder Recorder

	// MaxStepsPerExecution — предохранительный лимит шагов на одно
	// выполнение. 0 (по умолчанию) — без лимита: поведение источника
	// сохранено, циклический сценарий без end/input крутится бесконечно.
	MaxStepsPerExecution int

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// Engine — движок выполнения сценариев.
//
// Владеет реестром обработчиков и жизненным циклом плагинов
// (регистрация, инициализация, healthcheck) и выполняет сценарии
// от первого шага до завершения или приостановки.
//
// Engine не хранит состояния между вызовами ExecuteScenario: каждое
// выполнение получает собственный контекст, конкурентные вызовы
// независимы. Возобновление приостановленного сценария — обязанность
// вызывающего: он повторно вызывает ExecuteScenario со свежим
// контекстом, собранным из нового события и сохранённого им состояния.
type Engine struct {
	registry *Registry
	recorder Recorder
	maxSteps int
	logger   *slog.Logger

	mu      sync.RWMutex
	plugins map[string]Plugin
}

// New создаёт Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		registry: NewRegistry(logger),
		recorder: cfg.Recorder,
		maxSteps: cfg.MaxStepsPerExecution,
		logger:   logger,
		plugins:  make(map[string]Plugin),
	}
}

// Registry возвращает реестр обработчиков движка.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// RegisterPlugin регистрирует плагин и его обработчики.
//
// Повторная регистрация того же имени — ошибка: плагин регистрируется
// ровно один раз. Коллизии типов шагов между разными плагинами
// разрешаются в пользу более поздней регистрации (см. Registry).
func (e *Engine) RegisterPlugin(p Plugin) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := p.Name()
	if _, exists := e.plugins[name]; exists {
		return fmt.Errorf("plugin already registered: %s", name)
	}
	e.plugins[name] = p

	if err := e.registry.Register(name, p.Handlers()); err != nil {
		return err
	}

	e.logger.Info("plugin registered",
		"plugin", name,
		"step_types", len(p.Handlers()),
	)
	return nil
}

// InitPlugins инициализирует все зарегистрированные плагины.
// Вызывается один раз на старте, до первой диспетчеризации.
func (e *Engine) InitPlugins(ctx context.Context) error {
	e.mu.RLock()
	plugins := make([]Plugin, 0, len(e.plugins))
	for _, p := range e.plugins {
		plugins = append(plugins, p)
	}
	e.mu.RUnlock()

	for _, p := range plugins {
		if err := p.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize plugin %s: %w", p.Name(), err)
		}
		e.logger.Debug("plugin initialized", "plugin", p.Name())
	}

	return nil
}

// Healthcheck опрашивает все плагины и возвращает имя → работоспособность.
func (e *Engine) Healthcheck(ctx context.Context) map[string]bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	health := make(map[string]bool, len(e.plugins))
	for name, p := range e.plugins {
		health[name] = p.Healthcheck(ctx)
	}
	return health
}

// ExecuteStep диспетчеризует один шаг через реестр.
//
// Возвращает новый контекст (контекст обработчика, либо исходный, если
// обработчик контекст не заменил) и Outcome для обхода графа:
//   - шаг input всегда даёт OutcomeSuspend, независимо от params;
//   - шаг end даёт OutcomeEnd;
//   - прочие шаги дают OutcomeContinue, где NextStepID обработчика
//     (динамическая маршрутизация) имеет приоритет над статическим
//     next_step шага.
//
// Ошибка неизвестного типа и ошибка обработчика распространяются без
// ретраев; контекст при ошибке диспетчеризации не мутируется движком.
func (e *Engine) ExecuteStep(ctx context.Context, step *domain.Step, ec *Context) (*Context, *Outcome, error) {
	handler, err := e.registry.Handler(step.Type)
	if err != nil {
		return ec, nil, err
	}

	res, err := handler(ctx, step, ec)
	if err != nil {
		return ec, nil, err
	}

	next := ec
	if res != nil && res.Context != nil {
		next = res.Context
	}

	switch step.Type {
	case domain.StepTypeInput:
		return next, Suspend(), nil

	case domain.StepTypeEnd:
		return next, End(), nil

	default:
		nextStepID := step.NextStep
		if res != nil && res.NextStepID != "" {
			nextStepID = res.NextStepID
		}
		return next, ContinueTo(nextStepID), nil
	}
}

// ExecuteScenario выполняет сценарий от первого шага до завершения
// или приостановки.
//
// Первый шаг — шаг типа start, либо первый элемент списка. Далее цикл:
// выполнить шаг, разрешить следующий, повторить. Сценарий завершается
// шагом end, пустым/ненайденным next_step (нормальное завершение) или
// приостанавливается шагом input. Цикл не ограничен, если не настроен
// MaxStepsPerExecution.
//
// Ошибки обработчиков возвращаются обёрнутыми в ExecutionError
// (scenario id, step id, исходная ошибка) — без ретраев и частичного
// восстановления; повторный запуск события с нуля — на вызывающем.
func (e *Engine) ExecuteScenario(ctx context.Context, scenario *domain.Scenario, ec *Context) (*Result, error) {
	if err := Validate(scenario); err != nil {
		return nil, err
	}

	if ec == nil {
		ec = NewContext(nil)
	}

	// Значения по умолчанию из сценария не перекрывают переданные
	for key, value := range scenario.InitialContext {
		ec.SetDefault(key, value)
	}

	executionID := uuid.New()
	logger := e.logger.With(
		"execution_id", executionID,
		"scenario_id", scenario.ScenarioID,
	)

	if e.recorder != nil {
		e.recorder.StartScenario(executionID, scenario.ScenarioID, ec.Values())
	}

	logger.Info("scenario execution started", "steps", len(scenario.Steps))

	step := scenario.FirstStep()
	executed := 0

	for step != nil {
		if err := ctx.Err(); err != nil {
			logger.Warn("scenario execution cancelled", "step_id", step.ID)
			e.finish(ctx, executionID, domain.ExecutionStatusStopped, ec)
			return nil, NewExecutionError(scenario.ScenarioID, step.ID, err)
		}

		executed++
		if e.maxSteps > 0 && executed > e.maxSteps {
			err := fmt.Errorf("%w: limit %d", ErrMaxStepsExceeded, e.maxSteps)
			logger.Error("scenario exceeded step limit", "step_id", step.ID, "limit", e.maxSteps)
			e.finish(ctx, executionID, domain.ExecutionStatusError, ec)
			return nil, NewExecutionError(scenario.ScenarioID, step.ID, err)
		}

		if e.recorder != nil {
			e.recorder.StartStep(executionID, step, ec.Values())
		}

		next, outcome, err := e.ExecuteStep(ctx, step, ec)
		if err != nil {
			if e.recorder != nil {
				e.recorder.FinishStep(executionID, step.ID, ec.Values(), err)
			}
			logger.Error("step failed", "step_id", step.ID, "step_type", step.Type, "error", err)
			e.finish(ctx, executionID, domain.ExecutionStatusError, ec)
			return nil, NewExecutionError(scenario.ScenarioID, step.ID, err)
		}

		ec = next
		if e.recorder != nil {
			e.recorder.FinishStep(executionID, step.ID, ec.Values(), nil)
		}

		switch outcome.Kind {
		case OutcomeEnd:
			logger.Info("scenario completed", "steps_executed", executed)
			e.finish(ctx, executionID, domain.ExecutionStatusCompleted, ec)
			return &Result{
				ExecutionID:   executionID,
				ScenarioID:    scenario.ScenarioID,
				Status:        domain.ExecutionStatusCompleted,
				Context:       ec,
				StepsExecuted: executed,
			}, nil

		case OutcomeSuspend:
			logger.Info("scenario suspended", "step_id", step.ID, "steps_executed", executed)
			e.finish(ctx, executionID, domain.ExecutionStatusSuspended, ec)
			return &Result{
				ExecutionID:   executionID,
				ScenarioID:    scenario.ScenarioID,
				Status:        domain.ExecutionStatusSuspended,
				Context:       ec,
				StepsExecuted: executed,
				SuspendedAt:   step.ID,
			}, nil

		case OutcomeContinue:
			if outcome.NextStepID == "" {
				step = nil
				break
			}

			resolved := scenario.FindStep(outcome.NextStepID)
			if resolved == nil {
				// Ненайденный next_step завершает сценарий, это не ошибка
				logger.Debug("next step not found, ending scenario",
					"step_id", step.ID,
					"next_step", outcome.NextStepID,
				)
			}
			step = resolved
		}
	}

	logger.Info("scenario completed", "steps_executed", executed)
	e.finish(ctx, executionID, domain.ExecutionStatusCompleted, ec)
	return &Result{
		ExecutionID:   executionID,
		ScenarioID:    scenario.ScenarioID,
		Status:        domain.ExecutionStatusCompleted,
		Context:       ec,
		StepsExecuted: executed,
	}, nil
}

// finish финализирует запись выполнения у наблюдателя.
func (e *Engine) finish(ctx context.Context, executionID uuid.UUID, status domain.ExecutionStatus, ec *Context) {
	if e.recorder == nil {
		return
	}
	e.recorder.FinishScenario(ctx, executionID, status, ec.Values())
}
