package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/mkovrov/scenarist/internal/domain"
)

// Registry — реестр обработчиков шагов.
//
// Агрегирует отображения тип шага → обработчик, вносимые всеми
// зарегистрированными плагинами, плюс встроенные типы. Пространство
// типов шагов глобальное: поздняя регистрация того же типа молча
// перекрывает раннюю (last-registered wins). Это унаследованное
// поведение закреплено за именованным методом Register и зафиксировано
// тестами, а не получено случайной перезаписью map.
//
// Реестр заполняется в однопоточной фазе старта и после неё только
// читается; RWMutex защищает редкие модификации (ротация плагинов).
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]registration
	logger   *slog.Logger
}

// registration — одна запись о регистрации обработчика.
type registration struct {
	// PluginName — плагин, внёсший обработчик ("builtin" для встроенных).
	PluginName string

	// StepType — тип шага.
	StepType string

	// Handler — обработчик.
	Handler HandlerFunc
}

// builtinPlugin — имя псевдоплагина встроенных типов.
const builtinPlugin = "builtin"

// NewRegistry создаёт реестр с предзарегистрированными встроенными типами.
//
// Встроенные типы (start, end, action, input) нельзя снять с регистрации
// и нельзя перекрыть плагином.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		handlers: make(map[string]registration),
		logger:   logger,
	}

	r.registerOne(builtinPlugin, domain.StepTypeStart, builtinPassthrough)
	r.registerOne(builtinPlugin, domain.StepTypeEnd, builtinEnd)
	r.registerOne(builtinPlugin, domain.StepTypeAction, builtinPassthrough)
	r.registerOne(builtinPlugin, domain.StepTypeInput, builtinPassthrough)

	return r
}

// Register регистрирует обработчики плагина.
//
// Коллизия по типу шага разрешается в пользу более поздней регистрации;
// факт перекрытия логируется. Попытка перекрыть встроенный тип
// возвращает ErrBuiltinOverride, остальные типы плагина при этом
// регистрируются.
func (r *Registry) Register(pluginName string, handlers map[string]HandlerFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Детерминированный порядок регистрации внутри одного плагина
	types := make([]string, 0, len(handlers))
	for stepType := range handlers {
		types = append(types, stepType)
	}
	sort.Strings(types)

	var builtinErr error
	for _, stepType := range types {
		if domain.IsBuiltinStepType(stepType) {
			builtinErr = fmt.Errorf("%w: %s (plugin %s)", ErrBuiltinOverride, stepType, pluginName)
			r.logger.Warn("builtin step type registration rejected",
				"plugin", pluginName,
				"step_type", stepType,
			)
			continue
		}

		if prev, exists := r.handlers[stepType]; exists {
			r.logger.Warn("step type handler overwritten",
				"step_type", stepType,
				"previous_plugin", prev.PluginName,
				"plugin", pluginName,
			)
		}

		r.registerOne(pluginName, stepType, handlers[stepType])
	}

	return builtinErr
}

// registerOne добавляет одну регистрацию. Вызывается под мьютексом
// (или до начала конкурентного доступа).
func (r *Registry) registerOne(pluginName, stepType string, handler HandlerFunc) {
	r.handlers[stepType] = registration{
		PluginName: pluginName,
		StepType:   stepType,
		Handler:    handler,
	}
}

// Handler возвращает обработчик для типа шага.
// Возвращает ErrUnknownStepType, если обработчик не зарегистрирован.
func (r *Registry) Handler(stepType string) (HandlerFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, exists := r.handlers[stepType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStepType, stepType)
	}

	return reg.Handler, nil
}

// Has проверяет, зарегистрирован ли тип шага.
func (r *Registry) Has(stepType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.handlers[stepType]
	return exists
}

// Types возвращает отсортированный список зарегистрированных типов.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Owner возвращает имя плагина, чей обработчик сейчас привязан к типу.
func (r *Registry) Owner(stepType string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, exists := r.handlers[stepType]
	if !exists {
		return "", false
	}
	return reg.PluginName, true
}

// Count возвращает количество зарегистрированных типов.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// --- Встроенные обработчики ---

// builtinPassthrough — no-op: контекст проходит насквозь.
// Используется для start, action и input (приостановку на input
// решает диспетчеризация по типу шага, а не обработчик: input
// приостанавливает сценарий независимо от params).
func builtinPassthrough(_ context.Context, _ *domain.Step, _ *Context) (*HandlerResult, error) {
	return nil, nil
}

// builtinEnd помечает контекст флагом завершения.
func builtinEnd(_ context.Context, _ *domain.Step, ec *Context) (*HandlerResult, error) {
	ec.MarkCompleted()
	return nil, nil
}
