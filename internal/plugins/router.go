package plugins

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mkovrov/scenarist/internal/domain"
	"github.com/mkovrov/scenarist/internal/engine"
)

// StepTypeCondition — тип шага условной маршрутизации.
const StepTypeCondition = "condition"

// Ключи параметров шага condition.
const (
	paramValue    = "value"
	paramOperator = "operator"
	paramOperand  = "operand"
	paramIfTrue   = "if_true"
	paramIfFalse  = "if_false"
)

// Операторы сравнения.
const (
	OpEquals    = "eq"
	OpNotEquals = "ne"
	OpGreater   = "gt"
	OpLess      = "lt"
	OpExists    = "exists"
)

// Router — плагин условной маршрутизации.
//
// Шаг condition сравнивает значение из контекста с операндом и выбирает
// ветку через Outcome, не трогая контекст:
//
//	{
//	    "value": "{order.total}",
//	    "operator": "gt",
//	    "operand": "100",
//	    "if_true": "vip-flow",
//	    "if_false": "regular-flow"
//	}
//
// value разрешается через шаблонизатор; operator по умолчанию — eq.
// Пустая ветка означает статический next_step шага.
type Router struct{}

// NewRouter создаёт плагин маршрутизации.
func NewRouter() *Router {
	return &Router{}
}

// Name возвращает имя плагина.
func (p *Router) Name() string { return "router" }

// Handlers возвращает обработчики плагина.
func (p *Router) Handlers() map[string]engine.HandlerFunc {
	return map[string]engine.HandlerFunc{
		StepTypeCondition: p.condition,
	}
}

// Initialize инициализирует плагин.
func (p *Router) Initialize(context.Context) error { return nil }

// Healthcheck проверяет работоспособность плагина.
func (p *Router) Healthcheck(context.Context) bool { return true }

// condition вычисляет условие и выбирает следующую ветку.
func (p *Router) condition(_ context.Context, step *domain.Step, ec *engine.Context) (*engine.HandlerResult, error) {
	if step.Params == nil {
		return nil, fmt.Errorf("%w: %s: params are required", ErrInvalidParams, StepTypeCondition)
	}

	operator := ParamString(step.Params, paramOperator)
	if operator == "" {
		operator = OpEquals
	}

	rawValue, hasValue := step.Params[paramValue]

	var matched bool
	if operator == OpExists {
		// exists проверяет, разрешается ли путь, а не equality
		matched = hasValue && templateResolves(rawValue, ec)
	} else {
		value := engine.ResolveAny(rawValue, ec)
		operand := engine.ResolveAny(step.Params[paramOperand], ec)

		var err error
		matched, err = compare(operator, value, operand)
		if err != nil {
			return nil, err
		}
	}

	branch := ParamString(step.Params, paramIfFalse)
	if matched {
		branch = ParamString(step.Params, paramIfTrue)
	}

	return &engine.HandlerResult{Context: ec, NextStepID: branch}, nil
}

// templateResolves сообщает, разрешился ли шаблон хотя бы частично.
//
// Неразрешённый плейсхолдер остаётся в выводе дословно, поэтому
// сравнение входа и выхода и есть проверка существования пути.
func templateResolves(rawValue any, ec *engine.Context) bool {
	s, ok := rawValue.(string)
	if !ok {
		return rawValue != nil
	}
	return engine.Resolve(s, ec) != s
}

// compare сравнивает два разрешённых значения.
//
// gt и lt сравнивают числа; eq и ne — строки.
func compare(operator, value, operand string) (bool, error) {
	switch operator {
	case OpEquals:
		return value == operand, nil
	case OpNotEquals:
		return value != operand, nil
	case OpGreater, OpLess:
		left, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false, fmt.Errorf("%w: %s: value %q is not numeric", ErrInvalidParams, StepTypeCondition, value)
		}
		right, err := strconv.ParseFloat(operand, 64)
		if err != nil {
			return false, fmt.Errorf("%w: %s: operand %q is not numeric", ErrInvalidParams, StepTypeCondition, operand)
		}
		if operator == OpGreater {
			return left > right, nil
		}
		return left < right, nil
	default:
		return false, fmt.Errorf("%w: %s: unknown operator %q", ErrInvalidParams, StepTypeCondition, operator)
	}
}
