package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/mkovrov/scenarist/internal/domain"
)

// testPlugin — минимальный плагин для тестов движка.
type testPlugin struct {
	name     string
	handlers map[string]HandlerFunc
	initErr  error
	healthy  bool
	inited   bool
}

func (p *testPlugin) Name() string                      { return p.name }
func (p *testPlugin) Handlers() map[string]HandlerFunc  { return p.handlers }
func (p *testPlugin) Healthcheck(context.Context) bool  { return p.healthy }
func (p *testPlugin) Initialize(context.Context) error {
	p.inited = true
	return p.initErr
}

func linearScenario(steps ...domain.Step) *domain.Scenario {
	return &domain.Scenario{ScenarioID: "test-scenario", Steps: steps}
}

func TestExecuteScenario_StartActionEnd(t *testing.T) {
	e := New(Config{})

	scenario := linearScenario(
		domain.Step{ID: "start", Type: "start", NextStep: "a"},
		domain.Step{ID: "a", Type: "action", NextStep: "end"},
		domain.Step{ID: "end", Type: "end"},
	)

	res, err := e.ExecuteScenario(context.Background(), scenario, NewContext(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Status != domain.ExecutionStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", res.Status)
	}
	if !res.Context.IsCompleted() {
		t.Error("final context should carry the completion marker")
	}
	if res.StepsExecuted != 3 {
		t.Errorf("expected 3 steps executed, got %d", res.StepsExecuted)
	}
}

func TestExecuteScenario_FirstStepResolution(t *testing.T) {
	e := New(Config{})

	// Шаг start не первый в списке, но стартует выполнение
	scenario := linearScenario(
		domain.Step{ID: "end", Type: "end"},
		domain.Step{ID: "begin", Type: "start", NextStep: "end"},
	)

	res, err := e.ExecuteScenario(context.Background(), scenario, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.StepsExecuted != 2 {
		t.Errorf("expected start then end, got %d steps", res.StepsExecuted)
	}

	// Без шага start — первый элемент списка
	scenario = linearScenario(
		domain.Step{ID: "only", Type: "action"},
	)
	res, err = e.ExecuteScenario(context.Background(), scenario, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.StepsExecuted != 1 {
		t.Errorf("expected 1 step, got %d", res.StepsExecuted)
	}
}

func TestExecuteScenario_InputSuspends(t *testing.T) {
	e := New(Config{})

	executedAfter := false
	p := &testPlugin{
		name: "probe",
		handlers: map[string]HandlerFunc{
			"probe": func(_ context.Context, _ *domain.Step, _ *Context) (*HandlerResult, error) {
				executedAfter = true
				return nil, nil
			},
		},
		healthy: true,
	}
	if err := e.RegisterPlugin(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scenario := linearScenario(
		domain.Step{ID: "start", Type: "start", NextStep: "wait"},
		domain.Step{ID: "wait", Type: "input", Params: map[string]any{"prompt": "reply?"}, NextStep: "after"},
		domain.Step{ID: "after", Type: "probe"},
	)

	res, err := e.ExecuteScenario(context.Background(), scenario, NewContext(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Status != domain.ExecutionStatusSuspended {
		t.Errorf("expected SUSPENDED, got %s", res.Status)
	}
	if res.SuspendedAt != "wait" {
		t.Errorf("expected suspension at wait, got %q", res.SuspendedAt)
	}
	if executedAfter {
		t.Error("no steps should execute after suspension")
	}
	if res.Context.IsCompleted() {
		t.Error("suspended scenario must not carry the completion marker")
	}
}

func TestExecuteStep_InputAlwaysSuspends(t *testing.T) {
	e := New(Config{})

	params := []map[string]any{
		nil,
		{},
		{"prompt": "x"},
		{"next_step": "somewhere"},
	}

	for _, p := range params {
		step := &domain.Step{ID: "wait", Type: "input", Params: p, NextStep: "next"}
		_, outcome, err := e.ExecuteStep(context.Background(), step, NewContext(nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Kind != OutcomeSuspend {
			t.Errorf("input with params %v: expected suspend, got %s", p, outcome.Kind)
		}
	}
}

func TestExecuteStep_UnknownType(t *testing.T) {
	e := New(Config{})

	ec := NewContext(map[string]any{"key": "value"})
	step := &domain.Step{ID: "s", Type: "no_such_type"}

	_, _, err := e.ExecuteStep(context.Background(), step, ec)
	if !errors.Is(err, ErrUnknownStepType) {
		t.Fatalf("expected ErrUnknownStepType, got %v", err)
	}

	// Контекст не мутирован
	if ec.Len() != 1 || ec.GetString("key") != "value" {
		t.Error("context must stay unmutated on dispatch failure")
	}
}

func TestExecuteScenario_HandlerErrorPropagated(t *testing.T) {
	e := New(Config{})

	handlerErr := errors.New("boom")
	p := &testPlugin{
		name: "failing",
		handlers: map[string]HandlerFunc{
			"explode": func(_ context.Context, _ *domain.Step, _ *Context) (*HandlerResult, error) {
				return nil, handlerErr
			},
		},
		healthy: true,
	}
	if err := e.RegisterPlugin(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scenario := linearScenario(
		domain.Step{ID: "start", Type: "start", NextStep: "fail"},
		domain.Step{ID: "fail", Type: "explode"},
	)

	_, err := e.ExecuteScenario(context.Background(), scenario, NewContext(nil))
	if err == nil {
		t.Fatal("expected error")
	}

	// Исходная ошибка видна без трансляции
	if !errors.Is(err, handlerErr) {
		t.Errorf("original handler error should be wrapped, got %v", err)
	}

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatal("expected ExecutionError")
	}
	if execErr.ScenarioID != "test-scenario" || execErr.StepID != "fail" {
		t.Errorf("error should carry scenario and step ids: %+v", execErr)
	}
}

func TestExecuteScenario_MissingNextStepEndsNormally(t *testing.T) {
	e := New(Config{})

	scenario := linearScenario(
		domain.Step{ID: "start", Type: "start", NextStep: "ghost"},
	)

	res, err := e.ExecuteScenario(context.Background(), scenario, NewContext(nil))
	if err != nil {
		t.Fatalf("missing next_step must not raise: %v", err)
	}
	if res.Status != domain.ExecutionStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", res.Status)
	}
	// Завершение без шага end — без флага завершения
	if res.Context.IsCompleted() {
		t.Error("completion marker is set only by the end step")
	}
}

func TestExecuteScenario_DynamicRoutingOverride(t *testing.T) {
	e := New(Config{})

	p := &testPlugin{
		name: "router",
		handlers: map[string]HandlerFunc{
			"pick": func(_ context.Context, _ *domain.Step, _ *Context) (*HandlerResult, error) {
				return &HandlerResult{NextStepID: "b"}, nil
			},
			"mark": func(_ context.Context, step *domain.Step, ec *Context) (*HandlerResult, error) {
				ec.Set("visited", step.ID)
				return nil, nil
			},
		},
		healthy: true,
	}
	if err := e.RegisterPlugin(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scenario := linearScenario(
		domain.Step{ID: "pick", Type: "pick", NextStep: "a"},
		domain.Step{ID: "a", Type: "mark", NextStep: "end"},
		domain.Step{ID: "b", Type: "mark", NextStep: "end"},
		domain.Step{ID: "end", Type: "end"},
	)

	res, err := e.ExecuteScenario(context.Background(), scenario, NewContext(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Динамический переход имеет приоритет над статическим next_step
	if res.Context.GetString("visited") != "b" {
		t.Errorf("expected dynamic route to b, visited %q", res.Context.GetString("visited"))
	}
}

func TestExecuteScenario_ReplacedContext(t *testing.T) {
	e := New(Config{})

	p := &testPlugin{
		name: "swapper",
		handlers: map[string]HandlerFunc{
			"swap": func(_ context.Context, _ *domain.Step, _ *Context) (*HandlerResult, error) {
				return &HandlerResult{Context: NewContext(map[string]any{"fresh": true})}, nil
			},
		},
		healthy: true,
	}
	if err := e.RegisterPlugin(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scenario := linearScenario(
		domain.Step{ID: "swap", Type: "swap", NextStep: "end"},
		domain.Step{ID: "end", Type: "end"},
	)

	res, err := e.ExecuteScenario(context.Background(), scenario, NewContext(map[string]any{"old": true}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Context.GetBool("fresh") || res.Context.Has("old") {
		t.Error("handler-returned context should replace the previous one")
	}
}

func TestExecuteScenario_MaxSteps(t *testing.T) {
	e := New(Config{MaxStepsPerExecution: 10})

	// Цикл a → b → a без end
	scenario := linearScenario(
		domain.Step{ID: "a", Type: "action", NextStep: "b"},
		domain.Step{ID: "b", Type: "action", NextStep: "a"},
	)

	_, err := e.ExecuteScenario(context.Background(), scenario, NewContext(nil))
	if !errors.Is(err, ErrMaxStepsExceeded) {
		t.Fatalf("expected ErrMaxStepsExceeded, got %v", err)
	}
}

func TestExecuteScenario_InitialContextDefaults(t *testing.T) {
	e := New(Config{})

	scenario := &domain.Scenario{
		ScenarioID: "defaults",
		Steps: []domain.Step{
			{ID: "end", Type: "end"},
		},
		InitialContext: map[string]any{
			"greeting": "hello",
			"override": "scenario",
		},
	}

	ec := NewContext(map[string]any{"override": "caller"})
	res, err := e.ExecuteScenario(context.Background(), scenario, ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Context.GetString("greeting") != "hello" {
		t.Error("scenario defaults should be applied")
	}
	if res.Context.GetString("override") != "caller" {
		t.Error("caller values must win over scenario defaults")
	}
}

func TestExecuteScenario_Validation(t *testing.T) {
	e := New(Config{})

	tests := []struct {
		name     string
		scenario *domain.Scenario
		wantErr  error
	}{
		{"nil scenario", nil, ErrNilScenario},
		{"empty steps", &domain.Scenario{ScenarioID: "s"}, ErrEmptySteps},
		{
			"empty step id",
			linearScenario(domain.Step{Type: "action"}),
			ErrEmptyStepID,
		},
		{
			"empty step type",
			linearScenario(domain.Step{ID: "a"}),
			ErrEmptyStepType,
		},
		{
			"duplicate ids",
			linearScenario(
				domain.Step{ID: "a", Type: "action"},
				domain.Step{ID: "a", Type: "action"},
			),
			ErrDuplicateStepID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ExecuteScenario(context.Background(), tt.scenario, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExecuteScenario_Cancellation(t *testing.T) {
	e := New(Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scenario := linearScenario(
		domain.Step{ID: "a", Type: "action", NextStep: "a"},
	)

	_, err := e.ExecuteScenario(ctx, scenario, NewContext(nil))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEngine_PluginLifecycle(t *testing.T) {
	e := New(Config{})

	p := &testPlugin{
		name:     "life",
		handlers: map[string]HandlerFunc{"noop": markerHandler("life")},
		healthy:  true,
	}

	if err := e.RegisterPlugin(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Повторная регистрация того же имени — ошибка
	if err := e.RegisterPlugin(p); err == nil {
		t.Error("duplicate plugin registration should fail")
	}

	if err := e.InitPlugins(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.inited {
		t.Error("plugin should be initialized")
	}

	health := e.Healthcheck(context.Background())
	if !health["life"] {
		t.Error("healthcheck should report plugin healthy")
	}
}

func TestEngine_InitPluginsError(t *testing.T) {
	e := New(Config{})

	p := &testPlugin{
		name:     "broken",
		handlers: map[string]HandlerFunc{"x": markerHandler("broken")},
		initErr:  errors.New("no connection"),
	}
	if err := e.RegisterPlugin(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := e.InitPlugins(context.Background()); err == nil {
		t.Error("expected initialization error")
	}
}
