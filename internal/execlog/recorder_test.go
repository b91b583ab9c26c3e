package execlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mkovrov/scenarist/internal/domain"
)

// fakeClock выдаёт время с фиксированным шагом между вызовами.
type fakeClock struct {
	current time.Time
	step    time.Duration
}

func (c *fakeClock) now() time.Time {
	t := c.current
	c.current = c.current.Add(c.step)
	return t
}

// memorySink накапливает сохранённые записи в памяти.
type memorySink struct {
	records []*domain.ExecutionRecord
	err     error
}

func (s *memorySink) SaveExecution(_ context.Context, record *domain.ExecutionRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func newTestRecorder(verbosity Verbosity, sink Sink) (*Recorder, *fakeClock) {
	clock := &fakeClock{
		current: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
		step:    10 * time.Millisecond,
	}
	r := New(Config{Verbosity: verbosity, Sink: sink})
	r.now = clock.now
	return r, clock
}

func step(id string) *domain.Step {
	return &domain.Step{ID: id, Type: domain.StepTypeAction}
}

func TestRecorderAggregates(t *testing.T) {
	sink := &memorySink{}
	r, clock := newTestRecorder(VerbosityBasic, sink)

	executionID := uuid.New()
	r.StartScenario(executionID, "sc-1", map[string]any{"channel_id": "ch-1"})

	// Три успешных шага с разной длительностью и один с ошибкой.
	durations := map[string]time.Duration{
		"a": 10 * time.Millisecond,
		"b": 50 * time.Millisecond,
		"c": 5 * time.Millisecond,
		"d": 20 * time.Millisecond,
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		clock.step = durations[id]
		r.StartStep(executionID, step(id), map[string]any{})

		var stepErr error
		if id == "d" {
			stepErr = errors.New("boom")
		}
		r.FinishStep(executionID, id, map[string]any{"k": id}, stepErr)
	}

	r.FinishScenario(context.Background(), executionID, domain.ExecutionStatusError, map[string]any{"k": "d"})

	if len(sink.records) != 1 {
		t.Fatalf("saved records = %d, want 1", len(sink.records))
	}
	record := sink.records[0]

	if record.ExecutionID != executionID {
		t.Errorf("execution id = %s, want %s", record.ExecutionID, executionID)
	}
	if record.ScenarioID != "sc-1" {
		t.Errorf("scenario id = %q, want %q", record.ScenarioID, "sc-1")
	}
	if record.ChannelID != "ch-1" {
		t.Errorf("channel id = %q, want %q", record.ChannelID, "ch-1")
	}
	if record.Status != domain.ExecutionStatusError {
		t.Errorf("status = %s, want %s", record.Status, domain.ExecutionStatusError)
	}
	if record.FinishedAt == nil {
		t.Fatal("finished_at is nil")
	}

	metrics := record.Metrics
	if metrics == nil {
		t.Fatal("metrics is nil")
	}
	if metrics.StepCount != 4 {
		t.Errorf("step count = %d, want 4", metrics.StepCount)
	}
	if metrics.SuccessRate != 75 {
		t.Errorf("success rate = %v, want 75", metrics.SuccessRate)
	}
	if metrics.SlowestStep != "b" {
		t.Errorf("slowest step = %q, want %q", metrics.SlowestStep, "b")
	}
	if metrics.FastestStep != "c" {
		t.Errorf("fastest step = %q, want %q", metrics.FastestStep, "c")
	}

	if r.ActiveCount() != 0 {
		t.Errorf("active count = %d, want 0", r.ActiveCount())
	}
}

func TestRecorderStepRecords(t *testing.T) {
	sink := &memorySink{}
	r, _ := newTestRecorder(VerbosityBasic, sink)

	executionID := uuid.New()
	r.StartScenario(executionID, "sc-1", nil)

	r.StartStep(executionID, step("a"), map[string]any{"x": 1})
	r.FinishStep(executionID, "a", map[string]any{"x": 1, "y": 2}, nil)

	r.StartStep(executionID, step("b"), map[string]any{"x": 1, "y": 2})
	r.FinishStep(executionID, "b", map[string]any{"x": 1, "y": 2}, errors.New("fail"))

	r.FinishScenario(context.Background(), executionID, domain.ExecutionStatusError, nil)

	steps := sink.records[0].Steps
	if len(steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(steps))
	}

	if steps[0].Status != domain.StepStatusSucceeded {
		t.Errorf("step a status = %s, want %s", steps[0].Status, domain.StepStatusSucceeded)
	}
	if steps[0].Diff == nil || len(steps[0].Diff.Added) != 1 || steps[0].Diff.Added[0] != "y" {
		t.Errorf("step a diff = %+v, want added [y]", steps[0].Diff)
	}
	if steps[0].DurationMS < 0 {
		t.Errorf("step a duration = %d, want >= 0", steps[0].DurationMS)
	}

	if steps[1].Status != domain.StepStatusFailed {
		t.Errorf("step b status = %s, want %s", steps[1].Status, domain.StepStatusFailed)
	}
	if steps[1].Error != "fail" {
		t.Errorf("step b error = %q, want %q", steps[1].Error, "fail")
	}
	if steps[1].Diff != nil {
		t.Errorf("step b diff = %+v, want nil for unchanged context", steps[1].Diff)
	}
}

func TestRecorderVerbosity(t *testing.T) {
	tests := []struct {
		verbosity   Verbosity
		wantInitial bool
		wantBefore  bool
		wantAfter   bool
		wantFinal   bool
		wantDiff    bool
	}{
		{VerbosityMinimal, false, false, false, false, false},
		{VerbosityBasic, false, false, false, true, true},
		{VerbosityDetailed, true, false, true, true, true},
		{VerbosityFull, true, true, true, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.verbosity), func(t *testing.T) {
			sink := &memorySink{}
			r, _ := newTestRecorder(tt.verbosity, sink)

			executionID := uuid.New()
			r.StartScenario(executionID, "sc-1", map[string]any{"seed": true})
			r.StartStep(executionID, step("a"), map[string]any{"seed": true})
			r.FinishStep(executionID, "a", map[string]any{"seed": true, "out": 1}, nil)
			r.FinishScenario(context.Background(), executionID, domain.ExecutionStatusCompleted,
				map[string]any{"seed": true, "out": 1})

			record := sink.records[0]
			stepRecord := record.Steps[0]

			if got := record.InitialContext != nil; got != tt.wantInitial {
				t.Errorf("initial context present = %v, want %v", got, tt.wantInitial)
			}
			if got := stepRecord.ContextBefore != nil; got != tt.wantBefore {
				t.Errorf("context before present = %v, want %v", got, tt.wantBefore)
			}
			if got := stepRecord.ContextAfter != nil; got != tt.wantAfter {
				t.Errorf("context after present = %v, want %v", got, tt.wantAfter)
			}
			if got := record.FinalContext != nil; got != tt.wantFinal {
				t.Errorf("final context present = %v, want %v", got, tt.wantFinal)
			}
			if got := stepRecord.Diff != nil; got != tt.wantDiff {
				t.Errorf("diff present = %v, want %v", got, tt.wantDiff)
			}
		})
	}
}

func TestRecorderSinkErrorDoesNotPanic(t *testing.T) {
	sink := &memorySink{err: errors.New("db down")}
	r, _ := newTestRecorder(VerbosityBasic, sink)

	executionID := uuid.New()
	r.StartScenario(executionID, "sc-1", nil)
	r.FinishScenario(context.Background(), executionID, domain.ExecutionStatusCompleted, nil)

	if r.ActiveCount() != 0 {
		t.Errorf("active count = %d, want 0", r.ActiveCount())
	}
}

func TestRecorderUnknownExecutionIgnored(t *testing.T) {
	r, _ := newTestRecorder(VerbosityBasic, nil)

	unknown := uuid.New()
	r.StartStep(unknown, step("a"), nil)
	r.FinishStep(unknown, "a", nil, nil)
	r.FinishScenario(context.Background(), unknown, domain.ExecutionStatusCompleted, nil)

	if r.ActiveCount() != 0 {
		t.Errorf("active count = %d, want 0", r.ActiveCount())
	}
}

func TestParseVerbosity(t *testing.T) {
	if got := ParseVerbosity("full"); got != VerbosityFull {
		t.Errorf("ParseVerbosity(full) = %s, want %s", got, VerbosityFull)
	}
	if got := ParseVerbosity("garbage"); got != VerbosityBasic {
		t.Errorf("ParseVerbosity(garbage) = %s, want %s", got, VerbosityBasic)
	}
}
