package execlog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mkovrov/scenarist/internal/domain"
	"github.com/mkovrov/scenarist/internal/telemetry"
)

// Verbosity — детализация записей выполнения.
type Verbosity string

const (
	// VerbosityMinimal — только статусы и тайминги шагов.
	VerbosityMinimal Verbosity = "minimal"

	// VerbosityBasic — плюс diff контекста на каждый шаг и финальный
	// снимок контекста.
	VerbosityBasic Verbosity = "basic"

	// VerbosityDetailed — плюс снимок контекста после каждого шага
	// и начальный снимок выполнения.
	VerbosityDetailed Verbosity = "detailed"

	// VerbosityFull — плюс снимок контекста до каждого шага.
	VerbosityFull Verbosity = "full"
)

// rank возвращает порядок уровня для сравнений.
func (v Verbosity) rank() int {
	switch v {
	case VerbosityBasic:
		return 1
	case VerbosityDetailed:
		return 2
	case VerbosityFull:
		return 3
	default:
		return 0
	}
}

// atLeast проверяет, что уровень не ниже other.
func (v Verbosity) atLeast(other Verbosity) bool {
	return v.rank() >= other.rank()
}

// ParseVerbosity парсит уровень детализации; неизвестные значения
// трактуются как basic.
func ParseVerbosity(s string) Verbosity {
	switch Verbosity(s) {
	case VerbosityMinimal, VerbosityBasic, VerbosityDetailed, VerbosityFull:
		return Verbosity(s)
	default:
		return VerbosityBasic
	}
}

// Config — конфигурация Recorder.
type Config struct {
	// Verbosity — детализация записей (default: basic).
	Verbosity Verbosity

	// Sink — приёмник финализированных записей (опционально).
	Sink Sink

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger
}

// Recorder — наблюдатель выполнения сценариев.
//
// Реализует engine.Recorder: собирает ExecutionRecord по ходу
// выполнения, считает агрегаты при финализации и отдаёт запись в Sink.
// Чистый observer: не мутирует контексты (работает с копиями значений)
// и не влияет на маршрутизацию; ошибки сохранения только логируются.
//
// Конкурентные выполнения ведутся независимо: записи разделены по
// executionID, доступ к реестру активных записей защищён мьютексом.
type Recorder struct {
	verbosity Verbosity
	sink      Sink
	logger    *slog.Logger

	mu     sync.Mutex
	active map[uuid.UUID]*activeExecution

	// now подменяется в тестах для детерминированных таймингов.
	now func() time.Time
}

// activeExecution — запись выполнения в процессе сборки.
type activeExecution struct {
	record *domain.ExecutionRecord

	// before — снимок контекста на старте текущего шага (для diff).
	before map[string]any
}

// New создаёт Recorder.
func New(cfg Config) *Recorder {
	verbosity := cfg.Verbosity
	if verbosity == "" {
		verbosity = VerbosityBasic
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Recorder{
		verbosity: verbosity,
		sink:      cfg.Sink,
		logger:    logger,
		active:    make(map[uuid.UUID]*activeExecution),
		now:       time.Now,
	}
}

// StartScenario создаёт запись выполнения.
//
// channel_id извлекается из начального контекста: менеджер каналов
// кладёт его туда вместе с метаданными события.
func (r *Recorder) StartScenario(executionID uuid.UUID, scenarioID string, initial map[string]any) {
	record := &domain.ExecutionRecord{
		ExecutionID: executionID,
		ScenarioID:  scenarioID,
		Status:      domain.ExecutionStatusRunning,
		StartedAt:   r.now(),
	}

	if channelID, ok := initial["channel_id"].(string); ok {
		record.ChannelID = channelID
	}

	if r.verbosity.atLeast(VerbosityDetailed) {
		record.InitialContext = SafeSnapshot(initial)
	}

	r.mu.Lock()
	r.active[executionID] = &activeExecution{record: record}
	r.mu.Unlock()
}

// StartStep отмечает начало шага.
func (r *Recorder) StartStep(executionID uuid.UUID, step *domain.Step, before map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exec, ok := r.active[executionID]
	if !ok {
		return
	}

	stepRecord := domain.StepRecord{
		StepID:    step.ID,
		Type:      step.Type,
		Status:    domain.StepStatusRunning,
		StartedAt: r.now(),
	}

	if r.verbosity.atLeast(VerbosityFull) {
		stepRecord.ContextBefore = SafeSnapshot(before)
	}
	if r.verbosity.atLeast(VerbosityBasic) {
		exec.before = before
	}

	exec.record.Steps = append(exec.record.Steps, stepRecord)
}

// FinishStep отмечает завершение шага и фиксирует тайминги и diff.
func (r *Recorder) FinishStep(executionID uuid.UUID, stepID string, after map[string]any, stepErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	exec, ok := r.active[executionID]
	if !ok || len(exec.record.Steps) == 0 {
		return
	}

	stepRecord := &exec.record.Steps[len(exec.record.Steps)-1]
	if stepRecord.StepID != stepID {
		return
	}

	finished := r.now()
	stepRecord.FinishedAt = &finished
	stepRecord.DurationMS = finished.Sub(stepRecord.StartedAt).Milliseconds()

	if stepErr != nil {
		stepRecord.Status = domain.StepStatusFailed
		stepRecord.Error = stepErr.Error()
	} else {
		stepRecord.Status = domain.StepStatusSucceeded
	}

	if r.verbosity.atLeast(VerbosityDetailed) {
		stepRecord.ContextAfter = SafeSnapshot(after)
	}
	if r.verbosity.atLeast(VerbosityBasic) {
		if diff := ComputeDiff(exec.before, after); !diff.IsEmpty() {
			stepRecord.Diff = diff
		}
		exec.before = nil
	}

	telemetry.StepsTotal.WithLabelValues(stepRecord.Type, string(stepRecord.Status)).Inc()
	telemetry.StepDuration.WithLabelValues(stepRecord.Type).
		Observe(finished.Sub(stepRecord.StartedAt).Seconds())
}

// FinishScenario финализирует запись: статус, агрегаты, сохранение в Sink.
func (r *Recorder) FinishScenario(ctx context.Context, executionID uuid.UUID, status domain.ExecutionStatus, final map[string]any) {
	r.mu.Lock()
	exec, ok := r.active[executionID]
	delete(r.active, executionID)
	r.mu.Unlock()

	if !ok {
		return
	}

	record := exec.record
	finished := r.now()
	record.FinishedAt = &finished
	record.Status = status

	if r.verbosity.atLeast(VerbosityBasic) {
		record.FinalContext = SafeSnapshot(final)
	}

	record.Metrics = computeMetrics(record)

	telemetry.ExecutionsTotal.WithLabelValues(string(status)).Inc()
	telemetry.ExecutionDuration.Observe(record.Duration().Seconds())

	if r.sink != nil {
		if err := r.sink.SaveExecution(ctx, record); err != nil {
			// Наблюдатель не влияет на выполнение: только логируем
			r.logger.Error("failed to save execution record",
				"execution_id", executionID,
				"scenario_id", record.ScenarioID,
				"error", err,
			)
		}
	}
}

// ActiveCount возвращает количество незавершённых записей.
func (r *Recorder) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// computeMetrics вычисляет агрегаты по записям шагов.
func computeMetrics(record *domain.ExecutionRecord) *domain.ExecutionMetrics {
	metrics := &domain.ExecutionMetrics{
		DurationMS: record.Duration().Milliseconds(),
		StepCount:  len(record.Steps),
	}

	if len(record.Steps) == 0 {
		return metrics
	}

	var succeeded int
	var slowest, fastest *domain.StepRecord

	for i := range record.Steps {
		step := &record.Steps[i]

		if step.Status == domain.StepStatusSucceeded {
			succeeded++
		}

		if step.FinishedAt == nil {
			continue
		}
		if slowest == nil || step.DurationMS > slowest.DurationMS {
			slowest = step
		}
		if fastest == nil || step.DurationMS < fastest.DurationMS {
			fastest = step
		}
	}

	metrics.SuccessRate = float64(succeeded) / float64(len(record.Steps)) * 100

	if slowest != nil {
		metrics.SlowestStep = slowest.StepID
	}
	if fastest != nil {
		metrics.FastestStep = fastest.StepID
	}

	return metrics
}
