package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mkovrov/scenarist/internal/domain"
	"github.com/mkovrov/scenarist/internal/engine"
	"github.com/mkovrov/scenarist/internal/mq"
	"github.com/mkovrov/scenarist/internal/store"
	"github.com/mkovrov/scenarist/internal/telemetry"
)

// ResultPublisher публикует события о завершённых выполнениях.
type ResultPublisher interface {
	PublishExecutionFinished(ctx context.Context, payload mq.ExecutionFinishedPayload) error
}

// Config — конфигурация Manager.
type Config struct {
	// Store — хранилище записей каналов и сценариев.
	Store store.Store

	// Engine — движок выполнения сценариев.
	Engine *engine.Engine

	// SourceFactory — фабрика источников событий.
	SourceFactory SourceFactory

	// Publisher — публикация событий о завершённых выполнениях (опционально).
	Publisher ResultPublisher

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger

	// StopTimeout — таймаут ожидания выхода задачи-слушателя (default: 10s).
	StopTimeout time.Duration

	// MaxConcurrent — лимит одновременных выполнений сценариев по всем
	// каналам. 0 (по умолчанию) — без лимита: каждый всплеск событий
	// порождает по выполнению на событие.
	MaxConcurrent int
}

// managedChannel — канал под управлением менеджера.
type managedChannel struct {
	channel *domain.Channel
	state   domain.ChannelState
	cancel  context.CancelFunc
	done    chan struct{}
}

// Manager — менеджер жизненного цикла каналов.
//
// Владеет по одной долгоживущей задаче-слушателю на канал и на каждое
// входящее событие строит свежий контекст и один раз вызывает Engine.
// Каналы изолированы: сбой или перезапуск одного канала не прерывает
// слушателей остальных.
type Manager struct {
	store         store.Store
	engine        *engine.Engine
	sourceFactory SourceFactory
	publisher     ResultPublisher
	logger        *slog.Logger
	stopTimeout   time.Duration

	// semaphore ограничивает одновременные выполнения; nil — без лимита.
	semaphore chan struct{}

	mu       sync.Mutex
	channels map[string]*managedChannel
}

// NewManager создаёт Manager.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stopTimeout := cfg.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = 10 * time.Second
	}

	var semaphore chan struct{}
	if cfg.MaxConcurrent > 0 {
		semaphore = make(chan struct{}, cfg.MaxConcurrent)
	}

	return &Manager{
		store:         cfg.Store,
		engine:        cfg.Engine,
		sourceFactory: cfg.SourceFactory,
		publisher:     cfg.Publisher,
		logger:        logger,
		stopTimeout:   stopTimeout,
		semaphore:     semaphore,
		channels:      make(map[string]*managedChannel),
	}
}

// Initialize загружает все записи каналов из хранилища и запускает
// слушателей.
//
// Ошибка запуска одного канала (ChannelInitError) логируется, канал
// остаётся в состоянии Unloaded, остальные каналы не затронуты.
// Ошибка возвращается только при недоступности хранилища.
func (m *Manager) Initialize(ctx context.Context) error {
	docs, err := m.store.Find(ctx, store.CollectionChannels, store.Filter{})
	if err != nil {
		return fmt.Errorf("load channels: %w", err)
	}

	var started, failed int
	for _, doc := range docs {
		ch, err := domain.ChannelFromDocument(doc)
		if err != nil {
			m.logger.Error("skipping malformed channel record", "error", err)
			failed++
			continue
		}

		if err := m.StartChannel(ctx, ch); err != nil {
			var initErr *ChannelInitError
			if errors.As(err, &initErr) {
				m.logger.Error("channel failed to start",
					"channel_id", initErr.ChannelID,
					"error", initErr.Err,
				)
				failed++
				continue
			}
			return err
		}
		started++
	}

	m.logger.Info("channel manager initialized",
		"channels", len(docs),
		"started", started,
		"failed", failed,
	)

	return nil
}

// StartChannel запускает слушатель одного канала.
//
// Уже запущенный канал с тем же ID предварительно останавливается.
func (m *Manager) StartChannel(ctx context.Context, ch *domain.Channel) error {
	if err := m.StopChannel(ctx, ch.ChannelID); err != nil && !errors.Is(err, ErrChannelNotFound) {
		return err
	}

	if err := validateTransport(&ch.Transport); err != nil {
		return NewChannelInitError(ch.ChannelID, err)
	}

	source, err := m.sourceFactory(ch)
	if err != nil {
		return NewChannelInitError(ch.ChannelID, err)
	}

	listenerCtx, cancel := context.WithCancel(context.Background())
	mc := &managedChannel{
		channel: ch,
		state:   domain.ChannelStateLoading,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	m.mu.Lock()
	m.channels[ch.ChannelID] = mc
	mc.state = domain.ChannelStatePolling
	m.mu.Unlock()

	telemetry.ChannelsPolling.Inc()

	go m.runListener(listenerCtx, mc, source)

	m.logger.Info("channel started",
		"channel_id", ch.ChannelID,
		"scenario_id", ch.ScenarioID,
		"transport", ch.Transport.Kind,
	)

	return nil
}

// runListener — задача-слушатель одного канала.
func (m *Manager) runListener(ctx context.Context, mc *managedChannel, source EventSource) {
	defer close(mc.done)
	defer telemetry.ChannelsPolling.Dec()

	err := source.Run(ctx, func(eventCtx context.Context, event InboundEvent) {
		event.ChannelID = mc.channel.ChannelID
		m.handleEvent(eventCtx, mc.channel, event)
	})

	if err != nil && ctx.Err() == nil {
		m.logger.Error("channel listener failed",
			"channel_id", mc.channel.ChannelID,
			"error", err,
		)
	}

	m.mu.Lock()
	if current, ok := m.channels[mc.channel.ChannelID]; ok && current == mc {
		delete(m.channels, mc.channel.ChannelID)
	}
	m.mu.Unlock()
}

// handleEvent выполняет сценарий канала для одного входящего события.
//
// Ошибки выполнения логируются и никогда не роняют слушатель.
func (m *Manager) handleEvent(ctx context.Context, ch *domain.Channel, event InboundEvent) {
	if m.semaphore != nil {
		select {
		case m.semaphore <- struct{}{}:
			defer func() { <-m.semaphore }()
		case <-ctx.Done():
			return
		}
	}

	scenario, err := m.loadScenario(ctx, ch.ScenarioID)
	if err != nil {
		m.logger.Error("failed to load scenario for event",
			"channel_id", ch.ChannelID,
			"scenario_id", ch.ScenarioID,
			"error", err,
		)
		telemetry.ChannelEventsTotal.WithLabelValues(ch.ChannelID, "error").Inc()
		return
	}

	// Свежий контекст: тело события плюс метаданные канала
	initial := make(map[string]any, len(event.Payload)+2)
	for k, v := range event.Payload {
		initial[k] = v
	}
	initial["channel_id"] = ch.ChannelID
	initial["scenario_id"] = ch.ScenarioID

	result, err := m.engine.ExecuteScenario(ctx, scenario, engine.NewContext(initial))
	if err != nil {
		m.logger.Error("scenario execution failed",
			"channel_id", ch.ChannelID,
			"scenario_id", ch.ScenarioID,
			"error", err,
		)
		telemetry.ChannelEventsTotal.WithLabelValues(ch.ChannelID, "error").Inc()
		m.publishResult(ctx, ch, nil, err)
		return
	}

	telemetry.ChannelEventsTotal.WithLabelValues(ch.ChannelID, string(result.Status)).Inc()
	m.publishResult(ctx, ch, result, nil)
}

// loadScenario загружает определение сценария из хранилища.
func (m *Manager) loadScenario(ctx context.Context, scenarioID string) (*domain.Scenario, error) {
	doc, err := m.store.FindOne(ctx, store.CollectionScenarios, store.Filter{"scenario_id": scenarioID})
	if err != nil {
		return nil, fmt.Errorf("find scenario %s: %w", scenarioID, err)
	}

	return domain.ScenarioFromDocument(doc)
}

// publishResult публикует событие о завершённом выполнении.
func (m *Manager) publishResult(ctx context.Context, ch *domain.Channel, result *engine.Result, execErr error) {
	if m.publisher == nil {
		return
	}

	payload := mq.ExecutionFinishedPayload{
		ScenarioID: ch.ScenarioID,
		ChannelID:  ch.ChannelID,
	}

	if result != nil {
		payload.ExecutionID = result.ExecutionID
		payload.Status = string(result.Status)
		payload.FinalContext = result.Context.Values()
	} else {
		payload.Status = string(domain.ExecutionStatusError)
		payload.Error = execErr.Error()
	}

	if err := m.publisher.PublishExecutionFinished(ctx, payload); err != nil {
		m.logger.Warn("failed to publish execution result",
			"channel_id", ch.ChannelID,
			"error", err,
		)
	}
}

// StopChannel останавливает слушатель одного канала и ждёт его выхода.
//
// Остальные каналы не затронуты.
func (m *Manager) StopChannel(ctx context.Context, channelID string) error {
	m.mu.Lock()
	mc, ok := m.channels[channelID]
	if !ok {
		m.mu.Unlock()
		return ErrChannelNotFound
	}
	mc.state = domain.ChannelStateStopping
	m.mu.Unlock()

	mc.cancel()

	select {
	case <-mc.done:
	case <-time.After(m.stopTimeout):
		m.logger.Warn("channel listener did not exit before timeout", "channel_id", channelID)
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	if current, ok := m.channels[channelID]; ok && current == mc {
		delete(m.channels, channelID)
	}
	m.mu.Unlock()

	m.logger.Info("channel stopped", "channel_id", channelID)

	return nil
}

// StopAllPolling останавливает слушателей всех каналов.
func (m *Manager) StopAllPolling(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.channels))
	for id := range m.channels {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := m.StopChannel(ctx, id); err != nil && !errors.Is(err, ErrChannelNotFound) {
				m.logger.Warn("failed to stop channel", "channel_id", id, "error", err)
			}
		}(id)
	}
	wg.Wait()

	m.logger.Info("all channels stopped", "count", len(ids))
}

// ReloadChannels выполняет полный цикл stop-then-reload.
func (m *Manager) ReloadChannels(ctx context.Context) error {
	m.StopAllPolling(ctx)
	return m.Initialize(ctx)
}

// UpdateChannel перечитывает запись одного канала из хранилища и
// перезапускает только его слушатель (ротация credential).
func (m *Manager) UpdateChannel(ctx context.Context, channelID string) error {
	doc, err := m.store.FindOne(ctx, store.CollectionChannels, store.Filter{"channel_id": channelID})
	if err != nil {
		return fmt.Errorf("find channel %s: %w", channelID, err)
	}

	ch, err := domain.ChannelFromDocument(doc)
	if err != nil {
		return err
	}

	return m.StartChannel(ctx, ch)
}

// State возвращает состояние канала.
func (m *Manager) State(channelID string) domain.ChannelState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mc, ok := m.channels[channelID]; ok {
		return mc.state
	}
	return domain.ChannelStateUnloaded
}

// ChannelIDs возвращает список загруженных каналов.
func (m *Manager) ChannelIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.channels))
	for id := range m.channels {
		ids = append(ids, id)
	}
	return ids
}

// validateTransport проверяет конфигурацию транспорта перед запуском.
func validateTransport(transport *domain.TransportConfig) error {
	switch transport.Kind {
	case domain.TransportQueue:
		if transport.Credential == "" {
			return ErrMissingCredential
		}
		return nil
	case domain.TransportCron:
		if transport.CronExpr == "" {
			return fmt.Errorf("cron transport requires cron_expr")
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransport, transport.Kind)
	}
}
