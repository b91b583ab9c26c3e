package channel

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mkovrov/scenarist/internal/domain"
	"github.com/mkovrov/scenarist/internal/engine"
	"github.com/mkovrov/scenarist/internal/store"
)

// fakeStore — хранилище в памяти с фильтрацией по подмножеству полей.
type fakeStore struct {
	docs map[string][]map[string]any
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string][]map[string]any)}
}

func (s *fakeStore) add(collection string, doc map[string]any) {
	s.docs[collection] = append(s.docs[collection], doc)
}

func matches(doc map[string]any, filter store.Filter) bool {
	for k, v := range filter {
		if doc[k] != v {
			return false
		}
	}
	return true
}

func (s *fakeStore) FindOne(_ context.Context, collection string, filter store.Filter) (map[string]any, error) {
	for _, doc := range s.docs[collection] {
		if matches(doc, filter) {
			return doc, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeStore) Find(_ context.Context, collection string, filter store.Filter) ([]map[string]any, error) {
	var result []map[string]any
	for _, doc := range s.docs[collection] {
		if matches(doc, filter) {
			result = append(result, doc)
		}
	}
	return result, nil
}

func (s *fakeStore) InsertOne(_ context.Context, collection string, doc map[string]any) error {
	s.add(collection, doc)
	return nil
}

func (s *fakeStore) UpdateOne(_ context.Context, collection string, filter store.Filter, update map[string]any) error {
	for _, doc := range s.docs[collection] {
		if matches(doc, filter) {
			for k, v := range update {
				doc[k] = v
			}
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *fakeStore) DeleteOne(_ context.Context, collection string, filter store.Filter) error {
	for i, doc := range s.docs[collection] {
		if matches(doc, filter) {
			s.docs[collection] = append(s.docs[collection][:i], s.docs[collection][i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// fakeSource — управляемый из теста источник событий.
type fakeSource struct {
	events chan map[string]any
}

func newFakeSource() *fakeSource {
	return &fakeSource{events: make(chan map[string]any)}
}

func (s *fakeSource) Run(ctx context.Context, emit EmitFunc) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case payload := <-s.events:
			emit(ctx, InboundEvent{Payload: payload, ReceivedAt: time.Now()})
		}
	}
}

// recordPlugin пишет channel_id каждого выполнения в канал теста.
type recordPlugin struct {
	executed chan string
}

func (p *recordPlugin) Name() string { return "record" }

func (p *recordPlugin) Handlers() map[string]engine.HandlerFunc {
	return map[string]engine.HandlerFunc{
		"record": func(_ context.Context, _ *domain.Step, ec *engine.Context) (*engine.HandlerResult, error) {
			p.executed <- ec.GetString("channel_id")
			return &engine.HandlerResult{Context: ec}, nil
		},
	}
}

func (p *recordPlugin) Initialize(context.Context) error { return nil }
func (p *recordPlugin) Healthcheck(context.Context) bool { return true }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func queueChannelDoc(channelID, scenarioID string) map[string]any {
	return map[string]any{
		"channel_id":  channelID,
		"scenario_id": scenarioID,
		"transport": map[string]any{
			"kind":       domain.TransportQueue,
			"credential": "token-" + channelID,
		},
	}
}

func recordScenarioDoc(scenarioID string) map[string]any {
	return map[string]any{
		"scenario_id": scenarioID,
		"steps": []any{
			map[string]any{"id": "start", "type": "start", "next_step": "rec"},
			map[string]any{"id": "rec", "type": "record", "next_step": "finish"},
			map[string]any{"id": "finish", "type": "end"},
		},
	}
}

// testManager собирает менеджер с фабрикой, раздающей заготовленные
// источники по channel_id.
func testManager(t *testing.T, st store.Store, sources map[string]*fakeSource) (*Manager, chan string) {
	t.Helper()

	plugin := &recordPlugin{executed: make(chan string, 16)}
	eng := engine.New(engine.Config{Logger: testLogger()})
	if err := eng.RegisterPlugin(plugin); err != nil {
		t.Fatalf("register plugin: %v", err)
	}

	m := NewManager(Config{
		Store:  st,
		Engine: eng,
		SourceFactory: func(ch *domain.Channel) (EventSource, error) {
			source, ok := sources[ch.ChannelID]
			if !ok {
				return nil, errors.New("no source for channel")
			}
			return source, nil
		},
		Logger:      testLogger(),
		StopTimeout: 2 * time.Second,
	})

	return m, plugin.executed
}

func waitExecution(t *testing.T, executed chan string, wantChannel string) {
	t.Helper()
	select {
	case got := <-executed:
		if got != wantChannel {
			t.Fatalf("executed for channel %q, want %q", got, wantChannel)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for execution on channel %q", wantChannel)
	}
}

func TestManagerStopChannelLeavesOthersPolling(t *testing.T) {
	st := newFakeStore()
	st.add(store.CollectionChannels, queueChannelDoc("ch-x", "sc-1"))
	st.add(store.CollectionChannels, queueChannelDoc("ch-y", "sc-1"))
	st.add(store.CollectionScenarios, recordScenarioDoc("sc-1"))

	sources := map[string]*fakeSource{
		"ch-x": newFakeSource(),
		"ch-y": newFakeSource(),
	}
	m, executed := testManager(t, st, sources)

	ctx := context.Background()
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer m.StopAllPolling(ctx)

	if got := m.State("ch-x"); got != domain.ChannelStatePolling {
		t.Fatalf("ch-x state = %s, want %s", got, domain.ChannelStatePolling)
	}

	// Останавливаем X; слушатель Y должен остаться жив
	if err := m.StopChannel(ctx, "ch-x"); err != nil {
		t.Fatalf("stop ch-x: %v", err)
	}

	if got := m.State("ch-x"); got != domain.ChannelStateUnloaded {
		t.Errorf("ch-x state after stop = %s, want %s", got, domain.ChannelStateUnloaded)
	}
	if got := m.State("ch-y"); got != domain.ChannelStatePolling {
		t.Errorf("ch-y state after stopping ch-x = %s, want %s", got, domain.ChannelStatePolling)
	}

	// Y продолжает обрабатывать события
	sources["ch-y"].events <- map[string]any{"text": "ping"}
	waitExecution(t, executed, "ch-y")
}

func TestManagerInitFailureIsolated(t *testing.T) {
	st := newFakeStore()
	// Канал без credential не стартует
	st.add(store.CollectionChannels, map[string]any{
		"channel_id":  "ch-bad",
		"scenario_id": "sc-1",
		"transport":   map[string]any{"kind": domain.TransportQueue},
	})
	st.add(store.CollectionChannels, queueChannelDoc("ch-good", "sc-1"))
	st.add(store.CollectionScenarios, recordScenarioDoc("sc-1"))

	sources := map[string]*fakeSource{"ch-good": newFakeSource()}
	m, executed := testManager(t, st, sources)

	ctx := context.Background()
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer m.StopAllPolling(ctx)

	if got := m.State("ch-bad"); got != domain.ChannelStateUnloaded {
		t.Errorf("ch-bad state = %s, want %s", got, domain.ChannelStateUnloaded)
	}
	if got := m.State("ch-good"); got != domain.ChannelStatePolling {
		t.Errorf("ch-good state = %s, want %s", got, domain.ChannelStatePolling)
	}

	sources["ch-good"].events <- map[string]any{}
	waitExecution(t, executed, "ch-good")
}

func TestManagerUpdateChannelRestartsOnlyThatChannel(t *testing.T) {
	st := newFakeStore()
	st.add(store.CollectionChannels, queueChannelDoc("ch-x", "sc-1"))
	st.add(store.CollectionChannels, queueChannelDoc("ch-y", "sc-1"))
	st.add(store.CollectionScenarios, recordScenarioDoc("sc-1"))

	sources := map[string]*fakeSource{
		"ch-x": newFakeSource(),
		"ch-y": newFakeSource(),
	}
	m, executed := testManager(t, st, sources)

	ctx := context.Background()
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer m.StopAllPolling(ctx)

	// Ротация credential канала X
	if err := st.UpdateOne(ctx, store.CollectionChannels,
		store.Filter{"channel_id": "ch-x"},
		map[string]any{"transport": map[string]any{
			"kind":       domain.TransportQueue,
			"credential": "rotated",
		}},
	); err != nil {
		t.Fatalf("update store: %v", err)
	}

	if err := m.UpdateChannel(ctx, "ch-x"); err != nil {
		t.Fatalf("update channel: %v", err)
	}

	if got := m.State("ch-x"); got != domain.ChannelStatePolling {
		t.Errorf("ch-x state after update = %s, want %s", got, domain.ChannelStatePolling)
	}

	// Оба канала продолжают обрабатывать события
	sources["ch-x"].events <- map[string]any{}
	waitExecution(t, executed, "ch-x")
	sources["ch-y"].events <- map[string]any{}
	waitExecution(t, executed, "ch-y")
}

func TestManagerReloadChannels(t *testing.T) {
	st := newFakeStore()
	st.add(store.CollectionChannels, queueChannelDoc("ch-x", "sc-1"))
	st.add(store.CollectionScenarios, recordScenarioDoc("sc-1"))

	sources := map[string]*fakeSource{"ch-x": newFakeSource()}
	m, executed := testManager(t, st, sources)

	ctx := context.Background()
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if err := m.ReloadChannels(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	defer m.StopAllPolling(ctx)

	if got := len(m.ChannelIDs()); got != 1 {
		t.Fatalf("channels after reload = %d, want 1", got)
	}

	sources["ch-x"].events <- map[string]any{}
	waitExecution(t, executed, "ch-x")
}

func TestManagerHandleEventScenarioMissing(t *testing.T) {
	st := newFakeStore()
	st.add(store.CollectionChannels, queueChannelDoc("ch-x", "sc-absent"))

	sources := map[string]*fakeSource{"ch-x": newFakeSource()}
	m, _ := testManager(t, st, sources)

	ctx := context.Background()
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer m.StopAllPolling(ctx)

	// Сценарий не найден: событие логируется, слушатель жив
	sources["ch-x"].events <- map[string]any{}

	time.Sleep(50 * time.Millisecond)
	if got := m.State("ch-x"); got != domain.ChannelStatePolling {
		t.Errorf("ch-x state = %s, want %s", got, domain.ChannelStatePolling)
	}
}

func TestValidateTransport(t *testing.T) {
	tests := []struct {
		name      string
		transport domain.TransportConfig
		wantErr   error
	}{
		{"queue with credential", domain.TransportConfig{Kind: domain.TransportQueue, Credential: "t"}, nil},
		{"queue without credential", domain.TransportConfig{Kind: domain.TransportQueue}, ErrMissingCredential},
		{"cron with expr", domain.TransportConfig{Kind: domain.TransportCron, CronExpr: "* * * * *"}, nil},
		{"unknown kind", domain.TransportConfig{Kind: "carrier-pigeon"}, ErrUnknownTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTransport(&tt.transport)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
