package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChannelState — состояние канала в жизненном цикле менеджера.
//
// Переходы:
//
//	Unloaded → Loading → Polling → Stopping → Unloaded
type ChannelState string

const (
	// ChannelStateUnloaded — канал не загружен, слушатель не запущен.
	ChannelStateUnloaded ChannelState = "UNLOADED"

	// ChannelStateLoading — канал загружается из хранилища.
	ChannelStateLoading ChannelState = "LOADING"

	// ChannelStatePolling — слушатель канала запущен и принимает события.
	ChannelStatePolling ChannelState = "POLLING"

	// ChannelStateStopping — слушатель останавливается, ожидается выход задачи.
	ChannelStateStopping ChannelState = "STOPPING"
)

// Виды транспорта канала.
const (
	// TransportQueue — события приходят из очереди сообщений.
	TransportQueue = "queue"

	// TransportCron — синтетические события генерируются по расписанию.
	TransportCron = "cron"
)

// TransportConfig — конфигурация источника событий канала.
//
// Для движка непрозрачна; интерпретируется менеджером каналов.
type TransportConfig struct {
	// Kind — вид транспорта: "queue" или "cron".
	Kind string `json:"kind"`

	// Queue — имя очереди (для kind="queue"). Если пусто, используется
	// очередь по умолчанию для channel_id.
	Queue string `json:"queue,omitempty"`

	// CronExpr — cron-выражение (для kind="cron").
	CronExpr string `json:"cron_expr,omitempty"`

	// Timezone — часовой пояс для cron-выражения (IANA, default: UTC).
	Timezone string `json:"timezone,omitempty"`

	// Credential — учётные данные транспорта (токен бота и т.п.).
	// Канал без валидного credential не запускается.
	Credential string `json:"credential,omitempty"`
}

// Channel — привязка одного источника входящих событий к сценарию.
//
// Каналом владеет Channel Lifecycle Manager: он создаёт и уничтожает
// каналы при (пере)загрузке из хранилища и держит по одной долгоживущей
// задаче-слушателю на канал.
type Channel struct {
	// ChannelID — уникальный идентификатор канала.
	ChannelID string `json:"channel_id"`

	// ScenarioID — сценарий, выполняемый для каждого входящего события.
	ScenarioID string `json:"scenario_id"`

	// Transport — конфигурация источника событий.
	Transport TransportConfig `json:"transport"`

	// CreatedAt — время создания записи канала.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ChannelFromDocument восстанавливает Channel из документа хранилища.
func ChannelFromDocument(doc map[string]any) (*Channel, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal channel document: %w", err)
	}

	var channel Channel
	if err := json.Unmarshal(raw, &channel); err != nil {
		return nil, fmt.Errorf("unmarshal channel: %w", err)
	}

	return &channel, nil
}

// Document сериализует Channel в документ хранилища.
func (c *Channel) Document() (map[string]any, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal channel: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal channel document: %w", err)
	}

	return doc, nil
}
