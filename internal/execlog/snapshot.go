package execlog

import (
	"encoding/json"
	"fmt"
)

// SafeValue возвращает значение, гарантированно сериализуемое в JSON.
// Несериализуемое значение заменяется типизированной строкой-заглушкой:
// снятие снимка никогда не прерывает логирование.
func SafeValue(value any) any {
	if value == nil {
		return nil
	}
	if _, err := json.Marshal(value); err != nil {
		return fmt.Sprintf("<unserializable: %T>", value)
	}
	return value
}

// SafeSnapshot возвращает копию map, в которой каждое несериализуемое
// значение заменено заглушкой. Используется для всех снимков контекста:
// они пересекают границу процесса (хранилище, API) и обязаны быть
// loss-tolerant.
func SafeSnapshot(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}

	snapshot := make(map[string]any, len(values))
	for k, v := range values {
		snapshot[k] = SafeValue(v)
	}
	return snapshot
}
