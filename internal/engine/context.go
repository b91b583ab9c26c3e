package engine

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// CompletedKey — ключ контекста, которым шаг end помечает завершение сценария.
const CompletedKey = "scenario_completed"

// Context — изменяемое состояние одного выполнения сценария.
//
// Строковые ключи, динамически типизированные значения (строки, числа,
// bool, вложенные map, списки). Контекст создаётся заново на каждое
// внешнее событие, мутируется каждым обработчиком и отбрасывается после
// завершения: между конкурентными выполнениями контексты не разделяются,
// поэтому Context не нуждается в блокировках.
type Context struct {
	values map[string]any
}

// NewContext создаёт контекст с начальными значениями.
// Переданная map копируется поверхностно.
func NewContext(seed map[string]any) *Context {
	values := make(map[string]any, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &Context{values: values}
}

// Get возвращает значение по ключу.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Set устанавливает значение по ключу.
func (c *Context) Set(key string, value any) {
	c.values[key] = value
}

// Delete удаляет ключ.
func (c *Context) Delete(key string) {
	delete(c.values, key)
}

// Has проверяет наличие ключа.
func (c *Context) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Len возвращает количество ключей.
func (c *Context) Len() int {
	return len(c.values)
}

// Keys возвращает отсортированный список ключей.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetString возвращает строковое значение по ключу.
func (c *Context) GetString(key string) string {
	if v, ok := c.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetInt возвращает числовое значение по ключу.
func (c *Context) GetInt(key string) int {
	if v, ok := c.values[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}

// GetBool возвращает булево значение по ключу.
func (c *Context) GetBool(key string) bool {
	if v, ok := c.values[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// GetMap возвращает вложенную map по ключу.
func (c *Context) GetMap(key string) map[string]any {
	if v, ok := c.values[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// GetSlice возвращает список по ключу.
func (c *Context) GetSlice(key string) []any {
	if v, ok := c.values[key]; ok {
		if s, ok := v.([]any); ok {
			return s
		}
	}
	return nil
}

// Merge добавляет все пары из m в контекст, перекрывая существующие ключи.
func (c *Context) Merge(m map[string]any) {
	for k, v := range m {
		c.values[k] = v
	}
}

// SetDefault устанавливает значение только если ключ отсутствует.
func (c *Context) SetDefault(key string, value any) {
	if _, ok := c.values[key]; !ok {
		c.values[key] = value
	}
}

// MarkCompleted помечает контекст флагом завершения сценария.
func (c *Context) MarkCompleted() {
	c.values[CompletedKey] = true
}

// IsCompleted проверяет наличие флага завершения.
func (c *Context) IsCompleted() bool {
	return c.GetBool(CompletedKey)
}

// Values возвращает поверхностную копию всех значений.
// Используется для снимков: изменения копии не затрагивают контекст.
func (c *Context) Values() map[string]any {
	snapshot := make(map[string]any, len(c.values))
	for k, v := range c.values {
		snapshot[k] = v
	}
	return snapshot
}

// Clone возвращает глубокую копию контекста через JSON round-trip.
// Значения, не сериализуемые в JSON, копируются по ссылке.
func (c *Context) Clone() *Context {
	raw, err := json.Marshal(c.values)
	if err != nil {
		return NewContext(c.values)
	}

	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return NewContext(c.values)
	}

	return &Context{values: values}
}

// Lookup разрешает точечный путь вида "user.profile.name" или "items.0.id"
// против контекста. Сегмент map ищется по ключу, сегмент списка — по
// целочисленному индексу. Любой промах (отсутствующий ключ, индекс вне
// диапазона, проход через не-контейнер) возвращает (nil, false).
func (c *Context) Lookup(path string) (any, bool) {
	segments := strings.Split(path, ".")
	if len(segments) == 0 {
		return nil, false
	}

	current, ok := c.values[segments[0]]
	if !ok {
		return nil, false
	}

	for _, segment := range segments[1:] {
		switch container := current.(type) {
		case map[string]any:
			current, ok = container[segment]
			if !ok {
				return nil, false
			}

		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(container) {
				return nil, false
			}
			current = container[idx]

		default:
			// Проход через скаляр невозможен
			return nil, false
		}
	}

	return current, true
}
