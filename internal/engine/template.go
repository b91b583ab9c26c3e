package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
)

// placeholderRe — плейсхолдер вида {path}, где path — точечный путь
// по контексту: {user_id}, {user.profile.name}, {items.0.id}.
var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_][A-Za-z0-9_.-]*)\}`)

// Resolve подставляет значения контекста вместо плейсхолдеров {path}.
//
// На любой промах (отсутствующий ключ/индекс, проход через не-контейнер)
// исходный {path} остаётся в строке как есть, выдаётся warning.
// Разрешение никогда не возвращает ошибку — единственный режим отказа
// это частичная подстановка. Строка без плейсхолдеров возвращается
// без изменений.
func Resolve(tmpl string, c *Context) string {
	if c == nil || !placeholderRe.MatchString(tmpl) {
		return tmpl
	}

	return placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		path := match[1 : len(match)-1]

		value, ok := c.Lookup(path)
		if !ok {
			slog.Warn("template path not resolved", "path", path)
			return match
		}

		return stringify(value)
	})
}

// ResolveAny приводит нестроковый шаблон к строке и разрешает его.
func ResolveAny(tmpl any, c *Context) string {
	s, ok := tmpl.(string)
	if !ok {
		s = stringify(tmpl)
	}
	return Resolve(s, c)
}

// ResolveParams рекурсивно разрешает плейсхолдеры во всех строковых
// значениях params. Структура сохраняется, нестроковые значения
// возвращаются как есть. Исходная map не модифицируется.
func ResolveParams(params map[string]any, c *Context) map[string]any {
	if params == nil {
		return map[string]any{}
	}

	resolved := resolveValue(params, c)
	if m, ok := resolved.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// resolveValue разрешает плейсхолдеры в произвольном значении.
func resolveValue(value any, c *Context) any {
	switch v := value.(type) {
	case string:
		return Resolve(v, c)

	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[key] = resolveValue(val, c)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = resolveValue(val, c)
		}
		return result

	default:
		return value
	}
}

// stringify приводит значение контекста к строке для подстановки.
// Контейнеры сериализуются в JSON, скаляры — через стандартное
// форматирование.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case map[string]any, []any:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	default:
		return fmt.Sprintf("%v", v)
	}
}
