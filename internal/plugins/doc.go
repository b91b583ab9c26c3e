// Package plugins содержит встроенные в репозиторий плагины движка.
//
// # Обзор
//
// Плагин — поставщик обработчиков типов шагов. Каждый плагин реализует
// engine.Plugin:
//
//	type Plugin interface {
//	    Name() string
//	    Handlers() map[string]engine.HandlerFunc
//	    Initialize(ctx context.Context) error
//	    Healthcheck(ctx context.Context) bool
//	}
//
// Обработчик получает шаг и контекст выполнения, возвращает
// HandlerResult с (возможно заменённым) контекстом и опциональной
// динамической маршрутизацией через NextStepID.
//
// # Плагины
//
//   - httpcall (httpcall.go) — шаг http_request: HTTP запросы к внешним
//     API, результат в контексте под result_key
//   - storage (storage.go) — шаги db_find/db_insert/db_update/db_delete:
//     CRUD над документным хранилищем
//   - router (router.go) — шаг condition: сравнение значения из
//     контекста и выбор ветки через Outcome
//   - clock (clock.go) — шаги delay и now
//
// Параметры шагов разрешаются через шаблонизатор движка перед
// использованием: плейсхолдеры вида {path} заменяются значениями из
// контекста выполнения.
package plugins
