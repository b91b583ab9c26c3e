// Package cli реализует инструмент командной строки Scenarist.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Scenarist API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления сценариями, каналами и просмотра
// записей выполнений.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Scenarist API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	scenarios, err := client.ListScenarios()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: scenarist scenario list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - scenario:  list, create, show, delete, execute
//   - execution: list, show
//   - channel:   list, reload, stop, rotate
//
// Каждая группа создаётся через фабричную функцию (NewScenarioCmd и
// т.д.), принимающую clientFn и outputFn — замыкания для ленивого
// создания Client и Output после парсинга PersistentFlags.
package cli
