// Package api реализует HTTP API сервера.
//
// Маршруты:
//   - /api/v1/scenarios  — CRUD определений сценариев
//   - /api/v1/executions — синхронный запуск и записи выполнений
//   - /api/v1/channels   — управление каналами (reload, stop, ротация
//     credential)
//   - /healthz, /metrics — состояние сервиса и метрики Prometheus
//
// Ошибки хранилища и менеджера каналов транслируются в HTTP коды через
// HandleStoreError; все ответы — JSON с конвертами data/error.
package api
