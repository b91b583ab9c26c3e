// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Exchanges:
//   - scenarist.events  — входящие события каналов; очереди каналов
//     объявляются динамически при загрузке канала
//   - scenarist.results — события о завершённых выполнениях
//   - scenarist.dlq     — dead letter queue
//
// Тело входящего события — произвольный JSON объект: он становится
// начальным контекстом выполнения сценария.
package mq
