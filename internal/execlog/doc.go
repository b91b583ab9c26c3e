// Package execlog реализует журнал выполнения сценариев.
//
// Recorder — чистый observer движка: собирает ExecutionRecord по
// ходу выполнения (тайминги шагов, diff контекста, снимки по уровню
// детализации), вычисляет агрегаты при финализации и сохраняет
// запись через Sink. Ошибки сериализации и сохранения никогда не
// прерывают выполнение сценария.
package execlog
