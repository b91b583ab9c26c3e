// Package engine содержит движок выполнения сценариев.
//
// Включает:
//   - context.go  — контекст выполнения (key-value состояние сценария)
//   - template.go — разрешение плейсхолдеров {path} против контекста
//   - registry.go — реестр обработчиков шагов (плагины + встроенные типы)
//   - outcome.go  — Outcome: результат диспетчеризации как данные
//   - engine.go   — Engine: обход графа, жизненный цикл плагинов
//   - validate.go — структурная валидация сценария
//
// Шаги одного выполнения строго последовательны: каждый зависит от
// контекста, мутированного предыдущим. Конкурентность существует между
// выполнениями: у каждого свой контекст, общих мутируемых данных нет.
package engine
