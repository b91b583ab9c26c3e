// Package store предоставляет обобщённое документное хранилище.
//
// Контракт (store.go) — минимальный набор операций findOne/find/
// insertOne/updateOne/deleteOne над именованными коллекциями.
// Реализация (postgres.go) — одна таблица documents с JSONB и
// containment-фильтрами.
//
// Ядро движка хранилище не использует; его потребляют менеджер каналов
// (записи каналов, определения сценариев), Execution Logger (записи
// выполнений) и плагин storage.
package store
