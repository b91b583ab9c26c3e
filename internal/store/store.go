package store

import (
	"context"
	"errors"
)

// Имена коллекций, используемые системой.
const (
	// CollectionScenarios — определения сценариев.
	CollectionScenarios = "scenarios"

	// CollectionChannels — записи каналов.
	CollectionChannels = "channels"

	// CollectionExecutions — финализированные записи выполнений.
	CollectionExecutions = "executions"
)

// Ошибки хранилища.
var (
	// ErrNotFound — документ не найден.
	ErrNotFound = errors.New("document not found")
)

// Filter — фильтр по полям документа (совпадение по равенству).
type Filter map[string]any

// Store — обобщённый контракт документного хранилища.
//
// Ядро движка само ничего не персистит: хранилище потребляют менеджер
// каналов, Execution Logger и плагин storage. Документы — произвольные
// JSON-подобные map, коллекции именуются строками.
type Store interface {
	// FindOne возвращает первый документ коллекции, совпавший с фильтром.
	// Возвращает ErrNotFound, если совпадений нет.
	FindOne(ctx context.Context, collection string, filter Filter) (map[string]any, error)

	// Find возвращает документы коллекции, совпавшие с фильтром.
	// Отсутствие совпадений — не ошибка: возвращается пустой срез.
	Find(ctx context.Context, collection string, filter Filter) ([]map[string]any, error)

	// InsertOne добавляет документ в коллекцию.
	InsertOne(ctx context.Context, collection string, doc map[string]any) error

	// UpdateOne обновляет первый совпавший документ, сливая update
	// поверх существующих полей. Возвращает ErrNotFound, если
	// совпадений нет.
	UpdateOne(ctx context.Context, collection string, filter Filter, update map[string]any) error

	// DeleteOne удаляет первый совпавший документ.
	// Возвращает ErrNotFound, если совпадений нет.
	DeleteOne(ctx context.Context, collection string, filter Filter) error
}
