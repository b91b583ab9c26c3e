package plugins

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkovrov/scenarist/internal/domain"
	"github.com/mkovrov/scenarist/internal/engine"
	"github.com/mkovrov/scenarist/internal/store"
)

// Типы шагов плагина storage.
const (
	StepTypeDBFind   = "db_find"
	StepTypeDBInsert = "db_insert"
	StepTypeDBUpdate = "db_update"
	StepTypeDBDelete = "db_delete"
)

// Ключи параметров шагов storage.
const (
	paramCollection = "collection"
	paramFilter     = "filter"
	paramDocument   = "document"
	paramUpdate     = "update"

	// defaultDBResultKey — ключ контекста для результата по умолчанию.
	defaultDBResultKey = "db_result"
)

// Storage — плагин CRUD операций над документным хранилищем.
//
// Шаги работают с именованными коллекциями:
//
//	db_find:   {"collection": "...", "filter": {...}, "result_key": "..."}
//	db_insert: {"collection": "...", "document": {...}}
//	db_update: {"collection": "...", "filter": {...}, "update": {...}}
//	db_delete: {"collection": "...", "filter": {...}}
//
// db_find кладёт список найденных документов в контекст под result_key
// (по умолчанию db_result); отсутствие совпадений — пустой список, не
// ошибка. Остальные операции при отсутствии документа возвращают ошибку.
type Storage struct {
	store store.Store
}

// NewStorage создаёт плагин storage.
func NewStorage(st store.Store) *Storage {
	return &Storage{store: st}
}

// Name возвращает имя плагина.
func (p *Storage) Name() string { return "storage" }

// Handlers возвращает обработчики плагина.
func (p *Storage) Handlers() map[string]engine.HandlerFunc {
	return map[string]engine.HandlerFunc{
		StepTypeDBFind:   p.find,
		StepTypeDBInsert: p.insert,
		StepTypeDBUpdate: p.update,
		StepTypeDBDelete: p.delete,
	}
}

// Initialize инициализирует плагин.
func (p *Storage) Initialize(context.Context) error { return nil }

// Healthcheck проверяет доступность хранилища.
func (p *Storage) Healthcheck(ctx context.Context) bool {
	type pinger interface {
		Ping(context.Context) error
	}
	if pg, ok := p.store.(pinger); ok {
		return pg.Ping(ctx) == nil
	}
	return true
}

// find выполняет поиск документов.
func (p *Storage) find(ctx context.Context, step *domain.Step, ec *engine.Context) (*engine.HandlerResult, error) {
	params := resolvedParams(step, ec)

	collection, filter, err := collectionAndFilter(step.Type, params)
	if err != nil {
		return nil, err
	}

	docs, err := p.store.Find(ctx, collection, filter)
	if err != nil {
		return nil, fmt.Errorf("db_find %s: %w", collection, err)
	}

	resultKey := ParamString(params, paramResultKey)
	if resultKey == "" {
		resultKey = defaultDBResultKey
	}

	// Пустой результат — тоже результат
	if docs == nil {
		docs = []map[string]any{}
	}
	ec.Set(resultKey, docs)

	return &engine.HandlerResult{Context: ec}, nil
}

// insert вставляет документ.
func (p *Storage) insert(ctx context.Context, step *domain.Step, ec *engine.Context) (*engine.HandlerResult, error) {
	params := resolvedParams(step, ec)

	collection := ParamString(params, paramCollection)
	if collection == "" {
		return nil, fmt.Errorf("%w: %s: collection is required", ErrInvalidParams, step.Type)
	}

	document := ParamMap(params, paramDocument)
	if document == nil {
		return nil, fmt.Errorf("%w: %s: document is required", ErrInvalidParams, step.Type)
	}

	if err := p.store.InsertOne(ctx, collection, document); err != nil {
		return nil, fmt.Errorf("db_insert %s: %w", collection, err)
	}

	return &engine.HandlerResult{Context: ec}, nil
}

// update обновляет документ.
func (p *Storage) update(ctx context.Context, step *domain.Step, ec *engine.Context) (*engine.HandlerResult, error) {
	params := resolvedParams(step, ec)

	collection, filter, err := collectionAndFilter(step.Type, params)
	if err != nil {
		return nil, err
	}

	updateDoc := ParamMap(params, paramUpdate)
	if updateDoc == nil {
		return nil, fmt.Errorf("%w: %s: update is required", ErrInvalidParams, step.Type)
	}

	if err := p.store.UpdateOne(ctx, collection, filter, updateDoc); err != nil {
		return nil, fmt.Errorf("db_update %s: %w", collection, err)
	}

	return &engine.HandlerResult{Context: ec}, nil
}

// delete удаляет документ.
func (p *Storage) delete(ctx context.Context, step *domain.Step, ec *engine.Context) (*engine.HandlerResult, error) {
	params := resolvedParams(step, ec)

	collection, filter, err := collectionAndFilter(step.Type, params)
	if err != nil {
		return nil, err
	}

	if err := p.store.DeleteOne(ctx, collection, filter); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Удаление отсутствующего документа — no-op
			return &engine.HandlerResult{Context: ec}, nil
		}
		return nil, fmt.Errorf("db_delete %s: %w", collection, err)
	}

	return &engine.HandlerResult{Context: ec}, nil
}

// collectionAndFilter извлекает обязательные collection и filter.
func collectionAndFilter(stepType string, params map[string]any) (string, store.Filter, error) {
	collection := ParamString(params, paramCollection)
	if collection == "" {
		return "", nil, fmt.Errorf("%w: %s: collection is required", ErrInvalidParams, stepType)
	}

	filter := ParamMap(params, paramFilter)
	if filter == nil {
		return "", nil, fmt.Errorf("%w: %s: filter is required", ErrInvalidParams, stepType)
	}

	return collection, store.Filter(filter), nil
}
