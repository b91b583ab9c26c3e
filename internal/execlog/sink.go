package execlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mkovrov/scenarist/internal/domain"
	"github.com/mkovrov/scenarist/internal/store"
)

// Sink — внешний приёмник финализированных записей выполнений.
type Sink interface {
	// SaveExecution сохраняет финализированную запись.
	SaveExecution(ctx context.Context, record *domain.ExecutionRecord) error
}

// StoreSink пишет записи выполнений в документное хранилище.
type StoreSink struct {
	store store.Store
}

// NewStoreSink создаёт StoreSink.
func NewStoreSink(s store.Store) *StoreSink {
	return &StoreSink{store: s}
}

// SaveExecution сохраняет запись в коллекцию executions.
func (s *StoreSink) SaveExecution(ctx context.Context, record *domain.ExecutionRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal execution record: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("unmarshal execution record: %w", err)
	}

	if err := s.store.InsertOne(ctx, store.CollectionExecutions, doc); err != nil {
		return fmt.Errorf("save execution record: %w", err)
	}
	return nil
}
