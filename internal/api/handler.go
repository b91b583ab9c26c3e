package api

import (
	"log/slog"

	"github.com/mkovrov/scenarist/internal/channel"
	"github.com/mkovrov/scenarist/internal/engine"
	"github.com/mkovrov/scenarist/internal/store"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	store   store.Store
	engine  *engine.Engine
	manager *channel.Manager
	logger  *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Store   store.Store
	Engine  *engine.Engine
	Manager *channel.Manager
	Logger  *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		store:   cfg.Store,
		engine:  cfg.Engine,
		manager: cfg.Manager,
		logger:  cfg.Logger,
	}
}
