package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkovrov/scenarist/internal/domain"
	"github.com/mkovrov/scenarist/internal/engine"
	"github.com/mkovrov/scenarist/internal/store"
)

// ListScenarios возвращает список сценариев.
// GET /api/v1/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.Find(r.Context(), store.CollectionScenarios, store.Filter{})
	if HandleStoreError(w, h.logger, err, "") {
		return
	}

	List(w, docs, len(docs))
}

// CreateScenario сохраняет новый сценарий.
// POST /api/v1/scenarios
func (h *Handler) CreateScenario(w http.ResponseWriter, r *http.Request) {
	var scenario domain.Scenario
	if err := json.NewDecoder(r.Body).Decode(&scenario); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if scenario.ScenarioID == "" {
		BadRequest(w, "scenario_id is required")
		return
	}

	if err := engine.Validate(&scenario); err != nil {
		BadRequest(w, err.Error())
		return
	}

	// Дубликат по scenario_id — конфликт
	_, err := h.store.FindOne(r.Context(), store.CollectionScenarios,
		store.Filter{"scenario_id": scenario.ScenarioID})
	if err == nil {
		Conflict(w, "scenario already exists")
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		InternalError(w, h.logger, err)
		return
	}

	doc, err := scenario.Document()
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	if err := h.store.InsertOne(r.Context(), store.CollectionScenarios, doc); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, doc)
}

// GetScenario возвращает сценарий по ID.
// GET /api/v1/scenarios/{id}
func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.FindOne(r.Context(), store.CollectionScenarios,
		store.Filter{"scenario_id": r.PathValue("id")})
	if HandleStoreError(w, h.logger, err, "scenario not found") {
		return
	}

	Success(w, doc)
}

// UpdateScenario обновляет сценарий.
// PUT /api/v1/scenarios/{id}
func (h *Handler) UpdateScenario(w http.ResponseWriter, r *http.Request) {
	scenarioID := r.PathValue("id")

	var scenario domain.Scenario
	if err := json.NewDecoder(r.Body).Decode(&scenario); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	scenario.ScenarioID = scenarioID

	if err := engine.Validate(&scenario); err != nil {
		BadRequest(w, err.Error())
		return
	}

	doc, err := scenario.Document()
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	err = h.store.UpdateOne(r.Context(), store.CollectionScenarios,
		store.Filter{"scenario_id": scenarioID}, doc)
	if HandleStoreError(w, h.logger, err, "scenario not found") {
		return
	}

	Success(w, doc)
}

// DeleteScenario удаляет сценарий.
// DELETE /api/v1/scenarios/{id}
func (h *Handler) DeleteScenario(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteOne(r.Context(), store.CollectionScenarios,
		store.Filter{"scenario_id": r.PathValue("id")})
	if HandleStoreError(w, h.logger, err, "scenario not found") {
		return
	}

	NoContent(w)
}
