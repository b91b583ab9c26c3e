package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/mkovrov/scenarist/internal/domain"
	"github.com/mkovrov/scenarist/internal/engine"
	"github.com/mkovrov/scenarist/internal/store"
)

// Execute синхронно выполняет сценарий.
// POST /api/v1/executions
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	scenario := req.Scenario
	if scenario == nil {
		if req.ScenarioID == "" {
			BadRequest(w, "scenario_id or scenario is required")
			return
		}

		doc, err := h.store.FindOne(r.Context(), store.CollectionScenarios,
			store.Filter{"scenario_id": req.ScenarioID})
		if HandleStoreError(w, h.logger, err, "scenario not found") {
			return
		}

		scenario, err = domain.ScenarioFromDocument(doc)
		if err != nil {
			InternalError(w, h.logger, err)
			return
		}
	}

	result, err := h.engine.ExecuteScenario(r.Context(), scenario, engine.NewContext(req.Context))
	if err != nil {
		// Невалидный сценарий — ошибка запроса, а не выполнения
		if isValidationError(err) {
			BadRequest(w, err.Error())
			return
		}

		// Выполнение состоялось и упало: success=false, ошибка в теле
		Success(w, ExecuteResponse{
			Success:    false,
			ScenarioID: scenario.ScenarioID,
			Status:     string(domain.ExecutionStatusError),
			Error:      err.Error(),
		})
		return
	}

	Success(w, ExecuteResponseFromResult(result))
}

// GetExecution возвращает запись выполнения по ID.
// GET /api/v1/executions/{id}
func (h *Handler) GetExecution(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid execution id")
		return
	}

	doc, err := h.store.FindOne(r.Context(), store.CollectionExecutions,
		store.Filter{"execution_id": id.String()})
	if HandleStoreError(w, h.logger, err, "execution not found") {
		return
	}

	Success(w, doc)
}

// ListExecutions возвращает записи выполнений с фильтрацией.
// GET /api/v1/executions?scenario_id=...&status=...
func (h *Handler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{}

	if scenarioID := r.URL.Query().Get("scenario_id"); scenarioID != "" {
		filter["scenario_id"] = scenarioID
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	docs, err := h.store.Find(r.Context(), store.CollectionExecutions, filter)
	if HandleStoreError(w, h.logger, err, "") {
		return
	}

	List(w, docs, len(docs))
}

// isValidationError сообщает, относится ли ошибка к структуре сценария.
func isValidationError(err error) bool {
	return errors.Is(err, engine.ErrNilScenario) ||
		errors.Is(err, engine.ErrEmptySteps) ||
		errors.Is(err, engine.ErrEmptyStepID) ||
		errors.Is(err, engine.ErrEmptyStepType) ||
		errors.Is(err, engine.ErrDuplicateStepID)
}
