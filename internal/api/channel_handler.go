package api

import (
	"encoding/json"
	"net/http"

	"github.com/mkovrov/scenarist/internal/domain"
	"github.com/mkovrov/scenarist/internal/store"
)

// ListChannels возвращает список каналов с их состояниями.
// GET /api/v1/channels
func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.Find(r.Context(), store.CollectionChannels, store.Filter{})
	if HandleStoreError(w, h.logger, err, "") {
		return
	}

	result := make([]ChannelResponse, 0, len(docs))
	for _, doc := range docs {
		ch, err := domain.ChannelFromDocument(doc)
		if err != nil {
			h.logger.Warn("skipping malformed channel record", "error", err)
			continue
		}
		result = append(result, ChannelFromDomain(ch, h.manager.State(ch.ChannelID)))
	}

	List(w, result, len(result))
}

// ReloadChannels перезагружает все каналы из хранилища.
// POST /api/v1/channels/reload
func (h *Handler) ReloadChannels(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.ReloadChannels(r.Context()); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, map[string]any{"channels": h.manager.ChannelIDs()})
}

// StopChannel останавливает слушатель одного канала.
// POST /api/v1/channels/{id}/stop
func (h *Handler) StopChannel(w http.ResponseWriter, r *http.Request) {
	channelID := r.PathValue("id")

	err := h.manager.StopChannel(r.Context(), channelID)
	if HandleStoreError(w, h.logger, err, "channel not found") {
		return
	}

	Success(w, map[string]any{
		"channel_id": channelID,
		"state":      string(h.manager.State(channelID)),
	})
}

// RotateCredential обновляет credential канала и перезапускает только
// его слушатель.
// POST /api/v1/channels/{id}/rotate
func (h *Handler) RotateCredential(w http.ResponseWriter, r *http.Request) {
	channelID := r.PathValue("id")

	var req RotateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Credential == "" {
		BadRequest(w, "credential is required")
		return
	}

	doc, err := h.store.FindOne(r.Context(), store.CollectionChannels,
		store.Filter{"channel_id": channelID})
	if HandleStoreError(w, h.logger, err, "channel not found") {
		return
	}

	ch, err := domain.ChannelFromDocument(doc)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}
	ch.Transport.Credential = req.Credential

	updated, err := ch.Document()
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	err = h.store.UpdateOne(r.Context(), store.CollectionChannels,
		store.Filter{"channel_id": channelID}, updated)
	if HandleStoreError(w, h.logger, err, "channel not found") {
		return
	}

	if err := h.manager.UpdateChannel(r.Context(), channelID); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, ChannelFromDomain(ch, h.manager.State(channelID)))
}

// Healthz возвращает состояние сервиса и healthcheck плагинов.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	plugins := h.engine.Healthcheck(r.Context())

	healthy := true
	for _, ok := range plugins {
		if !ok {
			healthy = false
			break
		}
	}

	status := http.StatusOK
	resp := HealthResponse{Status: "ok", Plugins: plugins}
	if !healthy {
		status = http.StatusServiceUnavailable
		resp.Status = "degraded"
	}

	JSON(w, status, resp)
}
