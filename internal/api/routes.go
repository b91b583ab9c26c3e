package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Scenarios
	mux.Handle("GET /api/v1/scenarios", chain(http.HandlerFunc(h.ListScenarios)))
	mux.Handle("POST /api/v1/scenarios", chain(http.HandlerFunc(h.CreateScenario)))
	mux.Handle("GET /api/v1/scenarios/{id}", chain(http.HandlerFunc(h.GetScenario)))
	mux.Handle("PUT /api/v1/scenarios/{id}", chain(http.HandlerFunc(h.UpdateScenario)))
	mux.Handle("DELETE /api/v1/scenarios/{id}", chain(http.HandlerFunc(h.DeleteScenario)))

	// Executions
	mux.Handle("POST /api/v1/executions", chain(http.HandlerFunc(h.Execute)))
	mux.Handle("GET /api/v1/executions", chain(http.HandlerFunc(h.ListExecutions)))
	mux.Handle("GET /api/v1/executions/{id}", chain(http.HandlerFunc(h.GetExecution)))

	// Channels
	mux.Handle("GET /api/v1/channels", chain(http.HandlerFunc(h.ListChannels)))
	mux.Handle("POST /api/v1/channels/reload", chain(http.HandlerFunc(h.ReloadChannels)))
	mux.Handle("POST /api/v1/channels/{id}/stop", chain(http.HandlerFunc(h.StopChannel)))
	mux.Handle("POST /api/v1/channels/{id}/rotate", chain(http.HandlerFunc(h.RotateCredential)))

	// Service
	mux.Handle("GET /healthz", http.HandlerFunc(h.Healthz))
	mux.Handle("GET /metrics", promhttp.Handler())
}
