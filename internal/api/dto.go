package api

import (
	"github.com/mkovrov/scenarist/internal/domain"
	"github.com/mkovrov/scenarist/internal/engine"
)

// ExecuteRequest — запрос на синхронное выполнение сценария.
//
// Сценарий задаётся либо по scenario_id (загружается из хранилища),
// либо инлайн через scenario.
type ExecuteRequest struct {
	ScenarioID string           `json:"scenario_id,omitempty"`
	Scenario   *domain.Scenario `json:"scenario,omitempty"`
	Context    map[string]any   `json:"context,omitempty"`
}

// ExecuteResponse — результат синхронного выполнения сценария.
type ExecuteResponse struct {
	Success       bool           `json:"success"`
	ExecutionID   string         `json:"execution_id,omitempty"`
	ScenarioID    string         `json:"scenario_id,omitempty"`
	Status        string         `json:"status,omitempty"`
	StepsExecuted int            `json:"steps_executed,omitempty"`
	SuspendedAt   string         `json:"suspended_at,omitempty"`
	FinalContext  map[string]any `json:"final_context,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// ExecuteResponseFromResult собирает ответ из результата движка.
func ExecuteResponseFromResult(result *engine.Result) ExecuteResponse {
	return ExecuteResponse{
		Success:       true,
		ExecutionID:   result.ExecutionID.String(),
		ScenarioID:    result.ScenarioID,
		Status:        string(result.Status),
		StepsExecuted: result.StepsExecuted,
		SuspendedAt:   result.SuspendedAt,
		FinalContext:  result.Context.Values(),
	}
}

// ChannelResponse — представление канала в API.
type ChannelResponse struct {
	ChannelID  string `json:"channel_id"`
	ScenarioID string `json:"scenario_id"`
	Transport  string `json:"transport"`
	State      string `json:"state"`
}

// ChannelFromDomain собирает ChannelResponse.
func ChannelFromDomain(ch *domain.Channel, state domain.ChannelState) ChannelResponse {
	return ChannelResponse{
		ChannelID:  ch.ChannelID,
		ScenarioID: ch.ScenarioID,
		Transport:  ch.Transport.Kind,
		State:      string(state),
	}
}

// RotateCredentialRequest — запрос на ротацию credential канала.
type RotateCredentialRequest struct {
	Credential string `json:"credential"`
}

// HealthResponse — ответ /healthz.
type HealthResponse struct {
	Status  string          `json:"status"`
	Plugins map[string]bool `json:"plugins,omitempty"`
}
