package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// ScenarioResponse — сценарий из API.
type ScenarioResponse struct {
	ScenarioID     string           `json:"scenario_id"`
	Name           string           `json:"name,omitempty"`
	Steps          []map[string]any `json:"steps"`
	InitialContext map[string]any   `json:"initial_context,omitempty"`
}

// ExecuteResponse — результат выполнения сценария из API.
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

// ExecutionResponse — запись выполнения из API.
type ExecutionResponse struct {
	ExecutionID string           `json:"execution_id"`
	ScenarioID  string           `json:"scenario_id"`
	ChannelID   string           `json:"channel_id,omitempty"`
	Status      string           `json:"status"`
	StartedAt   string           `json:"started_at"`
	FinishedAt  string           `json:"finished_at,omitempty"`
	Error       string           `json:"error,omitempty"`
	Steps       []map[string]any `json:"steps,omitempty"`
	Metrics     map[string]any   `json:"metrics,omitempty"`
}

// ChannelResponse — канал из API.
type ChannelResponse struct {
	ChannelID  string `json:"channel_id"`
	ScenarioID string `json:"scenario_id"`
	Transport  string `json:"transport"`
	State      string `json:"state"`
}

// --- Request types ---

// ExecuteRequest — запуск сценария.
type ExecuteRequest struct {
	ScenarioID string         `json:"scenario_id,omitempty"`
	Scenario   map[string]any `json:"scenario,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

// ListExecutionsOpts — параметры фильтрации выполнений.
type ListExecutionsOpts struct {
	ScenarioID string
	Status     string
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Scenarist API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Scenarios ---

// ListScenarios возвращает все сценарии.
func (c *Client) ListScenarios() ([]ScenarioResponse, error) {
	var scenarios []ScenarioResponse
	err := c.list("/api/v1/scenarios", nil, &scenarios)
	return scenarios, err
}

// CreateScenario сохраняет сценарий.
func (c *Client) CreateScenario(scenario json.RawMessage) (*ScenarioResponse, error) {
	var result ScenarioResponse
	err := c.post("/api/v1/scenarios", scenario, &result)
	return &result, err
}

// GetScenario возвращает сценарий по ID.
func (c *Client) GetScenario(id string) (*ScenarioResponse, error) {
	var scenario ScenarioResponse
	err := c.get("/api/v1/scenarios/"+id, &scenario)
	return &scenario, err
}

// DeleteScenario удаляет сценарий.
func (c *Client) DeleteScenario(id string) error {
	return c.delete("/api/v1/scenarios/" + id)
}

// --- Executions ---

// Execute синхронно выполняет сценарий.
func (c *Client) Execute(req ExecuteRequest) (*ExecuteResponse, error) {
	var result ExecuteResponse
	err := c.post("/api/v1/executions", req, &result)
	return &result, err
}

// ListExecutions возвращает записи выполнений с фильтрацией.
func (c *Client) ListExecutions(opts ListExecutionsOpts) ([]ExecutionResponse, error) {
	params := url.Values{}
	if opts.ScenarioID != "" {
		params.Set("scenario_id", opts.ScenarioID)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}

	var executions []ExecutionResponse
	err := c.list("/api/v1/executions", params, &executions)
	return executions, err
}

// GetExecution возвращает запись выполнения по ID.
func (c *Client) GetExecution(id string) (*ExecutionResponse, error) {
	var execution ExecutionResponse
	err := c.get("/api/v1/executions/"+id, &execution)
	return &execution, err
}

// --- Channels ---

// ListChannels возвращает каналы с их состояниями.
func (c *Client) ListChannels() ([]ChannelResponse, error) {
	var channels []ChannelResponse
	err := c.list("/api/v1/channels", nil, &channels)
	return channels, err
}

// ReloadChannels перезагружает все каналы.
func (c *Client) ReloadChannels() error {
	return c.post("/api/v1/channels/reload", nil, nil)
}

// StopChannel останавливает слушатель канала.
func (c *Client) StopChannel(id string) error {
	return c.post("/api/v1/channels/"+id+"/stop", nil, nil)
}

// RotateCredential обновляет credential канала.
func (c *Client) RotateCredential(id, credential string) (*ChannelResponse, error) {
	body := map[string]string{"credential": credential}
	var channel ChannelResponse
	err := c.post("/api/v1/channels/"+id+"/rotate", body, &channel)
	return &channel, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
