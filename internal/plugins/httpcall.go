package plugins

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mkovrov/scenarist/internal/domain"
	"github.com/mkovrov/scenarist/internal/engine"
)

const (
	// StepTypeHTTPRequest — тип шага HTTP запроса.
	StepTypeHTTPRequest = "http_request"

	// Значения по умолчанию.
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 10 * 1024 * 1024 // 10 MB

	// defaultHTTPResultKey — ключ контекста для ответа по умолчанию.
	defaultHTTPResultKey = "http_response"
)

// Ключи параметров HTTP шага.
const (
	paramMethod          = "method"
	paramURL             = "url"
	paramHeaders         = "headers"
	paramBody            = "body"
	paramFollowRedirects = "follow_redirects"
	paramValidateSSL     = "validate_ssl"
	paramTimeoutSec      = "timeout_sec"
	paramResultKey       = "result_key"
)

// HTTPCall — плагин HTTP запросов к внешним API.
//
// Шаг http_request выполняет запрос и кладёт результат в контекст под
// result_key (по умолчанию http_response):
//
//	{
//	    "method": "POST",
//	    "url": "https://api.example.com/users/{user.id}",
//	    "headers": {"Authorization": "Bearer {credentials.token}"},
//	    "body": {"text": "{message.text}"},
//	    "timeout_sec": 30,
//	    "result_key": "api_response"
//	}
//
// Результат: {"status_code": 200, "headers": {...}, "body": ...} —
// body парсится как JSON, если Content-Type — application/json.
type HTTPCall struct {
	client *http.Client
}

// NewHTTPCall создаёт плагин HTTP запросов.
func NewHTTPCall() *HTTPCall {
	return &HTTPCall{
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Name возвращает имя плагина.
func (p *HTTPCall) Name() string { return "httpcall" }

// Handlers возвращает обработчики плагина.
func (p *HTTPCall) Handlers() map[string]engine.HandlerFunc {
	return map[string]engine.HandlerFunc{
		StepTypeHTTPRequest: p.execute,
	}
}

// Initialize инициализирует плагин.
func (p *HTTPCall) Initialize(context.Context) error { return nil }

// Healthcheck проверяет работоспособность плагина.
func (p *HTTPCall) Healthcheck(context.Context) bool { return true }

// execute выполняет HTTP запрос.
func (p *HTTPCall) execute(ctx context.Context, step *domain.Step, ec *engine.Context) (*engine.HandlerResult, error) {
	cfg, err := p.parseParams(resolvedParams(step, ec))
	if err != nil {
		return nil, err
	}

	client := p.buildClient(cfg)

	req, err := p.buildRequest(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	result, err := p.parseResponse(resp)
	if err != nil {
		return nil, err
	}

	ec.Set(cfg.ResultKey, result)
	return &engine.HandlerResult{Context: ec}, nil
}

// httpParams — распарсенные параметры HTTP шага.
type httpParams struct {
	Method          string
	URL             string
	Headers         map[string]string
	Body            any
	FollowRedirects bool
	ValidateSSL     bool
	TimeoutSec      int
	ResultKey       string
}

// parseParams парсит параметры HTTP шага.
func (p *HTTPCall) parseParams(params map[string]any) (*httpParams, error) {
	cfg := &httpParams{
		Method:          ParamString(params, paramMethod),
		URL:             ParamString(params, paramURL),
		Headers:         ParamStringMap(params, paramHeaders),
		Body:            params[paramBody],
		FollowRedirects: ParamBool(params, paramFollowRedirects, true),
		ValidateSSL:     ParamBool(params, paramValidateSSL, true),
		TimeoutSec:      ParamInt(params, paramTimeoutSec),
		ResultKey:       ParamString(params, paramResultKey),
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: %s: url is required", ErrInvalidParams, StepTypeHTTPRequest)
	}

	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	cfg.Method = strings.ToUpper(cfg.Method)

	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}

	if cfg.ResultKey == "" {
		cfg.ResultKey = defaultHTTPResultKey
	}

	return cfg, nil
}

// buildClient создаёт HTTP клиент с нужными настройками.
func (p *HTTPCall) buildClient(cfg *httpParams) *http.Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: !cfg.ValidateSSL,
	}

	var checkRedirect func(*http.Request, []*http.Request) error
	if !cfg.FollowRedirects {
		checkRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: checkRedirect,
		Transport: &http.Transport{
			TLSClientConfig: tlsConfig,
		},
	}
}

// buildRequest создаёт HTTP запрос.
func (p *HTTPCall) buildRequest(ctx context.Context, cfg *httpParams) (*http.Request, error) {
	var bodyReader io.Reader

	if cfg.Body != nil {
		bodyBytes, err := serializeBody(cfg.Body)
		if err != nil {
			return nil, fmt.Errorf("serialize body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)

		if _, hasContentType := cfg.Headers["Content-Type"]; !hasContentType {
			cfg.Headers["Content-Type"] = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, cfg.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// serializeBody сериализует body в bytes.
func serializeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

// parseResponse парсит HTTP ответ в результат шага.
func (p *HTTPCall) parseResponse(resp *http.Response) (map[string]any, error) {
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var body any
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		if err := json.Unmarshal(bodyBytes, &body); err != nil {
			// Если не удалось распарсить JSON, возвращаем как строку
			body = string(bodyBytes)
		}
	} else {
		body = string(bodyBytes)
	}

	headers := make(map[string]string)
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        body,
	}, nil
}
