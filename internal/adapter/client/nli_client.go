package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/egmaziero/ktrain/internal/domain/service"
	"github.com/egmaziero/ktrain/internal/ml/zeroshot"
)

// NLIRequest represents an inference request for premise/hypothesis pairs.
type NLIRequest struct {
	Model     string          `json:"model"`
	Pairs     []zeroshot.Pair `json:"pairs"`
	RequestID string          `json:"request_id,omitempty"`
}

// NLIResponse carries one logit row per pair. Labels names the columns.
type NLIResponse struct {
	Success   bool        `json:"success"`
	Logits    [][]float64 `json:"logits"`
	Labels    []string    `json:"labels"`
	Model     string      `json:"model"`
	RequestID string      `json:"request_id,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// LoadModelRequest asks the service to load a model.
type LoadModelRequest struct {
	Model string `json:"model"`
}

// LoadModelResponse reports a model load.
type LoadModelResponse struct {
	Success bool   `json:"success"`
	Model   string `json:"model"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Model       string `json:"model"`
}

// NLIClient is an HTTP client for the NLI inference service.
type NLIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNLIClient creates a new inference service client.
func NewNLIClient(baseURL string, timeout time.Duration) *NLIClient {
	return &NLIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Infer returns logits for every pair.
func (c *NLIClient) Infer(ctx context.Context, model string, pairs []zeroshot.Pair, requestID string) (*NLIResponse, error) {
	var result NLIResponse
	err := c.postJSON(ctx, "/v1/nli", NLIRequest{Model: model, Pairs: pairs, RequestID: requestID}, &result)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("NLI service rejected request: %s", result.Error)
	}
	return &result, nil
}

// LoadModel asks the service to load model.
func (c *NLIClient) LoadModel(ctx context.Context, model string) error {
	var result LoadModelResponse
	if err := c.postJSON(ctx, "/v1/models/load", LoadModelRequest{Model: model}, &result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("NLI service failed to load %s: %s", model, result.Error)
	}
	return nil
}

// Health checks the inference service health.
func (c *NLIClient) Health(ctx context.Context) (*service.InferenceStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NLI service returned status %d", resp.StatusCode)
	}

	var result HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &service.InferenceStatus{
		Status:      result.Status,
		ModelLoaded: result.ModelLoaded,
		Model:       result.Model,
	}, nil
}

// Ready checks if the inference service is ready.
func (c *NLIClient) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ready", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("NLI service not ready: status %d", resp.StatusCode)
	}

	return nil
}

func (c *NLIClient) postJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("NLI service returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("NLI service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
