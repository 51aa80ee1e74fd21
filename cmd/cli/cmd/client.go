package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"kitchenline/pkg/api"
	"net/http"
	"time"
)

// SchedulerClient handles API calls to the kitchenline scheduler.
type SchedulerClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSchedulerClient creates a new client with the given base URL.
func NewSchedulerClient(baseURL string) *SchedulerClient {
	return &SchedulerClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Status sends GET /scheduler/status to retrieve the driver state.
func (c *SchedulerClient) Status() (*api.SchedulerStatusResponse, error) {
	var result api.SchedulerStatusResponse
	if err := c.get("/scheduler/status", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Evaluate sends POST /scheduler/evaluate to run an admission pass now.
func (c *SchedulerClient) Evaluate() (*api.EvaluateResponse, error) {
	httpReq, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/scheduler/evaluate", c.BaseURL), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var result api.EvaluateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}

// UpdateInterval sends PUT /scheduler/interval to change the tick cadence.
func (c *SchedulerClient) UpdateInterval(seconds int) error {
	bodyBytes, err := json.Marshal(api.UpdateIntervalRequest{Seconds: seconds})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/scheduler/interval", c.BaseURL), bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	return nil
}

// LateOrders sends GET /orders/late to list overdue preparations.
func (c *SchedulerClient) LateOrders() (*api.LateOrdersResponse, error) {
	var result api.LateOrdersResponse
	if err := c.get("/orders/late", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delay sends GET /scheduler/delay to fetch the predicted queueing delay.
func (c *SchedulerClient) Delay() (*api.DelayEstimateResponse, error) {
	var result api.DelayEstimateResponse
	if err := c.get("/scheduler/delay", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *SchedulerClient) get(path string, out any) error {
	httpReq, err := http.NewRequest(http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
