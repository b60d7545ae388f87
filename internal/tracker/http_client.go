package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/Demandflow/DemandSync/internal/errors"
)

// HTTPClient talks to the external tracker's REST API. Every call is bounded
// by the configured timeout; a timeout surfaces as ErrExternalService like
// any other transport failure.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s payload: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, apperrors.ErrExternalService)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s: %w",
			method, path, resp.StatusCode, string(raw), apperrors.ErrExternalService)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %v: %w", method, path, err, apperrors.ErrExternalService)
	}
	return nil
}

func (c *HTTPClient) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodGet, "/task/"+taskID, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) CreateTask(ctx context.Context, listID string, req *TaskRequest) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodPost, "/list/"+listID+"/task", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) UpdateTask(ctx context.Context, taskID string, req *TaskRequest) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodPut, "/task/"+taskID, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) ListTasks(ctx context.Context, listID string) ([]Task, error) {
	var out struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/list/"+listID+"/task", nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

func (c *HTTPClient) CreateComment(ctx context.Context, taskID, comment string) error {
	payload := map[string]string{"comment_text": comment}
	return c.do(ctx, http.MethodPost, "/task/"+taskID+"/comment", payload, nil)
}

func (c *HTTPClient) CreateWebhook(ctx context.Context, spaceID, endpoint string, events []string) error {
	payload := map[string]any{
		"endpoint": endpoint,
		"events":   events,
	}
	return c.do(ctx, http.MethodPost, "/team/"+spaceID+"/webhook", payload, nil)
}
