// Package client is a typed HTTP client for the Calibrate API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int               `json:"-"`
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("calibrate: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("calibrate: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client calls the API. The bearer token is read from tokenFn before each request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokenFn    func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken sets a fixed bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.tokenFn = func() string { return token }
	}
}

// New creates a client for the API at baseURL, e.g. "https://api.example.com".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokenFn:    func() string { return "" },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Me returns the current user with preferences.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListTasks returns one page of tasks.
func (c *Client) ListTasks(ctx context.Context, opts ListOptions) (*TaskList, error) {
	var list TaskList
	if err := c.do(ctx, http.MethodGet, "/api/tasks", opts.values(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetTask returns one task with its subtasks.
func (c *Client) GetTask(ctx context.Context, id uint64) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", nil, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask sends a partial update. Keys present in fields are changed and a
// nil value clears the field.
func (c *Client) UpdateTask(ctx context.Context, id uint64, fields map[string]any) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodPatch, taskPath(id), nil, fields, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CompleteTask marks a task completed. A nil actual falls back to the estimate.
func (c *Client) CompleteTask(ctx context.Context, id uint64, actualMinutes *int) (*Task, error) {
	query := url.Values{}
	if actualMinutes != nil {
		query.Set("actual_time", strconv.Itoa(*actualMinutes))
	}
	var task Task
	if err := c.do(ctx, http.MethodPatch, taskPath(id)+"/complete", query, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask deletes a task and its subtasks.
func (c *Client) DeleteTask(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, nil)
}

// CompleteSubtask marks one subtask completed.
func (c *Client) CompleteSubtask(ctx context.Context, taskID, subtaskID uint64) (*Subtask, error) {
	var subtask Subtask
	path := fmt.Sprintf("%s/subtasks/%d/complete", taskPath(taskID), subtaskID)
	if err := c.do(ctx, http.MethodPatch, path, nil, nil, &subtask); err != nil {
		return nil, err
	}
	return &subtask, nil
}

// Capacity returns today's capacity status.
func (c *Client) Capacity(ctx context.Context) (*Capacity, error) {
	var status Capacity
	if err := c.do(ctx, http.MethodGet, "/api/tasks/capacity", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// WeeklyCapacity returns seven days from start (YYYY-MM-DD). An empty start
// means the current week.
func (c *Client) WeeklyCapacity(ctx context.Context, start string) (*Week, error) {
	query := url.Values{}
	if start != "" {
		query.Set("start", start)
	}
	var week Week
	if err := c.do(ctx, http.MethodGet, "/api/tasks/capacity/weekly", query, nil, &week); err != nil {
		return nil, err
	}
	return &week, nil
}

// UpdatePreferences merges fields into the stored preferences.
func (c *Client) UpdatePreferences(ctx context.Context, fields map[string]any) (*Preferences, error) {
	var prefs Preferences
	if err := c.do(ctx, http.MethodPatch, "/api/me/preferences", nil, fields, &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

func taskPath(id uint64) string {
	return "/api/tasks/" + strconv.FormatUint(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokenFn(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
